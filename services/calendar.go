package services

import (
	"fmt"
	"time"
)

// DayPolicy converts event timestamps into canonical calendar days. The
// whole engine shares one policy instance so that "same logical day" means
// the same thing at every call site; per-user zones are deliberately not
// supported (shared leaderboards need a single day boundary).
type DayPolicy struct {
	loc *time.Location
}

// NewDayPolicy builds a policy for the named IANA zone. An empty or
// unknown name falls back to UTC so the policy is always usable.
func NewDayPolicy(zone string) DayPolicy {
	if zone == "" {
		return DayPolicy{loc: time.UTC}
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return DayPolicy{loc: time.UTC}
	}
	return DayPolicy{loc: loc}
}

// Normalize truncates a timestamp to midnight of its calendar day under the
// policy zone. Deterministic and total: any two timestamps within the same
// logical day normalize to the equal time.Time, and a normalized day is a
// fixed point, so re-normalizing never shifts it.
func (p DayPolicy) Normalize(t time.Time) time.Time {
	lt := t.In(p.location())
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, p.location())
}

// ParseDay interprets a YYYY-MM-DD string as a calendar day under the
// policy zone. Parsing in any other zone would land the day on the wrong
// side of the boundary for clients west or east of it.
func (p DayPolicy) ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, p.location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

// DayKey renders the normalized day as YYYY-MM-DD, used for Redis keys and
// date-column comparisons.
func (p DayPolicy) DayKey(t time.Time) string {
	return p.Normalize(t).Format("2006-01-02")
}

// Today returns the current calendar day under the policy.
func (p DayPolicy) Today() time.Time {
	return p.Normalize(time.Now())
}

func (p DayPolicy) location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}
