package services

import (
	"sort"
	"time"
)

// Streak is the derived consecutive-day state for one (user, activity type)
// pair. It is never persisted: both fields are recomputed in full from the
// authoritative set of activity dates on every read, so the value cannot
// drift from the facts.
type Streak struct {
	Current int `json:"current"`
	Longest int `json:"longest"`
}

// ComputeStreak derives current and longest streaks from an unordered set
// of normalized activity dates. The current streak only counts when the
// most recent activity is today or yesterday; anything older means the
// chain is already broken and Current is 0 even though Longest keeps the
// historical best. Longest >= Current always holds.
func ComputeStreak(dates []time.Time, today time.Time) Streak {
	if len(dates) == 0 {
		return Streak{}
	}

	// Deduplicate on the day key, sort descending.
	seen := make(map[string]time.Time, len(dates))
	for _, d := range dates {
		seen[d.Format("2006-01-02")] = d
	}
	uniq := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		uniq = append(uniq, d)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i].After(uniq[j]) })

	var s Streak

	// Walk back from today one day at a time. The walk may start at
	// yesterday: an unbroken chain survives until the day is actually over.
	expected := today
	if !sameDay(uniq[0], today) {
		expected = today.AddDate(0, 0, -1)
	}
	for _, d := range uniq {
		if sameDay(d, expected) {
			s.Current++
			// Calendar stepping, not 24h: DST days are 23 or 25 hours long.
			expected = expected.AddDate(0, 0, -1)
			continue
		}
		break
	}

	// Longest run anywhere in history, independent of today.
	run := 1
	for i := 1; i < len(uniq); i++ {
		if sameDay(uniq[i], uniq[i-1].AddDate(0, 0, -1)) {
			run++
		} else {
			run = 1
		}
		if run > s.Longest {
			s.Longest = run
		}
	}
	if s.Longest < 1 {
		s.Longest = 1
	}
	if s.Longest < s.Current {
		s.Longest = s.Current
	}
	return s
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
