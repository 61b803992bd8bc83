package utils

import (
	"time"

	"gorm.io/gorm"
)

// ScorecardRefreshFunc recomputes one user's scorecard for a week start.
type ScorecardRefreshFunc func(userID uint, weekStart time.Time) error

// StartScorecardRefresher launches a background goroutine that periodically
// recomputes the current week's scorecard for users active in the last day.
// Scorecards are projections, so the recompute is always safe; the loop is
// best-effort and logs failures. The engine itself stays request-scoped —
// this is host-application plumbing so dashboards stay warm.
func StartScorecardRefresher(db *gorm.DB, interval time.Duration, weekStart func() time.Time, refresh ScorecardRefreshFunc) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)

			var userIDs []uint
			since := time.Now().Add(-24 * time.Hour)
			err := db.Table("activity_events").
				Where("created_at >= ?", since).
				Distinct().Pluck("user_id", &userIDs).Error
			if err != nil {
				if Sugar != nil {
					Sugar.Warnf("scorecard refresher query failed: %v", err)
				}
				continue
			}

			ws := weekStart()
			for _, id := range userIDs {
				if err := refresh(id, ws); err != nil {
					if Sugar != nil {
						Sugar.Warnf("scorecard refresh failed user=%d: %v", id, err)
					}
				}
			}
		}
	}()
}
