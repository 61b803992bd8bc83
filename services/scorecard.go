package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomwell/bloom/models"
)

// ScorecardService rolls daily metrics up into Monday-anchored weekly
// aggregates. Scorecards are projections: recomputing one is always safe
// and always overwrites whatever was there before.
type ScorecardService struct {
	db     *gorm.DB
	policy DayPolicy
}

// NewScorecardService creates a new service instance.
func NewScorecardService(db *gorm.DB, policy DayPolicy) *ScorecardService {
	return &ScorecardService{db: db, policy: policy}
}

// WeekStartFor returns the Monday of the ISO week containing date,
// regardless of locale week-start conventions.
func WeekStartFor(date time.Time) time.Time {
	d := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	offset := int(d.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7 // Sunday rolls back to the preceding Monday
	}
	return d.AddDate(0, 0, -offset)
}

// Aggregate recomputes and upserts the scorecard for the week starting at
// weekStart. Each average covers only the days that actually logged that
// field; a field with zero samples in the week stays nil. Idempotent:
// calling it again with no new data writes an identical row.
func (s *ScorecardService) Aggregate(userID uint, weekStart time.Time) (*models.WeeklyScorecard, error) {
	weekStart = s.policy.Normalize(weekStart)
	if weekStart.Weekday() != time.Monday {
		return nil, fmt.Errorf("%w: week start %s is not a Monday", ErrInvalidInput, weekStart.Format("2006-01-02"))
	}
	weekEnd := weekStart.AddDate(0, 0, 6)

	var metrics []models.DailyMetric
	err := s.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, weekStart, weekEnd).
		Find(&metrics).Error
	if err != nil {
		return nil, fmt.Errorf("load daily metrics for user %d week %s: %w", userID, weekStart.Format("2006-01-02"), err)
	}

	card := &models.WeeklyScorecard{
		UserID:          userID,
		WeekStart:       weekStart,
		AvgMood:         meanOf(metrics, func(m models.DailyMetric) *float64 { return m.Mood }),
		AvgEnergy:       meanOf(metrics, func(m models.DailyMetric) *float64 { return m.Energy }),
		AvgStress:       meanOf(metrics, func(m models.DailyMetric) *float64 { return m.Stress }),
		AvgSleepHours:   meanOf(metrics, func(m models.DailyMetric) *float64 { return m.SleepHours }),
		AvgSleepQuality: meanOf(metrics, func(m models.DailyMetric) *float64 { return m.SleepQuality }),
	}

	var habitCount int64
	err = s.db.Model(&models.HabitCompletion{}).
		Where("user_id = ? AND completed = ? AND date >= ? AND date <= ?", userID, true, weekStart, weekEnd).
		Count(&habitCount).Error
	if err != nil {
		return nil, fmt.Errorf("count habit completions for user %d week %s: %w", userID, weekStart.Format("2006-01-02"), err)
	}
	card.TotalHabitsCompleted = int(habitCount)

	err = s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "week_start"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"avg_mood":               card.AvgMood,
			"avg_energy":             card.AvgEnergy,
			"avg_stress":             card.AvgStress,
			"avg_sleep_hours":        card.AvgSleepHours,
			"avg_sleep_quality":      card.AvgSleepQuality,
			"total_habits_completed": card.TotalHabitsCompleted,
			"updated_at":             time.Now(),
		}),
	}).Create(card).Error
	if err != nil {
		return nil, fmt.Errorf("upsert scorecard for user %d week %s: %w", userID, weekStart.Format("2006-01-02"), err)
	}
	if err := s.db.Where("user_id = ? AND week_start = ?", userID, weekStart).First(card).Error; err != nil {
		return nil, fmt.Errorf("reload scorecard for user %d week %s: %w", userID, weekStart.Format("2006-01-02"), err)
	}
	return card, nil
}

// Scorecard reads the stored aggregate for a week, recomputing it on a
// cache miss so the read path never returns stale emptiness for a week
// that has data.
func (s *ScorecardService) Scorecard(userID uint, weekStart time.Time) (*models.WeeklyScorecard, error) {
	weekStart = s.policy.Normalize(weekStart)
	var card models.WeeklyScorecard
	err := s.db.Where("user_id = ? AND week_start = ?", userID, weekStart).First(&card).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.Aggregate(userID, weekStart)
	}
	if err != nil {
		return nil, fmt.Errorf("load scorecard for user %d week %s: %w", userID, weekStart.Format("2006-01-02"), err)
	}
	return &card, nil
}

// meanOf averages a field over the rows where it is present.
func meanOf(metrics []models.DailyMetric, field func(models.DailyMetric) *float64) *float64 {
	var sum float64
	var n int
	for _, m := range metrics {
		if v := field(m); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}
