package models

import "time"

// WeeklyScorecard is a derived aggregate, one row per (user, Monday).
// Averages are nil when the user logged no values for that field during the
// week — a missing measure is not a zero. The row is safe to delete and
// rebuild at any time from DailyMetric and HabitCompletion history.
type WeeklyScorecard struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	UserID               uint      `gorm:"not null;index:idx_scorecard_user_week,unique" json:"user_id"`
	WeekStart            time.Time `gorm:"type:date;not null;index:idx_scorecard_user_week,unique" json:"week_start"`
	AvgMood              *float64  `json:"avg_mood,omitempty"`
	AvgEnergy            *float64  `json:"avg_energy,omitempty"`
	AvgStress            *float64  `json:"avg_stress,omitempty"`
	AvgSleepHours        *float64  `json:"avg_sleep_hours,omitempty"`
	AvgSleepQuality      *float64  `json:"avg_sleep_quality,omitempty"`
	TotalHabitsCompleted int       `gorm:"not null;default:0" json:"total_habits_completed"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
