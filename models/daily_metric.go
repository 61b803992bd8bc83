package models

import "time"

// DailyMetric holds one self-reported wellness snapshot per user per day.
// All measures are optional; a nil pointer means the user did not log that
// field, which is distinct from logging a zero.
type DailyMetric struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;index:idx_metric_user_date,unique" json:"user_id"`
	Date         time.Time `gorm:"type:date;not null;index:idx_metric_user_date,unique" json:"date"`
	Mood         *float64  `json:"mood,omitempty"`
	Energy       *float64  `json:"energy,omitempty"`
	Stress       *float64  `json:"stress,omitempty"`
	SleepHours   *float64  `json:"sleep_hours,omitempty"`
	SleepQuality *float64  `json:"sleep_quality,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
