package models

import "time"

// MoodEntry stores a single mood check-in. Score is on a 1-10 scale.
type MoodEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Score     int       `gorm:"not null" json:"score"`
	Note      string    `gorm:"size:512" json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// JournalEntry stores a free-form journal entry. Content is sanitized
// before persistence.
type JournalEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:255" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MicroSession records a completed short coaching exercise (breathing,
// grounding, etc.).
type MicroSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserID          uint      `gorm:"not null;index" json:"user_id"`
	Kind            string    `gorm:"size:64;not null" json:"kind"`
	DurationSeconds int       `gorm:"not null;default:0" json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}
