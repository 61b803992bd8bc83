package models

import "time"

// Participant status values.
const (
	ParticipantActive    = "active"
	ParticipantCompleted = "completed"
	ParticipantDropped   = "dropped"
)

// Challenge is a time-boxed group goal users can join.
type Challenge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Description string    `gorm:"size:512" json:"description"`
	StartDate   time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate     time.Time `gorm:"type:date;not null" json:"end_date"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ChallengeParticipant carries incrementally maintained counters. Unlike
// activity streaks these are not recomputed from history on read: check-ins
// are sparse and explicitly dated, so the counters are advanced in place
// under a row lock on each newly completed day.
type ChallengeParticipant struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	ChallengeID      uint      `gorm:"not null;index:idx_participant_challenge_user,unique" json:"challenge_id"`
	UserID           uint      `gorm:"not null;index:idx_participant_challenge_user,unique" json:"user_id"`
	CurrentStreak    int       `gorm:"not null;default:0" json:"current_streak"`
	BestStreak       int       `gorm:"not null;default:0" json:"best_streak"`
	TotalCompletions int       `gorm:"not null;default:0" json:"total_completions"`
	Status           string    `gorm:"size:16;not null;default:active" json:"status"`
	JoinedAt         time.Time `gorm:"not null" json:"joined_at"`
}

// ChallengeCheckin holds at most one row per participant per day.
type ChallengeCheckin struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ParticipantID uint      `gorm:"not null;index:idx_checkin_participant_date,unique" json:"participant_id"`
	Date          time.Time `gorm:"type:date;not null;index:idx_checkin_participant_date,unique" json:"date"`
	Completed     bool      `gorm:"not null;default:false" json:"completed"`
	Notes         string    `gorm:"size:512" json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
