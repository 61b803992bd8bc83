package models

import "time"

// Activity types that contribute to streaks and achievement counters.
const (
	ActivityMoodLog         = "mood_log"
	ActivityJournalEntry    = "journal_entry"
	ActivityHabitCompletion = "habit_completion"
	ActivityChallengeCheck  = "challenge_checkin"
	ActivityMicroSession    = "micro_session"
)

// ActivityEvent is the immutable record of a single user action. Events are
// never updated or deleted outside of full account erasure; every derived
// progress signal (streaks, achievement counters) is recomputed from them.
// EventUID is the retry idempotence key: a client that resends a submission
// with the same UID hits the unique index and the write no-ops. Server
// generates one when the client omits it.
type ActivityEvent struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EventUID     string    `gorm:"size:64;not null;uniqueIndex" json:"event_uid"`
	UserID       uint      `gorm:"not null;index:idx_events_user_type" json:"user_id"`
	ActivityType string    `gorm:"size:32;not null;index:idx_events_user_type" json:"activity_type"`
	OccurredAt   time.Time `gorm:"not null" json:"occurred_at"`
	Payload      string    `gorm:"type:text" json:"payload,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}
