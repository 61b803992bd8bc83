package models

import "time"

// XP transaction sources.
const (
	SourceDailyCheckin = "daily_checkin"
	SourceChallenge    = "challenge"
	SourceManual       = "manual"
)

// GamificationProfile caches the derived XP state for one user. TotalXP is
// the single source of truth here; CurrentLevel and XPToNextLevel are always
// a pure function of it and get rewritten on every award.
type GamificationProfile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	TotalXP       int       `gorm:"not null;default:0" json:"total_xp"`
	CurrentLevel  int       `gorm:"not null;default:1" json:"current_level"`
	XPToNextLevel int       `gorm:"not null;default:100" json:"xp_to_next_level"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// XpTransaction is an append-only ledger row. The sum of a user's amounts
// must always equal their profile's TotalXP. SourceID references the fact
// (metric row, session, ...) that earned the XP and backs idempotence checks.
type XpTransaction struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index:idx_xp_user_source" json:"user_id"`
	Amount      int       `gorm:"not null" json:"amount"`
	Source      string    `gorm:"size:64;not null;index:idx_xp_user_source" json:"source"`
	SourceID    *uint     `gorm:"index:idx_xp_user_source" json:"source_id,omitempty"`
	Description string    `gorm:"size:255" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AchievementAward is an append-only "has earned" fact, unique per
// (user, achievement). Concurrent duplicate inserts must no-op against the
// unique index rather than create a second row.
type AchievementAward struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index:idx_award_user_achievement,unique" json:"user_id"`
	AchievementID string    `gorm:"size:64;not null;index:idx_award_user_achievement,unique" json:"achievement_id"`
	EarnedAt      time.Time `gorm:"not null" json:"earned_at"`
}
