package services

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/bloomwell/bloom/models"
)

var testDBSeq atomic.Int64

// newTestDB opens a fresh in-memory database with the full schema. Each
// test gets its own database so parallel tests cannot see each other.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:enginetest%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.ActivityEvent{},
		&models.MoodEntry{},
		&models.JournalEntry{},
		&models.MicroSession{},
		&models.Habit{},
		&models.HabitCompletion{},
		&models.DailyMetric{},
		&models.GamificationProfile{},
		&models.XpTransaction{},
		&models.AchievementAward{},
		&models.Challenge{},
		&models.ChallengeParticipant{},
		&models.ChallengeCheckin{},
		&models.WeeklyScorecard{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()
	user := models.User{Username: username, PasswordHash: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user.ID
}

func floatPtr(v float64) *float64 { return &v }
