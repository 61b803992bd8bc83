package main

import (
	"time"

	"github.com/bloomwell/bloom/config"
	"github.com/bloomwell/bloom/models"
	"github.com/bloomwell/bloom/routes"
	"github.com/bloomwell/bloom/services"
	"github.com/bloomwell/bloom/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
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
		&models.PageView{},
	)

	r := routes.SetupRouter(db)

	// Keep current-week scorecards warm for recently active users
	// (best-effort; the engine itself recomputes on demand).
	policy := services.NewDayPolicy(cfg.EngineTimezone)
	scorecards := services.NewScorecardService(db, policy)
	utils.StartScorecardRefresher(db, 15*time.Minute,
		func() time.Time { return services.WeekStartFor(policy.Today()) },
		func(userID uint, weekStart time.Time) error {
			_, err := scorecards.Aggregate(userID, weekStart)
			return err
		})

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
