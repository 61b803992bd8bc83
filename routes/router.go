package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bloomwell/bloom/config"
	"github.com/bloomwell/bloom/controllers"
	"github.com/bloomwell/bloom/middleware"
	"github.com/bloomwell/bloom/services"
	"github.com/bloomwell/bloom/utils"
)

// SetupRouter wires routes, middlewares, controllers, and engine services.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	// Record request counts after each request
	r.Use(middleware.PageViewRecorder(db))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	// Engine wiring: one day policy for the whole deployment.
	policy := services.NewDayPolicy(cfg.EngineTimezone)
	gamification := services.NewGamificationService(db)
	achievements := services.NewAchievementService(db, policy)
	activity := services.NewActivityService(db, policy, gamification, achievements)
	scorecards := services.NewScorecardService(db, policy)
	challenges := services.NewChallengeService(db, policy)

	authController := controllers.NewAuthController(db)
	activityController := controllers.NewActivityController(db, activity)
	progressController := controllers.NewProgressController(policy, activity, gamification, achievements, scorecards)
	challengeController := controllers.NewChallengeController(policy, challenges, activity)
	statsController := controllers.NewStatsController(db)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware())
	authGroup.POST("/register", authController.Register)
	authGroup.POST("/login", authController.Login)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)

	// Public stats endpoint
	api.GET("/stats", statsController.GetStats)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())

	protected.POST("/moods", activityController.CreateMood)
	protected.POST("/journals", activityController.CreateJournal)
	protected.POST("/habits", activityController.CreateHabit)
	protected.GET("/habits", activityController.ListHabits)
	protected.POST("/habits/:id/toggle", activityController.ToggleHabit)
	protected.POST("/sessions", activityController.CompleteSession)
	protected.POST("/metrics/daily", activityController.SubmitDailyMetrics)

	protected.GET("/progress/streaks/:type", progressController.GetStreak)
	protected.GET("/progress/profile", progressController.GetProfile)
	protected.GET("/progress/achievements", progressController.GetAchievements)
	protected.GET("/progress/achievements/:id", progressController.GetAchievement)
	protected.GET("/progress/scorecard", progressController.GetScorecard)
	protected.GET("/progress/prompt", progressController.GetDailyPrompt)

	protected.POST("/challenges", middleware.AdminRequired(), challengeController.CreateChallenge)
	protected.POST("/challenges/:id/join", challengeController.JoinChallenge)
	protected.POST("/challenges/:id/checkin", challengeController.Checkin)
	protected.GET("/challenges/:id/leaderboard", challengeController.Leaderboard)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
