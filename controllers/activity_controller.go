package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bloomwell/bloom/config"
	"github.com/bloomwell/bloom/models"
	"github.com/bloomwell/bloom/services"
	"github.com/bloomwell/bloom/utils"
)

// ActivityController receives the user actions that feed the progress
// engine: mood check-ins, journal entries, habit toggles, micro-sessions,
// and daily metric submissions.
type ActivityController struct {
	db       *gorm.DB
	activity *services.ActivityService
}

// NewActivityController creates a new controller instance.
func NewActivityController(db *gorm.DB, activity *services.ActivityService) *ActivityController {
	return &ActivityController{db: db, activity: activity}
}

// CreateMood records a mood check-in.
func (a *ActivityController) CreateMood(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Score    int    `json:"score" binding:"required"`
		Note     string `json:"note"`
		EventUID string `json:"event_uid"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	entry, result, err := a.activity.RecordMood(userID, req.Score, req.Note, req.EventUID, time.Now())
	if err != nil {
		respondServiceError(ctx, err, "failed to record mood")
		return
	}
	utils.Success(ctx, gin.H{"entry": entry, "result": result})
}

// CreateJournal records a journal entry.
func (a *ActivityController) CreateJournal(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Title    string `json:"title"`
		Content  string `json:"content" binding:"required"`
		EventUID string `json:"event_uid"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	entry, result, err := a.activity.RecordJournal(userID, req.Title, req.Content, req.EventUID, time.Now())
	if err != nil {
		respondServiceError(ctx, err, "failed to record journal entry")
		return
	}
	utils.Success(ctx, gin.H{"entry": entry, "result": result})
}

// CreateHabit registers a new habit for the caller.
func (a *ActivityController) CreateHabit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name        string `json:"name" binding:"required,max=128"`
		Description string `json:"description"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	habit := models.Habit{UserID: userID, Name: req.Name, Description: req.Description, IsActive: true}
	if err := a.db.Create(&habit).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create habit")
		return
	}
	utils.Success(ctx, habit)
}

// ListHabits returns the caller's habits.
func (a *ActivityController) ListHabits(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var habits []models.Habit
	if err := a.db.Where("user_id = ?", userID).Order("id ASC").Find(&habits).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list habits")
		return
	}
	utils.Success(ctx, habits)
}

// ToggleHabit flips today's completion state for a habit.
func (a *ActivityController) ToggleHabit(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	habitID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid habit id")
		return
	}

	var req struct {
		Completed *bool  `json:"completed" binding:"required"`
		EventUID  string `json:"event_uid"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	completion, result, err := a.activity.ToggleHabit(userID, uint(habitID), *req.Completed, req.EventUID, time.Now())
	if err != nil {
		respondServiceError(ctx, err, "failed to toggle habit")
		return
	}
	utils.Success(ctx, gin.H{"completion": completion, "result": result})
}

// CompleteSession records a finished micro-session.
func (a *ActivityController) CompleteSession(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Kind            string `json:"kind" binding:"required,max=64"`
		DurationSeconds int    `json:"duration_seconds"`
		EventUID        string `json:"event_uid"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	session, result, err := a.activity.RecordMicroSession(userID, req.Kind, req.DurationSeconds, req.EventUID, time.Now())
	if err != nil {
		respondServiceError(ctx, err, "failed to record session")
		return
	}
	utils.Success(ctx, gin.H{"session": session, "result": result})
}

// SubmitDailyMetrics upserts today's metrics and grants the daily check-in XP.
func (a *ActivityController) SubmitDailyMetrics(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		services.DailyMetricsInput
		EventUID string `json:"event_uid"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	metric, result, err := a.activity.SubmitDailyMetrics(userID, req.DailyMetricsInput, config.Get().DailyCheckinXP, req.EventUID, time.Now())
	if err != nil {
		respondServiceError(ctx, err, "failed to submit daily metrics")
		return
	}
	utils.Success(ctx, gin.H{"metric": metric, "result": result})
}

// respondServiceError maps the engine's error taxonomy onto the response
// envelope. Unknown errors stay opaque 500s; details go to the log only.
func respondServiceError(ctx *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		utils.Error(ctx, http.StatusBadRequest, 40010, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40420, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40930, "temporary conflict, please retry")
	default:
		if utils.Sugar != nil {
			utils.Sugar.Errorf("%s: %v", fallback, err)
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, fallback)
	}
}
