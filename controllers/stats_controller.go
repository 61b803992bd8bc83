package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bloomwell/bloom/models"
	"github.com/bloomwell/bloom/utils"
)

// StatsController provides aggregate figures for the admin screens.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetStats returns aggregate statistics for the product.
func (s *StatsController) GetStats(ctx *gin.Context) {
	var userCount int64
	var moodCount int64
	var journalCount int64
	var habitCount int64
	var dailyActive int64

	if err := s.db.Model(&models.User{}).Count(&userCount).Error; err != nil {
		// Fallback to 0 instead of failing the whole endpoint
		userCount = 0
	}
	if err := s.db.Model(&models.MoodEntry{}).Count(&moodCount).Error; err != nil {
		moodCount = 0
	}
	if err := s.db.Model(&models.JournalEntry{}).Count(&journalCount).Error; err != nil {
		journalCount = 0
	}
	if err := s.db.Model(&models.HabitCompletion{}).Where("completed = ?", true).Count(&habitCount).Error; err != nil {
		habitCount = 0
	}

	// Daily active (PV-based): sum of today's recorded requests
	// Use string date equality to avoid timezone/type mismatches with DATE column
	today := time.Now().In(time.Local).Format("2006-01-02")
	if err := s.db.Model(&models.PageView{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count),0)").
		Scan(&dailyActive).Error; err != nil {
		dailyActive = 0
	}

	utils.Success(ctx, gin.H{
		"user_count":         userCount,
		"mood_count":         moodCount,
		"journal_count":      journalCount,
		"habits_completed":   habitCount,
		"daily_active_count": dailyActive,
	})
}
