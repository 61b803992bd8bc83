package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bloomwell/bloom/services"
	"github.com/bloomwell/bloom/utils"
)

// ProgressController exposes the engine's read paths: streaks, XP profile,
// achievements, and weekly scorecards. All handlers are pure reads.
type ProgressController struct {
	policy       services.DayPolicy
	activity     *services.ActivityService
	gamification *services.GamificationService
	achievements *services.AchievementService
	scorecards   *services.ScorecardService
}

// NewProgressController creates a new controller instance.
func NewProgressController(policy services.DayPolicy, activity *services.ActivityService, g *services.GamificationService, a *services.AchievementService, sc *services.ScorecardService) *ProgressController {
	return &ProgressController{policy: policy, activity: activity, gamification: g, achievements: a, scorecards: sc}
}

// GetStreak recomputes the caller's streak for one activity type.
func (p *ProgressController) GetStreak(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	streak, err := p.activity.StreakFor(userID, ctx.Param("type"))
	if err != nil {
		respondServiceError(ctx, err, "failed to compute streak")
		return
	}
	utils.Success(ctx, streak)
}

// GetProfile returns the caller's XP profile and recent ledger.
func (p *ProgressController) GetProfile(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	profile, err := p.gamification.Profile(userID)
	if err != nil {
		respondServiceError(ctx, err, "failed to load profile")
		return
	}
	txns, err := p.gamification.Transactions(userID, 20)
	if err != nil {
		respondServiceError(ctx, err, "failed to load transactions")
		return
	}
	utils.Success(ctx, gin.H{"profile": profile, "recent_transactions": txns})
}

// GetAchievements returns earned awards plus the live counter summary.
func (p *ProgressController) GetAchievements(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	awards, err := p.achievements.Awards(userID)
	if err != nil {
		respondServiceError(ctx, err, "failed to load achievements")
		return
	}
	summary, err := p.achievements.Summary(userID)
	if err != nil {
		respondServiceError(ctx, err, "failed to build progress summary")
		return
	}
	utils.Success(ctx, gin.H{"awards": awards, "summary": summary})
}

// GetAchievement reports whether the caller holds one specific award.
func (p *ProgressController) GetAchievement(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	id := ctx.Param("id")
	earned, err := p.achievements.HasEarned(userID, id)
	if err != nil {
		respondServiceError(ctx, err, "failed to check achievement")
		return
	}
	utils.Success(ctx, gin.H{"achievement_id": id, "earned": earned})
}

// GetScorecard returns the weekly scorecard for the requested week, or the
// current week when no week_start is given. Any date within a week resolves
// to that week's Monday.
func (p *ProgressController) GetScorecard(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	anchor := p.policy.Today()
	if raw := ctx.Query("week_start"); raw != "" {
		parsed, err := p.policy.ParseDay(raw)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40003, "week_start must be YYYY-MM-DD")
			return
		}
		anchor = parsed
	}

	card, err := p.scorecards.Scorecard(userID, services.WeekStartFor(anchor))
	if err != nil {
		respondServiceError(ctx, err, "failed to load scorecard")
		return
	}
	utils.Success(ctx, card)
}

// GetDailyPrompt serves the day's reflection prompt. The served flag lives
// in the keyed daily store, so a multi-instance deployment shows each user
// the first-visit variant exactly once per day.
func (p *ProgressController) GetDailyPrompt(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	day := p.policy.DayKey(time.Now())
	scope := promptScope(userID)
	firstVisit := !utils.SeenDaily(scope, day)
	if firstVisit {
		utils.MarkDaily(scope, day)
	}

	prompts := []string{
		"What gave you energy today?",
		"Name one thing you did for yourself today.",
		"What would make tomorrow 1% better?",
		"What are you grateful for right now?",
		"Which habit felt easiest today, and why?",
		"What drained you today, and what helped?",
		"Describe today in three words.",
	}
	idx := int(p.policy.Normalize(time.Now()).Unix()/86400+int64(userID)) % len(prompts)
	if idx < 0 {
		idx += len(prompts)
	}

	utils.Success(ctx, gin.H{
		"prompt":      prompts[idx],
		"first_visit": firstVisit,
		"day":         day,
	})
}

func promptScope(userID uint) string {
	return "prompt:" + strconv.FormatUint(uint64(userID), 10)
}
