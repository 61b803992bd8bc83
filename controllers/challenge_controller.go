package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bloomwell/bloom/services"
	"github.com/bloomwell/bloom/utils"
)

// ChallengeController exposes challenge participation and leaderboards.
type ChallengeController struct {
	policy     services.DayPolicy
	challenges *services.ChallengeService
	activity   *services.ActivityService
}

// NewChallengeController creates a new controller instance.
func NewChallengeController(policy services.DayPolicy, challenges *services.ChallengeService, activity *services.ActivityService) *ChallengeController {
	return &ChallengeController{policy: policy, challenges: challenges, activity: activity}
}

// CreateChallenge registers a new challenge (admin only, enforced in routes).
func (c *ChallengeController) CreateChallenge(ctx *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required,max=128"`
		Description string `json:"description"`
		StartDate   string `json:"start_date" binding:"required"`
		EndDate     string `json:"end_date" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	start, err := c.policy.ParseDay(req.StartDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "start_date must be YYYY-MM-DD")
		return
	}
	end, err := c.policy.ParseDay(req.EndDate)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "end_date must be YYYY-MM-DD")
		return
	}

	challenge, err := c.challenges.Create(req.Name, req.Description, start, end)
	if err != nil {
		respondServiceError(ctx, err, "failed to create challenge")
		return
	}
	utils.Success(ctx, challenge)
}

// JoinChallenge adds the caller to a challenge.
func (c *ChallengeController) JoinChallenge(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challengeID, err := parseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid challenge id")
		return
	}

	participant, err := c.challenges.Join(challengeID, userID)
	if err != nil {
		respondServiceError(ctx, err, "failed to join challenge")
		return
	}
	utils.Success(ctx, participant)
}

// Checkin upserts the caller's check-in for a day. Omitting date means
// today under the engine's day policy.
func (c *ChallengeController) Checkin(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	challengeID, err := parseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid challenge id")
		return
	}

	var req struct {
		Date      string `json:"date"`
		Completed *bool  `json:"completed" binding:"required"`
		Notes     string `json:"notes"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	day := time.Now()
	if req.Date != "" {
		day, err = c.policy.ParseDay(req.Date)
		if err != nil {
			utils.Error(ctx, http.StatusBadRequest, 40003, "date must be YYYY-MM-DD")
			return
		}
	}

	participant, err := c.challenges.ParticipantForUser(challengeID, userID)
	if err != nil {
		respondServiceError(ctx, err, "failed to resolve participant")
		return
	}

	checkin, err := c.challenges.Checkin(participant.ID, day, *req.Completed, req.Notes)
	if err != nil {
		respondServiceError(ctx, err, "failed to record check-in")
		return
	}

	result := &services.ActivityResult{}
	if checkin.Completed {
		result, err = c.activity.RecordChallengeActivity(userID, challengeID, checkin.ID, day)
		if err != nil {
			respondServiceError(ctx, err, "failed to record check-in activity")
			return
		}
	}
	utils.Success(ctx, gin.H{"checkin": checkin, "result": result})
}

// Leaderboard returns the ranked participants of a challenge.
func (c *ChallengeController) Leaderboard(ctx *gin.Context) {
	challengeID, err := parseID(ctx, "id")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid challenge id")
		return
	}

	entries, err := c.challenges.Leaderboard(challengeID)
	if err != nil {
		respondServiceError(ctx, err, "failed to load leaderboard")
		return
	}
	utils.Success(ctx, gin.H{"leaderboard": entries, "total": len(entries)})
}

func parseID(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
