package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomwell/bloom/models"
	"github.com/bloomwell/bloom/utils"
)

const leaderboardCacheTTL = 30 * time.Second

// ChallengeService manages participation, check-ins, and rankings.
// Participant counters are the one place the engine maintains incremental
// state: check-ins are sparse and explicitly dated, so there is no cheap
// full-history scan to recompute from, and every counter move happens under
// a per-participant row lock.
type ChallengeService struct {
	db     *gorm.DB
	policy DayPolicy
}

// NewChallengeService creates a new service instance.
func NewChallengeService(db *gorm.DB, policy DayPolicy) *ChallengeService {
	return &ChallengeService{db: db, policy: policy}
}

// Create registers a new challenge.
func (s *ChallengeService) Create(name, description string, startDate, endDate time.Time) (*models.Challenge, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: challenge name is required", ErrInvalidInput)
	}
	start := s.policy.Normalize(startDate)
	end := s.policy.Normalize(endDate)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: challenge ends before it starts", ErrInvalidInput)
	}
	ch := &models.Challenge{Name: name, Description: description, StartDate: start, EndDate: end, IsActive: true}
	if err := s.db.Create(ch).Error; err != nil {
		return nil, fmt.Errorf("create challenge %q: %w", name, err)
	}
	return ch, nil
}

// Join adds a user to a challenge. Joining twice returns the existing
// participant row unchanged.
func (s *ChallengeService) Join(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	var ch models.Challenge
	err := s.db.First(&ch, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: challenge %d", ErrNotFound, challengeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge %d: %w", challengeID, err)
	}

	participant := &models.ChallengeParticipant{
		ChallengeID: challengeID,
		UserID:      userID,
		Status:      models.ParticipantActive,
		JoinedAt:    time.Now(),
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "challenge_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(participant).Error
	if err != nil {
		return nil, fmt.Errorf("join challenge %d as user %d: %w", challengeID, userID, err)
	}
	if participant.ID == 0 {
		if err := s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(participant).Error; err != nil {
			return nil, fmt.Errorf("reload participant for challenge %d user %d: %w", challengeID, userID, err)
		}
	}
	return participant, nil
}

// Checkin upserts the participant's check-in for a day. Counters move only
// when the day flips to completed for the first time: re-submitting an
// already-completed day updates notes and nothing else, and an incomplete
// check-in on a fresh day records the row without touching counters.
func (s *ChallengeService) Checkin(participantID uint, date time.Time, completed bool, notes string) (*models.ChallengeCheckin, error) {
	day := s.policy.Normalize(date)
	var checkin models.ChallengeCheckin
	var challengeID uint

	err := withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var participant models.ChallengeParticipant
			q := tx
			// SQLite has a single writer and rejects FOR UPDATE syntax;
			// the row lock only matters on server databases.
			if tx.Dialector.Name() != "sqlite" {
				q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
			}
			err := q.First(&participant, participantID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: challenge participant %d", ErrNotFound, participantID)
			}
			if err != nil {
				return fmt.Errorf("lock participant %d: %w", participantID, err)
			}
			challengeID = participant.ChallengeID

			var existing models.ChallengeCheckin
			err = tx.Where("participant_id = ? AND date = ?", participantID, day).First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				checkin = models.ChallengeCheckin{ParticipantID: participantID, Date: day, Completed: completed, Notes: notes}
				if err := tx.Create(&checkin).Error; err != nil {
					return fmt.Errorf("create checkin for participant %d on %s: %w", participantID, s.policy.DayKey(day), err)
				}
			case err != nil:
				return fmt.Errorf("load checkin for participant %d on %s: %w", participantID, s.policy.DayKey(day), err)
			default:
				wasCompleted := existing.Completed
				existing.Completed = existing.Completed || completed
				existing.Notes = notes
				if err := tx.Save(&existing).Error; err != nil {
					return fmt.Errorf("update checkin for participant %d on %s: %w", participantID, s.policy.DayKey(day), err)
				}
				checkin = existing
				if wasCompleted || !completed {
					return nil // already counted, or still incomplete
				}
			}

			if !completed {
				return nil
			}

			participant.TotalCompletions++
			participant.CurrentStreak++
			if participant.CurrentStreak > participant.BestStreak {
				participant.BestStreak = participant.CurrentStreak
			}
			if err := tx.Save(&participant).Error; err != nil {
				return fmt.Errorf("update counters for participant %d: %w", participantID, err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	utils.InvalidateByPrefix(leaderboardCacheKey(challengeID))
	return &checkin, nil
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank             int    `json:"rank"`
	UserID           uint   `json:"user_id"`
	Username         string `json:"username"`
	TotalCompletions int    `json:"total_completions"`
	CurrentStreak    int    `json:"current_streak"`
	BestStreak       int    `json:"best_streak"`
}

// Leaderboard ranks a challenge's participants by completion count; ties go
// to whoever joined earlier, so the order is deterministic rather than an
// accident of sort stability. Results are cached briefly in Redis.
func (s *ChallengeService) Leaderboard(challengeID uint) ([]LeaderboardEntry, error) {
	var ch models.Challenge
	err := s.db.First(&ch, challengeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: challenge %d", ErrNotFound, challengeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge %d: %w", challengeID, err)
	}

	if b, ok := utils.CacheGetBytes(leaderboardCacheKey(challengeID)); ok {
		var cached []LeaderboardEntry
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}

	var rows []struct {
		UserID           uint
		Username         string
		TotalCompletions int
		CurrentStreak    int
		BestStreak       int
	}
	err = s.db.Model(&models.ChallengeParticipant{}).
		Select("challenge_participants.user_id, users.username, challenge_participants.total_completions, challenge_participants.current_streak, challenge_participants.best_streak").
		Joins("LEFT JOIN users ON users.id = challenge_participants.user_id").
		Where("challenge_participants.challenge_id = ?", challengeID).
		Order("challenge_participants.total_completions DESC, challenge_participants.joined_at ASC, challenge_participants.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("rank participants of challenge %d: %w", challengeID, err)
	}

	entries := make([]LeaderboardEntry, len(rows))
	for i, r := range rows {
		entries[i] = LeaderboardEntry{
			Rank:             i + 1,
			UserID:           r.UserID,
			Username:         r.Username,
			TotalCompletions: r.TotalCompletions,
			CurrentStreak:    r.CurrentStreak,
			BestStreak:       r.BestStreak,
		}
	}
	utils.CacheSetJSON(leaderboardCacheKey(challengeID), entries, leaderboardCacheTTL)
	return entries, nil
}

// ParticipantForUser resolves the caller's participant row in a challenge.
func (s *ChallengeService) ParticipantForUser(challengeID, userID uint) (*models.ChallengeParticipant, error) {
	var participant models.ChallengeParticipant
	err := s.db.Where("challenge_id = ? AND user_id = ?", challengeID, userID).First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %d has not joined challenge %d", ErrNotFound, userID, challengeID)
	}
	if err != nil {
		return nil, fmt.Errorf("load participant for challenge %d user %d: %w", challengeID, userID, err)
	}
	return &participant, nil
}

func leaderboardCacheKey(challengeID uint) string {
	return fmt.Sprintf("leaderboard:%d", challengeID)
}
