package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomwell/bloom/models"
)

// GamificationService owns the XP ledger and the derived profile.
type GamificationService struct {
	db *gorm.DB
}

// NewGamificationService creates a new service instance.
func NewGamificationService(db *gorm.DB) *GamificationService {
	return &GamificationService{db: db}
}

// AwardXP appends a ledger transaction and advances the profile in a single
// database transaction. The XP total moves via an atomic SQL increment, not
// read-modify-write, so two concurrent awards for the same user are both
// reflected in the final total. Level fields are recomputed from the fresh
// total afterwards inside the same transaction.
func (s *GamificationService) AwardXP(userID uint, amount int, source string, sourceID *uint, description string) (*models.XpTransaction, *models.GamificationProfile, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("%w: xp amount must be positive, got %d", ErrInvalidInput, amount)
	}
	if source == "" {
		return nil, nil, fmt.Errorf("%w: xp source is required", ErrInvalidInput)
	}

	txn := &models.XpTransaction{
		UserID:      userID,
		Amount:      amount,
		Source:      source,
		SourceID:    sourceID,
		Description: description,
	}
	var profile models.GamificationProfile

	err := withConflictRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(txn).Error; err != nil {
				return fmt.Errorf("append xp transaction for user %d: %w", userID, err)
			}

			// Atomic increment-or-create on the unique user_id index.
			now := time.Now()
			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"total_xp":   gorm.Expr("total_xp + ?", amount),
					"updated_at": now,
				}),
			}).Create(&models.GamificationProfile{
				UserID:        userID,
				TotalXP:       amount,
				CurrentLevel:  1,
				XPToNextLevel: 100,
				UpdatedAt:     now,
			}).Error
			if err != nil {
				return fmt.Errorf("increment xp total for user %d: %w", userID, err)
			}

			if err := tx.Where("user_id = ?", userID).First(&profile).Error; err != nil {
				return fmt.Errorf("reload gamification profile for user %d: %w", userID, err)
			}

			level, toNext := LevelFor(profile.TotalXP)
			// Always rewrite the cached fields so the profile stays a pure
			// function of TotalXP even after a manual ledger rebuild.
			if err := tx.Model(&models.GamificationProfile{}).
				Where("user_id = ?", userID).
				Updates(map[string]interface{}{
					"current_level":    level,
					"xp_to_next_level": toNext,
				}).Error; err != nil {
				return fmt.Errorf("recompute level for user %d: %w", userID, err)
			}
			profile.CurrentLevel = level
			profile.XPToNextLevel = toNext
			return nil
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return txn, &profile, nil
}

// HasAwarded reports whether XP was already granted for the given logical
// event. Callers use it to keep retried submissions from earning twice.
func (s *GamificationService) HasAwarded(userID uint, source string, sourceID uint) (bool, error) {
	var count int64
	err := s.db.Model(&models.XpTransaction{}).
		Where("user_id = ? AND source = ? AND source_id = ?", userID, source, sourceID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check xp award %s/%d for user %d: %w", source, sourceID, userID, err)
	}
	return count > 0, nil
}

// Profile returns the user's gamification profile, creating nothing. A user
// who never earned XP reads as a fresh level-1 profile.
func (s *GamificationService) Profile(userID uint) (*models.GamificationProfile, error) {
	var profile models.GamificationProfile
	err := s.db.Where("user_id = ?", userID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		level, toNext := LevelFor(0)
		return &models.GamificationProfile{UserID: userID, CurrentLevel: level, XPToNextLevel: toNext}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load gamification profile for user %d: %w", userID, err)
	}
	return &profile, nil
}

// Transactions lists the user's ledger, newest first.
func (s *GamificationService) Transactions(userID uint, limit int) ([]models.XpTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var txns []models.XpTransaction
	err := s.db.Where("user_id = ?", userID).Order("id DESC").Limit(limit).Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("list xp transactions for user %d: %w", userID, err)
	}
	return txns, nil
}

// withConflictRetry runs fn and retries it exactly once when the storage
// layer reports a lock or serialization failure. A second failure surfaces
// as ErrConflict; every engine operation is safe for the caller to replay.
func withConflictRetry(fn func() error) error {
	err := fn()
	if err == nil || !isLockError(err) {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err = fn(); err != nil {
		if isLockError(err) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return err
	}
	return nil
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") ||
		strings.Contains(msg, "database is locked")
}
