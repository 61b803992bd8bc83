package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomwell/bloom/models"
)

// Achievement identifiers. The set is closed: adding one means adding a
// rule below, which the compiler and tests both see.
const (
	AchFirstMood    = "first_mood"
	AchFirstJournal = "first_journal"
	AchFirstHabit   = "first_habit"
	AchHabitStreak3 = "habit_streak_3"
	AchHabitStreak7 = "habit_streak_7"
	AchMood10       = "mood_10"
	AchJournal5     = "journal_5"
	AchHabits20     = "habits_20"
)

// ruleKind selects which summary counter a rule thresholds on.
type ruleKind int

const (
	kindMoodCount ruleKind = iota
	kindJournalCount
	kindHabitCount
	kindHabitStreak
)

// achievementRule is a tagged threshold over the progress summary. Rules
// are data, not callbacks, so the full set is visible in one place.
type achievementRule struct {
	ID        string
	Name      string
	Kind      ruleKind
	Threshold int
}

var achievementRules = []achievementRule{
	{ID: AchFirstMood, Name: "First Check-in", Kind: kindMoodCount, Threshold: 1},
	{ID: AchFirstJournal, Name: "First Reflection", Kind: kindJournalCount, Threshold: 1},
	{ID: AchFirstHabit, Name: "First Step", Kind: kindHabitCount, Threshold: 1},
	{ID: AchHabitStreak3, Name: "Three in a Row", Kind: kindHabitStreak, Threshold: 3},
	{ID: AchHabitStreak7, Name: "Week of Momentum", Kind: kindHabitStreak, Threshold: 7},
	{ID: AchMood10, Name: "Self-Aware", Kind: kindMoodCount, Threshold: 10},
	{ID: AchJournal5, Name: "Storyteller", Kind: kindJournalCount, Threshold: 5},
	{ID: AchHabits20, Name: "Habit Builder", Kind: kindHabitCount, Threshold: 20},
}

// KnownAchievement reports whether id belongs to the rule set.
func KnownAchievement(id string) bool {
	for _, r := range achievementRules {
		if r.ID == id {
			return true
		}
	}
	return false
}

func (r achievementRule) met(s ProgressSummary) bool {
	switch r.Kind {
	case kindMoodCount:
		return s.TotalMoodCheckins >= r.Threshold
	case kindJournalCount:
		return s.TotalJournalEntries >= r.Threshold
	case kindHabitCount:
		return s.TotalHabitsCompleted >= r.Threshold
	case kindHabitStreak:
		return s.CurrentHabitStreak >= r.Threshold
	}
	return false
}

// ProgressSummary is the counter snapshot achievement rules evaluate over.
type ProgressSummary struct {
	TotalMoodCheckins    int `json:"total_mood_checkins"`
	TotalJournalEntries  int `json:"total_journal_entries"`
	TotalHabitsCompleted int `json:"total_habits_completed"`
	CurrentHabitStreak   int `json:"current_habit_streak"`
}

// AchievementService evaluates the rule table and records awards.
type AchievementService struct {
	db     *gorm.DB
	policy DayPolicy
}

// NewAchievementService creates a new service instance.
func NewAchievementService(db *gorm.DB, policy DayPolicy) *AchievementService {
	return &AchievementService{db: db, policy: policy}
}

// Summary rebuilds the counter snapshot from authoritative facts.
func (s *AchievementService) Summary(userID uint) (ProgressSummary, error) {
	var sum ProgressSummary

	var moodCount, journalCount, habitCount int64
	if err := s.db.Model(&models.MoodEntry{}).Where("user_id = ?", userID).Count(&moodCount).Error; err != nil {
		return sum, fmt.Errorf("count mood entries for user %d: %w", userID, err)
	}
	if err := s.db.Model(&models.JournalEntry{}).Where("user_id = ?", userID).Count(&journalCount).Error; err != nil {
		return sum, fmt.Errorf("count journal entries for user %d: %w", userID, err)
	}
	if err := s.db.Model(&models.HabitCompletion{}).Where("user_id = ? AND completed = ?", userID, true).Count(&habitCount).Error; err != nil {
		return sum, fmt.Errorf("count habit completions for user %d: %w", userID, err)
	}

	var dates []time.Time
	err := s.db.Model(&models.HabitCompletion{}).
		Where("user_id = ? AND completed = ?", userID, true).
		Distinct().Pluck("date", &dates).Error
	if err != nil {
		return sum, fmt.Errorf("load habit completion dates for user %d: %w", userID, err)
	}
	normalized := make([]time.Time, len(dates))
	for i, d := range dates {
		normalized[i] = s.policy.Normalize(d)
	}

	sum.TotalMoodCheckins = int(moodCount)
	sum.TotalJournalEntries = int(journalCount)
	sum.TotalHabitsCompleted = int(habitCount)
	sum.CurrentHabitStreak = ComputeStreak(normalized, s.policy.Today()).Current
	return sum, nil
}

// Evaluate awards every rule the summary satisfies that the user has not
// earned yet, and returns only the newly earned ids. Safe to call after
// every activity event: the insert no-ops against the unique
// (user, achievement) index, so a redundant or concurrent evaluation never
// produces a second award.
func (s *AchievementService) Evaluate(userID uint, sum ProgressSummary) ([]string, error) {
	var earned []string
	now := time.Now()
	for _, rule := range achievementRules {
		if !rule.met(sum) {
			continue
		}
		res := s.db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).Create(&models.AchievementAward{
			UserID:        userID,
			AchievementID: rule.ID,
			EarnedAt:      now,
		})
		if res.Error != nil {
			return earned, fmt.Errorf("award achievement %s to user %d: %w", rule.ID, userID, res.Error)
		}
		// RowsAffected == 0 means another evaluation got there first.
		if res.RowsAffected > 0 {
			earned = append(earned, rule.ID)
		}
	}
	return earned, nil
}

// HasEarned reports whether the user holds a specific award. Unknown ids
// are rejected rather than reported as not-earned.
func (s *AchievementService) HasEarned(userID uint, achievementID string) (bool, error) {
	if !KnownAchievement(achievementID) {
		return false, fmt.Errorf("%w: unknown achievement id %q", ErrInvalidInput, achievementID)
	}
	var count int64
	err := s.db.Model(&models.AchievementAward{}).
		Where("user_id = ? AND achievement_id = ?", userID, achievementID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check achievement %s for user %d: %w", achievementID, userID, err)
	}
	return count > 0, nil
}

// Awards lists everything the user has earned, oldest first.
func (s *AchievementService) Awards(userID uint) ([]models.AchievementAward, error) {
	var awards []models.AchievementAward
	err := s.db.Where("user_id = ?", userID).Order("earned_at ASC, id ASC").Find(&awards).Error
	if err != nil {
		return nil, fmt.Errorf("list achievements for user %d: %w", userID, err)
	}
	return awards, nil
}
