package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bloomwell/bloom/models"
	"github.com/bloomwell/bloom/utils"
)

// ActivityService is the engine's inbound boundary. Every user action lands
// here: the authoritative fact and its immutable ActivityEvent are written
// in one transaction, and the achievement rules are re-checked against a
// fresh summary. Daily metric submissions additionally earn a fixed XP
// award.
type ActivityService struct {
	db           *gorm.DB
	policy       DayPolicy
	gamification *GamificationService
	achievements *AchievementService
}

// NewActivityService creates a new service instance.
func NewActivityService(db *gorm.DB, policy DayPolicy, g *GamificationService, a *AchievementService) *ActivityService {
	return &ActivityService{db: db, policy: policy, gamification: g, achievements: a}
}

// ActivityResult reports a recorded action plus any achievements it
// unlocked. Replayed marks a retry whose event UID was already recorded;
// nothing new was written.
type ActivityResult struct {
	NewAchievements []string `json:"new_achievements,omitempty"`
	XPAwarded       int      `json:"xp_awarded,omitempty"`
	Replayed        bool     `json:"replayed,omitempty"`
}

// RecordMood stores a mood check-in.
func (s *ActivityService) RecordMood(userID uint, score int, note, eventUID string, occurredAt time.Time) (*models.MoodEntry, *ActivityResult, error) {
	if score < 1 || score > 10 {
		return nil, nil, fmt.Errorf("%w: mood score must be between 1 and 10, got %d", ErrInvalidInput, score)
	}
	entry := &models.MoodEntry{UserID: userID, Score: score, Note: note, CreatedAt: occurredAt}
	replayed, err := s.recordFact(userID, models.ActivityMoodLog, eventUID, occurredAt, fmt.Sprintf(`{"score":%d}`, score), func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("create mood entry for user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if replayed {
		return entry, &ActivityResult{Replayed: true}, nil
	}
	res, err := s.evaluate(userID)
	return entry, res, err
}

// RecordJournal stores a journal entry. Content passes through the HTML
// sanitizer before persistence.
func (s *ActivityService) RecordJournal(userID uint, title, content, eventUID string, occurredAt time.Time) (*models.JournalEntry, *ActivityResult, error) {
	if content == "" {
		return nil, nil, fmt.Errorf("%w: journal content is required", ErrInvalidInput)
	}
	entry := &models.JournalEntry{
		UserID:    userID,
		Title:     utils.Sanitize(title),
		Content:   utils.Sanitize(content),
		CreatedAt: occurredAt,
	}
	replayed, err := s.recordFact(userID, models.ActivityJournalEntry, eventUID, occurredAt, "", func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("create journal entry for user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if replayed {
		return entry, &ActivityResult{Replayed: true}, nil
	}
	res, err := s.evaluate(userID)
	return entry, res, err
}

// ToggleHabit flips a habit's completion for the event's calendar day.
// One row per (habit, day); re-toggling updates that row in place.
func (s *ActivityService) ToggleHabit(userID, habitID uint, completed bool, eventUID string, occurredAt time.Time) (*models.HabitCompletion, *ActivityResult, error) {
	var habit models.Habit
	err := s.db.Where("id = ? AND user_id = ?", habitID, userID).First(&habit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, fmt.Errorf("%w: habit %d for user %d", ErrNotFound, habitID, userID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load habit %d: %w", habitID, err)
	}

	date := s.policy.Normalize(occurredAt)
	completion := &models.HabitCompletion{
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Completed: completed,
	}
	upsert := func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"completed": completed, "updated_at": time.Now()}),
		}).Create(completion).Error
		if err != nil {
			return fmt.Errorf("upsert completion for habit %d on %s: %w", habitID, s.policy.DayKey(occurredAt), err)
		}
		return nil
	}

	// Un-completing a day is not an activity; no event is appended.
	if !completed {
		if err := s.db.Transaction(upsert); err != nil {
			return nil, nil, err
		}
		if err := s.reloadCompletion(completion, habitID, date); err != nil {
			return nil, nil, err
		}
		return completion, &ActivityResult{}, nil
	}

	replayed, err := s.recordFact(userID, models.ActivityHabitCompletion, eventUID, occurredAt, fmt.Sprintf(`{"habit_id":%d}`, habitID), upsert)
	if err != nil {
		return nil, nil, err
	}
	if err := s.reloadCompletion(completion, habitID, date); err != nil {
		return nil, nil, err
	}
	if replayed {
		return completion, &ActivityResult{Replayed: true}, nil
	}
	res, err := s.evaluate(userID)
	return completion, res, err
}

func (s *ActivityService) reloadCompletion(completion *models.HabitCompletion, habitID uint, date time.Time) error {
	if err := s.db.Where("habit_id = ? AND date = ?", habitID, date).First(completion).Error; err != nil {
		return fmt.Errorf("reload completion for habit %d on %s: %w", habitID, date.Format("2006-01-02"), err)
	}
	return nil
}

// RecordMicroSession stores a completed micro-session.
func (s *ActivityService) RecordMicroSession(userID uint, kind string, durationSeconds int, eventUID string, occurredAt time.Time) (*models.MicroSession, *ActivityResult, error) {
	if kind == "" {
		return nil, nil, fmt.Errorf("%w: session kind is required", ErrInvalidInput)
	}
	if durationSeconds < 0 {
		return nil, nil, fmt.Errorf("%w: session duration cannot be negative", ErrInvalidInput)
	}
	session := &models.MicroSession{UserID: userID, Kind: kind, DurationSeconds: durationSeconds, CreatedAt: occurredAt}
	replayed, err := s.recordFact(userID, models.ActivityMicroSession, eventUID, occurredAt, fmt.Sprintf(`{"kind":%q}`, kind), func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return fmt.Errorf("create micro session for user %d: %w", userID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if replayed {
		return session, &ActivityResult{Replayed: true}, nil
	}
	res, err := s.evaluate(userID)
	return session, res, err
}

// DailyMetricsInput carries the optional self-reported measures. Nil means
// the field was not logged today.
type DailyMetricsInput struct {
	Mood         *float64 `json:"mood"`
	Energy       *float64 `json:"energy"`
	Stress       *float64 `json:"stress"`
	SleepHours   *float64 `json:"sleep_hours"`
	SleepQuality *float64 `json:"sleep_quality"`
}

// SubmitDailyMetrics upserts the day's metric row and grants the fixed
// daily check-in XP. The award is keyed on the metric row, so resubmitting
// the same day's numbers updates the row without earning twice.
func (s *ActivityService) SubmitDailyMetrics(userID uint, in DailyMetricsInput, xpReward int, eventUID string, occurredAt time.Time) (*models.DailyMetric, *ActivityResult, error) {
	date := s.policy.Normalize(occurredAt)
	metric := &models.DailyMetric{
		UserID:       userID,
		Date:         date,
		Mood:         in.Mood,
		Energy:       in.Energy,
		Stress:       in.Stress,
		SleepHours:   in.SleepHours,
		SleepQuality: in.SleepQuality,
	}
	replayed, err := s.recordFact(userID, models.ActivityMoodLog, eventUID, occurredAt, "", func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"mood":          in.Mood,
				"energy":        in.Energy,
				"stress":        in.Stress,
				"sleep_hours":   in.SleepHours,
				"sleep_quality": in.SleepQuality,
				"updated_at":    time.Now(),
			}),
		}).Create(metric).Error
		if err != nil {
			return fmt.Errorf("upsert daily metric for user %d on %s: %w", userID, s.policy.DayKey(occurredAt), err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	// Reload by natural key: on the conflict path the driver's LastInsertId
	// does not identify the surviving row, and the XP idempotence key below
	// hangs off this id.
	if err := s.db.Where("user_id = ? AND date = ?", userID, date).First(metric).Error; err != nil {
		return nil, nil, fmt.Errorf("reload daily metric for user %d on %s: %w", userID, s.policy.DayKey(occurredAt), err)
	}

	// The XP award runs on replays too: it is guarded on the metric row, so
	// a retry after a crash between the fact commit and the award still
	// grants it exactly once.
	result := &ActivityResult{Replayed: replayed}
	awarded, err := s.gamification.HasAwarded(userID, models.SourceDailyCheckin, metric.ID)
	if err != nil {
		return nil, nil, err
	}
	if !awarded && xpReward > 0 {
		if _, _, err := s.gamification.AwardXP(userID, xpReward, models.SourceDailyCheckin, &metric.ID, "Daily check-in"); err != nil {
			return nil, nil, err
		}
		result.XPAwarded = xpReward
	}

	if !replayed {
		res, err := s.evaluate(userID)
		if err != nil {
			return nil, nil, err
		}
		result.NewAchievements = res.NewAchievements
	}
	return metric, result, nil
}

// Challenge check-ins earn a small fixed award, keyed on the check-in row
// so replayed submissions never earn twice.
const challengeCheckinXP = 10

// RecordChallengeActivity appends the activity event for a completed
// challenge check-in, so the challenge streak read path sees it, and grants
// the check-in XP once per check-in row. The event UID is derived from the
// check-in row, so re-submitting an already-completed day appends nothing.
func (s *ActivityService) RecordChallengeActivity(userID, challengeID, checkinID uint, occurredAt time.Time) (*ActivityResult, error) {
	eventUID := fmt.Sprintf("challenge-checkin-%d", checkinID)
	replayed, err := s.recordFact(userID, models.ActivityChallengeCheck, eventUID, occurredAt, fmt.Sprintf(`{"challenge_id":%d}`, challengeID), nil)
	if err != nil {
		return nil, err
	}

	result := &ActivityResult{Replayed: replayed}
	awarded, err := s.gamification.HasAwarded(userID, models.SourceChallenge, checkinID)
	if err != nil {
		return nil, err
	}
	if !awarded {
		if _, _, err := s.gamification.AwardXP(userID, challengeCheckinXP, models.SourceChallenge, &checkinID, "Challenge check-in"); err != nil {
			return nil, err
		}
		result.XPAwarded = challengeCheckinXP
	}

	if !replayed {
		res, err := s.evaluate(userID)
		if err != nil {
			return nil, err
		}
		result.NewAchievements = res.NewAchievements
	}
	return result, nil
}

// StreakFor recomputes the streak for one activity type from the full set
// of the user's event dates. Read path only; nothing is persisted.
func (s *ActivityService) StreakFor(userID uint, activityType string) (Streak, error) {
	switch activityType {
	case models.ActivityMoodLog, models.ActivityJournalEntry, models.ActivityHabitCompletion,
		models.ActivityChallengeCheck, models.ActivityMicroSession:
	default:
		return Streak{}, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, activityType)
	}

	var stamps []time.Time
	err := s.db.Model(&models.ActivityEvent{}).
		Where("user_id = ? AND activity_type = ?", userID, activityType).
		Pluck("occurred_at", &stamps).Error
	if err != nil {
		return Streak{}, fmt.Errorf("load %s events for user %d: %w", activityType, userID, err)
	}

	dates := make([]time.Time, len(stamps))
	for i, ts := range stamps {
		dates[i] = s.policy.Normalize(ts)
	}
	return ComputeStreak(dates, s.policy.Today()), nil
}

// recordFact appends the activity event and writes the authoritative fact
// in a single transaction. The event UID doubles as the retry key: when a
// client resends one, the insert no-ops against the unique event_uid index
// and the fact write is skipped, so a retried submission can never land a
// second fact or inflate counters.
func (s *ActivityService) recordFact(userID uint, activityType, eventUID string, occurredAt time.Time, payload string, writeFact func(tx *gorm.DB) error) (bool, error) {
	if eventUID == "" {
		eventUID = uuid.NewString()
	}
	var replayed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		event := &models.ActivityEvent{
			EventUID:     eventUID,
			UserID:       userID,
			ActivityType: activityType,
			OccurredAt:   occurredAt,
			Payload:      payload,
		}
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_uid"}},
			DoNothing: true,
		}).Create(event)
		if res.Error != nil {
			return fmt.Errorf("append %s event for user %d: %w", activityType, userID, res.Error)
		}
		if res.RowsAffected == 0 {
			replayed = true
			return nil
		}
		if writeFact != nil {
			return writeFact(tx)
		}
		return nil
	})
	return replayed, err
}

// evaluate re-checks the achievement rules against a fresh summary.
func (s *ActivityService) evaluate(userID uint) (*ActivityResult, error) {
	sum, err := s.achievements.Summary(userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.achievements.Evaluate(userID, sum)
	if err != nil {
		return nil, err
	}
	return &ActivityResult{NewAchievements: earned}, nil
}
