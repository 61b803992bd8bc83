package services

import (
	"errors"
	"testing"
	"time"

	"github.com/bloomwell/bloom/models"
)

func TestRecordMoodUnlocksFirstAchievement(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	gam := NewGamificationService(db)
	ach := NewAchievementService(db, policy)
	act := NewActivityService(db, policy, gam, ach)
	userID := seedUser(t, db, "ada")

	entry, res, err := act.RecordMood(userID, 7, "good day", "", time.Now())
	if err != nil {
		t.Fatalf("record mood: %v", err)
	}
	if entry.ID == 0 {
		t.Fatal("mood entry was not persisted")
	}
	if len(res.NewAchievements) != 1 || res.NewAchievements[0] != AchFirstMood {
		t.Fatalf("NewAchievements = %v, want [%s]", res.NewAchievements, AchFirstMood)
	}

	// The second check-in unlocks nothing new.
	_, res, err = act.RecordMood(userID, 4, "", "", time.Now())
	if err != nil {
		t.Fatalf("second mood: %v", err)
	}
	if len(res.NewAchievements) != 0 {
		t.Fatalf("second mood earned %v, want nothing", res.NewAchievements)
	}

	var events int64
	db.Model(&models.ActivityEvent{}).
		Where("user_id = ? AND activity_type = ?", userID, models.ActivityMoodLog).
		Count(&events)
	if events != 2 {
		t.Fatalf("activity events = %d, want 2", events)
	}
}

func TestRecordMoodRetrySameEventUIDWritesNothing(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	gam := NewGamificationService(db)
	ach := NewAchievementService(db, policy)
	act := NewActivityService(db, policy, gam, ach)
	userID := seedUser(t, db, "nora")

	uid := "client-retry-001"
	if _, _, err := act.RecordMood(userID, 8, "", uid, time.Now()); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	// A network timeout makes the client resend the identical request.
	_, res, err := act.RecordMood(userID, 8, "", uid, time.Now())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.Replayed {
		t.Fatal("retry was not reported as replayed")
	}
	if len(res.NewAchievements) != 0 {
		t.Fatalf("retry earned %v, want nothing", res.NewAchievements)
	}

	var moods, events int64
	db.Model(&models.MoodEntry{}).Where("user_id = ?", userID).Count(&moods)
	db.Model(&models.ActivityEvent{}).Where("user_id = ?", userID).Count(&events)
	if moods != 1 || events != 1 {
		t.Fatalf("rows after retry: %d moods, %d events, want 1 and 1", moods, events)
	}
}

func TestRecordMoodRejectsOutOfRangeScore(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	act := NewActivityService(db, policy, NewGamificationService(db), NewAchievementService(db, policy))
	userID := seedUser(t, db, "bob")

	for _, score := range []int{0, 11, -3} {
		if _, _, err := act.RecordMood(userID, score, "", "", time.Now()); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("score %d error = %v, want ErrInvalidInput", score, err)
		}
	}
}

func TestRecordJournalSanitizesContent(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	act := NewActivityService(db, policy, NewGamificationService(db), NewAchievementService(db, policy))
	userID := seedUser(t, db, "carol")

	entry, _, err := act.RecordJournal(userID, "day one", `hello <script>alert(1)</script>world`, "", time.Now())
	if err != nil {
		t.Fatalf("record journal: %v", err)
	}
	if entry.Content != "hello world" {
		t.Fatalf("content = %q, want script stripped", entry.Content)
	}
}

func TestToggleHabitOneRowPerDay(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	act := NewActivityService(db, policy, NewGamificationService(db), NewAchievementService(db, policy))
	userID := seedUser(t, db, "dave")

	habit := models.Habit{UserID: userID, Name: "meditate"}
	if err := db.Create(&habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}

	// Two toggles at different times of the same day collapse to one row.
	morning := mustDay("2025-06-10").Add(8 * time.Hour)
	evening := mustDay("2025-06-10").Add(21 * time.Hour)
	if _, _, err := act.ToggleHabit(userID, habit.ID, true, "", morning); err != nil {
		t.Fatalf("morning toggle: %v", err)
	}
	completion, _, err := act.ToggleHabit(userID, habit.ID, false, "", evening)
	if err != nil {
		t.Fatalf("evening toggle: %v", err)
	}

	var count int64
	db.Model(&models.HabitCompletion{}).Where("habit_id = ?", habit.ID).Count(&count)
	if count != 1 {
		t.Fatalf("completion rows = %d, want 1", count)
	}
	if completion.Completed {
		t.Fatal("evening toggle off did not stick")
	}
}

func TestToggleHabitOwnershipRequired(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	act := NewActivityService(db, policy, NewGamificationService(db), NewAchievementService(db, policy))
	owner := seedUser(t, db, "erin")
	stranger := seedUser(t, db, "frank")

	habit := models.Habit{UserID: owner, Name: "read"}
	if err := db.Create(&habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}

	if _, _, err := act.ToggleHabit(stranger, habit.ID, true, "", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestSubmitDailyMetricsAwardsXPOnce(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	gam := NewGamificationService(db)
	act := NewActivityService(db, policy, gam, NewAchievementService(db, policy))
	userID := seedUser(t, db, "grace")

	day := mustDay("2025-06-11").Add(9 * time.Hour)
	in := DailyMetricsInput{Mood: floatPtr(6), SleepHours: floatPtr(7)}

	metric, res, err := act.SubmitDailyMetrics(userID, in, 50, "", day)
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if res.XPAwarded != 50 {
		t.Fatalf("first submit XPAwarded = %d, want 50", res.XPAwarded)
	}

	// A corrected resubmission later the same day updates the row but never
	// earns a second award.
	in.Mood = floatPtr(4)
	metric2, res, err := act.SubmitDailyMetrics(userID, in, 50, "", day.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if res.XPAwarded != 0 {
		t.Fatalf("resubmit XPAwarded = %d, want 0", res.XPAwarded)
	}
	if metric2.ID != metric.ID {
		t.Fatalf("resubmit created a new row: %d vs %d", metric2.ID, metric.ID)
	}

	var stored models.DailyMetric
	if err := db.First(&stored, metric.ID).Error; err != nil {
		t.Fatalf("reload metric: %v", err)
	}
	if stored.Mood == nil || *stored.Mood != 4 {
		t.Fatalf("stored mood = %v, want corrected 4", stored.Mood)
	}

	profile, err := gam.Profile(userID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.TotalXP != 50 {
		t.Fatalf("TotalXP = %d, want 50", profile.TotalXP)
	}
}

func TestRecordChallengeActivityAwardsXPOncePerCheckin(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	gam := NewGamificationService(db)
	act := NewActivityService(db, policy, gam, NewAchievementService(db, policy))
	userID := seedUser(t, db, "judy")

	day := mustDay("2025-06-12")
	checkinID := uint(7)

	res, err := act.RecordChallengeActivity(userID, 1, checkinID, day)
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if res.XPAwarded == 0 {
		t.Fatal("first completed check-in should earn XP")
	}

	res, err = act.RecordChallengeActivity(userID, 1, checkinID, day)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if res.XPAwarded != 0 {
		t.Fatalf("replayed check-in earned %d XP, want 0", res.XPAwarded)
	}

	// The event UID hangs off the check-in row, so the replay appends no
	// second event to the stream.
	var events int64
	db.Model(&models.ActivityEvent{}).
		Where("user_id = ? AND activity_type = ?", userID, models.ActivityChallengeCheck).
		Count(&events)
	if events != 1 {
		t.Fatalf("challenge events = %d, want 1", events)
	}

	streak, err := act.StreakFor(userID, models.ActivityChallengeCheck)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak.Longest != 1 {
		t.Fatalf("longest = %d, want 1", streak.Longest)
	}
}

func TestStreakForValidatesActivityType(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	act := NewActivityService(db, policy, NewGamificationService(db), NewAchievementService(db, policy))
	userID := seedUser(t, db, "henry")

	if _, err := act.StreakFor(userID, "jumping_jacks"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestStreakForCountsConsecutiveDays(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	gam := NewGamificationService(db)
	act := NewActivityService(db, policy, gam, NewAchievementService(db, policy))
	userID := seedUser(t, db, "iris")

	now := time.Now()
	for i := 0; i < 3; i++ {
		if _, _, err := act.RecordMood(userID, 5, "", "", now.Add(-time.Duration(i)*24*time.Hour)); err != nil {
			t.Fatalf("record mood %d: %v", i, err)
		}
	}

	streak, err := act.StreakFor(userID, models.ActivityMoodLog)
	if err != nil {
		t.Fatalf("streak: %v", err)
	}
	if streak.Current != 3 || streak.Longest != 3 {
		t.Fatalf("streak = %+v, want {3 3}", streak)
	}
}
