package services

import (
	"errors"
	"testing"
	"time"

	"github.com/bloomwell/bloom/models"
)

func TestEvaluateAwardsOnceAndOnlyOnce(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	ach := NewAchievementService(db, policy)
	userID := seedUser(t, db, "ada")

	sum := ProgressSummary{TotalMoodCheckins: 1}

	earned, err := ach.Evaluate(userID, sum)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if len(earned) != 1 || earned[0] != AchFirstMood {
		t.Fatalf("first evaluate = %v, want [%s]", earned, AchFirstMood)
	}

	// A redundant evaluation over the same summary must be a no-op.
	earned, err = ach.Evaluate(userID, sum)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if len(earned) != 0 {
		t.Fatalf("second evaluate = %v, want empty", earned)
	}

	awards, err := ach.Awards(userID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(awards) != 1 {
		t.Fatalf("stored awards = %d, want 1", len(awards))
	}
}

func TestEvaluateThresholds(t *testing.T) {
	tests := []struct {
		name   string
		sum    ProgressSummary
		earned []string
	}{
		{
			name:   "empty summary earns nothing",
			sum:    ProgressSummary{},
			earned: nil,
		},
		{
			name:   "one of everything",
			sum:    ProgressSummary{TotalMoodCheckins: 1, TotalJournalEntries: 1, TotalHabitsCompleted: 1},
			earned: []string{AchFirstMood, AchFirstJournal, AchFirstHabit},
		},
		{
			name:   "streak of three not seven",
			sum:    ProgressSummary{CurrentHabitStreak: 3},
			earned: []string{AchHabitStreak3},
		},
		{
			name:   "week streak includes three",
			sum:    ProgressSummary{CurrentHabitStreak: 7},
			earned: []string{AchHabitStreak3, AchHabitStreak7},
		},
		{
			name:   "high counters",
			sum:    ProgressSummary{TotalMoodCheckins: 10, TotalJournalEntries: 5, TotalHabitsCompleted: 20},
			earned: []string{AchFirstMood, AchFirstJournal, AchFirstHabit, AchMood10, AchJournal5, AchHabits20},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			ach := NewAchievementService(db, NewDayPolicy(""))
			userID := seedUser(t, db, "thresholds")

			earned, err := ach.Evaluate(userID, tc.sum)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			got := map[string]bool{}
			for _, id := range earned {
				got[id] = true
			}
			if len(earned) != len(tc.earned) {
				t.Fatalf("earned %v, want %v", earned, tc.earned)
			}
			for _, id := range tc.earned {
				if !got[id] {
					t.Fatalf("earned %v, missing %s", earned, id)
				}
			}
		})
	}
}

func TestHasEarnedRejectsUnknownID(t *testing.T) {
	db := newTestDB(t)
	ach := NewAchievementService(db, NewDayPolicy(""))
	userID := seedUser(t, db, "ida")

	if _, err := ach.HasEarned(userID, "chocolate_lover"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}

	earned, err := ach.HasEarned(userID, AchFirstMood)
	if err != nil {
		t.Fatalf("HasEarned: %v", err)
	}
	if earned {
		t.Fatal("fresh user should not hold any award")
	}

	if _, err := ach.Evaluate(userID, ProgressSummary{TotalMoodCheckins: 1}); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	earned, err = ach.HasEarned(userID, AchFirstMood)
	if err != nil {
		t.Fatalf("HasEarned: %v", err)
	}
	if !earned {
		t.Fatal("award should be visible after evaluation")
	}
}

func TestSummaryCountsFacts(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	ach := NewAchievementService(db, policy)
	userID := seedUser(t, db, "counter")

	for i := 0; i < 3; i++ {
		if err := db.Create(&models.MoodEntry{UserID: userID, Score: 6}).Error; err != nil {
			t.Fatalf("seed mood: %v", err)
		}
	}
	if err := db.Create(&models.JournalEntry{UserID: userID, Content: "today was fine"}).Error; err != nil {
		t.Fatalf("seed journal: %v", err)
	}

	habit := models.Habit{UserID: userID, Name: "walk"}
	if err := db.Create(&habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}
	today := policy.Today()
	for i := 0; i < 3; i++ {
		c := models.HabitCompletion{
			HabitID:   habit.ID,
			UserID:    userID,
			Date:      today.Add(-time.Duration(i) * 24 * time.Hour),
			Completed: true,
		}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed completion %d: %v", i, err)
		}
	}
	// An un-done row must not count toward totals or the streak.
	undone := models.HabitCompletion{
		HabitID: habit.ID,
		UserID:  userID,
		Date:    today.Add(-10 * 24 * time.Hour),
	}
	if err := db.Create(&undone).Error; err != nil {
		t.Fatalf("seed undone completion: %v", err)
	}

	sum, err := ach.Summary(userID)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	want := ProgressSummary{
		TotalMoodCheckins:    3,
		TotalJournalEntries:  1,
		TotalHabitsCompleted: 3,
		CurrentHabitStreak:   3,
	}
	if sum != want {
		t.Fatalf("summary = %+v, want %+v", sum, want)
	}
}
