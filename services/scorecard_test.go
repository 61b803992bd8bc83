package services

import (
	"errors"
	"testing"
	"time"

	"github.com/bloomwell/bloom/models"
)

func TestAggregateAveragesSkipMissingFields(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	svc := NewScorecardService(db, policy)
	userID := seedUser(t, db, "ada")

	weekStart := mustDay("2025-06-02") // a Monday

	// Two days log mood, one logs energy, nobody logs sleep.
	seed := []models.DailyMetric{
		{UserID: userID, Date: weekStart, Mood: floatPtr(6), Energy: floatPtr(4)},
		{UserID: userID, Date: weekStart.AddDate(0, 0, 2), Mood: floatPtr(8)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed metric %d: %v", i, err)
		}
	}

	card, err := svc.Aggregate(userID, weekStart)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if card.AvgMood == nil || *card.AvgMood != 7 {
		t.Fatalf("AvgMood = %v, want 7", card.AvgMood)
	}
	if card.AvgEnergy == nil || *card.AvgEnergy != 4 {
		t.Fatalf("AvgEnergy = %v, want 4", card.AvgEnergy)
	}
	// Zero samples means NULL, never a misleading 0.
	if card.AvgSleepHours != nil || card.AvgSleepQuality != nil || card.AvgStress != nil {
		t.Fatalf("unlogged fields must stay nil, got sleep=%v quality=%v stress=%v",
			card.AvgSleepHours, card.AvgSleepQuality, card.AvgStress)
	}
}

func TestAggregateCountsWeekHabits(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	svc := NewScorecardService(db, policy)
	userID := seedUser(t, db, "bob")

	habit := models.Habit{UserID: userID, Name: "stretch"}
	if err := db.Create(&habit).Error; err != nil {
		t.Fatalf("seed habit: %v", err)
	}

	weekStart := mustDay("2025-06-02")
	inWeek := []time.Time{weekStart, weekStart.AddDate(0, 0, 3), weekStart.AddDate(0, 0, 6)}
	for _, d := range inWeek {
		c := models.HabitCompletion{HabitID: habit.ID, UserID: userID, Date: d, Completed: true}
		if err := db.Create(&c).Error; err != nil {
			t.Fatalf("seed completion: %v", err)
		}
	}
	// The following Monday belongs to the next week.
	next := models.HabitCompletion{HabitID: habit.ID, UserID: userID, Date: weekStart.AddDate(0, 0, 7), Completed: true}
	if err := db.Create(&next).Error; err != nil {
		t.Fatalf("seed next-week completion: %v", err)
	}

	card, err := svc.Aggregate(userID, weekStart)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if card.TotalHabitsCompleted != 3 {
		t.Fatalf("TotalHabitsCompleted = %d, want 3", card.TotalHabitsCompleted)
	}
}

func TestAggregateIdempotent(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	svc := NewScorecardService(db, policy)
	userID := seedUser(t, db, "carol")

	weekStart := mustDay("2025-06-02")
	metric := models.DailyMetric{UserID: userID, Date: weekStart, Mood: floatPtr(5), SleepHours: floatPtr(7.5)}
	if err := db.Create(&metric).Error; err != nil {
		t.Fatalf("seed metric: %v", err)
	}

	first, err := svc.Aggregate(userID, weekStart)
	if err != nil {
		t.Fatalf("first aggregate: %v", err)
	}
	second, err := svc.Aggregate(userID, weekStart)
	if err != nil {
		t.Fatalf("second aggregate: %v", err)
	}

	if *first.AvgMood != *second.AvgMood || *first.AvgSleepHours != *second.AvgSleepHours {
		t.Fatalf("recompute changed averages: %+v vs %+v", first, second)
	}
	var count int64
	db.Model(&models.WeeklyScorecard{}).Where("user_id = ?", userID).Count(&count)
	if count != 1 {
		t.Fatalf("stored scorecards = %d, want 1", count)
	}
}

func TestAggregateRejectsNonMonday(t *testing.T) {
	db := newTestDB(t)
	svc := NewScorecardService(db, NewDayPolicy(""))
	userID := seedUser(t, db, "dave")

	_, err := svc.Aggregate(userID, mustDay("2025-06-04")) // a Wednesday
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestScorecardWestOfUTCWeekStart(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("America/New_York")
	svc := NewScorecardService(db, policy)
	userID := seedUser(t, db, "pam")

	// The controller path: a day string resolves to the Monday of its week
	// under the deployment zone, and the service must accept it as-is.
	wednesday, err := policy.ParseDay("2025-06-18")
	if err != nil {
		t.Fatalf("parse day: %v", err)
	}
	weekStart := WeekStartFor(wednesday)
	if weekStart.Weekday() != time.Monday {
		t.Fatalf("week start is a %s, want Monday", weekStart.Weekday())
	}

	metric := models.DailyMetric{UserID: userID, Date: policy.Normalize(wednesday), Mood: floatPtr(7)}
	if err := db.Create(&metric).Error; err != nil {
		t.Fatalf("seed metric: %v", err)
	}

	card, err := svc.Scorecard(userID, weekStart)
	if err != nil {
		t.Fatalf("scorecard: %v", err)
	}
	if policy.DayKey(card.WeekStart) != "2025-06-16" {
		t.Fatalf("WeekStart = %s, want 2025-06-16", policy.DayKey(card.WeekStart))
	}
	if card.AvgMood == nil || *card.AvgMood != 7 {
		t.Fatalf("AvgMood = %v, want 7", card.AvgMood)
	}
}

func TestScorecardRecomputesOnMiss(t *testing.T) {
	db := newTestDB(t)
	policy := NewDayPolicy("")
	svc := NewScorecardService(db, policy)
	userID := seedUser(t, db, "erin")

	weekStart := mustDay("2025-06-02")
	metric := models.DailyMetric{UserID: userID, Date: weekStart.AddDate(0, 0, 1), Stress: floatPtr(3)}
	if err := db.Create(&metric).Error; err != nil {
		t.Fatalf("seed metric: %v", err)
	}

	// No stored row yet; the read path must compute one rather than 404.
	card, err := svc.Scorecard(userID, weekStart)
	if err != nil {
		t.Fatalf("scorecard: %v", err)
	}
	if card.AvgStress == nil || *card.AvgStress != 3 {
		t.Fatalf("AvgStress = %v, want 3", card.AvgStress)
	}
}
