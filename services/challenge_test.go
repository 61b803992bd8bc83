package services

import (
	"errors"
	"testing"
	"time"

	"github.com/bloomwell/bloom/models"
	"github.com/bloomwell/bloom/utils"
)

func seedChallenge(t *testing.T, svc *ChallengeService) *models.Challenge {
	t.Helper()
	ch, err := svc.Create("30 Days of Movement", "move every day", mustDay("2025-06-01"), mustDay("2025-06-30"))
	if err != nil {
		t.Fatalf("create challenge: %v", err)
	}
	return ch
}

func TestChallengeCreateValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))

	if _, err := svc.Create("", "", mustDay("2025-06-01"), mustDay("2025-06-30")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty name error = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Create("backwards", "", mustDay("2025-06-30"), mustDay("2025-06-01")); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("end-before-start error = %v, want ErrInvalidInput", err)
	}
}

func TestJoinIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))
	ch := seedChallenge(t, svc)
	userID := seedUser(t, db, "ada")

	first, err := svc.Join(ch.ID, userID)
	if err != nil {
		t.Fatalf("first join: %v", err)
	}
	second, err := svc.Join(ch.ID, userID)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("second join created a new row: %d vs %d", first.ID, second.ID)
	}

	var count int64
	db.Model(&models.ChallengeParticipant{}).Where("challenge_id = ?", ch.ID).Count(&count)
	if count != 1 {
		t.Fatalf("participants = %d, want 1", count)
	}
}

func TestJoinUnknownChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))
	userID := seedUser(t, db, "bob")

	if _, err := svc.Join(999, userID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestCheckinMovesCountersOncePerDay(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))
	ch := seedChallenge(t, svc)
	userID := seedUser(t, db, "carol")
	p, err := svc.Join(ch.ID, userID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	day1 := mustDay("2025-06-02")
	if _, err := svc.Checkin(p.ID, day1, true, "done"); err != nil {
		t.Fatalf("day1 checkin: %v", err)
	}
	// A retried submission for the same day must not count twice.
	if _, err := svc.Checkin(p.ID, day1, true, "done again"); err != nil {
		t.Fatalf("day1 retry: %v", err)
	}
	if _, err := svc.Checkin(p.ID, day1.AddDate(0, 0, 1), true, ""); err != nil {
		t.Fatalf("day2 checkin: %v", err)
	}

	got, err := svc.ParticipantForUser(ch.ID, userID)
	if err != nil {
		t.Fatalf("reload participant: %v", err)
	}
	if got.TotalCompletions != 2 {
		t.Fatalf("TotalCompletions = %d, want 2", got.TotalCompletions)
	}
	if got.CurrentStreak != 2 || got.BestStreak != 2 {
		t.Fatalf("streaks = (%d, %d), want (2, 2)", got.CurrentStreak, got.BestStreak)
	}

	var checkin models.ChallengeCheckin
	if err := db.Where("participant_id = ? AND date = ?", p.ID, day1).First(&checkin).Error; err != nil {
		t.Fatalf("load day1 checkin: %v", err)
	}
	if checkin.Notes != "done again" {
		t.Fatalf("retry must still update notes, got %q", checkin.Notes)
	}
}

func TestCheckinIncompleteThenComplete(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))
	ch := seedChallenge(t, svc)
	userID := seedUser(t, db, "dave")
	p, err := svc.Join(ch.ID, userID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	day := mustDay("2025-06-05")
	if _, err := svc.Checkin(p.ID, day, false, "skipped"); err != nil {
		t.Fatalf("incomplete checkin: %v", err)
	}
	got, _ := svc.ParticipantForUser(ch.ID, userID)
	if got.TotalCompletions != 0 || got.CurrentStreak != 0 {
		t.Fatalf("incomplete checkin moved counters: %+v", got)
	}

	// Completing the same day later counts exactly once.
	if _, err := svc.Checkin(p.ID, day, true, "made it"); err != nil {
		t.Fatalf("complete checkin: %v", err)
	}
	got, _ = svc.ParticipantForUser(ch.ID, userID)
	if got.TotalCompletions != 1 || got.CurrentStreak != 1 || got.BestStreak != 1 {
		t.Fatalf("counters = %+v, want one completion", got)
	}

	// A later completed=false submission never un-completes the day.
	checkin, err := svc.Checkin(p.ID, day, false, "")
	if err != nil {
		t.Fatalf("downgrade attempt: %v", err)
	}
	if !checkin.Completed {
		t.Fatal("completed day was reverted by a false submission")
	}
	got, _ = svc.ParticipantForUser(ch.ID, userID)
	if got.TotalCompletions != 1 {
		t.Fatalf("TotalCompletions = %d after downgrade attempt, want 1", got.TotalCompletions)
	}
}

func TestCheckinUnknownParticipant(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))

	if _, err := svc.Checkin(999, mustDay("2025-06-02"), true, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestLeaderboardOrderAndTieBreak(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))
	ch := seedChallenge(t, svc)

	type member struct {
		name        string
		completions int
		joined      time.Time
	}
	members := []member{
		{"erin", 5, mustDay("2025-06-01").Add(9 * time.Hour)},
		{"frank", 7, mustDay("2025-06-01").Add(10 * time.Hour)},
		{"grace", 5, mustDay("2025-06-01").Add(8 * time.Hour)},
	}
	for _, m := range members {
		userID := seedUser(t, db, m.name)
		p, err := svc.Join(ch.ID, userID)
		if err != nil {
			t.Fatalf("join %s: %v", m.name, err)
		}
		err = db.Model(&models.ChallengeParticipant{}).Where("id = ?", p.ID).
			Updates(map[string]interface{}{
				"total_completions": m.completions,
				"joined_at":         m.joined,
			}).Error
		if err != nil {
			t.Fatalf("seed counters for %s: %v", m.name, err)
		}
	}

	// Drop any cached ranking so the read reflects the seeded counters.
	utils.InvalidateByPrefix(leaderboardCacheKey(ch.ID))

	entries, err := svc.Leaderboard(ch.ID)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// frank leads outright; erin and grace tie at 5, the earlier join wins.
	wantOrder := []string{"frank", "grace", "erin"}
	for i, want := range wantOrder {
		if entries[i].Username != want {
			t.Fatalf("rank %d = %s, want %s (full order %+v)", i+1, entries[i].Username, want, entries)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("rank field = %d, want %d", entries[i].Rank, i+1)
		}
	}
}

func TestLeaderboardUnknownChallenge(t *testing.T) {
	db := newTestDB(t)
	svc := NewChallengeService(db, NewDayPolicy(""))

	if _, err := svc.Leaderboard(999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}
