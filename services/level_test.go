package services

import "testing"

func TestLevelFor(t *testing.T) {
	tests := []struct {
		totalXP int
		level   int
		toNext  int
	}{
		{0, 1, 100},
		{50, 1, 50},
		{99, 1, 1},
		{100, 2, 200},   // crossed level 1's 100 XP cost
		{150, 2, 150},   // the three 50 XP daily check-ins scenario
		{299, 2, 1},
		{300, 3, 300},   // 100 + 200 cumulative
		{600, 4, 400},   // 100 + 200 + 300
		{1000, 5, 500}, // 100+200+300+400 = 1000 exactly; level 5 costs 500
	}

	for _, tc := range tests {
		level, toNext := LevelFor(tc.totalXP)
		if level != tc.level || toNext != tc.toNext {
			t.Errorf("LevelFor(%d) = (%d, %d), want (%d, %d)", tc.totalXP, level, toNext, tc.level, tc.toNext)
		}
	}
}

func TestLevelForMonotonic(t *testing.T) {
	prevLevel := 0
	for xp := 0; xp <= 5000; xp += 7 {
		level, toNext := LevelFor(xp)
		if level < prevLevel {
			t.Fatalf("level decreased at %d XP: %d -> %d", xp, prevLevel, level)
		}
		if toNext <= 0 {
			t.Fatalf("xpToNext must stay positive, got %d at %d XP", toNext, xp)
		}
		prevLevel = level
	}
}

func TestLevelForNegativeClamped(t *testing.T) {
	level, toNext := LevelFor(-10)
	if level != 1 || toNext != 100 {
		t.Fatalf("LevelFor(-10) = (%d, %d), want (1, 100)", level, toNext)
	}
}
