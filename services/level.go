package services

// LevelXPCost is the XP required to finish level n and reach n+1.
// Level 1 costs 100, level 2 costs 200, and so on.
func LevelXPCost(level int) int {
	return 100 * level
}

// LevelFor maps a lifetime XP total to (level, XP still needed to reach the
// next level). Pure and independent of transaction order: the profile row
// only caches this function's output. LevelFor(0) == (1, 100) and the level
// is monotonic non-decreasing in totalXP.
func LevelFor(totalXP int) (level int, xpToNext int) {
	if totalXP < 0 {
		totalXP = 0
	}
	level = 1
	threshold := 0
	for totalXP >= threshold+LevelXPCost(level) {
		threshold += LevelXPCost(level)
		level++
	}
	return level, threshold + LevelXPCost(level) - totalXP
}
