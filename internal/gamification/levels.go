package gamification

// LevelThresholds is the minimum total XP for each level, index 0 being level 1
var LevelThresholds = []int{0, 100, 250, 500, 1000, 1750, 2750, 4000, 5500, 7500, 10000}

var LevelNames = []string{
	"Novice", "Learner", "Student", "Scholar", "Adept", "Expert",
	"Master", "Sage", "Luminary", "Genius", "Transcendent",
}

// MaxLevel is the highest reachable level
var MaxLevel = len(LevelThresholds)

// LevelForXP returns the level reached with the given total XP
func LevelForXP(xp int) int {
	level := 1
	for i, threshold := range LevelThresholds {
		if xp >= threshold {
			level = i + 1
		}
	}
	return level
}

// LevelName returns the title for a level, clamped to the valid range
func LevelName(level int) string {
	level = max(1, min(level, MaxLevel))
	return LevelNames[level-1]
}

// LevelInfo describes progress toward the next level
type LevelInfo struct {
	Level         int     `json:"level"`
	Name          string  `json:"name"`
	XP            int     `json:"xp"`
	LevelStartXP  int     `json:"level_start_xp"`
	NextLevelXP   int     `json:"next_level_xp"`
	XPToNext      int     `json:"xp_to_next"`
	ProgressPct   float64 `json:"progress_pct"`
	IsMaxLevel    bool    `json:"is_max_level"`
	NextLevelName string  `json:"next_level_name,omitempty"`
}

func GetLevelInfo(xp int) LevelInfo {
	level := LevelForXP(xp)
	info := LevelInfo{
		Level:        level,
		Name:         LevelName(level),
		XP:           xp,
		LevelStartXP: LevelThresholds[level-1],
	}

	if level >= MaxLevel {
		info.IsMaxLevel = true
		info.NextLevelXP = info.LevelStartXP
		info.ProgressPct = 100
		return info
	}

	info.NextLevelXP = LevelThresholds[level]
	info.NextLevelName = LevelName(level + 1)
	info.XPToNext = info.NextLevelXP - xp
	span := info.NextLevelXP - info.LevelStartXP
	info.ProgressPct = float64(xp-info.LevelStartXP) / float64(span) * 100
	return info
}
