package gamification

import "sorokinportal/internal/catalog"

// Companion pet stages
const (
	StageEgg   = "egg"
	StageBaby  = "baby"
	StageTeen  = "teen"
	StageAdult = "adult"
)

// Companion pet moods
const (
	MoodHappy   = "happy"
	MoodNeutral = "neutral"
	MoodSad     = "sad"
)

// PetStage maps a user level to the companion's growth stage
func PetStage(level int) string {
	switch {
	case level >= 10:
		return StageAdult
	case level >= 6:
		return StageTeen
	case level >= 3:
		return StageBaby
	default:
		return StageEgg
	}
}

// PetMood depends on how many days ago the user last studied
func PetMood(lastStudy, today string) string {
	if lastStudy == "" {
		return MoodNeutral
	}
	days, err := DaysBetween(lastStudy, today)
	if err != nil {
		return MoodNeutral
	}
	switch {
	case days <= 0:
		return MoodHappy
	case days == 1:
		return MoodNeutral
	default:
		return MoodSad
	}
}

// PetDisplay is what the dashboard renders for the companion
type PetDisplay struct {
	Emoji     string `json:"emoji"`
	Name      string `json:"name"`
	MoodEmoji string `json:"mood_emoji"`
	Stage     string `json:"stage"`
	Mood      string `json:"mood"`
}

var stageDisplay = map[string][2]string{
	StageEgg:   {"🥚", "Mysterious Egg"},
	StageBaby:  {"🐣", "Baby Scholar"},
	StageTeen:  {"🐥", "Teen Genius"},
	StageAdult: {"🦉", "Wise Owl"},
}

var moodEmoji = map[string]string{
	MoodHappy:   "😊",
	MoodNeutral: "😐",
	MoodSad:     "😢",
}

func DisplayPet(stage, mood string) PetDisplay {
	d, ok := stageDisplay[stage]
	if !ok {
		d = stageDisplay[StageEgg]
		stage = StageEgg
	}
	me, ok := moodEmoji[mood]
	if !ok {
		me = moodEmoji[MoodNeutral]
		mood = MoodNeutral
	}
	return PetDisplay{Emoji: d[0], Name: d[1], MoodEmoji: me, Stage: stage, Mood: mood}
}

// StudyTimeBadge returns the time-of-day badge earned by studying at hour, or ""
func StudyTimeBadge(hour int) string {
	switch {
	case hour >= 22 || hour < 5:
		return catalog.BadgeNightOwl
	case hour >= 5 && hour < 7:
		return catalog.BadgeEarlyBird
	}
	return ""
}
