package catalog

// Badge ids
const (
	BadgeFirstLesson     = "first_lesson"
	BadgeFiveLessons     = "five_lessons"
	BadgeTenLessons      = "ten_lessons"
	BadgeFirstQuiz       = "first_quiz"
	BadgePerfectQuiz     = "perfect_quiz"
	BadgeNightOwl        = "night_owl"
	BadgeEarlyBird       = "early_bird"
	BadgePomodoro5       = "pomodoro_5"
	BadgeMathExplorer    = "math_explorer"
	BadgeScienceExplorer = "science_explorer"
	BadgeCodeExplorer    = "code_explorer"
)

// Badge is a one-time achievement that grants bonus XP
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	XP          int    `json:"xp"`
}

// Badges lists every badge in display order
var Badges = []Badge{
	{BadgeFirstLesson, "First Steps", "🎯", "Complete your first lesson", 50},
	{BadgeFiveLessons, "Getting Started", "📚", "Complete 5 lessons", 100},
	{BadgeTenLessons, "Dedicated", "🌟", "Complete 10 lessons", 200},
	{BadgeFirstQuiz, "Quiz Taker", "📝", "Complete your first quiz", 50},
	{BadgePerfectQuiz, "Perfectionist", "💯", "Score 100% on a quiz", 150},
	{BadgeNightOwl, "Night Owl", "🦉", "Study after 10 PM", 50},
	{BadgeEarlyBird, "Early Bird", "🐦", "Study before 7 AM", 50},
	{BadgePomodoro5, "Focus Master", "🍅", "Complete 5 pomodoro sessions", 100},
	{BadgeMathExplorer, "Math Explorer", "🧮", "Complete a math lesson", 50},
	{BadgeScienceExplorer, "Science Explorer", "🧬", "Complete a science lesson", 50},
	{BadgeCodeExplorer, "Code Explorer", "💻", "Complete a computer science lesson", 50},
}

var badgeByID = func() map[string]Badge {
	m := make(map[string]Badge, len(Badges))
	for _, b := range Badges {
		m[b.ID] = b
	}
	return m
}()

// LookupBadge returns the badge with the given id
func LookupBadge(id string) (Badge, bool) {
	b, ok := badgeByID[id]
	return b, ok
}

// ExplorerBadge returns the subject badge for a lesson's subject, or "" if none
func ExplorerBadge(subject string) string {
	switch subject {
	case "math":
		return BadgeMathExplorer
	case "science":
		return BadgeScienceExplorer
	case "cs":
		return BadgeCodeExplorer
	}
	return ""
}
