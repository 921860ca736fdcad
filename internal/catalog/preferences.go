package catalog

// Grades a student can select
var Grades = []string{"9th", "10th", "11th", "12th", "College"}

// Difficulty levels for tutoring
const (
	DifficultySimple   = "Simple"
	DifficultyStandard = "Standard"
	DifficultyAdvanced = "Advanced"
)

var Difficulties = []string{DifficultySimple, DifficultyStandard, DifficultyAdvanced}

// DifficultyHint is appended to the teaching prompt
func DifficultyHint(difficulty string) string {
	switch difficulty {
	case DifficultySimple:
		return "Explain like they're 10."
	case DifficultyAdvanced:
		return "Deep technical detail."
	default:
		return "Grade-appropriate."
	}
}

// Theme is a named colour scheme applied through CSS variables
type Theme struct {
	Name       string `json:"name"`
	Background string `json:"bg"`
	Accent     string `json:"accent"`
	Text       string `json:"text"`
}

const DefaultTheme = "Auto"

var Themes = []Theme{
	{"Auto", "#1a2a3a", "#f1c40f", "#ffffff"},
	{"Dark Ocean", "#1a2a3a", "#f1c40f", "#ffffff"},
	{"Midnight Purple", "#1a1a2e", "#e94560", "#ffffff"},
	{"Forest Green", "#1a2e1a", "#4ecca3", "#ffffff"},
	{"Light Mode", "#f5f5f5", "#3498db", "#1a1a1a"},
	{"Sunset", "#2d1f3d", "#ff6b6b", "#ffffff"},
}

// LookupTheme finds a theme by name
func LookupTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// ThemeOrDefault falls back to the default theme for unknown names
func ThemeOrDefault(name string) Theme {
	if t, ok := LookupTheme(name); ok {
		return t
	}
	t, _ := LookupTheme(DefaultTheme)
	return t
}

// ChatSubject is a tutoring persona for free-form chat
type ChatSubject struct {
	Name   string
	Prompt string
}

const DefaultChatSubject = "General"

var ChatSubjects = []ChatSubject{
	{"General", ""},
	{"Math", "You are a math tutor. Explain concepts clearly with examples."},
	{"Science", "You are a science tutor. Use scientific reasoning and examples."},
	{"English", "You are an English tutor. Focus on grammar, writing, and literature."},
	{"Code", "You are a programming tutor. Provide code examples and explanations."},
	{"History", "You are a history tutor. Provide historical context and analysis."},
}

// ChatPrompt returns the persona prefix for a subject; unknown subjects get none
func ChatPrompt(subject string) string {
	for _, s := range ChatSubjects {
		if s.Name == subject {
			return s.Prompt
		}
	}
	return ""
}
