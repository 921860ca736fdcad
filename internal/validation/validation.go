package validation

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"sorokinportal/internal/catalog"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)
)

const (
	MinDailyGoal = 1
	MaxDailyGoal = 10
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidateOptionalEmail accepts an empty value, otherwise behaves like ValidateEmail
func ValidateOptionalEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return nil
	}
	return ValidateEmail(email)
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 8 {
		return ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

// ValidateUsername checks length and character set. Profanity is checked separately against the database.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ValidationError{Field: "username", Message: "username is required"}
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username must be 3-32 letters, digits, '-' or '_'"}
	}
	return nil
}

func ValidateGrade(grade string) error {
	if !slices.Contains(catalog.Grades, grade) {
		return ValidationError{Field: "grade", Message: "unknown grade level"}
	}
	return nil
}

func ValidateDifficulty(difficulty string) error {
	if !slices.Contains(catalog.Difficulties, difficulty) {
		return ValidationError{Field: "difficulty", Message: "unknown difficulty"}
	}
	return nil
}

func ValidateTheme(theme string) error {
	if _, ok := catalog.LookupTheme(theme); !ok {
		return ValidationError{Field: "theme", Message: "unknown theme"}
	}
	return nil
}

// ParseDailyGoal parses a form value and checks it is within 1-10
func ParseDailyGoal(raw string) (int, error) {
	goal, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, ValidationError{Field: "daily_goal", Message: "daily goal must be a number"}
	}
	if goal < MinDailyGoal || goal > MaxDailyGoal {
		return 0, ValidationError{Field: "daily_goal", Message: fmt.Sprintf("daily goal must be between %d and %d", MinDailyGoal, MaxDailyGoal)}
	}
	return goal, nil
}
