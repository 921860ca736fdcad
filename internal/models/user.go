package models

import "time"

// User is a student account together with its progression ledger
type User struct {
	ID            int64
	Username      string
	Email         string
	PasswordHash  string
	OAuthProvider string
	OAuthSubject  string
	IsAdmin       bool

	// Preferences
	Grade         string
	Theme         string
	SoundsEnabled bool
	Difficulty    string
	DailyGoal     int

	// Daily usage quotas, reset when LastActiveDate is not today
	FlashUsage     int
	ProUsage       int
	LastActiveDate string

	// Progression
	TotalXP               int
	Level                 int
	StreakCount           int
	LastStudyDate         string
	DailyLessonsCompleted int
	DailyLessonsDate      string
	PetStage              string
	PetMood               string
	PomodorosCompleted    int

	CurrentChatID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPassword reports whether the account can sign in with a password
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

// Session represents an authenticated session
type Session struct {
	ID        string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// PasswordResetToken represents a token for password reset
type PasswordResetToken struct {
	Token     string
	UserID    int64
	ExpiresAt time.Time
	CreatedAt time.Time
	Used      bool
}

// IsExpired checks if the reset token has expired
func (t *PasswordResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsValid reports whether the token can still be redeemed
func (t *PasswordResetToken) IsValid() bool {
	return !t.Used && !t.IsExpired()
}
