package models

import "time"

// Lesson progress states
const (
	StatusAvailable = "available"
	StatusCompleted = "completed"
)

// LessonProgress is a user's state for one lesson. Status only moves forward.
type LessonProgress struct {
	ID          int64
	UserID      int64
	LessonKey   string
	Status      string
	CompletedAt *time.Time
	QuizScore   *int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *LessonProgress) IsCompleted() bool {
	return p.Status == StatusCompleted
}

// UserBadge records a badge award
type UserBadge struct {
	ID       int64
	UserID   int64
	BadgeID  string
	EarnedAt time.Time
}

// XP transaction sources
const (
	SourceLesson      = "lesson"
	SourceQuiz        = "quiz"
	SourceBadge       = "badge"
	SourceStreak      = "streak"
	SourceDailyGoal   = "daily_goal"
	SourcePomodoro    = "pomodoro"
	SourceEggPurchase = "egg_purchase"
)

// XPTransaction is one append-only entry in the XP audit log.
// Amount is negative for purchases.
type XPTransaction struct {
	ID         int64
	UserID     int64
	Amount     int
	BaseAmount int
	Multiplier float64
	SourceType string
	SourceID   string
	CreatedAt  time.Time
}

// DailyActivity aggregates a user's activity for one calendar date
type DailyActivity struct {
	ID               int64
	UserID           int64
	ActivityDate     string
	LessonsCompleted int
	XPEarned         int
	Pomodoros        int
}
