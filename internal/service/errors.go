package service

import "errors"

// Business-rule failures. Handlers map these to flash messages; anything else is a store or provider error.
var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrUsernameNotAllowed = errors.New("username is not allowed")
	ErrEmailTaken         = errors.New("email already linked to another account")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")

	ErrQuotaExceeded    = errors.New("daily limit reached for this model")
	ErrTutorUnavailable = errors.New("the tutor is unavailable right now")

	ErrUnknownLesson   = errors.New("unknown lesson")
	ErrLessonLocked    = errors.New("lesson is locked")
	ErrNoLessonSession = errors.New("no lesson in progress")
	ErrInvalidSection  = errors.New("section must be between 1 and 5")
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrNoQuiz          = errors.New("no quiz to submit")

	ErrUnknownEgg     = errors.New("unknown egg type")
	ErrOfferExpired   = errors.New("this egg is no longer available")
	ErrInsufficientXP = errors.New("not enough XP")
	ErrPetNotFound    = errors.New("pet not found")
	ErrInvalidSlot    = errors.New("equip slot must be between 1 and 3")

	ErrChatNotFound = errors.New("chat not found")
	ErrEmptyMessage = errors.New("message is empty")
	ErrUnknownTier  = errors.New("unknown model tier")
)
