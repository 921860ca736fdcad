package handlers

import (
	"errors"
	"net/http"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/service"
	"sorokinportal/internal/validation"
)

func respondWithError(w http.ResponseWriter, logger *logging.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, "status", status, "error", err)
	}

	http.Error(w, userMsg, status)
}

// userMessages maps business-rule failures to the text shown in a flash
var userMessages = []struct {
	err error
	msg string
}{
	{service.ErrQuotaExceeded, "You've reached today's limit for this model. It resets tomorrow."},
	{service.ErrTutorUnavailable, ErrTutorUnavailableMsg},
	{service.ErrUnknownLesson, "That lesson doesn't exist."},
	{service.ErrLessonLocked, "That lesson is still locked. Finish the earlier lessons first."},
	{service.ErrNoLessonSession, "No lesson in progress. Pick one from your courses."},
	{service.ErrInvalidSection, "Lessons have sections 1 to 5."},
	{service.ErrEmptyQuestion, "Type a question first."},
	{service.ErrNoQuiz, "There is no quiz waiting for you."},
	{service.ErrUnknownEgg, "That egg isn't in the shop."},
	{service.ErrOfferExpired, "That egg is no longer available."},
	{service.ErrInsufficientXP, "You don't have enough XP for that egg yet."},
	{service.ErrPetNotFound, "Pet not found."},
	{service.ErrInvalidSlot, "Pick an equip slot from 1 to 3."},
	{service.ErrChatNotFound, "Chat not found."},
	{service.ErrEmptyMessage, "Type a message first."},
	{service.ErrUnknownTier, "Pick the fast or premium model."},
	{service.ErrEmailTaken, "That email is already linked to another account."},
	{service.ErrUsernameTaken, "That username is already taken."},
	{service.ErrUsernameNotAllowed, "That username is not allowed."},
	{service.ErrInvalidCredentials, "Invalid username or password"},
	{service.ErrInvalidResetToken, "This reset link is invalid or has expired."},
}

// userMessage returns the flash text for a business-rule error.
// ok is false for store and provider failures, which callers report as 500s.
func userMessage(err error) (msg string, ok bool) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		return verr.Message, true
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg, true
		}
	}
	return "", false
}
