package handlers

const (
	FlashCookieName = "sorokin_flash"

	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "Forbidden"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInvalidCSRFToken    = "Invalid CSRF token"
	ErrTutorUnavailableMsg = "The tutor is unavailable right now. Please try again in a moment."
)
