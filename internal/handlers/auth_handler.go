package handlers

import (
	"errors"
	"net/http"
	"strings"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/security"
	"sorokinportal/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	pages                *Renderer
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
	stateSigner          *security.OAuthStateSigner
	logger               *logging.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	authService *service.AuthService,
	pages *Renderer,
	oauthProviders map[string]OAuthProvider,
	oauthRedirectBaseURL string,
	stateSigner *security.OAuthStateSigner,
	logger *logging.Logger,
) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		pages:                pages,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
		stateSigner:          stateSigner,
		logger:               logger,
	}
}

// loggedIn reports whether the request carries a valid session cookie
func (h *AuthHandler) loggedIn(r *http.Request) bool {
	cookie, err := r.Cookie(security.SessionCookieName)
	if err != nil {
		return false
	}
	_, err = h.authService.ValidateSession(cookie.Value)
	return err == nil
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, session *models.Session) {
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Home sends visitors to the dashboard or the login page
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if h.loggedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if h.loggedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderLogin(w, r, http.StatusOK, "", "")
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, status int, username, errMsg string) {
	data := LoginViewData{
		Page:           h.pages.Page(w, r, "Login"),
		OAuthProviders: h.oauthProviderViews(),
		Error:          errMsg,
		Username:       username,
	}
	h.pages.RenderStatus(w, r, status, "login.tmpl", data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	session, user, err := h.authService.Login(r.Context(), username, password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		h.renderLogin(w, r, http.StatusUnauthorized, username, "Invalid username or password")
		return
	}
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error logging in", err)
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID)
	h.startSession(w, r, session)
}

// ShowRegister renders the registration page
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if h.loggedIn(r) {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.renderRegister(w, r, RegisterViewData{Grade: catalog.Grades[0]})
}

func (h *AuthHandler) renderRegister(w http.ResponseWriter, r *http.Request, data RegisterViewData) {
	data.Page = h.pages.Page(w, r, "Register")
	data.OAuthProviders = h.oauthProviderViews()
	data.Grades = catalog.Grades
	h.pages.Render(w, r, "register.tmpl", data)
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")
	email := strings.TrimSpace(r.FormValue("email"))
	grade := r.FormValue("grade")

	if password != r.FormValue("confirm_password") {
		h.renderRegister(w, r, RegisterViewData{Error: "Passwords do not match", Username: username, Email: email, Grade: grade})
		return
	}

	if _, err := h.authService.Register(r.Context(), username, password, email, grade); err != nil {
		msg, ok := userMessage(err)
		if !ok {
			respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error registering user", err)
			return
		}
		h.renderRegister(w, r, RegisterViewData{Error: msg, Username: username, Email: email, Grade: grade})
		return
	}

	// Auto-login after registration
	session, _, err := h.authService.Login(r.Context(), username, password)
	if err != nil {
		h.logger.Warn("Login after registration failed", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.startSession(w, r, session)
}

// Logout ends the session and drops the user's unused chats
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var userID int64
	if user := GetUserFromContext(r.Context()); user != nil {
		userID = user.ID
	}
	if sessionID := GetSessionIDFromContext(r.Context()); sessionID != "" {
		if err := h.authService.Logout(r.Context(), sessionID, userID); err != nil {
			h.logger.Error("Error logging out", "user_id", userID, "error", err)
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowForgotPassword renders the reset request form
func (h *AuthHandler) ShowForgotPassword(w http.ResponseWriter, r *http.Request) {
	data := ForgotPasswordViewData{Page: h.pages.Page(w, r, "Forgot Password")}
	h.pages.Render(w, r, "forgot_password.tmpl", data)
}

// ForgotPassword sends a reset link. The response is the same whether or not the address exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	data := ForgotPasswordViewData{
		Page:    h.pages.Page(w, r, "Forgot Password"),
		Success: "If an account exists for that email, a reset link is on its way.",
	}
	if err := h.authService.RequestPasswordReset(r.Context(), r.FormValue("email")); err != nil {
		h.logger.Error("Error requesting password reset", "error", err)
		data.Success = ""
		data.Error = "We couldn't send the reset email right now. Please try again later."
	}
	h.pages.Render(w, r, "forgot_password.tmpl", data)
}

// ShowResetPassword renders the new-password form for a valid token
func (h *AuthHandler) ShowResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	data := ResetPasswordViewData{Page: h.pages.Page(w, r, "Reset Password"), Token: token}

	valid, err := h.authService.ValidatePasswordResetToken(token)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error validating reset token", err)
		return
	}
	if !valid {
		data.Token = ""
		data.Error = "This reset link is invalid or has expired."
	}
	h.pages.Render(w, r, "reset_password.tmpl", data)
}

// ResetPassword sets the new password and sends the user to the login page
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	token := r.FormValue("token")
	password := r.FormValue("password")
	data := ResetPasswordViewData{Page: h.pages.Page(w, r, "Reset Password"), Token: token}

	if password != r.FormValue("confirm_password") {
		data.Error = "Passwords do not match"
		h.pages.Render(w, r, "reset_password.tmpl", data)
		return
	}

	if err := h.authService.ResetPassword(r.Context(), token, password); err != nil {
		msg, ok := userMessage(err)
		if !ok {
			respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error resetting password", err)
			return
		}
		data.Error = msg
		h.pages.Render(w, r, "reset_password.tmpl", data)
		return
	}

	h.pages.Redirect(w, r, "/login", "Password updated. Please log in.")
}
