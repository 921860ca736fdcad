package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
	"sorokinportal/internal/security"
	"sorokinportal/internal/validation"
)

// ResetTokenTTL is how long a password reset link stays valid
const ResetTokenTTL = time.Hour

// BadWordChecker screens usernames
type BadWordChecker interface {
	ContainsBadWord(username string) (bool, error)
}

// Mailer sends account e-mails
type Mailer interface {
	IsEnabled() bool
	SendPasswordResetEmail(ctx context.Context, toEmail, toName, resetToken string) error
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
}

// AuthService handles authentication business logic
type AuthService struct {
	userRepo        *repository.UserRepository
	badWords        BadWordChecker
	usage           *UsageService
	chats           *ChatService
	mailer          Mailer
	sessionDuration time.Duration
	logger          *logging.Logger
}

// NewAuthService creates a new auth service. mailer may be nil.
func NewAuthService(
	userRepo *repository.UserRepository,
	badWords BadWordChecker,
	usage *UsageService,
	chats *ChatService,
	mailer Mailer,
	sessionDuration time.Duration,
	logger *logging.Logger,
) *AuthService {
	return &AuthService{
		userRepo:        userRepo,
		badWords:        badWords,
		usage:           usage,
		chats:           chats,
		mailer:          mailer,
		sessionDuration: sessionDuration,
		logger:          logger,
	}
}

func (s *AuthService) checkUsername(username string) error {
	exists, err := s.userRepo.UsernameExists(username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return ErrUsernameTaken
	}
	bad, err := s.badWords.ContainsBadWord(username)
	if err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if bad {
		return ErrUsernameNotAllowed
	}
	return nil
}

// Register creates a password account
func (s *AuthService) Register(ctx context.Context, username, password, email, grade string) (*models.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	// Validate inputs
	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateOptionalEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateGrade(grade); err != nil {
		return nil, err
	}

	if err := s.checkUsername(username); err != nil {
		return nil, err
	}

	if email != "" {
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.CreateUser(username, email, passwordHash, grade)
	if err != nil {
		return nil, err
	}

	if email != "" && s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendWelcomeEmail(ctx, email, username); err != nil {
			// Registration already succeeded
			s.logger.Warn("Failed to send welcome email", "user_id", user.ID, "error", err)
		}
	}

	s.logger.Info("User registered", "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and creates a session. Every failure is ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	user, err := s.userRepo.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, user)
}

// startSession resets stale quotas, opens a DB session and starts a fresh chat
func (s *AuthService) startSession(ctx context.Context, user *models.User) (*models.Session, *models.User, error) {
	if err := s.usage.Reset(ctx, user.ID); err != nil {
		return nil, nil, err
	}

	session, err := s.userRepo.CreateSession(security.GenerateSessionID(), user.ID, time.Now().Add(s.sessionDuration))
	if err != nil {
		return nil, nil, err
	}

	chatID, err := s.chats.NewChat(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	user.CurrentChatID = chatID

	return session, user, nil
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(sessionID string) (*models.User, error) {
	session, err := s.userRepo.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.IsExpired() {
		_ = s.userRepo.DeleteSession(sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.userRepo.GetUserByID(session.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Logout invalidates a session and drops the user's unused chats
func (s *AuthService) Logout(ctx context.Context, sessionID string, userID int64) error {
	if err := s.userRepo.DeleteSession(sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	if userID != 0 {
		if _, err := s.chats.CleanupEmpty(ctx, userID, ""); err != nil {
			return err
		}
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions() (int64, error) {
	n, err := s.userRepo.DeleteExpiredSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return n, nil
}

var usernameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// baseUsername derives a valid username stem from a display name or e-mail
func baseUsername(name, email string) string {
	candidate := name
	if candidate == "" {
		candidate = strings.Split(email, "@")[0]
	}
	candidate = usernameUnsafe.ReplaceAllString(strings.ReplaceAll(strings.TrimSpace(candidate), " ", "_"), "")
	if len(candidate) > 24 {
		candidate = candidate[:24]
	}
	if len(candidate) < 3 {
		candidate = "student" + candidate
	}
	return candidate
}

// uniqueUsername appends a counter to the stem until the name is free and passes the filter
func (s *AuthService) uniqueUsername(name, email string) (string, error) {
	stem := baseUsername(name, email)
	for i := 0; i < 1000; i++ {
		candidate := stem
		if i > 0 {
			candidate = stem + strconv.Itoa(i)
		}
		err := s.checkUsername(candidate)
		if err == nil {
			return candidate, nil
		}
		if errors.Is(err, ErrUsernameNotAllowed) {
			stem = "student"
			continue
		}
		if !errors.Is(err, ErrUsernameTaken) {
			return "", err
		}
	}
	return "", errors.New("could not derive a free username")
}

// OAuthLogin authenticates or creates a user using an OAuth provider
func (s *AuthService) OAuthLogin(ctx context.Context, provider, subject, email, name string) (*models.Session, *models.User, error) {
	if provider == "" || subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	email = strings.TrimSpace(email)
	if err := validation.ValidateOptionalEmail(email); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetUserByOAuth(provider, subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil && email != "" {
		existing, err := s.userRepo.GetUserByEmail(email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil {
			if existing.OAuthProvider != "" && existing.OAuthProvider != provider {
				return nil, nil, ErrEmailTaken
			}
			if err := s.userRepo.LinkOAuthProvider(existing.ID, provider, subject); err != nil {
				return nil, nil, err
			}
			user = existing
		}
	}

	if user == nil {
		username, err := s.uniqueUsername(name, email)
		if err != nil {
			return nil, nil, err
		}
		user, err = s.userRepo.CreateOAuthUser(username, email, provider, subject)
		if err != nil {
			return nil, nil, err
		}
		s.logger.Info("OAuth user created", "user_id", user.ID, "provider", provider)
	}

	return s.startSession(ctx, user)
}

// RequestPasswordReset creates a reset token and e-mails it. Unknown addresses are ignored silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(strings.TrimSpace(email))
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		return nil
	}

	token, err := security.GenerateToken(32)
	if err != nil {
		return err
	}
	if err := s.userRepo.CreateResetToken(token, user.ID, time.Now().Add(ResetTokenTTL)); err != nil {
		return err
	}

	if s.mailer != nil && s.mailer.IsEnabled() {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, user.Username, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

// ValidatePasswordResetToken checks if a reset token can still be used
func (s *AuthService) ValidatePasswordResetToken(token string) (bool, error) {
	resetToken, err := s.userRepo.GetResetToken(token)
	if err != nil {
		return false, err
	}
	return resetToken != nil && resetToken.IsValid(), nil
}

// ResetPassword sets a new password using a valid token. Each token works once.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	resetToken, err := s.userRepo.GetResetToken(token)
	if err != nil {
		return err
	}
	if resetToken == nil || !resetToken.IsValid() {
		return ErrInvalidResetToken
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}
	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}

	claimed, err := s.userRepo.MarkResetTokenUsed(token)
	if err != nil {
		return err
	}
	if !claimed {
		return ErrInvalidResetToken
	}

	if err := s.userRepo.UpdatePassword(resetToken.UserID, passwordHash); err != nil {
		return err
	}
	s.logger.Info("Password reset", "user_id", resetToken.UserID)
	return nil
}
