package service

import (
	"context"
	"fmt"
	"strings"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
	"sorokinportal/internal/validation"
)

// SettingsInput is the raw settings form
type SettingsInput struct {
	Email         string
	Grade         string
	Theme         string
	SoundsEnabled bool
	DailyGoal     string
	Difficulty    string
}

// SettingsService validates and stores user preferences
type SettingsService struct {
	users  *repository.UserRepository
	logger *logging.Logger
}

func NewSettingsService(users *repository.UserRepository, logger *logging.Logger) *SettingsService {
	return &SettingsService{users: users, logger: logger}
}

// Update validates the form and saves it. The returned user reflects the stored values.
func (s *SettingsService) Update(ctx context.Context, user *models.User, in SettingsInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if err := validation.ValidateOptionalEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidateGrade(in.Grade); err != nil {
		return nil, err
	}
	if err := validation.ValidateTheme(in.Theme); err != nil {
		return nil, err
	}
	if err := validation.ValidateDifficulty(in.Difficulty); err != nil {
		return nil, err
	}
	goal, err := validation.ParseDailyGoal(in.DailyGoal)
	if err != nil {
		return nil, err
	}

	if email != "" && !strings.EqualFold(email, user.Email) {
		existing, err := s.users.GetUserByEmail(email)
		if err != nil {
			return nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil && existing.ID != user.ID {
			return nil, ErrEmailTaken
		}
	}

	err = s.users.UpdateSettings(user.ID, repository.Settings{
		Email:         email,
		Grade:         in.Grade,
		Theme:         in.Theme,
		SoundsEnabled: in.SoundsEnabled,
		DailyGoal:     goal,
		Difficulty:    in.Difficulty,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Settings updated", "user_id", user.ID, "theme", in.Theme, "daily_goal", goal)
	return s.users.GetUserByID(user.ID)
}

// Theme resolves the user's theme colours
func (s *SettingsService) Theme(user *models.User) catalog.Theme {
	if user == nil {
		return catalog.ThemeOrDefault("")
	}
	return catalog.ThemeOrDefault(user.Theme)
}
