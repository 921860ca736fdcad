package handlers

import (
	"sorokinportal/internal/catalog"
	"sorokinportal/internal/models"
	"sorokinportal/internal/service"
)

// Page is the layout data every template receives
type Page struct {
	Title         string
	User          *models.User
	CSRFToken     string
	Theme         catalog.Theme
	SoundsEnabled bool
	Flash         *Flash
}

type LoginViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Error          string
	Username       string
}

type RegisterViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Grades         []string
	Error          string
	Username       string
	Email          string
	Grade          string
}

type ForgotPasswordViewData struct {
	Page
	Success string
	Error   string
}

type ResetPasswordViewData struct {
	Page
	Token string
	Error string
}

type DashboardViewData struct {
	Page
	Stats  *service.Dashboard
	Lesson *service.LessonView
}

type CoursesViewData struct {
	Page
	Subjects     []service.SubjectView
	Difficulties []string
	Difficulty   string
}

// SectionView is one step of the lesson navigator
type SectionView struct {
	Number  int
	Name    string
	Current bool
	Done    bool
}

type LearnViewData struct {
	Page
	Lesson      *service.LessonView
	Sections    []SectionView
	NextSection int
	Usage       service.Usage
}

type PetsViewData struct {
	Page
	Collection *service.Collection
	Slots      []int
}

type ChatViewData struct {
	Page
	Chat     *models.ChatLog
	History  []models.ChatLog
	Subjects []catalog.ChatSubject
	Subject  string
	Tier     string
	Usage    service.Usage
}

type SettingsViewData struct {
	Page
	Grades       []string
	Themes       []catalog.Theme
	Difficulties []string
	MinGoal      int
	MaxGoal      int
	Form         service.SettingsInput
	Error        string
}

type ConstellationViewData struct {
	Page
	Constellation catalog.Constellation
}

type AdminViewData struct {
	Page
	Users   []models.User
	Stats   *service.DatabaseStats
	Error   string
	Success string
}
