package handlers

import (
	"errors"
	"net/http"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/service"
)

// DashboardHandler serves the progression views: dashboard, courses, constellation and the JSON API
type DashboardHandler struct {
	stats   *service.StatsService
	tutor   *service.TutorService
	rewards *service.RewardService
	pages   *Renderer
	logger  *logging.Logger
}

func NewDashboardHandler(stats *service.StatsService, tutor *service.TutorService, rewards *service.RewardService, pages *Renderer, logger *logging.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, tutor: tutor, rewards: rewards, pages: pages, logger: logger}
}

// Dashboard renders level, streak, daily goal, pet and badges
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	stats, err := h.stats.Dashboard(r.Context(), user)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading dashboard", err)
		return
	}

	lesson, err := h.tutor.Current(r.Context(), user.ID)
	if err != nil && !errors.Is(err, service.ErrNoLessonSession) {
		h.logger.Warn("Error loading current lesson", "user_id", user.ID, "error", err)
	}

	data := DashboardViewData{
		Page:   h.pages.Page(w, r, "Dashboard"),
		Stats:  stats,
		Lesson: lesson,
	}
	h.pages.Render(w, r, "dashboard.tmpl", data)
}

// Courses renders the catalog with each lesson's lock state
func (h *DashboardHandler) Courses(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	subjects, err := h.stats.Courses(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading courses", err)
		return
	}

	difficulty := user.Difficulty
	if difficulty == "" {
		difficulty = catalog.DifficultyStandard
	}
	data := CoursesViewData{
		Page:         h.pages.Page(w, r, "Courses"),
		Subjects:     subjects,
		Difficulties: catalog.Difficulties,
		Difficulty:   difficulty,
	}
	h.pages.Render(w, r, "courses.tmpl", data)
}

// Constellation renders the per-course completion overview
func (h *DashboardHandler) Constellation(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	constellation, err := h.stats.Constellation(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading constellation", err)
		return
	}

	data := ConstellationViewData{
		Page:          h.pages.Page(w, r, "Constellation"),
		Constellation: constellation,
	}
	h.pages.Render(w, r, "constellation.tmpl", data)
}

// APIGraph returns the knowledge graph for the D3 view
func (h *DashboardHandler) APIGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := h.stats.Graph(r.Context(), GetUserFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error building graph", err)
		return
	}
	h.pages.JSON(w, graph)
}

// APIMe returns the dashboard stats as JSON
func (h *DashboardHandler) APIMe(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Dashboard(r.Context(), GetUserFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error loading stats", err)
		return
	}
	h.pages.JSON(w, stats)
}

// CompletePomodoro grants the pomodoro reward
func (h *DashboardHandler) CompletePomodoro(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	rewards, err := h.rewards.CompletePomodoro(r.Context(), user.ID)
	if err != nil {
		h.pages.Fail(w, r, "/dashboard", "Error completing pomodoro", err)
		return
	}
	h.pages.Redirect(w, r, "/dashboard", rewardsMessage("Pomodoro complete!", rewards))
}
