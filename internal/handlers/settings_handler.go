package handlers

import (
	"net/http"
	"strconv"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/service"
	"sorokinportal/internal/validation"
)

// SettingsHandler serves the preferences page
type SettingsHandler struct {
	settings *service.SettingsService
	pages    *Renderer
	logger   *logging.Logger
}

func NewSettingsHandler(settings *service.SettingsService, pages *Renderer, logger *logging.Logger) *SettingsHandler {
	return &SettingsHandler{settings: settings, pages: pages, logger: logger}
}

func (h *SettingsHandler) render(w http.ResponseWriter, r *http.Request, status int, form service.SettingsInput, errMsg string) {
	data := SettingsViewData{
		Page:         h.pages.Page(w, r, "Settings"),
		Grades:       catalog.Grades,
		Themes:       catalog.Themes,
		Difficulties: catalog.Difficulties,
		MinGoal:      validation.MinDailyGoal,
		MaxGoal:      validation.MaxDailyGoal,
		Form:         form,
		Error:        errMsg,
	}
	h.pages.RenderStatus(w, r, status, "settings.tmpl", data)
}

// ShowSettings renders the form with the stored preferences
func (h *SettingsHandler) ShowSettings(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	form := service.SettingsInput{
		Email:         user.Email,
		Grade:         user.Grade,
		Theme:         h.settings.Theme(user).Name,
		SoundsEnabled: user.SoundsEnabled,
		DailyGoal:     strconv.Itoa(user.DailyGoal),
		Difficulty:    user.Difficulty,
	}
	h.render(w, r, http.StatusOK, form, "")
}

// UpdateSettings validates and saves the form
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, ErrInvalidFormData, http.StatusBadRequest)
		return
	}

	form := service.SettingsInput{
		Email:         r.FormValue("email"),
		Grade:         r.FormValue("grade"),
		Theme:         r.FormValue("theme"),
		SoundsEnabled: r.FormValue("sounds_enabled") != "",
		DailyGoal:     r.FormValue("daily_goal"),
		Difficulty:    r.FormValue("difficulty"),
	}

	if _, err := h.settings.Update(r.Context(), user, form); err != nil {
		msg, ok := userMessage(err)
		if !ok {
			respondWithError(w, h.logger, http.StatusInternalServerError, ErrInternalServerError, "Error saving settings", err)
			return
		}
		h.render(w, r, http.StatusBadRequest, form, msg)
		return
	}
	h.pages.Redirect(w, r, "/settings", "Settings saved.")
}
