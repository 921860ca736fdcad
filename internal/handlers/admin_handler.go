package handlers

import (
	"fmt"
	"net/http"
	"time"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/repository"
	"sorokinportal/internal/service"
)

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	backupService *service.BackupService
	userRepo      *repository.UserRepository
	pages         *Renderer
	logger        *logging.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(backupService *service.BackupService, userRepo *repository.UserRepository, pages *Renderer, logger *logging.Logger) *AdminHandler {
	return &AdminHandler{
		backupService: backupService,
		userRepo:      userRepo,
		pages:         pages,
		logger:        logger,
	}
}

// ShowAdmin lists accounts and the database backup tools
func (h *AdminHandler) ShowAdmin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "", "")
}

func (h *AdminHandler) render(w http.ResponseWriter, r *http.Request, status int, errMsg, success string) {
	users, err := h.userRepo.GetAllUsers()
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to load users", "Error fetching users", err)
		return
	}
	stats, err := h.backupService.Stats()
	if err != nil {
		h.logger.Error("Error getting database stats", "error", err)
		stats = &service.DatabaseStats{}
	}

	data := AdminViewData{
		Page:    h.pages.Page(w, r, "Admin"),
		Users:   users,
		Stats:   stats,
		Error:   errMsg,
		Success: success,
	}
	h.pages.RenderStatus(w, r, status, "admin.tmpl", data)
}

// ExportDatabase streams a JSON backup as a download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	filename := fmt.Sprintf("sorokin_backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if _, err := h.backupService.Export(w); err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}
	h.logger.Info("Database exported", "user_id", user.ID)
}

// ImportDatabase restores an uploaded backup, optionally clearing existing data first
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	// 10MB max
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("backup_file")
	if err != nil {
		h.render(w, r, http.StatusBadRequest, "Please select a backup file", "")
		return
	}
	defer file.Close()

	clearData := r.FormValue("clear_data") == "true"
	if clearData {
		h.logger.Warn("Clearing database before import", "user_id", user.ID)
		if err := h.backupService.Clear(); err != nil {
			h.logger.Error("Error clearing database", "error", err)
			h.render(w, r, http.StatusInternalServerError, "Failed to clear database: "+err.Error(), "")
			return
		}
	}

	backup, err := h.backupService.Import(file)
	if err != nil {
		h.logger.Error("Error importing database", "error", err)
		h.render(w, r, http.StatusBadRequest, "Failed to import database: "+err.Error(), "")
		return
	}

	h.logger.Info("Database imported", "user_id", user.ID, "clear_data", clearData, "users", len(backup.Users))
	h.render(w, r, http.StatusOK, "", fmt.Sprintf("Imported %d accounts.", len(backup.Users)))
}
