package handlers

import (
	"bytes"
	"embed"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/security"
	"sorokinportal/internal/service"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
		"add": func(a, b int) int {
			return a + b
		},
		"pct": func(f float64) string {
			return fmt.Sprintf("%.0f%%", f)
		},
		"mult": func(f float64) string {
			return fmt.Sprintf("×%.2f", f)
		},
		"until": func(count int) []int {
			result := make([]int, count)
			for i := 0; i < count; i++ {
				result[i] = i + 1
			}
			return result
		},
		"sectionName": service.SectionName,
		"lower":       strings.ToLower,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return tmpl, nil
}

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
)

// Flash is a one-shot message carried across a post/redirect/get
type Flash struct {
	Kind    string `json:"k"`
	Message string `json:"m"`
}

// Renderer builds the layout data shared by every page and executes templates
type Renderer struct {
	templates *template.Template
	csrf      *security.CSRFGenerator
	visitors  *service.VisitorTracker
	logger    *logging.Logger
}

func NewRenderer(templates *template.Template, csrf *security.CSRFGenerator, visitors *service.VisitorTracker, logger *logging.Logger) *Renderer {
	return &Renderer{templates: templates, csrf: csrf, visitors: visitors, logger: logger}
}

// Page fills the layout fields for the current request and consumes any pending flash
func (rd *Renderer) Page(w http.ResponseWriter, r *http.Request, title string) Page {
	page := Page{
		Title: title + " - Sorokin Portal",
		Theme: catalog.ThemeOrDefault(catalog.DefaultTheme),
		Flash: popFlash(w, r),
	}
	if user := GetUserFromContext(r.Context()); user != nil {
		page.User = user
		page.Theme = catalog.ThemeOrDefault(user.Theme)
		page.SoundsEnabled = user.SoundsEnabled
		if token, err := rd.csrf.GenerateToken(GetSessionIDFromContext(r.Context())); err == nil {
			page.CSRFToken = token
		}
	}
	return page
}

// Render executes a page template with status 200
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	rd.RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus executes a page template into a buffer so a template error never leaves a half-written page
func (rd *Renderer) RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, rd.logger, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)

	if r.Method == http.MethodGet {
		rd.visitors.Track(r.URL.Path)
	}
}

// JSON writes v as a JSON response
func (rd *Renderer) JSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rd.logger.Error("Error encoding JSON response", "error", err)
	}
}

// Fail reports err to the user: business-rule errors become a flash and a redirect,
// anything else is logged and answered with a 500
func (rd *Renderer) Fail(w http.ResponseWriter, r *http.Request, redirect, logMsg string, err error) {
	if msg, ok := userMessage(err); ok {
		setFlash(w, r, FlashError, msg)
		http.Redirect(w, r, redirect, http.StatusSeeOther)
		return
	}
	respondWithError(w, rd.logger, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
}

// Redirect stores a success flash and redirects
func (rd *Renderer) Redirect(w http.ResponseWriter, r *http.Request, to, msg string) {
	if msg != "" {
		setFlash(w, r, FlashSuccess, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func setFlash(w http.ResponseWriter, r *http.Request, kind, msg string) {
	raw, err := json.Marshal(Flash{Kind: kind, Message: msg})
	if err != nil {
		return
	}
	cookie := security.CreateSessionCookie(r, FlashCookieName, base64.RawURLEncoding.EncodeToString(raw), time.Now().Add(time.Minute))
	http.SetCookie(w, cookie)
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, FlashCookieName))

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// rewardsMessage summarises what an action earned for the success flash
func rewardsMessage(prefix string, rw *service.Rewards) string {
	parts := []string{prefix}
	if rw == nil {
		return prefix
	}
	if rw.AlreadyCompleted {
		return prefix + " You already completed this lesson, so no XP this time."
	}
	if rw.XP > 0 {
		parts = append(parts, fmt.Sprintf("+%d XP", rw.XP))
	}
	if rw.NewLevel > 0 {
		parts = append(parts, fmt.Sprintf("Level up! You reached level %d", rw.NewLevel))
	}
	for _, b := range rw.Badges {
		parts = append(parts, fmt.Sprintf("Badge earned: %s %s", b.Icon, b.Name))
	}
	if rw.StreakBonus > 0 {
		parts = append(parts, fmt.Sprintf("%d day streak bonus +%d XP", rw.Streak, rw.StreakBonus))
	}
	if rw.DailyGoalReached {
		parts = append(parts, "Daily goal reached!")
	}
	return strings.Join(parts, " · ")
}
