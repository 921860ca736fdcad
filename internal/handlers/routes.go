package handlers

import (
	"net/http"

	"github.com/rs/cors"
)

// Handlers groups everything the router needs
type Handlers struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Dashboard  *DashboardHandler
	Learn      *LearnHandler
	Pets       *PetHandler
	Chat       *ChatHandler
	Settings   *SettingsHandler
	Admin      *AdminHandler

	StaticPath         string
	CORSAllowedOrigins []string
}

// Routes registers every route and wraps the mux with request logging
func (h *Handlers) Routes() http.Handler {
	m := h.Middleware
	mux := http.NewServeMux()

	// protect wraps a state-changing route with auth and CSRF checks
	protect := func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.CSRFProtect(next))
	}

	if h.StaticPath != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.StaticPath))))
	}

	// Public routes
	mux.HandleFunc("GET /{$}", h.Auth.Home)
	mux.HandleFunc("GET /login", h.Auth.ShowLogin)
	mux.HandleFunc("POST /login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("GET /register", h.Auth.ShowRegister)
	mux.HandleFunc("POST /register", m.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /logout", protect(h.Auth.Logout))
	mux.HandleFunc("GET /auth/{provider}/start", h.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", h.Auth.OAuthCallback)
	mux.HandleFunc("GET /auth/forgot-password", h.Auth.ShowForgotPassword)
	mux.HandleFunc("POST /auth/forgot-password", m.RateLimit(h.Auth.ForgotPassword))
	mux.HandleFunc("GET /auth/reset-password", h.Auth.ShowResetPassword)
	mux.HandleFunc("POST /auth/reset-password", m.RateLimit(h.Auth.ResetPassword))
	// Reset links in e-mails point here
	mux.HandleFunc("GET /reset-password", h.Auth.ShowResetPassword)

	// Progress
	mux.HandleFunc("GET /dashboard", m.RequireAuth(h.Dashboard.Dashboard))
	mux.HandleFunc("GET /courses", m.RequireAuth(h.Dashboard.Courses))
	mux.HandleFunc("GET /constellation", m.RequireAuth(h.Dashboard.Constellation))
	mux.HandleFunc("POST /pomodoro/complete", protect(h.Dashboard.CompletePomodoro))

	// Lessons and quizzes
	mux.HandleFunc("POST /lessons/{key}/start", protect(h.Learn.StartLesson))
	mux.HandleFunc("GET /learn", m.RequireAuth(h.Learn.ShowLesson))
	mux.HandleFunc("POST /learn/section/{n}", protect(h.Learn.Section))
	mux.HandleFunc("POST /learn/ask", protect(h.Learn.Ask))
	mux.HandleFunc("POST /learn/complete", protect(h.Learn.Complete))
	mux.HandleFunc("POST /learn/exit", protect(h.Learn.Exit))
	mux.HandleFunc("POST /quiz/submit", protect(h.Learn.SubmitQuiz))

	// Pets
	mux.HandleFunc("GET /pets", m.RequireAuth(h.Pets.ShowPets))
	mux.HandleFunc("POST /pets/eggs/{egg}/buy", protect(h.Pets.BuyEgg))
	mux.HandleFunc("POST /pets/{id}/equip", protect(h.Pets.Equip))
	mux.HandleFunc("POST /pets/{id}/unequip", protect(h.Pets.Unequip))

	// Chat
	mux.HandleFunc("GET /chat", m.RequireAuth(h.Chat.ShowChat))
	mux.HandleFunc("POST /chat/new", protect(h.Chat.NewChat))
	mux.HandleFunc("POST /chat/send", protect(h.Chat.Send))
	mux.HandleFunc("POST /chat/{id}/switch", protect(h.Chat.Switch))
	mux.HandleFunc("POST /chat/{id}/delete", protect(h.Chat.Delete))

	// Settings
	mux.HandleFunc("GET /settings", m.RequireAuth(h.Settings.ShowSettings))
	mux.HandleFunc("POST /settings", protect(h.Settings.UpdateSettings))

	// JSON API for the embedded D3 views
	api := cors.New(cors.Options{
		AllowedOrigins:   h.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet},
		AllowCredentials: true,
	})
	mux.Handle("GET /api/graph", api.Handler(m.RequireAuth(h.Dashboard.APIGraph)))
	mux.Handle("GET /api/me", api.Handler(m.RequireAuth(h.Dashboard.APIMe)))

	// Admin
	mux.HandleFunc("GET /admin", m.RequireAdmin(h.Admin.ShowAdmin))
	mux.HandleFunc("GET /admin/backup/export", m.RequireAdmin(h.Admin.ExportDatabase))
	mux.HandleFunc("POST /admin/backup/import", m.RequireAdmin(m.CSRFProtect(h.Admin.ImportDatabase)))

	return Logging(m.logger, mux)
}
