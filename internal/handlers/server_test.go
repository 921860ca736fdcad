package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sorokinportal/internal/catalog"
	"sorokinportal/internal/database"
	"sorokinportal/internal/llm"
	"sorokinportal/internal/logging"
	"sorokinportal/internal/models"
	"sorokinportal/internal/repository"
	"sorokinportal/internal/security"
	"sorokinportal/internal/service"
)

const testPassword = "password123"

type testServer struct {
	t       *testing.T
	handler http.Handler
	db      *database.DB
	csrf    *security.CSRFGenerator
	users   *repository.UserRepository
	lessons *catalog.Catalog
}

type serverOptions struct {
	rateLimit      int
	logger         *logging.Logger
	oauthProviders map[string]OAuthProvider
}

// newTestServer wires the full router against a temporary SQLite database and the offline tutor
func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}

	db, err := database.Initialize(filepath.Join(t.TempDir(), "handlers_test.db"))
	if err != nil {
		t.Fatalf("failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("failed to load catalog: %v", err)
	}

	logger := opts.logger
	if logger == nil {
		logger = logging.NewNop()
	}
	rate := opts.rateLimit
	if rate == 0 {
		rate = 100
	}

	offline := llm.NewOfflineClient()
	router := llm.NewRouter(offline, offline)
	clock := service.NewClock(time.UTC)

	users := repository.NewUserRepository(db)
	progress := repository.NewProgressRepository(db)
	badges := repository.NewBadgeRepository(db)
	pets := repository.NewPetRepository(db)
	ledger := repository.NewLedgerRepository(db)
	sessions := repository.NewLessonSessionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	if err := pets.SyncCatalog(cat.Pets.Pets()); err != nil {
		t.Fatalf("failed to sync pets: %v", err)
	}

	rewards := service.NewRewardService(cat, users, progress, badges, pets, ledger, clock, logger)
	usage := service.NewUsageService(users, 100, 10, clock)
	tutor := service.NewTutorService(cat, sessions, progress, usage, rewards, router, logger)
	quizzes := service.NewQuizService(tutor, sessions, rewards, logger)
	chats := service.NewChatService(chatRepo, users, usage, router, logger)
	gacha := service.NewGachaService(db, cat.Pets, nil, clock, logger)
	stats := service.NewStatsService(cat, progress, badges, ledger, usage, clock)
	settings := service.NewSettingsService(users, logger)
	backup := service.NewBackupService(db, logger)
	auth := service.NewAuthService(users, db, usage, chats, nil, 24*time.Hour, logger)

	templates, err := LoadTemplates()
	if err != nil {
		t.Fatalf("failed to load templates: %v", err)
	}
	csrf := security.NewCSRFGenerator("test-secret")
	pages := NewRenderer(templates, csrf, service.NewVisitorTracker("", logger), logger)
	limiter := security.NewRateLimiter(rate, time.Minute)
	t.Cleanup(limiter.Close)

	h := &Handlers{
		Middleware: NewMiddleware(auth, csrf, limiter, logger),
		Auth:       NewAuthHandler(auth, pages, opts.oauthProviders, "", security.NewOAuthStateSigner("test-secret", 10*time.Minute), logger),
		Dashboard:  NewDashboardHandler(stats, tutor, rewards, pages, logger),
		Learn:      NewLearnHandler(tutor, quizzes, usage, pages, logger),
		Pets:       NewPetHandler(gacha, pages, logger),
		Chat:       NewChatHandler(chats, usage, pages, logger),
		Settings:   NewSettingsHandler(settings, pages, logger),
		Admin:      NewAdminHandler(backup, users, pages, logger),

		CORSAllowedOrigins: []string{"http://localhost:3000"},
	}

	return &testServer{t: t, handler: h.Routes(), db: db, csrf: csrf, users: users, lessons: cat}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// get issues a GET, carrying the session cookie when one is given
func (s *testServer) get(path string, session *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if session != nil {
		req.AddCookie(session)
	}
	return s.do(req)
}

// post submits a form. When a session is given the matching CSRF token is added.
func (s *testServer) post(path string, form url.Values, session *http.Cookie) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if session != nil && form.Get(security.CSRFFormField) == "" {
		token, err := s.csrf.GenerateToken(session.Value)
		if err != nil {
			s.t.Fatalf("failed to generate csrf token: %v", err)
		}
		form.Set(security.CSRFFormField, token)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if session != nil {
		req.AddCookie(session)
	}
	return s.do(req)
}

// register creates an account through the form and returns its session cookie
func (s *testServer) register(username string) *http.Cookie {
	s.t.Helper()
	rec := s.post("/register", url.Values{
		"username":         {username},
		"password":         {testPassword},
		"confirm_password": {testPassword},
		"grade":            {catalog.Grades[0]},
	}, nil)
	if rec.Code != http.StatusSeeOther {
		s.t.Fatalf("register %s: expected 303, got %d: %s", username, rec.Code, rec.Body.String())
	}
	session := findCookie(rec, security.SessionCookieName)
	if session == nil {
		s.t.Fatalf("register %s: no session cookie set", username)
	}
	return session
}

func (s *testServer) user(username string) *models.User {
	s.t.Helper()
	user, err := s.users.GetUserByUsername(username)
	if err != nil || user == nil {
		s.t.Fatalf("failed to load user %s: %v", username, err)
	}
	return user
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// followFlash reads the flash cookie set by rec back through a GET of the redirect target
func (s *testServer) followFlash(rec *httptest.ResponseRecorder, session *http.Cookie) string {
	s.t.Helper()
	flash := findCookie(rec, FlashCookieName)
	if flash == nil {
		s.t.Fatalf("expected a flash cookie on redirect to %s", rec.Header().Get("Location"))
	}
	location, _, _ := strings.Cut(rec.Header().Get("Location"), "#")
	req := httptest.NewRequest(http.MethodGet, location, nil)
	req.AddCookie(session)
	req.AddCookie(flash)
	page := s.do(req)
	if page.Code != http.StatusOK {
		s.t.Fatalf("expected 200 following flash, got %d", page.Code)
	}
	return page.Body.String()
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, location string) {
	t.Helper()
	if rec.Code != http.StatusSeeOther && rec.Code != http.StatusFound {
		t.Fatalf("expected redirect to %s, got status %d: %s", location, rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != location {
		t.Fatalf("expected redirect to %s, got %s", location, got)
	}
}
