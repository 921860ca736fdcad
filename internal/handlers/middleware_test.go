package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sorokinportal/internal/logging"
	"sorokinportal/internal/security"
)

func TestRequireAuthRedirectsAnonymousUsers(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	paths := []string{"/dashboard", "/courses", "/learn", "/pets", "/chat", "/settings", "/constellation", "/api/me"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			assertRedirect(t, srv.get(path, nil), "/login")
		})
	}
}

func TestRequireAuthClearsUnknownSession(t *testing.T) {
	srv := newTestServer(t, serverOptions{})

	rec := srv.get("/dashboard", &http.Cookie{Name: security.SessionCookieName, Value: "not-a-session"})
	assertRedirect(t, rec, "/login")

	cleared := findCookie(rec, security.SessionCookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Fatalf("expected the invalid session cookie to be cleared, got %+v", cleared)
	}
}

func TestCSRFProtect(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	session := srv.register("csrfuser")
	other := srv.register("otheruser")

	otherToken, err := srv.csrf.GenerateToken(other.Value)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{"missing token", "", http.StatusForbidden},
		{"garbage token", "abc", http.StatusForbidden},
		{"token from another session", otherToken, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.token != "" {
				form.Set(security.CSRFFormField, tt.token)
			}
			req := httptest.NewRequest(http.MethodPost, "/pomodoro/complete", nil)
			req.PostForm = form
			req.AddCookie(session)
			rec := srv.do(req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	t.Run("header token", func(t *testing.T) {
		token, err := srv.csrf.GenerateToken(session.Value)
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/pomodoro/complete", nil)
		req.Header.Set(security.CSRFHeader, token)
		req.AddCookie(session)
		assertRedirect(t, srv.do(req), "/dashboard")
	})
}

func TestRateLimitRejectsBurst(t *testing.T) {
	srv := newTestServer(t, serverOptions{rateLimit: 2})

	form := url.Values{"username": {"nobody"}, "password": {"wrong-password"}}
	for i := 0; i < 2; i++ {
		if rec := srv.post("/login", form, nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rec.Code)
		}
	}

	rec := srv.post("/login", form, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after the limit, got %d", rec.Code)
	}

	// Other routes keep their own budget
	if rec := srv.get("/login", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected GET /login to stay available, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	srv := newTestServer(t, serverOptions{})
	admin := srv.register("firstadmin")
	student := srv.register("student1")

	if !srv.user("firstadmin").IsAdmin {
		t.Fatal("expected the first account to be an admin")
	}

	if rec := srv.get("/admin", student); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a student, got %d", rec.Code)
	}
	if rec := srv.get("/admin/backup/export", student); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on export for a student, got %d", rec.Code)
	}

	rec := srv.get("/admin", admin)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for the admin, got %d", rec.Code)
	}
}

func TestLoggingRecordsStatus(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := logging.FromZap(zap.New(core))

	handler := Logging(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/brew", nil))

	entries := logs.FilterMessage("HTTP request").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["path"] != "/brew" {
		t.Fatalf("expected path /brew, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Fatalf("expected status 418, got %v (%T)", fields["status"], fields["status"])
	}
}
