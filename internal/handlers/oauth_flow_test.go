package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"sorokinportal/internal/security"
)

// newFakeProvider serves a token endpoint and a userinfo endpoint
func newFakeProvider(t *testing.T, userInfo map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.FormValue("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "fake-access-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fake-access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func oauthTestServer(t *testing.T, userInfo map[string]string) *testServer {
	provider := newFakeProvider(t, userInfo)
	return newTestServer(t, serverOptions{oauthProviders: map[string]OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     "client-id",
				ClientSecret: "client-secret",
				Endpoint: oauth2.Endpoint{
					AuthURL:   provider.URL + "/auth",
					TokenURL:  provider.URL + "/token",
					AuthStyle: oauth2.AuthStyleInParams,
				},
				Scopes: []string{"email", "profile"},
			},
			UserInfoURL: provider.URL + "/userinfo",
		},
		"github": {Name: "github", Label: "GitHub"},
	}})
}

// startOAuth begins the flow and returns the signed state and the nonce cookie
func startOAuth(t *testing.T, srv *testServer) (string, *http.Cookie) {
	t.Helper()
	rec := srv.get("/auth/google/start", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	location, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect: %v", err)
	}
	if got := location.Query().Get("redirect_uri"); got != "http://example.com/auth/google/callback" {
		t.Fatalf("unexpected redirect_uri %q", got)
	}
	nonce := findCookie(rec, oauthNonceCookie)
	if nonce == nil {
		t.Fatal("expected a nonce cookie")
	}
	return location.Query().Get("state"), nonce
}

func TestLoginPageListsConfiguredProviders(t *testing.T) {
	srv := oauthTestServer(t, nil)

	body := srv.get("/login", nil).Body.String()
	if !strings.Contains(body, "/auth/google/start") {
		t.Error("expected the configured provider button")
	}
	if strings.Contains(body, "/auth/github/start") {
		t.Error("expected providers without credentials to be hidden")
	}
}

func TestOAuthCallbackCreatesUser(t *testing.T) {
	srv := oauthTestServer(t, map[string]string{"id": "10001", "email": "grace@example.com", "name": "Grace Hopper"})

	state, nonce := startOAuth(t, srv)

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(nonce)
	rec := srv.do(req)
	assertRedirect(t, rec, "/dashboard")

	session := findCookie(rec, security.SessionCookieName)
	if session == nil {
		t.Fatal("expected a session cookie")
	}

	user := srv.user("Grace_Hopper")
	if user.OAuthProvider != "google" || user.OAuthSubject != "10001" || user.Email != "grace@example.com" {
		t.Fatalf("unexpected oauth user %+v", user)
	}
	if rec := srv.get("/dashboard", session); rec.Code != http.StatusOK {
		t.Fatalf("expected the oauth session to work, got %d", rec.Code)
	}
}

func TestOAuthCallbackRejections(t *testing.T) {
	srv := oauthTestServer(t, map[string]string{"id": "10002", "email": "ada@example.com", "name": "Ada"})

	tests := []struct {
		name     string
		path     string
		useNonce bool
		wantMsg  string
	}{
		{"unconfigured provider", "/auth/github/callback?code=x&state=y", false, "OAuth provider not configured"},
		{"unknown provider", "/auth/myspace/start", false, "OAuth provider not configured"},
		{"missing code", "/auth/google/callback?state=y", true, "Missing authorization code"},
		{"tampered state", "/auth/google/callback?code=good-code&state=forged", true, "Invalid OAuth state"},
		{"missing nonce cookie", "/auth/google/callback?code=good-code&state=STATE", false, "Invalid OAuth state"},
		{"bad code", "/auth/google/callback?code=bad-code&state=STATE", true, "Failed to exchange OAuth code"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state, nonce := startOAuth(t, srv)
			req := httptest.NewRequest(http.MethodGet, strings.Replace(tt.path, "STATE", url.QueryEscape(state), 1), nil)
			if tt.useNonce {
				req.AddCookie(nonce)
			}
			rec := srv.do(req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.wantMsg) {
				t.Fatalf("expected body to contain %q", tt.wantMsg)
			}
			if findCookie(rec, security.SessionCookieName) != nil {
				t.Fatal("expected no session")
			}
		})
	}
}

func TestOAuthLinksExistingEmail(t *testing.T) {
	srv := oauthTestServer(t, map[string]string{"sub": "g-77", "email": "linked@example.com", "name": "Someone Else"})

	form := url.Values{
		"username": {"original"}, "password": {testPassword}, "confirm_password": {testPassword},
		"email": {"linked@example.com"}, "grade": {"9th"},
	}
	assertRedirect(t, srv.post("/register", form, nil), "/dashboard")

	state, nonce := startOAuth(t, srv)
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?code=good-code&state="+url.QueryEscape(state), nil)
	req.AddCookie(nonce)
	assertRedirect(t, srv.do(req), "/dashboard")

	user := srv.user("original")
	if user.OAuthProvider != "google" || user.OAuthSubject != "g-77" {
		t.Fatalf("expected the provider to be linked to the existing account, got %+v", user)
	}
}
