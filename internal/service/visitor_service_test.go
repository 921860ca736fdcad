package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sorokinportal/internal/logging"
)

func TestVisitorTracker(t *testing.T) {
	got := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode beacon: %v", err)
		}
		got <- body["path"]
	}))
	defer server.Close()

	tracker := NewVisitorTracker(server.URL, logging.NewNop())
	if !tracker.Enabled() {
		t.Fatal("tracker with a URL should be enabled")
	}
	tracker.Track("/dashboard")

	select {
	case path := <-got:
		if path != "/dashboard" {
			t.Errorf("path = %q, want /dashboard", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("beacon was not delivered")
	}
}

func TestVisitorTrackerDisabled(t *testing.T) {
	tracker := NewVisitorTracker("", logging.NewNop())
	if tracker.Enabled() {
		t.Error("empty URL should disable the tracker")
	}
	tracker.Track("/dashboard")

	var nilTracker *VisitorTracker
	if nilTracker.Enabled() {
		t.Error("nil tracker should be disabled")
	}
}
