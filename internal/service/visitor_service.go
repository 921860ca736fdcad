package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sorokinportal/internal/logging"
)

// VisitorBeaconTimeout bounds every beacon request
const VisitorBeaconTimeout = time.Second

// VisitorTracker posts anonymous page-view beacons to an external counter
type VisitorTracker struct {
	url    string
	client *http.Client
	logger *logging.Logger
}

// NewVisitorTracker returns a tracker; with an empty url Track does nothing
func NewVisitorTracker(url string, logger *logging.Logger) *VisitorTracker {
	return &VisitorTracker{
		url:    url,
		client: &http.Client{Timeout: VisitorBeaconTimeout},
		logger: logger,
	}
}

func (t *VisitorTracker) Enabled() bool {
	return t != nil && t.url != ""
}

// Track fires a beacon in the background and never blocks the request
func (t *VisitorTracker) Track(path string) {
	if !t.Enabled() {
		return
	}
	go func() {
		if err := t.send(context.Background(), path); err != nil {
			t.logger.Debug("Visitor beacon failed", "error", err)
		}
	}()
}

func (t *VisitorTracker) send(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, VisitorBeaconTimeout)
	defer cancel()

	body, err := json.Marshal(map[string]string{"path": path, "ts": time.Now().UTC().Format(time.RFC3339)})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
