package alert

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	eventdomain "sessionguard/internal/event/domain"
)

const defaultTimeout = 10 * time.Second

// WebhookAlerter POSTs alert payloads to a notification webhook.
type WebhookAlerter struct {
	URL        string
	HTTPClient *http.Client
}

// NewWebhookAlerter returns an alerter that posts to the given URL.
func NewWebhookAlerter(url string) *WebhookAlerter {
	return &WebhookAlerter{
		URL:        url,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
	}
}

type webhookPayload struct {
	UserID  string         `json:"user_id"`
	Kind    string         `json:"kind"`
	Details map[string]any `json:"details,omitempty"`
	SentAt  time.Time      `json:"sent_at"`
}

// Send posts one alert. Failures are logged and reported as false; they never
// propagate as errors.
func (a *WebhookAlerter) Send(ctx context.Context, userID string, kind eventdomain.Kind, details map[string]any) bool {
	if a == nil || a.URL == "" {
		return false
	}
	raw, err := json.Marshal(webhookPayload{
		UserID:  userID,
		Kind:    string(kind),
		Details: details,
		SentAt:  time.Now().UTC(),
	})
	if err != nil {
		log.Printf("alert: marshal failed for user %s: %v", userID, err)
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.URL, bytes.NewReader(raw))
	if err != nil {
		log.Printf("alert: request build failed: %v", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		log.Printf("alert: send failed for user %s: %v", userID, err)
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("alert: webhook returned %d for user %s", resp.StatusCode, userID)
		return false
	}
	return true
}
