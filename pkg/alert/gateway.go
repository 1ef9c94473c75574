package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"
)

// Alert is an operator-facing incident that cannot heal on the next tick
type Alert struct {
	Severity string            `json:"severity"`
	Title    string            `json:"title"`
	Message  string            `json:"message"`
	Fields   map[string]string `json:"fields,omitempty"`
	Time     time.Time         `json:"time"`
}

// Gateway represents an alert delivery channel
type Gateway interface {
	Send(ctx context.Context, a Alert) error
}

// WebhookGateway posts alerts as JSON to an HTTP endpoint (Slack/Discord/Ops bridge)
type WebhookGateway struct {
	URL        string
	httpClient *http.Client
}

// LogGateway only logs, used when no webhook is configured
type LogGateway struct{}

// NewGateway returns a webhook gateway, or a log-only gateway when url is empty
func NewGateway(url string) Gateway {
	if url == "" {
		return LogGateway{}
	}
	return &WebhookGateway{
		URL: url,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Send posts the alert
func (g *WebhookGateway) Send(ctx context.Context, a Alert) error {
	if a.Time.IsZero() {
		a.Time = time.Now().UTC()
	}
	jsonBody, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("alert webhook failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// Send logs the alert
func (LogGateway) Send(ctx context.Context, a Alert) error {
	args := []any{"severity", a.Severity, "title", a.Title}
	for k, v := range a.Fields {
		args = append(args, k, v)
	}
	slog.Warn("alert (no webhook configured): "+a.Message, args...)
	return nil
}
