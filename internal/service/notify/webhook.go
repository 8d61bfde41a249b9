package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"RSIPulse/internal/domain/models"
	drepo "RSIPulse/internal/domain/repository"
	xhttp "RSIPulse/pkg/http"
	"RSIPulse/pkg/logger"
)

// WebhookNotifier implements Notifier by POSTing events as JSON to a
// configured endpoint.
type WebhookNotifier struct {
	client *xhttp.Client
	url    string
	log    *logger.Logger
}

func NewWebhookNotifier(url string, timeout time.Duration, log *logger.Logger) drepo.Notifier {
	return &WebhookNotifier{
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:    url,
		log:    log,
	}
}

func (n *WebhookNotifier) NotifyAlert(ctx context.Context, e *models.AlertEvent) error {
	return n.post(ctx, map[string]interface{}{
		"type":      "zone_transition",
		"symbol":    e.Symbol,
		"timeframe": string(e.Timeframe),
		"from":      string(e.From),
		"to":        string(e.To),
		"rsi":       e.RSI,
		"t":         e.Timestamp.Unix(),
	})
}

func (n *WebhookNotifier) NotifyDivergence(ctx context.Context, s *models.DivergenceSignal) error {
	return n.post(ctx, map[string]interface{}{
		"type":      "divergence",
		"symbol":    s.Symbol,
		"timeframe": string(s.Timeframe),
		"kind":      string(s.Kind),
		"t":         s.DetectedAt.Unix(),
	})
}

func (n *WebhookNotifier) post(ctx context.Context, payload map[string]interface{}) error {
	resp, err := n.client.SendRequest(ctx, &xhttp.RequestOptions{
		Method:  http.MethodPost,
		URL:     n.url,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	})
	if err != nil {
		return fmt.Errorf("webhook post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		n.log.Warn("webhook rejected event",
			logger.Int("status", resp.StatusCode),
			logger.Any("type", payload["type"]))
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
