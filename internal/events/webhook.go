// =============================
// File: internal/events/webhook.go
// =============================
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const webhookMaxTries = 5

// WebhookSink forwards every event as a JSON POST. Delivery is retried with
// exponential backoff; a final failure is logged and swallowed so the sink
// never propagates into the engine.
type WebhookSink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

func NewWebhookSink(url string, logger *zap.Logger) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger.Named("webhook_sink"),
	}
}

func (s *WebhookSink) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to encode event", zap.Error(err))
		return nil
	}

	operation := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	}

	_, err = backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(webhookMaxTries))
	if err != nil {
		s.logger.Warn("Webhook delivery failed",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
	}
	return nil
}
