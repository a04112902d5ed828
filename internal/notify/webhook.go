// Package notify delivers failure alerts to an operator webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const alertSubject = "PDF Processing Failure Alert"

// Notifier is implemented by failure alert sinks.
type Notifier interface {
	NotifyFailure(ctx context.Context, documentID, clientID string, cause error)
}

// alertPayload is the webhook request body.
type alertPayload struct {
	Subject    string `json:"subject"`
	DocumentID string `json:"document_id"`
	ClientID   string `json:"client_id"`
	Error      string `json:"error"`
}

// Webhook posts failure alerts as JSON to a configured URL. Delivery errors
// are logged and swallowed: alerting must never mask the pipeline failure
// that triggered it.
type Webhook struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewWebhook creates a webhook notifier. An empty URL yields a notifier that
// only logs.
func NewWebhook(url string, logger *zap.Logger) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// NotifyFailure implements Notifier.
func (w *Webhook) NotifyFailure(ctx context.Context, documentID, clientID string, cause error) {
	w.logger.Error("document processing failed",
		zap.String("document_id", documentID),
		zap.String("client_id", clientID),
		zap.Error(cause))

	if w.url == "" {
		return
	}

	payload := alertPayload{
		Subject:    alertSubject,
		DocumentID: documentID,
		ClientID:   clientID,
		Error:      cause.Error(),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		w.logger.Error("marshal failure alert", zap.Error(err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		w.logger.Error("build failure alert request", zap.Error(err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("deliver failure alert", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Error("failure alert rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("url", w.url))
		return
	}

	w.logger.Info("failure alert delivered",
		zap.String("document_id", documentID),
		zap.String("subject", alertSubject))
}

var _ Notifier = (*Webhook)(nil)
