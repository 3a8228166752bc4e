package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
)

// WebhookTransport posts notifications as JSON to an arbitrary endpoint.
type WebhookTransport struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// NewWebhookTransport creates a WebhookTransport. Headers are added to every
// request, e.g. an Authorization token.
func NewWebhookTransport(url string, headers map[string]string, opts ...HTTPOption) *WebhookTransport {
	w := &WebhookTransport{
		url:     url,
		headers: headers,
		client:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(&w.client)
	}
	return w
}

// Name returns the transport name.
func (*WebhookTransport) Name() string { return "webhook" }

type webhookPayload struct {
	IntentID    string    `json:"intent_id"`
	Kind        string    `json:"kind"`
	AlertID     string    `json:"alert_id"`
	User        string    `json:"user"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	ProductName string    `json:"product_name"`
	Store       string    `json:"store"`
	URL         string    `json:"url,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Price       string    `json:"price,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Threshold   string    `json:"threshold,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Send posts n. The intent id is sent as Idempotency-Key so receivers can
// drop redelivered messages.
func (w *WebhookTransport) Send(ctx context.Context, n *Notification) error {
	body, err := json.Marshal(webhookPayload{
		IntentID:    n.IntentID,
		Kind:        string(n.Kind),
		AlertID:     n.AlertID,
		User:        n.UserRef,
		Email:       n.Email,
		Phone:       n.Phone,
		Title:       n.Title,
		Body:        n.Body,
		ProductName: n.ProductName,
		Store:       n.Store,
		URL:         n.ProductURL,
		ImageURL:    n.ImageURL,
		Price:       n.Price,
		Currency:    n.Currency,
		Threshold:   n.Threshold,
		OccurredAt:  n.OccurredAt,
	})
	if err != nil {
		return backoff.Permanent(fmt.Errorf("marshaling webhook payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("creating webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", n.IntentID)
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := w.client.Do(req)
	metrics.NotificationDuration.WithLabelValues("webhook").Observe(time.Since(start).Seconds())
	if err != nil {
		return transportError("webhook", "sending request: %v", err)
	}
	defer resp.Body.Close()

	return checkResponse("webhook", resp)
}
