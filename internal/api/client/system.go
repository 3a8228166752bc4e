package client

import (
	"context"
	"net/url"
	"strconv"
	"time"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// StoreStatus is the health and request budget of one store.
type StoreStatus struct {
	Name      string     `json:"name"`
	Breaker   string     `json:"breaker"`
	DailyUsed int64      `json:"daily_used"`
	Remaining int64      `json:"remaining"`
	ResetAt   *time.Time `json:"reset_at,omitempty"`
}

// Stats returns aggregate counts.
func (c *Client) Stats(ctx context.Context) (*domain.Stats, error) {
	var s domain.Stats
	if err := c.get(ctx, "/api/v1/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Stores returns breaker state and quota per store.
func (c *Client) Stores(ctx context.Context) ([]StoreStatus, error) {
	var out struct {
		Stores []StoreStatus `json:"stores"`
	}
	if err := c.get(ctx, "/api/v1/stores", nil, &out); err != nil {
		return nil, err
	}
	return out.Stores, nil
}

// FailedNotifications returns intents that exhausted their retries.
func (c *Client) FailedNotifications(ctx context.Context, limit int) ([]domain.NotificationIntent, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var out []domain.NotificationIntent
	if err := c.get(ctx, "/api/v1/notifications/failed", q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ready reports whether the server and its database are up.
func (c *Client) Ready(ctx context.Context) error {
	return c.get(ctx, "/readyz", nil, nil)
}
