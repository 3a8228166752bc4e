package client

import (
	"context"
	"net/url"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// AlertRequest contains the fields the API accepts when creating an alert.
// Prices are decimal strings.
type AlertRequest struct {
	User           string  `json:"user"`
	ProductID      string  `json:"product_id"`
	Condition      string  `json:"condition,omitempty"`
	Threshold      string  `json:"threshold,omitempty"`
	DropPercent    float64 `json:"drop_percent,omitempty"`
	ReferencePrice string  `json:"reference_price,omitempty"`
	Recurring      bool    `json:"recurring,omitempty"`
	PollInterval   string  `json:"poll_interval,omitempty"`
	DurationDays   int     `json:"duration_days,omitempty"`
	Email          string  `json:"email,omitempty"`
	Phone          string  `json:"phone,omitempty"`
}

// CreateAlert starts tracking a product.
func (c *Client) CreateAlert(ctx context.Context, req *AlertRequest) (*domain.Alert, error) {
	var a domain.Alert
	if err := c.post(ctx, "/api/v1/alerts", req, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAlert returns a single alert.
func (c *Client) GetAlert(ctx context.Context, id string) (*domain.Alert, error) {
	var a domain.Alert
	if err := c.get(ctx, "/api/v1/alerts/"+url.PathEscape(id), nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAlerts returns every alert owned by user.
func (c *Client) ListAlerts(ctx context.Context, user string) ([]domain.Alert, error) {
	var out struct {
		Alerts []domain.Alert `json:"alerts"`
	}
	if err := c.get(ctx, "/api/v1/alerts", url.Values{"user": {user}}, &out); err != nil {
		return nil, err
	}
	return out.Alerts, nil
}

// StopAlert stops an alert.
func (c *Client) StopAlert(ctx context.Context, id string) (*domain.Alert, error) {
	var a domain.Alert
	if err := c.post(ctx, "/api/v1/alerts/"+url.PathEscape(id)+"/stop", nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}
