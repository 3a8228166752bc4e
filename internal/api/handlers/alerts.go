package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/donaldgifford/retail-price-tracker/internal/alert"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// AlertManager creates and stops alerts.
type AlertManager interface {
	CreateAlert(ctx context.Context, a *domain.Alert) error
	StopAlert(ctx context.Context, id string) (*domain.Alert, error)
}

// AlertReader defines the store methods required by the alert endpoints.
type AlertReader interface {
	GetAlert(ctx context.Context, id string) (*domain.Alert, error)
	ListAlertsByUser(ctx context.Context, userRef string) ([]domain.Alert, error)
}

// AlertsHandler handles alert lifecycle endpoints.
type AlertsHandler struct {
	alerts AlertManager
	store  AlertReader
}

// NewAlertsHandler creates a new AlertsHandler.
func NewAlertsHandler(m AlertManager, r AlertReader) *AlertsHandler {
	return &AlertsHandler{alerts: m, store: r}
}

// --- Input/Output types ---

// CreateAlertInput is the request body for creating an alert.
type CreateAlertInput struct {
	Body struct {
		User           string  `json:"user"                      minLength:"1" doc:"Opaque user reference"`
		ProductID      string  `json:"product_id"                minLength:"1" doc:"Tracked product UUID"`
		Condition      string  `json:"condition,omitempty"       doc:"Trigger condition (default price_at_or_below)" enum:"price_at_or_below,percent_drop,back_in_stock,"`
		Threshold      string  `json:"threshold,omitempty"       doc:"Target price for price_at_or_below" example:"135.00"`
		DropPercent    float64 `json:"drop_percent,omitempty"    doc:"Required drop for percent_drop" minimum:"0" maximum:"100"`
		ReferencePrice string  `json:"reference_price,omitempty" doc:"Baseline for percent_drop (default: last known price)"`
		Recurring      bool    `json:"recurring,omitempty"       doc:"Re-arm after firing instead of closing"`
		PollInterval   string  `json:"poll_interval,omitempty"   doc:"Requested check interval as a Go duration" example:"30m"`
		DurationDays   int     `json:"duration_days,omitempty"   doc:"Tracking duration in days (default 7)" minimum:"1" maximum:"365"`
		Email          string  `json:"email,omitempty"           doc:"Contact email" format:"email"`
		Phone          string  `json:"phone,omitempty"           doc:"Contact phone number"`
	}
}

// AlertOutput wraps a single alert.
type AlertOutput struct {
	Body domain.Alert
}

// AlertIDInput identifies a single alert.
type AlertIDInput struct {
	ID string `path:"id" doc:"Alert UUID"`
}

// ListAlertsInput selects a user's alerts.
type ListAlertsInput struct {
	User string `query:"user" required:"true" minLength:"1" doc:"User reference"`
}

// ListAlertsOutput is the response for listing a user's alerts.
type ListAlertsOutput struct {
	Body struct {
		Alerts []domain.Alert `json:"alerts"`
		Total  int            `json:"total"`
	}
}

// --- Handlers ---

// CreateAlert starts tracking a product for a user.
func (h *AlertsHandler) CreateAlert(
	ctx context.Context,
	input *CreateAlertInput,
) (*AlertOutput, error) {
	a, err := alertFromInput(input)
	if err != nil {
		return nil, err
	}

	if err := h.alerts.CreateAlert(ctx, a); err != nil {
		if errors.Is(err, alert.ErrInvalidAlert) {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		return nil, huma.Error500InternalServerError("creating alert failed: " + err.Error())
	}
	return &AlertOutput{Body: *a}, nil
}

func alertFromInput(input *CreateAlertInput) (*domain.Alert, error) {
	b := input.Body
	a := &domain.Alert{
		UserRef:   b.User,
		ProductID: b.ProductID,
		Settings: domain.AlertSettings{
			Condition:   b.Condition,
			DropPercent: b.DropPercent,
			Recurring:   b.Recurring,
			Email:       b.Email,
			Phone:       b.Phone,
		},
	}

	if b.Threshold != "" {
		d, err := decimal.NewFromString(b.Threshold)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("threshold must be a decimal number")
		}
		a.Settings.Threshold = &d
	}
	if b.ReferencePrice != "" {
		d, err := decimal.NewFromString(b.ReferencePrice)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("reference_price must be a decimal number")
		}
		a.Settings.ReferencePrice = &d
	}
	if b.PollInterval != "" {
		d, err := time.ParseDuration(b.PollInterval)
		if err != nil {
			return nil, huma.Error422UnprocessableEntity("poll_interval must be a duration such as 30m")
		}
		a.Settings.PollInterval = d
	}
	if b.DurationDays > 0 {
		a.ExpiresAt = time.Now().UTC().Add(time.Duration(b.DurationDays) * 24 * time.Hour)
	}
	return a, nil
}

// GetAlert returns a single alert by ID.
func (h *AlertsHandler) GetAlert(
	ctx context.Context,
	input *AlertIDInput,
) (*AlertOutput, error) {
	a, err := h.store.GetAlert(ctx, input.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("alert not found")
		}
		return nil, huma.Error500InternalServerError("alert query failed: " + err.Error())
	}
	return &AlertOutput{Body: *a}, nil
}

// ListAlerts returns every alert owned by a user.
func (h *AlertsHandler) ListAlerts(
	ctx context.Context,
	input *ListAlertsInput,
) (*ListAlertsOutput, error) {
	alerts, err := h.store.ListAlertsByUser(ctx, input.User)
	if err != nil {
		return nil, huma.Error500InternalServerError("alert query failed: " + err.Error())
	}
	if alerts == nil {
		alerts = []domain.Alert{}
	}

	resp := &ListAlertsOutput{}
	resp.Body.Alerts = alerts
	resp.Body.Total = len(alerts)
	return resp, nil
}

// StopAlert stops an alert. Stopping an already stopped alert returns it
// unchanged.
func (h *AlertsHandler) StopAlert(
	ctx context.Context,
	input *AlertIDInput,
) (*AlertOutput, error) {
	a, err := h.alerts.StopAlert(ctx, input.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, huma.Error404NotFound("alert not found")
	case errors.Is(err, alert.ErrTerminal), errors.Is(err, store.ErrConflict):
		return nil, huma.Error409Conflict(err.Error())
	case err != nil:
		return nil, huma.Error500InternalServerError("stopping alert failed: " + err.Error())
	}
	return &AlertOutput{Body: *a}, nil
}

// RegisterAlertRoutes registers alert endpoints with the Huma API.
func RegisterAlertRoutes(api huma.API, h *AlertsHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-alert",
		Method:        http.MethodPost,
		Path:          "/api/v1/alerts",
		Summary:       "Create alert",
		Description:   "Starts tracking a product for a user and queues a tracking_started notification.",
		Tags:          []string{"alerts"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusUnprocessableEntity},
	}, h.CreateAlert)

	huma.Register(api, huma.Operation{
		OperationID: "list-alerts",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts",
		Summary:     "List alerts",
		Description: "Returns every alert owned by a user, newest first.",
		Tags:        []string{"alerts"},
	}, h.ListAlerts)

	huma.Register(api, huma.Operation{
		OperationID: "get-alert",
		Method:      http.MethodGet,
		Path:        "/api/v1/alerts/{id}",
		Summary:     "Get alert",
		Description: "Returns a single alert by ID.",
		Tags:        []string{"alerts"},
		Errors:      []int{http.StatusNotFound},
	}, h.GetAlert)

	huma.Register(api, huma.Operation{
		OperationID: "stop-alert",
		Method:      http.MethodPost,
		Path:        "/api/v1/alerts/{id}/stop",
		Summary:     "Stop alert",
		Description: "Stops an active alert and queues a tracking_stopped notification.",
		Tags:        []string{"alerts"},
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, h.StopAlert)
}
