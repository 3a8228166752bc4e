package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// FailedIntentLister defines the store method required by the
// notifications handler.
type FailedIntentLister interface {
	ListFailedIntents(ctx context.Context, limit int) ([]domain.NotificationIntent, error)
}

// NotificationsHandler exposes notification intents that exhausted their
// delivery retries.
type NotificationsHandler struct {
	store FailedIntentLister
}

// NewNotificationsHandler creates a new NotificationsHandler.
func NewNotificationsHandler(s FailedIntentLister) *NotificationsHandler {
	return &NotificationsHandler{store: s}
}

const defaultFailedIntentLimit = 50

// ListFailedInput is the input for listing failed notifications.
type ListFailedInput struct {
	Limit int `query:"limit" doc:"Maximum intents to return (default 50)" minimum:"1" maximum:"1000"`
}

// ListFailedOutput is the response body for failed notifications.
type ListFailedOutput struct {
	Body []domain.NotificationIntent
}

// ListFailed returns the most recent intents marked delivery_failed.
func (h *NotificationsHandler) ListFailed(
	ctx context.Context,
	input *ListFailedInput,
) (*ListFailedOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = defaultFailedIntentLimit
	}

	intents, err := h.store.ListFailedIntents(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing failed notifications: " + err.Error())
	}
	if intents == nil {
		intents = []domain.NotificationIntent{}
	}
	return &ListFailedOutput{Body: intents}, nil
}

// RegisterNotificationRoutes registers notification endpoints with the Huma API.
func RegisterNotificationRoutes(api huma.API, h *NotificationsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-failed-notifications",
		Method:      http.MethodGet,
		Path:        "/api/v1/notifications/failed",
		Summary:     "List failed notifications",
		Description: "Returns notification intents that exhausted their delivery retries.",
		Tags:        []string{"notifications"},
	}, h.ListFailed)
}
