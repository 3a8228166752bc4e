package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/retail-price-tracker/internal/engine"
	domain "github.com/donaldgifford/retail-price-tracker/pkg/types"
)

// StatsProvider reports aggregate counts and per-store health.
type StatsProvider interface {
	GetStats(ctx context.Context) (*domain.Stats, error)
	StoreStatuses() []engine.StoreStatus
}

// StatsHandler handles GET /api/v1/stats and GET /api/v1/stores.
type StatsHandler struct {
	stats StatsProvider
}

// NewStatsHandler creates a StatsHandler.
func NewStatsHandler(p StatsProvider) *StatsHandler {
	return &StatsHandler{stats: p}
}

// StatsOutput is the response for GET /api/v1/stats.
type StatsOutput struct {
	Body *domain.Stats
}

// GetStats returns aggregate counts and the stores currently degraded.
func (h *StatsHandler) GetStats(
	ctx context.Context,
	_ *struct{},
) (*StatsOutput, error) {
	stats, err := h.stats.GetStats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to get stats")
	}
	return &StatsOutput{Body: stats}, nil
}

// StoresOutput is the response for GET /api/v1/stores.
type StoresOutput struct {
	Body struct {
		Stores []engine.StoreStatus `json:"stores"`
	}
}

// ListStores returns breaker state and daily request budget per store.
func (h *StatsHandler) ListStores(_ context.Context, _ *struct{}) (*StoresOutput, error) {
	resp := &StoresOutput{}
	resp.Body.Stores = h.stats.StoreStatuses()
	if resp.Body.Stores == nil {
		resp.Body.Stores = []engine.StoreStatus{}
	}
	return resp, nil
}

// RegisterStatsRoutes registers the stats and store status routes.
func RegisterStatsRoutes(api huma.API, h *StatsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/api/v1/stats",
		Summary:     "Get stats",
		Description: "Returns product, alert, user and notification counts plus degraded stores.",
		Tags:        []string{"system"},
	}, h.GetStats)

	huma.Register(api, huma.Operation{
		OperationID: "list-stores",
		Method:      http.MethodGet,
		Path:        "/api/v1/stores",
		Summary:     "List stores",
		Description: "Returns circuit breaker state and remaining daily request quota for each store.",
		Tags:        []string{"system"},
	}, h.ListStores)
}
