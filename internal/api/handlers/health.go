// Package handlers implements HTTP handlers for the retail-price-tracker API.
package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/retail-price-tracker/internal/engine"
)

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreReporter exposes the per-store breaker state.
type StoreReporter interface {
	StoreStatuses() []engine.StoreStatus
}

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	db     Pinger
	stores StoreReporter
}

// HealthOption configures the HealthHandler.
type HealthOption func(*HealthHandler)

// WithStoreReporter lists stores with an open breaker in readiness
// responses.
func WithStoreReporter(r StoreReporter) HealthOption {
	return func(h *HealthHandler) {
		h.stores = r
	}
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db Pinger, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{db: db}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status         string   `json:"status"                    example:"ready"`
	Database       string   `json:"database,omitempty"        example:"connected"`
	DegradedStores []string `json:"degraded_stores,omitempty" example:"ksp"`
}

// Healthz returns 200 if the process is running.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Readyz returns 503 when the database is unreachable. Stores with an open
// breaker are reported but keep the instance ready: the API still serves
// history and alerts while a store is blocked.
func (h *HealthHandler) Readyz(c echo.Context) error {
	if err := h.db.Ping(c.Request().Context()); err != nil {
		return c.JSON(
			http.StatusServiceUnavailable,
			HealthResponse{Status: "unavailable", Database: "disconnected"},
		)
	}

	resp := HealthResponse{Status: "ready", Database: "connected"}
	if h.stores != nil {
		for _, st := range h.stores.StoreStatuses() {
			if st.Breaker == "open" {
				resp.DegradedStores = append(resp.DegradedStores, st.Name)
			}
		}
	}
	if len(resp.DegradedStores) > 0 {
		resp.Status = "degraded"
	}
	return c.JSON(http.StatusOK, resp)
}
