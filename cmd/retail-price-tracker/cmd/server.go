package cmd

import (
	"log/slog"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/retail-price-tracker/api/openapi"
	"github.com/donaldgifford/retail-price-tracker/internal/api/handlers"
	"github.com/donaldgifford/retail-price-tracker/internal/api/middleware"
	"github.com/donaldgifford/retail-price-tracker/internal/store"
)

// tracker is the engine surface the API depends on.
type tracker interface {
	handlers.ProductTracker
	handlers.Scraper
	handlers.AlertManager
	handlers.StatsProvider
}

func humaConfig() huma.Config {
	cfg := huma.DefaultConfig("Retail Price Tracker API", Version)
	cfg.Info.Description = "Search retail stores, follow product price history, and manage price alerts."
	// Swagger UI is served by the openapi package.
	cfg.DocsPath = ""
	return cfg
}

// newServer builds the Echo instance with operational endpoints and every
// API route registered.
func newServer(s store.Store, t tracker, log *slog.Logger) (*echo.Echo, huma.API) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(
		middleware.Recovery(log),
		middleware.Tracing(nil, nil),
		middleware.RequestLog(log),
		middleware.Metrics(),
	)

	health := handlers.NewHealthHandler(s, handlers.WithStoreReporter(t))
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, humaConfig())
	handlers.RegisterProductRoutes(api, handlers.NewProductsHandler(s, t))
	handlers.RegisterSearchRoutes(api, handlers.NewSearchHandler(s, t))
	handlers.RegisterAlertRoutes(api, handlers.NewAlertsHandler(t, s))
	handlers.RegisterStatsRoutes(api, handlers.NewStatsHandler(t))
	handlers.RegisterNotificationRoutes(api, handlers.NewNotificationsHandler(s))
	openapi.RegisterRoutes(e, api.OpenAPI())

	return e, api
}
