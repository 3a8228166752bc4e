// Package middleware provides Echo middleware for the retail-price-tracker API.
package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
)

// unmatchedRoute labels requests the router could not place, so scans of
// arbitrary URLs share one series.
const unmatchedRoute = "unmatched"

// operationalRoutes bypass the request histogram. A non-nil gauge records
// whether the last check succeeded.
var operationalRoutes = map[string]prometheus.Gauge{
	"/metrics": nil,
	"/healthz": metrics.HealthzUp,
	"/readyz":  metrics.ReadyzUp,
}

// Metrics returns Echo middleware that records request duration and status
// labelled by route template, e.g. /api/v1/products/:id, never by the raw
// path.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			route := c.Path()
			if gauge, ok := operationalRoutes[route]; ok {
				err := next(c)
				if gauge != nil {
					setUp(gauge, responseStatus(c, err))
				}
				return err
			}

			start := time.Now()
			err := next(c)
			duration := time.Since(start).Seconds()

			route = routeLabel(c, err)
			status := strconv.Itoa(responseStatus(c, err))
			method := c.Request().Method

			metrics.HTTPRequestDuration.
				WithLabelValues(method, route, status).
				Observe(duration)
			metrics.HTTPRequestsTotal.
				WithLabelValues(method, route, status).
				Inc()

			return err
		}
	}
}

// routeLabel returns the matched route template. Requests answered by the
// router's own 404 or 405 handler are unmatched.
func routeLabel(c echo.Context, err error) string {
	route := c.Path()
	if route == "" || errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
		return unmatchedRoute
	}
	return route
}

// responseStatus is the status the client receives. An error returned
// before anything was written is rendered later by Echo's error handler.
func responseStatus(c echo.Context, err error) int {
	if err == nil || c.Response().Committed {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

func setUp(gauge prometheus.Gauge, status int) {
	if status >= 200 && status < 300 {
		gauge.Set(1)
	} else {
		gauge.Set(0)
	}
}
