package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace"
)

const requestIDHeader = "X-Request-ID"

// probePaths are polled by orchestrators every few seconds. A healthy probe
// is logged once; failures are always logged at WARN.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/readyz":  {},
}

// RequestLog returns Echo middleware that logs one line per request with the
// route template next to the raw path, so lines for /api/v1/products/p-1 and
// /api/v1/products/p-2 group under /api/v1/products/:id. It assigns a request
// ID when the caller sent none. Traced requests also carry the trace ID so a
// log line can be matched to its scrape spans.
func RequestLog(log *slog.Logger) echo.MiddlewareFunc {
	var (
		mu      sync.Mutex
		healthy = make(map[string]bool)
	)

	// quiet reports whether a probe result repeats the last healthy one.
	quiet := func(path string, ok bool) bool {
		if _, probe := probePaths[path]; !probe {
			return false
		}
		mu.Lock()
		defer mu.Unlock()
		was := healthy[path]
		healthy[path] = ok
		return ok && was
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Request().Header.Get(requestIDHeader)
			if reqID == "" {
				reqID = uuid.NewString()
			}

			c.Set("request_id", reqID)
			c.Response().Header().Set(requestIDHeader, reqID)

			err := next(c)

			path := c.Request().URL.Path
			status := responseStatus(c, err)
			ok := status >= 200 && status < 300
			if quiet(path, ok) {
				return err
			}

			attrs := []any{
				"method", c.Request().Method,
				"route", routeLabel(c, err),
				"path", path,
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", reqID,
			}
			if sc := trace.SpanContextFromContext(c.Request().Context()); sc.IsValid() {
				attrs = append(attrs, "trace_id", sc.TraceID().String())
			}

			level := slog.LevelInfo
			if _, probe := probePaths[path]; probe && !ok {
				level = slog.LevelWarn
			} else if status >= 500 {
				level = slog.LevelError
			}
			log.Log(c.Request().Context(), level, "request", attrs...)

			return err
		}
	}
}
