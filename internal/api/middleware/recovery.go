package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"

	"github.com/donaldgifford/retail-price-tracker/internal/metrics"
)

const problemContentType = "application/problem+json"

// Recovery returns Echo middleware that turns a handler panic into a 500
// problem response, logs the stack and counts the panic per route.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(log *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if e, ok := r.(error); ok && errors.Is(e, http.ErrAbortHandler) {
					panic(r)
				}

				route := routeLabel(c, nil)
				metrics.HTTPPanicsTotal.WithLabelValues(route).Inc()

				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				log.Error("panic recovered",
					"error", fmt.Sprint(r),
					"method", c.Request().Method,
					"route", route,
					"path", c.Request().URL.Path,
					"request_id", c.Get("request_id"),
					"stack", string(buf[:n]),
				)

				if c.Response().Committed {
					return
				}
				c.Response().Header().Set(echo.HeaderContentType, problemContentType)
				err = c.JSON(http.StatusInternalServerError, map[string]any{
					"title":  http.StatusText(http.StatusInternalServerError),
					"status": http.StatusInternalServerError,
					"detail": "internal server error",
				})
			}()
			return next(c)
		}
	}
}
