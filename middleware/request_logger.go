package middleware

import (
	"context"
	"time"

	"github.com/HSouheill/catalog_backend/logger"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request and stores the request id in the
// request context for downstream loggers. It must run after the RequestID
// middleware.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			id := c.Response().Header().Get(echo.HeaderXRequestID)
			if id == "" {
				id = req.Header.Get(echo.HeaderXRequestID)
			}
			if id != "" {
				c.SetRequest(req.WithContext(context.WithValue(req.Context(), logger.RequestIDKey, id)))
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			res := c.Response()
			path := c.Path()
			if path == "" {
				path = req.URL.Path
			}
			entry := logger.WithContext(c.Request().Context(), log).WithFields(logrus.Fields{
				"method":     req.Method,
				"path":       path,
				"uri":        req.RequestURI,
				"status":     res.Status,
				"latency_ms": time.Since(start).Milliseconds(),
				"remote_ip":  c.RealIP(),
				"bytes_out":  res.Size,
			})

			switch {
			case res.Status >= 500:
				entry.Error("request failed")
			case res.Status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request handled")
			}
			return nil
		}
	}
}
