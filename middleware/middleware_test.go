package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HSouheill/catalog_backend/logger"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(e *echo.Echo, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksPerRoute(t *testing.T) {
	limiter := NewRateLimiter()
	limiter.SetEndpointLimit("POST /categories", time.Hour, 2)
	limiter.SetBlockDuration(time.Hour)

	e := echo.New()
	e.Use(limiter.RateLimit())
	ok := func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }
	e.POST("/categories", ok)
	e.GET("/health", ok)

	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/categories").Code)
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/categories").Code)

	rec := serve(e, http.MethodPost, "/categories")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "Too many requests")

	// the client stays blocked on every route except the skipped ones
	rec = serve(e, http.MethodPost, "/categories")
	assert.Contains(t, rec.Body.String(), "blocked")
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/health").Code)

	limiter.cleanupBlockedIPs(time.Now().Add(2 * time.Hour))
	assert.Equal(t, http.StatusNoContent, serve(e, http.MethodPost, "/categories").Code, "block expiry resets the budget")
}

func TestRequestLogger_CarriesRequestID(t *testing.T) {
	log, hook := test.NewNullLogger()

	var seen string
	e := echo.New()
	e.Use(echoMiddleware.RequestIDWithConfig(echoMiddleware.RequestIDConfig{
		Generator: func() string { return "req-42" },
	}))
	e.Use(RequestLogger(log))
	e.GET("/categories/:id", func(c echo.Context) error {
		seen, _ = c.Request().Context().Value(logger.RequestIDKey).(string)
		return echo.NewHTTPError(http.StatusNotFound, "category not found")
	})

	rec := serve(e, http.MethodGet, "/categories/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "req-42", seen)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "req-42", entry.Data["request_id"])
	assert.Equal(t, "/categories/:id", entry.Data["path"])
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders(SecurityConfig{HSTS: true}))
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, http.MethodGet, "/health")
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.NotEmpty(t, rec.Header().Get("Strict-Transport-Security"))
}

func TestCORS_ExposesValidatorHeaders(t *testing.T) {
	e := echo.New()
	e.Use(CORSWithConfig(NewCORSConfig([]string{"https://admin.example.com"})))
	e.GET("/product-render", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/product-render", nil)
	req.Header.Set(echo.HeaderOrigin, "https://admin.example.com")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.example.com", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlExposeHeaders), "ETag")
}

func TestRequireJSON(t *testing.T) {
	e := echo.New()
	e.Use(RequireJSON())
	e.POST("/categories", func(c echo.Context) error { return c.NoContent(http.StatusCreated) })
	e.DELETE("/categories/:id", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	post := func(contentType string) int {
		req := httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"name":"Men"}`))
		if contentType != "" {
			req.Header.Set(echo.HeaderContentType, contentType)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusCreated, post("application/json"))
	assert.Equal(t, http.StatusCreated, post("application/json; charset=utf-8"))
	assert.Equal(t, http.StatusUnsupportedMediaType, post("multipart/form-data; boundary=x"))
	assert.Equal(t, http.StatusUnsupportedMediaType, post(""))
	assert.Equal(t, http.StatusOK, serve(e, http.MethodDelete, "/categories/1").Code)
}
