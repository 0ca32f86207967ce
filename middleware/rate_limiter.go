// middleware/rate_limiter.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/HSouheill/catalog_backend/models"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

type endpointLimit struct {
	limit rate.Limit
	burst int
}

// RateLimiter throttles clients by IP, per route. A client that exceeds its
// budget is blocked for blockDuration.
type RateLimiter struct {
	ips            map[string]*rate.Limiter
	blockedIPs     map[string]time.Time
	mu             *sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	blockDuration  time.Duration
	endpointLimits map[string]endpointLimit
	skip           map[string]bool
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:            make(map[string]*rate.Limiter),
		blockedIPs:     make(map[string]time.Time),
		mu:             &sync.RWMutex{},
		defaultLimit:   rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst:   20,
		blockDuration:  time.Minute,
		endpointLimits: make(map[string]endpointLimit),
		skip: map[string]bool{
			"/health":        true,
			"/ws/categories": true,
		},
	}

	// Tree mutations fan out to many documents
	for _, route := range []string{
		"POST /categories",
		"PUT /categories/:id",
		"DELETE /categories/:id",
		"DELETE /categories/:id/attributes/:attrId",
		"POST /option-sets",
	} {
		limiter.endpointLimits[route] = endpointLimit{limit: rate.Every(200 * time.Millisecond), burst: 10}
	}

	// Product editors poll the render schema
	limiter.endpointLimits["GET /product-render"] = endpointLimit{limit: rate.Every(20 * time.Millisecond), burst: 100}

	return limiter
}

// SetEndpointLimit overrides the budget of one route, e.g. "POST /categories".
func (r *RateLimiter) SetEndpointLimit(route string, every time.Duration, burst int) {
	r.mu.Lock()
	r.endpointLimits[route] = endpointLimit{limit: rate.Every(every), burst: burst}
	r.mu.Unlock()
}

func (r *RateLimiter) SetBlockDuration(d time.Duration) {
	r.mu.Lock()
	r.blockDuration = d
	r.mu.Unlock()
}

// Cleanup drops expired blocks every interval until ctx is done.
func (r *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanupBlockedIPs(time.Now())
		}
	}
}

func (r *RateLimiter) cleanupBlockedIPs(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			r.resetLimiters(ip)
		}
	}
}

// resetLimiters must be called with mu held.
func (r *RateLimiter) resetLimiters(ip string) {
	prefix := ip + "|"
	for key := range r.ips {
		if strings.HasPrefix(key, prefix) {
			delete(r.ips, key)
		}
	}
}

func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if r.skip[c.Path()] {
				return next(c)
			}
			ip := c.RealIP()

			// Check if IP is blocked and handle expired blocks
			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if time.Now().Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, "IP address blocked due to too many requests", blockUntil)
				}
				delete(r.blockedIPs, ip)
				r.resetLimiters(ip)
			}
			route := c.Request().Method + " " + c.Path()
			limit, burst := r.defaultLimit, r.defaultBurst
			if endpoint, exists := r.endpointLimits[route]; exists {
				limit, burst = endpoint.limit, endpoint.burst
			}
			blockDuration := r.blockDuration
			r.mu.Unlock()

			if !r.getLimiter(ip+"|"+route, limit, burst).Allow() {
				until := time.Now().Add(blockDuration)
				r.mu.Lock()
				r.blockedIPs[ip] = until
				r.mu.Unlock()
				return tooManyRequests(c, "Too many requests", until)
			}

			return next(c)
		}
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	limiter, exists := r.ips[key]
	if !exists {
		limiter = rate.NewLimiter(limit, burst)
		r.ips[key] = limiter
	}
	return limiter
}

func tooManyRequests(c echo.Context, message string, until time.Time) error {
	seconds := int(time.Until(until).Seconds()) + 1
	c.Response().Header().Set("Retry-After", strconv.Itoa(seconds))
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Message: message,
		Data:    map[string]string{"retryAfter": until.Format(time.RFC3339)},
	})
}
