package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salzundsand/server/internal/config"
	apperrors "github.com/salzundsand/server/internal/errors"
)

// RateLimiter applies a fixed-window per-IP request limit. Counters reset
// when the window rolls over.
type RateLimiter struct {
	window time.Duration
	max    int

	mu      sync.Mutex
	counts  map[string]int
	started time.Time

	// now is overridable in tests.
	now func() time.Time
}

// NewRateLimiter creates a limiter allowing max requests per window per IP.
func NewRateLimiter(window time.Duration, max int) *RateLimiter {
	return &RateLimiter{
		window:  window,
		max:     max,
		counts:  make(map[string]int),
		started: time.Now(),
		now:     time.Now,
	}
}

// Allow counts one request from the given client and reports whether it is
// within the limit.
func (l *RateLimiter) Allow(clientIP string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.started) >= l.window {
		l.counts = make(map[string]int)
		l.started = now
	}

	l.counts[clientIP]++
	return l.counts[clientIP] <= l.max
}

// Middleware returns the gin handler enforcing the limit.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			abortWithError(c, apperrors.New(apperrors.ErrRateLimited, "too many requests"))
			return
		}
		c.Next()
	}
}

// RateLimiters bundles the three limiter tiers the API uses.
type RateLimiters struct {
	General *RateLimiter // all API routes
	Strict  *RateLimiter // state-changing game and admin routes
	Login   *RateLimiter // credential endpoints
}

// NewRateLimiters builds the limiter tiers from configuration.
func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	return &RateLimiters{
		General: NewRateLimiter(cfg.Window, cfg.Max),
		Strict:  NewRateLimiter(cfg.Window, cfg.StrictMax),
		Login:   NewRateLimiter(cfg.Window, cfg.LoginMax),
	}
}
