package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kyvra-tech/iss-flyover-tracker/internal/models"
	"github.com/kyvra-tech/iss-flyover-tracker/pkg/metrics"
)

// RateLimiter is a fixed-window limiter keyed by client IP. It guards the
// API itself; every allowed request still costs three upstream lookups.
type RateLimiter struct {
	clients map[string]*clientWindow
	mu      sync.Mutex
	logger  *logrus.Logger
	metrics *metrics.Metrics
	limit   int
	window  time.Duration
	now     func() time.Time
}

type clientWindow struct {
	count   int
	resetAt time.Time
}

func NewRateLimiter(limit int, window time.Duration, logger *logrus.Logger, m *metrics.Metrics) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientWindow),
		logger:  logger,
		metrics: m,
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

// Middleware returns a gin middleware handler
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		if !rl.allow(clientIP) {
			rl.metrics.RecordRateLimited()
			rl.logger.WithFields(logrus.Fields{
				"client_ip":  clientIP,
				"request_id": GetRequestID(c),
				"path":       c.Request.URL.Path,
			}).Warn("Rate limit exceeded")

			appErr := models.NewRateLimitError("Too many requests. Please try again later.").
				WithMetadata("retry_after", rl.window.Seconds())
			c.AbortWithStatusJSON(appErr.StatusCode, appErr)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rl.evict(now)

	w, ok := rl.clients[clientIP]
	if !ok || !now.Before(w.resetAt) {
		w = &clientWindow{resetAt: now.Add(rl.window)}
		rl.clients[clientIP] = w
	}

	if w.count >= rl.limit {
		return false
	}
	w.count++
	return true
}

// evict drops expired windows so the table does not grow without bound
func (rl *RateLimiter) evict(now time.Time) {
	for ip, w := range rl.clients {
		if !now.Before(w.resetAt) {
			delete(rl.clients, ip)
		}
	}
}
