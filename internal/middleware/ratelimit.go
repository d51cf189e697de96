// internal/middleware/ratelimit.go

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"twofactor-service/internal/models"
)

const (
	defaultRateLimit = 10 // requests per second per client
	defaultBurst     = 20
)

// RateLimit damps issuance abuse per client. Correctness never depends on it:
// the store's supersede rule holds under any request ordering.
func (m *Middleware) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := m.getLimiter(c.ClientIP())

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.APIResponse{
				Status:  http.StatusTooManyRequests,
				Message: models.StatusRateLimited,
				Info: gin.H{
					"retry_after": "1s",
				},
			})
			return
		}

		c.Next()
	}
}

func (m *Middleware) getLimiter(clientIP string) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.clients[clientIP]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Second/defaultRateLimit), defaultBurst)
		m.clients[clientIP] = limiter
	}

	return limiter
}

// CleanupLimiters periodically drops the limiter map so idle clients do not
// accumulate forever.
func (m *Middleware) CleanupLimiters() {
	go func() {
		for {
			time.Sleep(time.Hour)
			m.mu.Lock()
			m.clients = make(map[string]*rate.Limiter)
			m.mu.Unlock()
		}
	}()
}
