// internal/middleware/security.go

package middleware

import (
	"github.com/gin-gonic/gin"
)

// Security adds response headers appropriate for a JSON API that hands out
// short-lived secrets: nothing here may be cached or framed.
func (m *Middleware) Security() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.config.Security.HeadersEnabled {
			c.Next()
			return
		}

		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Header("Referrer-Policy", "no-referrer")

		// Responses never carry the code, but challenge ids and delivery
		// outcomes should not linger in intermediaries either.
		c.Header("Cache-Control", "no-store, max-age=0")
		c.Header("Pragma", "no-cache")

		c.Next()
	}
}
