// internal/middleware/logger.go

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"twofactor-service/pkg/logger"
)

func (m *Middleware) Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		// Health checks would drown everything else out.
		if path == "/health" {
			return
		}

		latency := time.Since(start)
		status := c.Writer.Status()

		logFields := map[string]interface{}{
			"status":    status,
			"latency":   latency,
			"client_ip": c.ClientIP(),
			"method":    c.Request.Method,
			"path":      path,
		}

		if status >= 400 && len(c.Errors) > 0 {
			logFields["errors"] = c.Errors.String()
		}

		switch {
		case status >= 500:
			logger.WithFields(logFields).Error("Request failed")
		case status >= 400:
			logger.WithFields(logFields).Warn("Request warning")
		default:
			logger.WithFields(logFields).Info("Request processed")
		}
	}
}
