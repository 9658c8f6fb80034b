package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"jobassist-backend/internal/shared/telemetry"
)

// Logging emits one structured request.complete line per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)

		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"route":       c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": float64(latency.Microseconds()) / 1000.0,
			"user_id":     UserIDFromContext(c),
			"client_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if mode := c.GetString("parserMode"); mode != "" {
			fields["parser_mode"] = mode
		}
		if errText := c.GetString("error"); errText != "" {
			fields["error"] = errText
		}
		telemetry.Info("request.complete", fields)
	}
}
