package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"sjsage522/dealaggregator/logger"
)

// AccessLog writes one structured line per request. Query strings are left
// out in production.
func AccessLog(log *logger.Logger, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := log.Info()
		switch {
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		}

		event = event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP())
		if !production && c.Request.URL.RawQuery != "" {
			event = event.Str("query", c.Request.URL.RawQuery)
		}
		event.Msg("Request handled")
	}
}
