package middleware

import (
	"time"

	"geminicli2api-go/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// RequestLogger emits one line per request after completion. Streaming
// requests log when the relay finishes, so latency covers the whole pump.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		entry := logging.WithReq(c, log.Fields{
			"status":     status,
			"latency_ms": logging.DurationMS(time.Since(start)),
			"protocol":   c.GetString(ContextKeyProtocol),
			"model":      c.GetString("model"),
			"user_agent": c.Request.UserAgent(),
			"bytes_out":  c.Writer.Size(),
		})
		switch {
		case status >= 500:
			entry.Error("http_request")
		case status >= 400:
			entry.Warn("http_request")
		default:
			entry.Info("http_request")
		}
	}
}
