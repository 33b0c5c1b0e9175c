package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestID propagates the caller's X-Request-ID or mints a fresh one.
// Inbound values are trusted only when short and printable so a client
// cannot forge multi-line log entries through the id field.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := sanitizeRequestID(c.GetHeader("X-Request-ID"))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Next()
	}
}

func sanitizeRequestID(rid string) string {
	if len(rid) == 0 || len(rid) > 64 {
		return ""
	}
	for _, r := range rid {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return rid
}
