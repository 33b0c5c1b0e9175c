package middleware

import (
	"fmt"
	"time"

	"geminicli2api-go/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ContextKeyProtocol tags requests with the caller-facing protocol
// (openai / responses / anthropic / gemini) for metrics and logs.
const ContextKeyProtocol = "protocol"

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	c := code / 100
	return fmt.Sprintf("%dxx", c)
}

// Protocol labels every request passing through a route group.
func Protocol(label string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyProtocol, label)
		c.Next()
	}
}

// Metrics is an HTTP middleware to track per-route counters and latency histogram
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		monitoring.HTTPInFlight.Inc()
		c.Next()
		monitoring.HTTPInFlight.Dec()

		durSec := time.Since(start).Seconds()
		protocol := c.GetString(ContextKeyProtocol)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		sc := statusClass(c.Writer.Status())

		monitoring.HTTPRequestsTotal.WithLabelValues(protocol, c.Request.Method, path, sc).Inc()
		monitoring.HTTPRequestDuration.WithLabelValues(protocol, c.Request.Method, path, sc).Observe(durSec)
	}
}

// MetricsHandler exposes Prometheus metrics using the standard promhttp handler.
func MetricsHandler(c *gin.Context) {
	promhttp.Handler().ServeHTTP(c.Writer, c.Request)
}
