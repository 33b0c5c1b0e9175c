package middleware

import (
	"geminicli2api-go/internal/monitoring"
)

// RecordSSELines adds to the SSE lines counter for a protocol/path.
func RecordSSELines(protocol, path string, n int) {
	if n <= 0 {
		return
	}
	monitoring.SSELinesTotal.WithLabelValues(protocol, path).Add(float64(n))
}

// RecordToolCalls adds to the tool calls counter for a protocol/path.
func RecordToolCalls(protocol, path string, n int) {
	if n <= 0 {
		return
	}
	monitoring.ToolCallsTotal.WithLabelValues(protocol, path).Add(float64(n))
}

// RecordSSEClose increments an SSE disconnect reason counter for a protocol/path/reason.
func RecordSSEClose(protocol, path, reason string) {
	if reason == "" {
		reason = "other"
	}
	monitoring.SSEDisconnectsTotal.WithLabelValues(protocol, path, reason).Inc()
}
