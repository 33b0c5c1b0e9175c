package errors

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
)

// classifyTransport turns a raw HTTP client error into the transport slice of
// the taxonomy. Classification is best-effort; anything unrecognized still
// becomes a 502 so a bare Go error string never decides the status.
func classifyTransport(err error) *APIError {
	msg := err.Error()

	var e *APIError
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.Canceled) || strings.Contains(msg, "context canceled"):
		e = New(http.StatusRequestTimeout, "request_canceled", "timeout_error", "request was canceled: "+msg)
	case stderrors.Is(err, context.DeadlineExceeded) ||
		(stderrors.As(err, &netErr) && netErr.Timeout()) ||
		strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		e = New(http.StatusGatewayTimeout, "timeout", "timeout_error", "upstream timeout: "+msg)
	case strings.Contains(msg, "no such host"):
		e = New(http.StatusBadGateway, "dns_error", "server_error", "DNS resolution failed: "+msg)
	case strings.Contains(msg, "certificate") || strings.Contains(msg, "tls:"):
		e = New(http.StatusBadGateway, "tls_error", "server_error", "TLS handshake failed: "+msg)
	default:
		e = New(http.StatusBadGateway, "connection_error", "server_error", "upstream connection failed: "+msg)
	}
	e.Kind = KindTransport
	return e
}
