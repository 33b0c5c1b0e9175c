package errors

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// upstreamCodes maps Code Assist reply statuses to the code/type pair the
// OpenAI surface renders. Statuses outside the table fall back to a generic
// server_error.
var upstreamCodes = map[int][2]string{
	http.StatusBadRequest:          {"invalid_request_error", "invalid_request_error"},
	http.StatusUnauthorized:        {"invalid_api_key", "authentication_error"},
	http.StatusForbidden:           {"permission_denied", "permission_error"},
	http.StatusNotFound:            {"not_found", "invalid_request_error"},
	http.StatusTooManyRequests:     {"rate_limit_exceeded", "rate_limit_error"},
	http.StatusInternalServerError: {"server_error", "server_error"},
	http.StatusBadGateway:          {"bad_gateway", "server_error"},
	http.StatusServiceUnavailable:  {"service_unavailable", "server_error"},
	http.StatusGatewayTimeout:      {"timeout", "timeout_error"},
}

// mapUpstreamStatus builds the caller-facing error for a failed Code Assist
// reply, preferring Google's own error text over a canned description.
func mapUpstreamStatus(status int, body []byte) *APIError {
	code, errType := "unknown_error", "server_error"
	if pair, ok := upstreamCodes[status]; ok {
		code, errType = pair[0], pair[1]
	}
	msg := upstreamMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("upstream returned HTTP %d", status)
	}
	return New(status, code, errType, msg)
}

// upstreamMessage digs the human text out of a Code Assist error body, which
// nests it as {"error": {"message": ...}}. Non-JSON bodies pass through
// truncated so log lines and caller payloads stay bounded.
func upstreamMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if msg := gjson.GetBytes(body, "error.message"); msg.Type == gjson.String && msg.Str != "" {
		return msg.Str
	}
	raw := string(body)
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return raw
}
