package errors

import "net/http"

// Constructors for the gateway failure taxonomy. Credential, discovery, and
// onboarding failures all surface to the caller as 500s with a descriptive
// message; upstream and transport failures keep their own statuses.

func Unauthenticated(message string) *APIError {
	e := New(http.StatusUnauthorized, "invalid_api_key", "authentication_error", message)
	e.Kind = KindUnauthenticated
	return e
}

func InvalidRequest(message string) *APIError {
	e := New(http.StatusBadRequest, "invalid_request_error", "invalid_request_error", message)
	e.Kind = KindInvalidRequest
	return e
}

// Upstream wraps a non-retryable (or retry-exhausted) upstream HTTP status.
// 4xx statuses are forwarded as-is with a rewritten error object; 5xx collapse
// to 502 after retries.
func Upstream(statusCode int, upstreamBody []byte) *APIError {
	e := mapUpstreamStatus(statusCode, upstreamBody)
	if statusCode >= 500 {
		e.HTTPStatus = http.StatusBadGateway
		e.Kind = KindUpstream5xx
	} else {
		e.Kind = KindUpstream4xx
	}
	return e
}

func Transport(message string) *APIError {
	e := New(http.StatusBadGateway, "connection_error", "server_error", message)
	e.Kind = KindTransport
	return e
}

func AuthFailed(message string) *APIError {
	e := New(http.StatusInternalServerError, "auth_failed", "server_error", message)
	e.Kind = KindAuthFailed
	return e
}

func NoRefreshToken() *APIError {
	e := New(http.StatusInternalServerError, "no_refresh_token", "server_error",
		"Credential record has no refresh token and cannot be used")
	e.Kind = KindNoRefreshToken
	return e
}

func ProjectUndiscoverable(message string) *APIError {
	e := New(http.StatusInternalServerError, "project_undiscoverable", "server_error", message)
	e.Kind = KindProjectUndiscoverable
	return e
}

func ProjectRequired(message string) *APIError {
	e := New(http.StatusInternalServerError, "project_required", "server_error", message)
	e.Kind = KindProjectRequired
	return e
}

func OnboardingFailed(message string) *APIError {
	e := New(http.StatusInternalServerError, "onboarding_failed", "server_error", message)
	e.Kind = KindOnboardingFailed
	return e
}

func OnboardingTimeout(message string) *APIError {
	e := New(http.StatusInternalServerError, "onboarding_timeout", "server_error", message)
	e.Kind = KindOnboardingTimeout
	return e
}

// IsKind reports whether err carries the given taxonomy tag.
func IsKind(err error, kind Kind) bool {
	apiErr := FromError(err)
	return apiErr != nil && apiErr.Kind == kind
}
