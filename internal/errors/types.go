package errors

// ErrorFormat represents the target error format.
type ErrorFormat string

const (
	FormatOpenAI    ErrorFormat = "openai"
	FormatAnthropic ErrorFormat = "anthropic"
	FormatGemini    ErrorFormat = "gemini"
)

// Kind tags an APIError with its place in the gateway's failure taxonomy.
type Kind string

const (
	KindUnauthenticated       Kind = "unauthenticated"
	KindInvalidRequest        Kind = "invalid_request"
	KindUpstream4xx           Kind = "upstream_4xx"
	KindUpstream5xx           Kind = "upstream_5xx"
	KindTransport             Kind = "transport"
	KindAuthFailed            Kind = "auth_failed"
	KindNoRefreshToken        Kind = "no_refresh_token"
	KindProjectUndiscoverable Kind = "project_undiscoverable"
	KindProjectRequired       Kind = "project_required"
	KindOnboardingFailed      Kind = "onboarding_failed"
	KindOnboardingTimeout     Kind = "onboarding_timeout"
)

// APIError represents a standardized error across the gateway.
type APIError struct {
	HTTPStatus int
	Kind       Kind
	Code       string
	Message    string
	Type       string
	Details    map[string]interface{}
}

// Error makes APIError usable as a plain error value across layers.
func (e *APIError) Error() string {
	return e.Message
}

// OpenAIError mirrors OpenAI's error envelope.
type OpenAIError struct {
	Error struct {
		Message string                 `json:"message"`
		Type    string                 `json:"type"`
		Code    string                 `json:"code,omitempty"`
		Param   string                 `json:"param,omitempty"`
		Details map[string]interface{} `json:"details,omitempty"`
	} `json:"error"`
}

// AnthropicError mirrors the Messages API error envelope.
type AnthropicError struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// GeminiError mirrors the native surface's bare error envelope.
type GeminiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
