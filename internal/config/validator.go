package config

import "fmt"

// ValidationError 配置校验错误
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Message)
}

// ValidationResult 配置校验结果
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

func (r *ValidationResult) AddError(field, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{Field: field, Message: message})
}

// FirstError returns the first validation error, or nil when valid.
func (r *ValidationResult) FirstError() error {
	if r.Valid || len(r.Errors) == 0 {
		return nil
	}
	return r.Errors[0]
}

// Validate checks the configuration for values the gateway cannot run with.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{Valid: true}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result.AddError("server.port", fmt.Sprintf("must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Auth.Password == "" {
		result.AddError("auth.password", "must not be empty")
	}
	if c.Credentials.File == "" && c.Credentials.InlineJSON == "" {
		result.AddError("credentials.file", "must not be empty")
	}
	if c.OAuth.ClientID == "" {
		result.AddError("oauth.client_id", "must not be empty")
	}
	if c.OAuth.ClientSecret == "" {
		result.AddError("oauth.client_secret", "must not be empty")
	}
	if len(c.OAuth.Scopes) == 0 {
		result.AddError("oauth.scopes", "must not be empty")
	}
	if c.OAuth.CallbackPort < 1 || c.OAuth.CallbackPort > 65535 {
		result.AddError("oauth.callback_port", fmt.Sprintf("must be between 1 and 65535, got %d", c.OAuth.CallbackPort))
	}
	if c.Upstream.Endpoint == "" {
		result.AddError("upstream.endpoint", "must not be empty")
	}
	if c.Upstream.MaxConnections < 1 {
		result.AddError("upstream.max_connections", "must be at least 1")
	}
	if c.Upstream.MaxKeepalive < 0 {
		result.AddError("upstream.max_keepalive_connections", "must not be negative")
	}
	if c.Retry.MaxAttempts < 1 {
		result.AddError("retry.max_attempts", "must be at least 1")
	}
	if c.Retry.BaseDelayS <= 0 {
		result.AddError("retry.base_delay_s", "must be positive")
	}
	if c.Retry.MaxDelayS < c.Retry.BaseDelayS {
		result.AddError("retry.max_delay_s", "must be at least retry.base_delay_s")
	}
	if c.Onboarding.PollIntervalS <= 0 {
		result.AddError("onboarding.poll_interval_s", "must be positive")
	}
	if c.Onboarding.MaxWaitS <= 0 {
		result.AddError("onboarding.max_wait_s", "must be positive")
	}
	switch c.Usage.Backend {
	case "memory", "file", "redis", "postgres":
	default:
		result.AddError("usage.backend", fmt.Sprintf("unknown backend %q", c.Usage.Backend))
	}

	return result
}
