package config

// OAuth client of the official Gemini CLI. Credentials minted through the
// gateway must look like they were minted by the CLI, so these are fixed.
const (
	DefaultOAuthClientID     = "681255809395-oo8ft2oprdrnp9e3aqf6av3hmdib135j.apps.googleusercontent.com"
	DefaultOAuthClientSecret = "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"
	DefaultOAuthAuthURL      = "https://accounts.google.com/o/oauth2/auth"
	DefaultOAuthTokenURL     = "https://oauth2.googleapis.com/token"
)

// DefaultScopes 官方 CLI 请求的授权范围
var DefaultScopes = []string{
	"https://www.googleapis.com/auth/cloud-platform",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// DefaultCodeAssistEndpoint is the Code Assist API base URL.
const DefaultCodeAssistEndpoint = "https://cloudcode-pa.googleapis.com"

// DefaultCredentialsFile 默认凭据文件名（相对工作目录）
const DefaultCredentialsFile = "oauth_creds.json"

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8888,
			CORSAllowOrigins: []string{"*"},
			Debug:            false,
		},
		Auth: AuthConfig{
			Password: "123456",
		},
		Credentials: CredentialsConfig{
			File:             DefaultCredentialsFile,
			AllowInteractive: true,
			WatchFile:        true,
		},
		OAuth: OAuthConfig{
			ClientID:         DefaultOAuthClientID,
			ClientSecret:     DefaultOAuthClientSecret,
			Scopes:           append([]string(nil), DefaultScopes...),
			AuthURL:          DefaultOAuthAuthURL,
			TokenURL:         DefaultOAuthTokenURL,
			CallbackPort:     8080,
			CallbackTimeoutS: 300,
		},
		Upstream: UpstreamConfig{
			Endpoint:           DefaultCodeAssistEndpoint,
			MaxConnections:     100,
			MaxKeepalive:       20,
			ConnectTimeoutS:    20,
			ReadTimeoutS:       0,
			StreamReadTimeoutS: 0,
		},
		Retry: RetryConfig{
			MaxAttempts: 10,
			BaseDelayS:  1.0,
			MaxDelayS:   30.0,
		},
		Onboarding: OnboardingConfig{
			PollIntervalS: 2.5,
			MaxWaitS:      90,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Usage: UsageConfig{
			Backend: "memory",
			File:    "usage_stats.json",
		},
	}
}
