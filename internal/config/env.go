package config

import (
	"os"
	"strings"
)

// mergeEnvVars 将环境变量合并进配置（环境变量优先级最高）
func (c *Config) mergeEnvVars() {
	if host := os.Getenv("HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := parsePort(port); err == nil {
			c.Server.Port = p
		}
	}
	if debug := os.Getenv("DEBUG"); debug != "" {
		c.Server.Debug = debug == "true" || debug == "1"
	}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.Server.CORSAllowOrigins = splitCSV(origins)
	}

	if password := os.Getenv("GEMINI_AUTH_PASSWORD"); password != "" {
		c.Auth.Password = password
	}

	if inline := os.Getenv("GEMINI_CREDENTIALS"); inline != "" {
		c.Credentials.InlineJSON = inline
	}
	if file := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); file != "" {
		c.Credentials.File = file
	}
	if v := os.Getenv("ALLOW_INTERACTIVE_AUTH"); v != "" {
		c.Credentials.AllowInteractive = v == "true" || v == "1"
	}
	if v := os.Getenv("WATCH_CREDENTIALS_FILE"); v != "" {
		c.Credentials.WatchFile = v == "true" || v == "1"
	}

	if port := os.Getenv("OAUTH_CALLBACK_PORT"); port != "" {
		if p, err := parsePort(port); err == nil {
			c.OAuth.CallbackPort = p
		}
	}

	if endpoint := os.Getenv("CODE_ASSIST_ENDPOINT"); endpoint != "" {
		c.Upstream.Endpoint = endpoint
	}
	if project := os.Getenv("GOOGLE_CLOUD_PROJECT"); project != "" {
		c.Upstream.ProjectID = project
	}
	if v := os.Getenv("UPSTREAM_MAX_CONNECTIONS"); v != "" {
		if n, err := parseInt(v); err == nil && n > 0 {
			c.Upstream.MaxConnections = n
		}
	}
	if v := os.Getenv("UPSTREAM_MAX_KEEPALIVE_CONNECTIONS"); v != "" {
		if n, err := parseInt(v); err == nil && n > 0 {
			c.Upstream.MaxKeepalive = n
		}
	}
	if v := os.Getenv("UPSTREAM_CONNECT_TIMEOUT_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f >= 0 {
			c.Upstream.ConnectTimeoutS = f
		}
	}
	if v := os.Getenv("UPSTREAM_READ_TIMEOUT_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f >= 0 {
			c.Upstream.ReadTimeoutS = f
		}
	}
	if v := os.Getenv("UPSTREAM_STREAM_READ_TIMEOUT_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f >= 0 {
			c.Upstream.StreamReadTimeoutS = f
		}
	}

	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := parseInt(v); err == nil && n > 0 {
			c.Retry.MaxAttempts = n
		}
	}
	if v := os.Getenv("RETRY_BASE_DELAY_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f > 0 {
			c.Retry.BaseDelayS = f
		}
	}
	if v := os.Getenv("RETRY_MAX_DELAY_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f > 0 {
			c.Retry.MaxDelayS = f
		}
	}

	if v := os.Getenv("ONBOARD_POLL_INTERVAL_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f > 0 {
			c.Onboarding.PollIntervalS = f
		}
	}
	if v := os.Getenv("ONBOARD_MAX_WAIT_S"); v != "" {
		if f, err := parseFloat(v); err == nil && f > 0 {
			c.Onboarding.MaxWaitS = f
		}
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("LOG_FILE"); file != "" {
		c.Logging.File = file
	}

	if backend := os.Getenv("USAGE_BACKEND"); backend != "" {
		c.Usage.Backend = backend
	}
	if file := os.Getenv("USAGE_FILE"); file != "" {
		c.Usage.File = file
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Usage.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Usage.RedisPassword = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := parseInt(db); err == nil && n >= 0 {
			c.Usage.RedisDB = n
		}
	}
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		c.Usage.PostgresDSN = dsn
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
