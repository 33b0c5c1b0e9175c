package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 主配置结构体，按功能域划分
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Auth        AuthConfig        `yaml:"auth"`
	Credentials CredentialsConfig `yaml:"credentials"`
	OAuth       OAuthConfig       `yaml:"oauth"`
	Upstream    UpstreamConfig    `yaml:"upstream"`
	Retry       RetryConfig       `yaml:"retry"`
	Onboarding  OnboardingConfig  `yaml:"onboarding"`
	Logging     LoggingConfig     `yaml:"logging"`
	Usage       UsageConfig       `yaml:"usage"`
}

// ServerConfig configures the public HTTP listener.
type ServerConfig struct {
	Host             string   `yaml:"host"`
	Port             int      `yaml:"port"`
	CORSAllowOrigins []string `yaml:"cors_allow_origins"`
	Debug            bool     `yaml:"debug"`
}

// AuthConfig holds the shared secret callers must present.
type AuthConfig struct {
	Password string `yaml:"password"`
}

// CredentialsConfig controls where the OAuth credential record lives.
type CredentialsConfig struct {
	// File is the on-disk credential path (GOOGLE_APPLICATION_CREDENTIALS).
	File string `yaml:"file"`
	// InlineJSON carries the raw GEMINI_CREDENTIALS value; env only, never
	// read from the config file.
	InlineJSON string `yaml:"-"`
	// AllowInteractive permits the browser OAuth flow when no stored
	// credential is usable.
	AllowInteractive bool `yaml:"allow_interactive"`
	// WatchFile reloads the credential file when it changes on disk.
	WatchFile bool `yaml:"watch_file"`
}

// OAuthConfig carries the installed-app OAuth client settings.
type OAuthConfig struct {
	ClientID         string   `yaml:"client_id"`
	ClientSecret     string   `yaml:"client_secret"`
	Scopes           []string `yaml:"scopes"`
	AuthURL          string   `yaml:"auth_url"`
	TokenURL         string   `yaml:"token_url"`
	CallbackPort     int      `yaml:"callback_port"`
	CallbackTimeoutS float64  `yaml:"callback_timeout_s"`
}

// UpstreamConfig configures the Code Assist transport.
type UpstreamConfig struct {
	Endpoint       string `yaml:"endpoint"`
	// ProjectID overrides project discovery (GOOGLE_CLOUD_PROJECT).
	ProjectID      string `yaml:"project_id"`
	MaxConnections int    `yaml:"max_connections"`
	MaxKeepalive   int    `yaml:"max_keepalive_connections"`
	// Timeouts in seconds; zero read timeouts mean unbounded.
	ConnectTimeoutS    float64 `yaml:"connect_timeout_s"`
	ReadTimeoutS       float64 `yaml:"read_timeout_s"`
	StreamReadTimeoutS float64 `yaml:"stream_read_timeout_s"`
}

// RetryConfig tunes the upstream retry loop.
type RetryConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	BaseDelayS  float64 `yaml:"base_delay_s"`
	MaxDelayS   float64 `yaml:"max_delay_s"`
}

// OnboardingConfig tunes the onboarding LRO poll loop.
type OnboardingConfig struct {
	PollIntervalS float64 `yaml:"poll_interval_s"`
	MaxWaitS      float64 `yaml:"max_wait_s"`
}

// LoggingConfig controls log output beyond the debug switch.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// UsageConfig selects the usage statistics store.
type UsageConfig struct {
	Backend       string `yaml:"backend"` // memory | file | redis | postgres
	File          string `yaml:"file"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	PostgresDSN   string `yaml:"postgres_dsn"`
}

func (c OAuthConfig) CallbackTimeout() time.Duration {
	return secondsToDuration(c.CallbackTimeoutS)
}

func (c UpstreamConfig) ConnectTimeout() time.Duration {
	return secondsToDuration(c.ConnectTimeoutS)
}

// ReadTimeout returns zero when unbounded.
func (c UpstreamConfig) ReadTimeout() time.Duration {
	return secondsToDuration(c.ReadTimeoutS)
}

// StreamReadTimeout returns zero when unbounded.
func (c UpstreamConfig) StreamReadTimeout() time.Duration {
	return secondsToDuration(c.StreamReadTimeoutS)
}

func (c RetryConfig) BaseDelay() time.Duration { return secondsToDuration(c.BaseDelayS) }
func (c RetryConfig) MaxDelay() time.Duration  { return secondsToDuration(c.MaxDelayS) }

func (c OnboardingConfig) PollInterval() time.Duration { return secondsToDuration(c.PollIntervalS) }
func (c OnboardingConfig) MaxWait() time.Duration      { return secondsToDuration(c.MaxWaitS) }

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Load loads configuration from the default file (if present) and environment.
func Load() (*Config, error) {
	return LoadWithFile("")
}

// LoadWithFile loads configuration from the given YAML file, falling back to
// "config.yaml" in the working directory, then applies environment overrides.
func LoadWithFile(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			configPath = "config.yaml"
		}
	}
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.mergeEnvVars()

	if result := cfg.Validate(); !result.Valid {
		return nil, result.FirstError()
	}
	return cfg, nil
}
