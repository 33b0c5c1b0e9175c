package constants

import "time"

const (
	// UpstreamConnectTimeout bounds TCP/TLS setup toward the Code Assist endpoint.
	UpstreamConnectTimeout = 20 * time.Second
	// UpstreamIdleConnTimeout controls how long pooled connections stay open.
	UpstreamIdleConnTimeout = 90 * time.Second
	// OAuthCallbackTimeout bounds the wait for the browser redirect during the
	// interactive flow.
	OAuthCallbackTimeout = 5 * time.Minute
	// OnboardPollInterval is the delay between onboarding LRO polls.
	OnboardPollInterval = 2500 * time.Millisecond
	// OnboardMaxWait is the wall-clock cap on the whole onboarding poll loop.
	OnboardMaxWait = 90 * time.Second
	// ServerShutdownTimeout bounds graceful HTTP server shutdown.
	ServerShutdownTimeout = 30 * time.Second
)
