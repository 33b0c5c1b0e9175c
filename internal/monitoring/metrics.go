package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP请求指标（protocol 为前端协议：openai/responses/anthropic/gemini）
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"protocol", "method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geminicli2api_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"protocol", "method", "path", "status_class"},
	)

	// HTTP 并发请求数
	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "geminicli2api_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	AuthFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_auth_failures_total",
			Help: "Total number of rejected client authentication attempts",
		},
		[]string{"source"},
	)

	// 凭证相关指标
	CredentialRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_credential_refreshes_total",
			Help: "Total number of OAuth token refreshes",
		},
		[]string{"status"},
	)

	CredentialReloadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geminicli2api_credential_reloads_total",
			Help: "Total number of credential file reloads triggered by the watcher",
		},
	)

	// 上游API调用指标（action 为 v1internal 方法名）
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_upstream_requests_total",
			Help: "Total number of Code Assist API requests",
		},
		[]string{"action", "status_class"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "geminicli2api_upstream_request_duration_seconds",
			Help:    "Code Assist API request latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"action"},
	)

	UpstreamRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_upstream_retry_attempts_total",
			Help: "Total number of upstream retry attempts",
		},
		[]string{"reason"},
	)

	UpstreamModelRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_upstream_model_requests_total",
			Help: "Total number of upstream requests by model",
		},
		[]string{"model", "status_class"},
	)

	// 流式传输指标
	SSELinesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_sse_lines_total",
			Help: "Total number of SSE lines sent",
		},
		[]string{"protocol", "path"},
	)

	SSEDisconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_sse_disconnects_total",
			Help: "Total number of SSE disconnects by reason",
		},
		[]string{"protocol", "path", "reason"},
	)

	ToolCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_tool_calls_total",
			Help: "Total number of tool calls emitted to clients",
		},
		[]string{"protocol", "path"},
	)

	// 项目发现与入驻指标
	ProjectResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_project_resolutions_total",
			Help: "Total number of project id resolutions by source",
		},
		[]string{"source"}, // source: env/cache/credential/remote
	)

	ProjectDiscoveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "geminicli2api_project_discovery_duration_seconds",
			Help:    "Duration of loadCodeAssist project discovery calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	OnboardingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_onboarding_runs_total",
			Help: "Total number of onboarding attempts by outcome",
		},
		[]string{"outcome"}, // outcome: already/onboarded/failed/timeout
	)

	OnboardingPollsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "geminicli2api_onboarding_polls_total",
			Help: "Total number of onboardUser long-running operation polls",
		},
	)

	// Token使用指标
	TokensUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geminicli2api_tokens_used_total",
			Help: "Total number of tokens used",
		},
		[]string{"model", "type"}, // type: prompt, completion, total
	)
)
