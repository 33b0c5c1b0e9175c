package gemini

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"geminicli2api-go/internal/common"
	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/constants"
	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/monitoring"
	"geminicli2api-go/internal/monitoring/tracing"
	log "github.com/sirupsen/logrus"
)

// TokenSource supplies a valid bearer token for upstream calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client 负责与 Code Assist API 通信，并以官方 Gemini CLI 的身份出现。
// 每个上游请求只携带三个头：Authorization、Content-Type、User-Agent。
type Client struct {
	cfg    *config.Config
	tokens TokenSource
	unary  *http.Client
	stream *http.Client
}

// New builds a client with a pooled transport shared between unary and
// streaming calls. Read timeouts of zero leave responses unbounded; only
// connection setup is capped.
func New(cfg *config.Config, tokens TokenSource) *Client {
	maxConns := cfg.Upstream.MaxConnections
	if maxConns <= 0 {
		maxConns = constants.DefaultMaxConnections
	}
	keepalive := cfg.Upstream.MaxKeepalive
	if keepalive <= 0 {
		keepalive = constants.DefaultMaxKeepaliveConnections
	}
	connectTO := cfg.Upstream.ConnectTimeout()
	if connectTO <= 0 {
		connectTO = constants.UpstreamConnectTimeout
	}

	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connectTO,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: connectTO,
		MaxConnsPerHost:     maxConns,
		MaxIdleConns:        keepalive,
		MaxIdleConnsPerHost: keepalive,
		IdleConnTimeout:     constants.UpstreamIdleConnTimeout,
	}
	return &Client{
		cfg:    cfg,
		tokens: tokens,
		unary:  &http.Client{Transport: tr, Timeout: cfg.Upstream.ReadTimeout()},
		stream: &http.Client{Transport: tr, Timeout: cfg.Upstream.StreamReadTimeout()},
	}
}

func (c *Client) actionURL(action string) string {
	return strings.TrimRight(c.cfg.Upstream.Endpoint, "/") + "/v1internal:" + action
}

// Action runs an arbitrary v1internal action. Streaming actions get alt=sse
// appended and use the unbounded stream client.
//
// The caller owns resp.Body when err is nil.
func (c *Client) Action(ctx context.Context, action string, payload []byte, stream bool) (*http.Response, error) {
	url := c.actionURL(action)
	cli := c.unary
	if stream {
		url += "?alt=sse"
		cli = c.stream
	}
	return c.postJSON(ctx, cli, action, url, payload)
}

// Generate sends a non-streaming envelope to v1internal:generateContent.
//
// The caller owns resp.Body when err is nil.
func (c *Client) Generate(ctx context.Context, envelope []byte) (*http.Response, error) {
	return c.Action(ctx, "generateContent", envelope, false)
}

// Stream sends an envelope to v1internal:streamGenerateContent?alt=sse.
//
// The caller owns resp.Body when err is nil.
func (c *Client) Stream(ctx context.Context, envelope []byte) (*http.Response, error) {
	return c.Action(ctx, "streamGenerateContent", envelope, true)
}

// Call runs a unary action and returns its body, mapping non-200 statuses to
// tagged upstream errors.
func (c *Client) Call(ctx context.Context, action string, payload []byte) ([]byte, error) {
	resp, err := c.Action(ctx, action, payload, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Transport(fmt.Sprintf("read %s response: %v", action, err))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Upstream(resp.StatusCode, body)
	}
	return body, nil
}

// LoadCodeAssist fetches tier and project metadata for the account.
func (c *Client) LoadCodeAssist(ctx context.Context, payload []byte) ([]byte, error) {
	return c.Call(ctx, "loadCodeAssist", payload)
}

// OnboardUser starts (or polls) the onboarding long-running operation.
func (c *Client) OnboardUser(ctx context.Context, payload []byte) ([]byte, error) {
	return c.Call(ctx, "onboardUser", payload)
}

// postJSON runs the retry loop. Responses are returned unread, so a streaming
// caller never sees a retry after the first body byte: retryable statuses are
// drained and retried here, anything else is handed over as-is.
func (c *Client) postJSON(ctx context.Context, cli *http.Client, action, url string, body []byte) (resp *http.Response, err error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	attempts := c.cfg.Retry.MaxAttempts
	if attempts <= 0 {
		attempts = constants.DefaultRetryMaxAttempts
	}

	var attempt int
	ctx, span := tracing.StartAction(ctx, action)
	defer func() {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		tracing.EndAction(span, status, attempt, err)
	}()

	start := time.Now()
	var lastErr error
	for attempt = 1; attempt <= attempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, apperrors.Transport(fmt.Sprintf("build upstream request: %v", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", common.UserAgent())

		resp, err := cli.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, apperrors.Transport("upstream request canceled: " + ctx.Err().Error())
			}
			lastErr = err
			if attempt == attempts {
				break
			}
			delay := c.backoff(attempt)
			monitoring.UpstreamRetryAttempts.WithLabelValues("network_error").Inc()
			log.WithError(err).Warnf("upstream request failed (attempt %d/%d), retrying in %s", attempt, attempts, delay)
			if !sleepCtx(ctx, delay) {
				return nil, apperrors.Transport("upstream request canceled: " + ctx.Err().Error())
			}
			continue
		}

		if constants.RetryableStatusCodes[resp.StatusCode] && attempt < attempts {
			delay := c.backoff(attempt)
			if ra, ok := parseRetryAfter(resp.Header.Get("Retry-After")); ok {
				if capped := minDuration(c.maxDelay(), ra); capped > delay {
					delay = capped
				}
			}
			drainAndClose(resp)
			monitoring.UpstreamRetryAttempts.WithLabelValues(fmt.Sprintf("http_%d", resp.StatusCode)).Inc()
			log.Warnf("upstream returned %d (attempt %d/%d), retrying in %s", resp.StatusCode, attempt, attempts, delay)
			if !sleepCtx(ctx, delay) {
				return nil, apperrors.Transport("upstream request canceled: " + ctx.Err().Error())
			}
			continue
		}

		monitoring.UpstreamRequestsTotal.WithLabelValues(action, statusClass(resp.StatusCode)).Inc()
		monitoring.UpstreamRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
		return resp, nil
	}
	monitoring.UpstreamRequestsTotal.WithLabelValues(action, "network_error").Inc()
	monitoring.UpstreamRequestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	return nil, apperrors.Transport(fmt.Sprintf("upstream unreachable after %d attempts: %v", attempts, lastErr))
}

func statusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}

func drainAndClose(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
