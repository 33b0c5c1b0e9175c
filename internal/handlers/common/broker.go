package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/discovery"
	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/monitoring"
	"geminicli2api-go/internal/translator"
	upgem "geminicli2api-go/internal/upstream/gemini"
	"geminicli2api-go/internal/usage"
	log "github.com/sirupsen/logrus"
)

// Broker 是四个协议面共用的上游管线：解析 project、确保账号已入驻，
// 然后把翻译好的请求体装进 Code Assist 信封发出去。协议 handler 只做
// 请求/响应的格式转换，上游细节全部收在这里。
type Broker struct {
	cfg       *config.Config
	client    *upgem.Client
	resolver  *discovery.ProjectResolver
	onboarder *discovery.Onboarder
	tracker   *usage.Tracker
}

// NewBroker wires the shared upstream pipeline. tracker may be nil.
func NewBroker(cfg *config.Config, client *upgem.Client, resolver *discovery.ProjectResolver, onboarder *discovery.Onboarder, tracker *usage.Tracker) *Broker {
	return &Broker{
		cfg:       cfg,
		client:    client,
		resolver:  resolver,
		onboarder: onboarder,
		tracker:   tracker,
	}
}

// Tracker exposes the usage tracker for stream accounting.
func (b *Broker) Tracker() *usage.Tracker {
	return b.tracker
}

// Prepare resolves the project id and ensures the account is onboarded.
// Both steps cache their outcome, so the fast path is two atomic loads.
func (b *Broker) Prepare(ctx context.Context) (string, error) {
	project, err := b.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	if err := b.onboarder.Ensure(ctx, project); err != nil {
		return "", err
	}
	return project, nil
}

// envelope prepares the upstream payload for a base model.
func (b *Broker) envelope(ctx context.Context, model string, request []byte) ([]byte, error) {
	project, err := b.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	return translator.Envelope(model, project, request), nil
}

// Unary runs a non-streaming exchange and returns the raw enveloped
// response body. Usage is recorded against protocol/model.
func (b *Broker) Unary(ctx context.Context, protocol, model string, request []byte) ([]byte, error) {
	body, err := b.unary(ctx, model, request)

	rec := usage.Record{
		Timestamp: time.Now(),
		Protocol:  protocol,
		Model:     model,
		Success:   err == nil,
	}
	if err == nil {
		if tokens, ok := usage.TokensFromFrame(body); ok {
			rec.Tokens = tokens
		}
	}
	b.record(rec)

	return body, err
}

func (b *Broker) unary(ctx context.Context, model string, request []byte) ([]byte, error) {
	envelope, err := b.envelope(ctx, model, request)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Generate(ctx, envelope)
	if err != nil {
		monitoring.UpstreamModelRequests.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		monitoring.UpstreamModelRequests.WithLabelValues(model, "error").Inc()
		return nil, apperrors.Transport(fmt.Sprintf("read upstream response: %v", err))
	}

	monitoring.UpstreamModelRequests.WithLabelValues(model, brokerStatusClass(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		log.WithFields(log.Fields{
			"model":  model,
			"status": resp.StatusCode,
		}).Warn("Upstream generateContent failed")
		return nil, apperrors.Upstream(resp.StatusCode, body)
	}
	return body, nil
}

// Stream opens a streaming exchange. On success the caller owns resp.Body
// and is expected to run it through PumpSSE; non-200 responses are drained
// and mapped to upstream errors here.
func (b *Broker) Stream(ctx context.Context, model string, request []byte) (*http.Response, error) {
	envelope, err := b.envelope(ctx, model, request)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.Stream(ctx, envelope)
	if err != nil {
		monitoring.UpstreamModelRequests.WithLabelValues(model, "error").Inc()
		return nil, err
	}

	monitoring.UpstreamModelRequests.WithLabelValues(model, brokerStatusClass(resp.StatusCode)).Inc()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		log.WithFields(log.Fields{
			"model":  model,
			"status": resp.StatusCode,
		}).Warn("Upstream streamGenerateContent failed")
		return nil, apperrors.Upstream(resp.StatusCode, body)
	}
	return resp, nil
}

// record is nil-safe usage accounting.
func (b *Broker) record(rec usage.Record) {
	if b.tracker == nil {
		return
	}
	b.tracker.Record(rec)
}

func brokerStatusClass(code int) string {
	if code <= 0 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}
