package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/discovery"
	common "geminicli2api-go/internal/handlers/common"
	upgem "geminicli2api-go/internal/upstream/gemini"
	"geminicli2api-go/internal/usage"
)

type staticTokens struct{}

func (staticTokens) Token(context.Context) (string, error) { return "test-token", nil }

type memProjectStore struct{ project string }

func (s *memProjectStore) ProjectID() string             { return s.project }
func (s *memProjectStore) SetProjectID(projectID string) { s.project = projectID }

// fakeCodeAssist answers loadCodeAssist itself so onboarding always passes,
// and hands the generation actions to the test's handler.
func fakeCodeAssist(generate http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1internal:loadCodeAssist", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"currentTier":{"id":"standard-tier"}}`))
	})
	mux.HandleFunc("/", generate)
	return mux
}

func newTestHandler(t *testing.T, upstream http.Handler) *Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Upstream.Endpoint = srv.URL
	cfg.Upstream.ProjectID = "proj-test"
	cfg.Retry.MaxAttempts = 1

	client := upgem.New(cfg, staticTokens{})
	resolver := discovery.NewProjectResolver(cfg, &memProjectStore{}, client)
	onboarder := discovery.NewOnboarder(cfg, client)
	broker := common.NewBroker(cfg, client, resolver, onboarder, usage.NewTracker(nil))
	return New(broker)
}

func newTestRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.POST("/v1/chat/completions", h.ChatCompletions)
	r.POST("/v1/responses", h.Responses)
	r.GET("/v1/models", h.ListModels)
	r.GET("/v1/models/:id", h.GetModel)
	return r
}
