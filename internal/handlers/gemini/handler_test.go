package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

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

func fakeCodeAssist(generate http.HandlerFunc) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1internal:loadCodeAssist", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"currentTier":{"id":"standard-tier"}}`))
	})
	mux.HandleFunc("/", generate)
	return mux
}

func newTestRouter(t *testing.T, upstream http.Handler) *gin.Engine {
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
	h := New(common.NewBroker(cfg, client, resolver, onboarder, usage.NewTracker(nil)))

	r := gin.New()
	r.GET("/v1beta/models", h.ListModels)
	r.GET("/v1beta/models/:model", h.GetModel)
	r.POST("/v1beta/models/:action", h.Actions)
	return r
}

func TestGenerateContentUnwrapsEnvelope(t *testing.T) {
	var captured []byte
	r := newTestRouter(t, fakeCodeAssist(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/v1internal:generateContent", req.URL.Path)
		captured, _ = io.ReadAll(req.Body)
		_, _ = w.Write([]byte(`{"response":{"candidates":[{"content":{"parts":[{"text":"native"}]},"finishReason":"STOP"}]}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro:generateContent",
		strings.NewReader(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := gjson.Parse(w.Body.String())
	assert.False(t, out.Get("response").Exists(), "envelope must be unwrapped")
	assert.Equal(t, "native", out.Get("candidates.0.content.parts.0.text").String())

	envelope := gjson.ParseBytes(captured)
	assert.Equal(t, "gemini-2.5-pro", envelope.Get("model").String())
	assert.True(t, envelope.Get("request.safetySettings").IsArray())
	assert.Equal(t, "hi", envelope.Get("request.contents.0.parts.0.text").String())
}

func TestGenerateContentVariantShaping(t *testing.T) {
	var captured []byte
	r := newTestRouter(t, fakeCodeAssist(func(w http.ResponseWriter, req *http.Request) {
		captured, _ = io.ReadAll(req.Body)
		_, _ = w.Write([]byte(`{"response":{"candidates":[]}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-flash-maxthinking:generateContent",
		strings.NewReader(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	envelope := gjson.ParseBytes(captured)
	assert.Equal(t, "gemini-2.5-flash", envelope.Get("model").String())
	cfg := envelope.Get("request.generationConfig.thinkingConfig")
	assert.Equal(t, int64(24576), cfg.Get("thinkingBudget").Int())
	assert.True(t, cfg.Get("includeThoughts").Bool())
}

func TestGenerateContentKeepsCallerBudget(t *testing.T) {
	var captured []byte
	r := newTestRouter(t, fakeCodeAssist(func(w http.ResponseWriter, req *http.Request) {
		captured, _ = io.ReadAll(req.Body)
		_, _ = w.Write([]byte(`{"response":{"candidates":[]}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro:generateContent",
		strings.NewReader(`{"contents":[],"generationConfig":{"thinkingConfig":{"thinkingBudget":512}}}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	budget := gjson.GetBytes(captured, "request.generationConfig.thinkingConfig.thinkingBudget")
	assert.Equal(t, int64(512), budget.Int())
}

func TestStreamGenerateContentRelaysFrames(t *testing.T) {
	r := newTestRouter(t, fakeCodeAssist(func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "/v1internal:streamGenerateContent", req.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(`data: {"response":{"candidates":[{"content":{"parts":[{"text":"a"}]}}]}}` + "\n\n"))
		_, _ = w.Write([]byte(`data: {"response":{"candidates":[{"content":{"parts":[{"text":"b"}]},"finishReason":"STOP"}]}}` + "\n\n"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-flash:streamGenerateContent",
		strings.NewReader(`{"contents":[{"role":"user","parts":[{"text":"hi"}]}]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	// CLI-mimicking headers ride on streaming responses only.
	assert.Equal(t, "attachment", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Origin, X-Origin, Referer", w.Header().Get("Vary"))
	assert.Equal(t, "ESF", w.Header().Get("Server"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "0", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	var frames []string
	for _, line := range strings.Split(w.Body.String(), "\n") {
		if strings.HasPrefix(line, "data: ") {
			frames = append(frames, strings.TrimPrefix(line, "data: "))
		}
	}
	require.Len(t, frames, 2, "native stream has no synthetic terminal frame")
	assert.Equal(t, "a", gjson.Get(frames[0], "candidates.0.content.parts.0.text").String())
	assert.Equal(t, "STOP", gjson.Get(frames[1], "candidates.0.finishReason").String())
}

func TestUnaryResponseOmitsMimicryHeaders(t *testing.T) {
	r := newTestRouter(t, fakeCodeAssist(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response":{"candidates":[]}}`))
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro:generateContent",
		strings.NewReader(`{"contents":[]}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Content-Disposition"))
	assert.Empty(t, w.Header().Get("Server"))
}

func TestUnknownActionNotFound(t *testing.T) {
	r := newTestRouter(t, fakeCodeAssist(func(http.ResponseWriter, *http.Request) {
		t.Error("upstream should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro:embedContent",
		strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	out := gjson.Parse(w.Body.String())
	// Native surface error object carries the numeric status.
	assert.Equal(t, int64(404), out.Get("error.code").Int())
}

func TestActionSegmentWithoutColon(t *testing.T) {
	r := newTestRouter(t, fakeCodeAssist(func(http.ResponseWriter, *http.Request) {
		t.Error("upstream should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListModelsNative(t *testing.T) {
	r := newTestRouter(t, fakeCodeAssist(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := gjson.Parse(w.Body.String())
	names := map[string]gjson.Result{}
	for _, m := range out.Get("models").Array() {
		names[m.Get("name").String()] = m
	}
	require.Contains(t, names, "models/gemini-2.5-pro")
	require.Contains(t, names, "models/gemini-2.5-pro-maxthinking")

	pro := names["models/gemini-2.5-pro"]
	assert.Equal(t, "Gemini 2.5 Pro", pro.Get("displayName").String())
	assert.Equal(t, int64(1048576), pro.Get("inputTokenLimit").Int())
	assert.Equal(t, "001", pro.Get("version").String())
}

func TestGetModelNative(t *testing.T) {
	r := newTestRouter(t, fakeCodeAssist(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/v1beta/models/gemini-2.5-flash-search", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	out := gjson.Parse(w.Body.String())
	assert.Equal(t, "models/gemini-2.5-flash-search", out.Get("name").String())
	assert.Contains(t, out.Get("displayName").String(), "with Google Search")

	req = httptest.NewRequest(http.MethodGet, "/v1beta/models/no-such-model", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
