package common

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"geminicli2api-go/internal/translator"
	"geminicli2api-go/internal/usage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func pumpThrough(t *testing.T, upstream string, tr translator.StreamTranslator, tracker *usage.Tracker) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/v1/chat/completions", nil)

	PumpSSE(c, io.NopCloser(strings.NewReader(upstream)), tr, StreamParams{
		Protocol: "openai",
		Model:    "gemini-2.5-pro",
		Tracker:  tracker,
	})
	return w
}

func TestPumpSSETranslatesFrames(t *testing.T) {
	upstream := strings.Join([]string{
		`data: {"response":{"candidates":[{"content":{"parts":[{"text":"Hel"}]}}]}}`,
		"",
		`data: {"response":{"candidates":[{"content":{"parts":[{"text":"lo"}]},"finishReason":"STOP"}],"usageMetadata":{"promptTokenCount":4,"candidatesTokenCount":2,"totalTokenCount":6}}}`,
		"",
	}, "\n")

	tracker := usage.NewTracker(nil)
	w := pumpThrough(t, upstream, translator.NewOpenAIChatStream("gemini-2.5-pro"), tracker)

	body := w.Body.String()
	assert.Contains(t, body, `"object":"chat.completion.chunk"`)
	assert.Contains(t, body, "data: [DONE]")

	// Chunks carry the deltas in order.
	var deltas []string
	for _, line := range strings.Split(body, "\n") {
		if !strings.HasPrefix(line, "data: ") || strings.Contains(line, "[DONE]") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		deltas = append(deltas, gjson.Get(payload, "choices.0.delta.content").String())
	}
	assert.Equal(t, []string{"Hel", "lo"}, deltas)

	// The final frame's usageMetadata lands in the tracker.
	stats := tracker.Snapshot()
	assert.EqualValues(t, 1, stats.TotalRequests)
	assert.EqualValues(t, 6, stats.TotalTokens)
	assert.EqualValues(t, 1, stats.Protocols["openai"].StreamCount)
}

func TestPumpSSEGeminiPassthrough(t *testing.T) {
	upstream := `data: {"response":{"candidates":[{"content":{"parts":[{"text":"hi"}]}}]}}` + "\n\n"

	w := pumpThrough(t, upstream, translator.NewGeminiStream(), nil)

	body := w.Body.String()
	// Frames are unwrapped from the {response: ...} envelope.
	assert.Contains(t, body, `data: {"candidates"`)
	assert.NotContains(t, body, `"response"`)
	assert.NotContains(t, body, "[DONE]")
}

func TestPumpSSEInBandError(t *testing.T) {
	upstream := strings.Join([]string{
		`data: {"response":{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}}`,
		"",
		`data: {"error":{"code":429,"message":"quota exhausted","status":"RESOURCE_EXHAUSTED"}}`,
		"",
		`data: {"response":{"candidates":[{"content":{"parts":[{"text":"never"}]}}]}}`,
		"",
	}, "\n")

	tracker := usage.NewTracker(nil)
	w := pumpThrough(t, upstream, translator.NewOpenAIChatStream("gemini-2.5-pro"), tracker)

	body := w.Body.String()
	assert.Contains(t, body, "quota exhausted")
	assert.NotContains(t, body, "never")
	assert.NotContains(t, body, "[DONE]")

	stats := tracker.Snapshot()
	assert.EqualValues(t, 1, stats.FailureCount)
}

func TestPumpSSECountsToolCalls(t *testing.T) {
	upstream := `data: {"response":{"candidates":[{"content":{"parts":[{"functionCall":{"name":"get_weather","args":{"city":"Oslo"}}}]},"finishReason":"STOP"}]}}` + "\n\n"

	w := pumpThrough(t, upstream, translator.NewOpenAIChatStream("gemini-2.5-pro"), nil)

	body := w.Body.String()
	assert.Contains(t, body, `"tool_calls"`)
	assert.Contains(t, body, "get_weather")
}
