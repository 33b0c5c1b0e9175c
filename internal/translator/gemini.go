package translator

import (
	"bytes"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/models"
)

// Envelope wraps a translated body for the Code Assist API. model must be
// the base name, variant suffixes already stripped.
func Envelope(model, project string, request []byte) []byte {
	out := []byte(`{}`)
	out = setJSON(out, "model", model)
	out = setJSON(out, "project", project)
	return setRawJSON(out, "request", request)
}

func setJSON(body []byte, path string, value any) []byte {
	out, err := sjson.SetBytes(body, path, value)
	if err != nil {
		return body
	}
	return out
}

func setRawJSON(body []byte, path string, raw []byte) []byte {
	out, err := sjson.SetRawBytes(body, path, raw)
	if err != nil {
		return body
	}
	return out
}

// ShapeGeminiRequest applies the gateway's shaping to a native Gemini body:
// safety settings are force-set permissive, thinkingConfig is filled from
// the model variant (a caller-supplied thinkingBudget wins), and -search
// variants get the googleSearch tool when it is not already present.
func ShapeGeminiRequest(model string, body []byte) ([]byte, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte(`{}`)
	}
	if !gjson.ValidBytes(body) {
		return nil, apperrors.InvalidRequest("request body is not valid JSON")
	}

	out := applySafetySettings(body)

	if !gjson.GetBytes(out, "generationConfig.thinkingConfig").Exists() {
		out = setRawJSON(out, "generationConfig.thinkingConfig", []byte(`{}`))
	}
	if directive, ok := models.ResolveThinking(model, ""); ok {
		out = setJSON(out, "generationConfig.thinkingConfig.includeThoughts", directive.IncludeThoughts)
		if !gjson.GetBytes(out, "generationConfig.thinkingConfig.thinkingBudget").Exists() {
			out = setJSON(out, "generationConfig.thinkingConfig.thinkingBudget", directive.Budget)
		}
	}

	if models.IsSearchModel(model) && !hasGoogleSearch(out) {
		out = setRawJSON(out, "tools.-1", []byte(`{"googleSearch":{}}`))
	}
	return out, nil
}

func hasGoogleSearch(body []byte) bool {
	for _, tool := range gjson.GetBytes(body, "tools").Array() {
		if tool.Get("googleSearch").Exists() {
			return true
		}
	}
	return false
}

// GeminiUnary unwraps a unary upstream body for the native surface. A
// stray leading "data: " (the endpoint occasionally answers unary calls in
// SSE dress) is stripped before unwrapping; bare bodies pass through.
func GeminiUnary(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	trimmed = bytes.TrimPrefix(trimmed, []byte("data: "))
	if !gjson.ValidBytes(trimmed) {
		return raw
	}
	return unwrapFrame(trimmed)
}

// GeminiStream relays upstream frames to the native surface: each frame is
// unwrapped from its {response: X} envelope and re-emitted, error frames
// included. Unparseable frames are dropped, matching the upstream contract.
type GeminiStream struct{}

func NewGeminiStream() *GeminiStream {
	return &GeminiStream{}
}

func (s *GeminiStream) Push(frame []byte) ([]Event, bool) {
	if !gjson.ValidBytes(frame) {
		return nil, false
	}
	return []Event{{Data: unwrapFrame(frame)}}, false
}

func (s *GeminiStream) Finish() []Event {
	return nil
}

func (s *GeminiStream) Fail(apiErr *apperrors.APIError) []Event {
	data, err := apiErr.ToJSON(apperrors.FormatGemini)
	if err != nil {
		data = []byte(`{"error":{"message":"stream failed","type":"api_error","code":502}}`)
	}
	return []Event{{Data: data}}
}
