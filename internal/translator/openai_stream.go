package translator

import (
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/sjson"

	apperrors "geminicli2api-go/internal/errors"
)

// OpenAIChatStream converts upstream frames into chat.completion.chunk
// events, terminated by the [DONE] sentinel. One upstream frame maps to at
// most one chunk; frames without candidates are skipped.
type OpenAIChatStream struct {
	model     string
	id        string
	callIndex int
}

func NewOpenAIChatStream(model string) *OpenAIChatStream {
	return &OpenAIChatStream{model: model, id: uuid.NewString()}
}

func (s *OpenAIChatStream) Push(frame []byte) ([]Event, bool) {
	resp, ok := decodeFrame(frame)
	if !ok {
		return nil, false
	}
	if errObj, failed := frameError(resp); failed {
		payload, err := sjson.SetRawBytes([]byte(`{}`), "error", []byte(errObj.Raw))
		if err != nil {
			payload = []byte(`{"error":{"message":"stream failed"}}`)
		}
		return []Event{{Data: payload}}, true
	}

	var choices []map[string]any
	for _, candidate := range resp.Get("candidates").Array() {
		parts := candidateParts(candidate)
		content, reasoning := extractContentAndReasoning(parts)
		calls := extractFunctionCalls(parts)

		delta := map[string]any{}
		if content != "" {
			delta["content"] = content
		}
		if reasoning != "" {
			delta["reasoning_content"] = reasoning
		}
		if len(calls) > 0 {
			delta["tool_calls"] = openAIToolCalls(calls, &s.callIndex)
		}

		choices = append(choices, map[string]any{
			"index":         candidate.Get("index").Int(),
			"delta":         delta,
			"finish_reason": finishReasonValue(candidate, len(calls) > 0),
		})
	}
	if choices == nil {
		return nil, false
	}

	return []Event{dataEvent(map[string]any{
		"id":      s.id,
		"object":  "chat.completion.chunk",
		"created": time.Now().Unix(),
		"model":   s.model,
		"choices": choices,
	})}, false
}

func (s *OpenAIChatStream) Finish() []Event {
	return []Event{{Data: []byte("[DONE]")}}
}

// Fail emits the error object as a final data frame. No [DONE] follows; an
// aborted stream must not look complete.
func (s *OpenAIChatStream) Fail(apiErr *apperrors.APIError) []Event {
	data, err := apiErr.ToJSON(apperrors.FormatOpenAI)
	if err != nil {
		data = []byte(`{"error":{"message":"stream failed"}}`)
	}
	return []Event{{Data: data}}
}
