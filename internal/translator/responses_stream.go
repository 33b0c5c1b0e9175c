package translator

import (
	"encoding/json"
	"strings"

	apperrors "geminicli2api-go/internal/errors"
)

// ResponsesStream converts upstream frames into Responses API named events.
// Text is streamed as response.output_text.delta; function calls surface as
// response.function_call_arguments.done items (upstream delivers arguments
// whole, never partial). The closing response.completed event replays the
// accumulated output items.
type ResponsesStream struct {
	model       string
	id          string
	started     bool
	outputIndex int
	text        strings.Builder
	reasoning   strings.Builder
	callItems   []map[string]any
}

func NewResponsesStream(model string) *ResponsesStream {
	return &ResponsesStream{model: model, id: newID("resp_", 0)}
}

// start emits response.created exactly once, before any other event.
func (s *ResponsesStream) start() []Event {
	if s.started {
		return nil
	}
	s.started = true
	return []Event{namedEvent("response.created", map[string]any{
		"type":        "response.created",
		"response_id": s.id,
		"model":       s.model,
	})}
}

func (s *ResponsesStream) Push(frame []byte) ([]Event, bool) {
	resp, ok := decodeFrame(frame)
	if !ok {
		return nil, false
	}

	events := s.start()

	if errObj, failed := frameError(resp); failed {
		events = append(events, namedEvent("error", map[string]any{
			"type":  "error",
			"error": json.RawMessage(errObj.Raw),
		}))
		return append(events, s.doneEvent()), true
	}

	for _, candidate := range resp.Get("candidates").Array() {
		parts := candidateParts(candidate)
		content, reasoning := extractContentAndReasoning(parts)
		s.reasoning.WriteString(reasoning)

		if content != "" {
			s.text.WriteString(content)
			events = append(events, namedEvent("response.output_text.delta", map[string]any{
				"type":         "response.output_text.delta",
				"response_id":  s.id,
				"output_index": s.outputIndex,
				"delta":        content,
			}))
		}
		for _, call := range extractFunctionCalls(parts) {
			item := functionCallItem(call)
			events = append(events, namedEvent("response.function_call_arguments.done", map[string]any{
				"type":         "response.function_call_arguments.done",
				"response_id":  s.id,
				"output_index": s.outputIndex,
				"item":         item,
			}))
			s.outputIndex++
			s.callItems = append(s.callItems, item)
		}
	}
	return events, false
}

func (s *ResponsesStream) Finish() []Event {
	events := s.start()

	output := []map[string]any{}
	if s.reasoning.Len() > 0 {
		output = append(output, reasoningItem(s.reasoning.String()))
	}
	output = append(output, s.callItems...)
	if s.text.Len() > 0 {
		output = append(output, messageItem(s.text.String()))
	}

	completed := map[string]any{
		"type":        "response.completed",
		"response_id": s.id,
		"model":       s.model,
		"output":      output,
	}
	if s.text.Len() > 0 {
		completed["output_text"] = s.text.String()
	} else {
		completed["output_text"] = nil
	}

	events = append(events, namedEvent("response.completed", completed))
	return append(events, s.doneEvent())
}

func (s *ResponsesStream) Fail(apiErr *apperrors.APIError) []Event {
	events := []Event{namedEvent("error", map[string]any{
		"type": "error",
		"error": map[string]any{
			"message": apiErr.Message,
			"code":    apiErr.HTTPStatus,
		},
	})}
	return append(events, s.doneEvent())
}

func (s *ResponsesStream) doneEvent() Event {
	return namedEvent("done", map[string]any{})
}
