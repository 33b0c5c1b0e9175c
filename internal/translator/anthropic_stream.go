package translator

import (
	"strings"

	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
)

// AnthropicStream converts upstream frames into Anthropic Messages streaming
// events. Parts are walked in arrival order; switching between text,
// thinking, and tool_use opens and closes content blocks as the protocol
// requires. Tool arguments arrive whole, so each tool_use block is a single
// start / input_json_delta / stop triple.
type AnthropicStream struct {
	model        string
	id           string
	started      bool
	blockOpen    bool
	blockKind    string
	blockIndex   int
	sawToolUse   bool
	stopReason   string
	outputTokens int64
}

func NewAnthropicStream(model string) *AnthropicStream {
	return &AnthropicStream{model: model, id: newID("msg_", 24)}
}

func (s *AnthropicStream) start() []Event {
	if s.started {
		return nil
	}
	s.started = true
	return []Event{namedEvent("message_start", map[string]any{
		"type": "message_start",
		"message": map[string]any{
			"id":            s.id,
			"type":          "message",
			"role":          "assistant",
			"content":       []any{},
			"model":         s.model,
			"stop_reason":   nil,
			"stop_sequence": nil,
			"usage":         map[string]any{"input_tokens": 0, "output_tokens": 0},
		},
	})}
}

// ensureBlock opens a text or thinking block of the requested kind, closing
// the previous block when the kind changes.
func (s *AnthropicStream) ensureBlock(kind string) []Event {
	if s.blockOpen && s.blockKind == kind {
		return nil
	}
	events := s.closeBlock()

	block := map[string]any{"type": kind}
	switch kind {
	case "text":
		block["text"] = ""
	case "thinking":
		block["thinking"] = ""
	}
	s.blockOpen = true
	s.blockKind = kind
	return append(events, namedEvent("content_block_start", map[string]any{
		"type":          "content_block_start",
		"index":         s.blockIndex,
		"content_block": block,
	}))
}

func (s *AnthropicStream) closeBlock() []Event {
	if !s.blockOpen {
		return nil
	}
	s.blockOpen = false
	index := s.blockIndex
	s.blockIndex++
	return []Event{namedEvent("content_block_stop", map[string]any{
		"type":  "content_block_stop",
		"index": index,
	})}
}

func (s *AnthropicStream) delta(kind string, delta map[string]any) Event {
	return namedEvent("content_block_delta", map[string]any{
		"type":  "content_block_delta",
		"index": s.blockIndex,
		"delta": delta,
	})
}

func (s *AnthropicStream) Push(frame []byte) ([]Event, bool) {
	resp, ok := decodeFrame(frame)
	if !ok {
		return nil, false
	}
	if errObj, failed := frameError(resp); failed {
		message := errObj.Get("message").String()
		if message == "" {
			message = "stream failed"
		}
		return []Event{namedEvent("error", map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": message},
		})}, true
	}

	events := s.start()

	for _, candidate := range resp.Get("candidates").Array() {
		for _, part := range candidateParts(candidate) {
			events = append(events, s.pushPart(part)...)
		}
		if reason := candidate.Get("finishReason").String(); reason != "" && s.stopReason == "" {
			s.stopReason = mapAnthropicStopReason(reason)
		}
	}
	if meta := resp.Get("usageMetadata"); meta.Exists() {
		s.outputTokens = meta.Get("candidatesTokenCount").Int()
	}
	return events, false
}

func (s *AnthropicStream) pushPart(part gjson.Result) []Event {
	if text := part.Get("text"); text.Exists() {
		if part.Get("thought").Bool() {
			events := s.ensureBlock("thinking")
			return append(events, s.delta("thinking", map[string]any{
				"type":     "thinking_delta",
				"thinking": text.String(),
			}))
		}
		events := s.ensureBlock("text")
		return append(events, s.delta("text", map[string]any{
			"type": "text_delta",
			"text": text.String(),
		}))
	}

	if fn := part.Get("functionCall"); fn.Exists() {
		s.sawToolUse = true
		args := "{}"
		if a := fn.Get("args"); a.Exists() {
			args = a.Raw
		}

		events := s.closeBlock()
		s.blockOpen = true
		s.blockKind = "tool_use"
		events = append(events, namedEvent("content_block_start", map[string]any{
			"type":  "content_block_start",
			"index": s.blockIndex,
			"content_block": map[string]any{
				"type":  "tool_use",
				"id":    newID("toolu_", 24),
				"name":  fn.Get("name").String(),
				"input": map[string]any{},
			},
		}))
		events = append(events, s.delta("tool_use", map[string]any{
			"type":         "input_json_delta",
			"partial_json": args,
		}))
		return append(events, s.closeBlock()...)
	}

	if inline := part.Get("inlineData"); inline.Exists() && inline.Get("data").String() != "" {
		mime := inline.Get("mimeType").String()
		if mime == "" {
			mime = "image/png"
		}
		if strings.HasPrefix(mime, "image/") {
			events := s.ensureBlock("text")
			return append(events, s.delta("text", map[string]any{
				"type": "text_delta",
				"text": "![image](data:" + mime + ";base64," + inline.Get("data").String() + ")",
			}))
		}
	}
	return nil
}

func (s *AnthropicStream) Finish() []Event {
	events := s.start()
	events = append(events, s.closeBlock()...)

	stop := s.stopReason
	if s.sawToolUse {
		stop = "tool_use"
	} else if stop == "" {
		stop = "end_turn"
	}

	events = append(events, namedEvent("message_delta", map[string]any{
		"type":  "message_delta",
		"delta": map[string]any{"stop_reason": stop, "stop_sequence": nil},
		"usage": map[string]any{"output_tokens": s.outputTokens},
	}))
	return append(events, namedEvent("message_stop", map[string]any{"type": "message_stop"}))
}

func (s *AnthropicStream) Fail(apiErr *apperrors.APIError) []Event {
	data, err := apiErr.ToJSON(apperrors.FormatAnthropic)
	if err != nil {
		data = []byte(`{"type":"error","error":{"type":"api_error","message":"stream failed"}}`)
	}
	return []Event{{Name: "error", Data: data}}
}
