package translator

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/models"
)

// OpenAIChatToGemini translates an OpenAI chat completions request into the
// upstream request body. The exposed model name (variant suffixes included)
// is read from the request itself; the caller strips suffixes for the
// envelope.
func OpenAIChatToGemini(body []byte) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperrors.InvalidRequest("request body is not valid JSON")
	}
	req := gjson.ParseBytes(body)

	model := req.Get("model").String()
	if model == "" {
		return nil, apperrors.InvalidRequest("model is required")
	}
	messages := req.Get("messages")
	if !messages.IsArray() || len(messages.Array()) == 0 {
		return nil, apperrors.InvalidRequest("messages must be a non-empty array")
	}

	contents := []map[string]any{}
	var systemTexts []string
	callNames := map[string]string{}

	for _, message := range messages.Array() {
		role := message.Get("role").String()
		content := message.Get("content")

		switch role {
		case "system":
			systemTexts = append(systemTexts, contentText(content))
		case "assistant":
			contents = append(contents, assistantTurn(message, callNames))
		case "tool":
			name := message.Get("name").String()
			if name == "" {
				name = callNames[message.Get("tool_call_id").String()]
			}
			contents = append(contents, map[string]any{
				"role": "user",
				"parts": []map[string]any{{
					"functionResponse": map[string]any{
						"name":     name,
						"response": decodeToolResult(contentText(content)),
					},
				}},
			})
		default:
			contents = append(contents, map[string]any{"role": role, "parts": contentToParts(content)})
		}
	}

	generationConfig := samplingConfig(req)
	if thinking, ok := thinkingConfigValue(model, req.Get("reasoning_effort").String()); ok {
		generationConfig["thinkingConfig"] = thinking
	}

	payload := map[string]any{
		"contents":         contents,
		"generationConfig": generationConfig,
		"safetySettings":   safetySettingsValue(),
	}
	if len(systemTexts) > 0 {
		payload["systemInstruction"] = map[string]any{
			"parts": []map[string]any{textPart(strings.Join(systemTexts, "\n\n"))},
		}
	}

	var tools []map[string]any
	if decls := functionDeclarationsFromTools(req.Get("tools").Array()); len(decls) > 0 {
		tools = append(tools, map[string]any{"functionDeclarations": decls})
	}
	if models.IsSearchModel(model) {
		tools = append(tools, map[string]any{"googleSearch": map[string]any{}})
	}
	if len(tools) > 0 {
		payload["tools"] = tools
	}
	if toolConfig, ok := toolConfigFromChoice(req.Get("tool_choice")); ok {
		payload["toolConfig"] = toolConfig
	}

	return json.Marshal(payload)
}

// assistantTurn maps an assistant message, including tool_calls, to a model
// turn. Seen call IDs are recorded so later tool results can recover the
// function name.
func assistantTurn(message gjson.Result, callNames map[string]string) map[string]any {
	var parts []map[string]any

	content := message.Get("content")
	if content.Type == gjson.String && content.String() != "" {
		parts = append(parts, textToParts(content.String())...)
	} else if content.IsArray() {
		parts = append(parts, contentToParts(content)...)
	}

	for _, call := range message.Get("tool_calls").Array() {
		name := call.Get("function.name").String()
		if id := call.Get("id").String(); id != "" {
			callNames[id] = name
		}
		parts = append(parts, map[string]any{
			"functionCall": map[string]any{
				"name": name,
				"args": parseCallArguments(call.Get("function.arguments").String()),
			},
		})
	}

	if len(parts) == 0 {
		parts = []map[string]any{textPart("")}
	}
	return map[string]any{"role": "model", "parts": parts}
}

// contentToParts maps OpenAI message content (string or multi-part array)
// into Gemini parts. Non-data image URLs in multi-part content are dropped;
// empty content still yields one empty text part.
func contentToParts(content gjson.Result) []map[string]any {
	if content.Type == gjson.String {
		return textToParts(content.String())
	}
	if !content.IsArray() {
		return []map[string]any{textPart("")}
	}

	var parts []map[string]any
	for _, item := range content.Array() {
		switch item.Get("type").String() {
		case "text":
			parts = append(parts, textToParts(item.Get("text").String())...)
		case "image_url":
			if mime, data, ok := parseImageDataURI(item.Get("image_url.url").String()); ok {
				parts = append(parts, inlineDataPart(mime, data))
			}
		}
	}
	if len(parts) == 0 {
		return []map[string]any{textPart("")}
	}
	return parts
}

// contentText flattens message content to plain text: strings pass through,
// multi-part arrays contribute their text items.
func contentText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.String()
	}
	if !content.IsArray() {
		return ""
	}
	var texts []string
	for _, item := range content.Array() {
		if item.Get("type").String() == "text" {
			texts = append(texts, item.Get("text").String())
		}
	}
	return strings.Join(texts, "\n\n")
}

func parseCallArguments(arguments string) any {
	if arguments == "" {
		return map[string]any{}
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(arguments), &decoded); err == nil && decoded != nil {
		return decoded
	}
	return map[string]any{}
}

// samplingConfig maps the one-for-one OpenAI sampling params into a Gemini
// generationConfig. Explicit nulls are treated as absent.
func samplingConfig(req gjson.Result) map[string]any {
	cfg := map[string]any{}

	if v := req.Get("temperature"); present(v) {
		cfg["temperature"] = v.Float()
	}
	if v := req.Get("top_p"); present(v) {
		cfg["topP"] = v.Float()
	}
	if v := req.Get("max_tokens"); present(v) {
		cfg["maxOutputTokens"] = v.Int()
	}
	if v := req.Get("stop"); present(v) {
		switch {
		case v.Type == gjson.String:
			cfg["stopSequences"] = []string{v.String()}
		case v.IsArray():
			var stops []string
			for _, s := range v.Array() {
				stops = append(stops, s.String())
			}
			cfg["stopSequences"] = stops
		}
	}
	if v := req.Get("frequency_penalty"); present(v) {
		cfg["frequencyPenalty"] = v.Float()
	}
	if v := req.Get("presence_penalty"); present(v) {
		cfg["presencePenalty"] = v.Float()
	}
	if v := req.Get("n"); present(v) {
		cfg["candidateCount"] = v.Int()
	}
	if v := req.Get("seed"); present(v) {
		cfg["seed"] = v.Int()
	}
	if req.Get("response_format.type").String() == "json_object" {
		cfg["responseMimeType"] = "application/json"
	}
	return cfg
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

// GeminiToOpenAIChat maps a unary upstream response to a chat completion
// object. Both the {response: X} wrapping and the bare form are accepted.
func GeminiToOpenAIChat(model string, raw []byte) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.Transport("upstream returned a non-JSON response")
	}
	resp := gjson.ParseBytes(unwrapFrame(raw))

	choices := []map[string]any{}
	for _, candidate := range resp.Get("candidates").Array() {
		parts := candidateParts(candidate)
		content, reasoning := extractContentAndReasoning(parts)
		calls := extractFunctionCalls(parts)

		message := map[string]any{"role": "assistant"}
		if len(calls) > 0 {
			message["tool_calls"] = openAIToolCalls(calls, nil)
			if content == "" {
				message["content"] = nil
			} else {
				message["content"] = content
			}
		} else {
			message["content"] = content
		}
		if reasoning != "" {
			message["reasoning_content"] = reasoning
		}

		choices = append(choices, map[string]any{
			"index":         candidate.Get("index").Int(),
			"message":       message,
			"finish_reason": finishReasonValue(candidate, len(calls) > 0),
		})
	}

	return json.Marshal(map[string]any{
		"id":      uuid.NewString(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": choices,
	})
}

// finishReasonValue maps the candidate's finishReason, forcing tool_calls
// whenever the candidate carried a functionCall part. Unknown or absent
// reasons come back as JSON null.
func finishReasonValue(candidate gjson.Result, hasCalls bool) any {
	if hasCalls {
		return "tool_calls"
	}
	if reason := mapFinishReason(candidate.Get("finishReason").String()); reason != "" {
		return reason
	}
	return nil
}

// openAIToolCalls renders extracted function calls in the OpenAI tool_calls
// shape. nextIndex, when non-nil, numbers entries for streaming deltas.
func openAIToolCalls(calls []functionCall, nextIndex *int) []map[string]any {
	out := make([]map[string]any, 0, len(calls))
	for _, call := range calls {
		entry := map[string]any{
			"id":   newID("call_", 0),
			"type": "function",
			"function": map[string]any{
				"name":      call.Name,
				"arguments": call.Args,
			},
		}
		if nextIndex != nil {
			entry["index"] = *nextIndex
			*nextIndex++
		}
		out = append(out, entry)
	}
	return out
}
