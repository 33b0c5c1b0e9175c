package translator

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/models"
)

// AnthropicToGemini translates an Anthropic Messages request into the
// upstream request body. max_tokens is mandatory in the Messages schema and
// is enforced here.
func AnthropicToGemini(body []byte) ([]byte, error) {
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
	maxTokens := req.Get("max_tokens")
	if !present(maxTokens) {
		return nil, apperrors.InvalidRequest("max_tokens is required")
	}

	contents := []map[string]any{}
	toolUseNames := map[string]string{}

	for _, message := range messages.Array() {
		role := message.Get("role").String()
		if role == "assistant" {
			role = "model"
		} else {
			role = "user"
		}
		contents = append(contents, map[string]any{
			"role":  role,
			"parts": anthropicParts(message.Get("content"), toolUseNames),
		})
	}

	generationConfig := map[string]any{"maxOutputTokens": maxTokens.Int()}
	if v := req.Get("temperature"); present(v) {
		generationConfig["temperature"] = v.Float()
	}
	if v := req.Get("top_p"); present(v) {
		generationConfig["topP"] = v.Float()
	}
	if v := req.Get("top_k"); present(v) {
		generationConfig["topK"] = v.Int()
	}
	if stops := req.Get("stop_sequences"); stops.IsArray() {
		var seqs []string
		for _, s := range stops.Array() {
			seqs = append(seqs, s.String())
		}
		if len(seqs) > 0 {
			generationConfig["stopSequences"] = seqs
		}
	}
	if thinking, ok := anthropicThinkingConfig(model, req.Get("thinking")); ok {
		generationConfig["thinkingConfig"] = thinking
	}

	payload := map[string]any{
		"contents":         contents,
		"generationConfig": generationConfig,
		"safetySettings":   safetySettingsValue(),
	}
	if instruction := anthropicSystemText(req.Get("system")); instruction != "" {
		payload["systemInstruction"] = map[string]any{
			"parts": []map[string]any{textPart(instruction)},
		}
	}

	var tools []map[string]any
	var decls []map[string]any
	for _, tool := range req.Get("tools").Array() {
		name := tool.Get("name").String()
		if name == "" {
			continue
		}
		decl := map[string]any{"name": name}
		if desc := tool.Get("description").String(); desc != "" {
			decl["description"] = desc
		}
		if schema := tool.Get("input_schema"); schema.IsObject() {
			decl["parameters"] = cleanFunctionParameters(schema)
		}
		decls = append(decls, decl)
	}
	if len(decls) > 0 {
		tools = append(tools, map[string]any{"functionDeclarations": decls})
	}
	if models.IsSearchModel(model) {
		tools = append(tools, map[string]any{"googleSearch": map[string]any{}})
	}
	if len(tools) > 0 {
		payload["tools"] = tools
	}
	if toolConfig, ok := toolConfigFromAnthropicChoice(req.Get("tool_choice")); ok {
		payload["toolConfig"] = toolConfig
	}

	return json.Marshal(payload)
}

// anthropicParts maps a message's content (plain string or block list) to
// Gemini parts. tool_use block IDs are recorded so later tool_result blocks
// can recover the function name.
func anthropicParts(content gjson.Result, toolUseNames map[string]string) []map[string]any {
	if content.Type == gjson.String {
		return []map[string]any{textPart(content.String())}
	}
	if !content.IsArray() {
		return []map[string]any{textPart("")}
	}

	var parts []map[string]any
	for _, block := range content.Array() {
		switch block.Get("type").String() {
		case "text":
			parts = append(parts, textPart(block.Get("text").String()))
		case "image":
			source := block.Get("source")
			switch source.Get("type").String() {
			case "base64":
				parts = append(parts, inlineDataPart(source.Get("media_type").String(), source.Get("data").String()))
			case "url":
				fileData := map[string]any{"fileUri": source.Get("url").String()}
				if mime := source.Get("media_type").String(); mime != "" {
					fileData["mimeType"] = mime
				}
				parts = append(parts, map[string]any{"fileData": fileData})
			}
		case "tool_use":
			name := block.Get("name").String()
			if id := block.Get("id").String(); id != "" {
				toolUseNames[id] = name
			}
			args := map[string]any{}
			if input := block.Get("input"); input.IsObject() {
				if decoded, ok := input.Value().(map[string]any); ok {
					args = decoded
				}
			}
			parts = append(parts, map[string]any{
				"functionCall": map[string]any{"name": name, "args": args},
			})
		case "tool_result":
			id := block.Get("tool_use_id").String()
			name := toolUseNames[id]
			if name == "" {
				name = id
			}
			parts = append(parts, map[string]any{
				"functionResponse": map[string]any{
					"name":     name,
					"response": decodeToolResult(anthropicResultText(block.Get("content"))),
				},
			})
		case "thinking":
			part := textPart(block.Get("thinking").String())
			part["thought"] = true
			parts = append(parts, part)
		case "redacted_thinking":
			part := textPart(block.Get("data").String())
			part["thought"] = true
			parts = append(parts, part)
		}
	}
	if len(parts) == 0 {
		return []map[string]any{textPart("")}
	}
	return parts
}

// anthropicSystemText flattens the system field, which is either a plain
// string or a list of text blocks.
func anthropicSystemText(system gjson.Result) string {
	if system.Type == gjson.String {
		return system.String()
	}
	if !system.IsArray() {
		return ""
	}
	var out string
	for _, block := range system.Array() {
		if block.Get("type").String() == "text" {
			if out != "" {
				out += "\n\n"
			}
			out += block.Get("text").String()
		}
	}
	return out
}

// anthropicResultText flattens tool_result content, which may be a string or
// a block list.
func anthropicResultText(content gjson.Result) string {
	if content.Type == gjson.String {
		return content.String()
	}
	if !content.IsArray() {
		return ""
	}
	var out string
	for _, block := range content.Array() {
		if block.Get("type").String() == "text" {
			out += block.Get("text").String()
		}
	}
	return out
}

// anthropicThinkingConfig resolves thinkingConfig with variant suffixes
// taking precedence over the request's explicit thinking field, which in
// turn beats the model default.
func anthropicThinkingConfig(model string, thinking gjson.Result) (map[string]any, bool) {
	if models.IsNoThinkingModel(model) || models.IsMaxThinkingModel(model) {
		return thinkingConfigValue(model, "")
	}
	if thinking.IsObject() {
		switch thinking.Get("type").String() {
		case "enabled":
			budget := int64(-1)
			if v := thinking.Get("budget_tokens"); present(v) {
				budget = v.Int()
			}
			return map[string]any{"thinkingBudget": budget, "includeThoughts": true}, true
		case "disabled":
			return map[string]any{"thinkingBudget": 0, "includeThoughts": false}, true
		}
	}
	return thinkingConfigValue(model, "")
}

// GeminiToAnthropic maps a unary upstream response to an Anthropic message.
// Content blocks keep the upstream part order; thought parts become thinking
// blocks and functionCall parts become tool_use blocks.
func GeminiToAnthropic(model string, raw []byte) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.Transport("upstream returned a non-JSON response")
	}
	resp := gjson.ParseBytes(unwrapFrame(raw))

	content := []map[string]any{}
	hasToolUse := false
	stopReason := ""
	for _, candidate := range resp.Get("candidates").Array() {
		for _, part := range candidateParts(candidate) {
			if block, ok := anthropicBlock(part); ok {
				if block["type"] == "tool_use" {
					hasToolUse = true
				}
				content = append(content, block)
			}
		}
		if reason := candidate.Get("finishReason").String(); reason != "" && stopReason == "" {
			stopReason = mapAnthropicStopReason(reason)
		}
	}

	out := map[string]any{
		"id":            newID("msg_", 24),
		"type":          "message",
		"role":          "assistant",
		"content":       content,
		"model":         model,
		"stop_sequence": nil,
		"usage":         anthropicUsage(resp.Get("usageMetadata")),
	}
	if hasToolUse {
		out["stop_reason"] = "tool_use"
	} else if stopReason != "" {
		out["stop_reason"] = stopReason
	} else {
		out["stop_reason"] = nil
	}
	return json.Marshal(out)
}

// anthropicBlock maps one upstream part to an Anthropic content block.
// Image outputs come back as Markdown data URIs in a text block.
func anthropicBlock(part gjson.Result) (map[string]any, bool) {
	if text := part.Get("text"); text.Exists() {
		if part.Get("thought").Bool() {
			return map[string]any{"type": "thinking", "thinking": text.String()}, true
		}
		return map[string]any{"type": "text", "text": text.String()}, true
	}
	if fn := part.Get("functionCall"); fn.Exists() {
		args := json.RawMessage("{}")
		if a := fn.Get("args"); a.Exists() {
			args = json.RawMessage(a.Raw)
		}
		return map[string]any{
			"type":  "tool_use",
			"id":    newID("toolu_", 24),
			"name":  fn.Get("name").String(),
			"input": args,
		}, true
	}
	if inline := part.Get("inlineData"); inline.Exists() && inline.Get("data").String() != "" {
		mime := inline.Get("mimeType").String()
		if mime == "" {
			mime = "image/png"
		}
		if strings.HasPrefix(mime, "image/") {
			return map[string]any{
				"type": "text",
				"text": "![image](data:" + mime + ";base64," + inline.Get("data").String() + ")",
			}, true
		}
	}
	return nil, false
}

func anthropicUsage(meta gjson.Result) map[string]any {
	return map[string]any{
		"input_tokens":  meta.Get("promptTokenCount").Int(),
		"output_tokens": meta.Get("candidatesTokenCount").Int(),
	}
}
