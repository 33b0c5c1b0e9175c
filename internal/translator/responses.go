package translator

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/models"
)

// ResponsesToGemini translates an OpenAI Responses API request into the
// upstream request body. `input` may be a plain string (sole user turn) or
// an item list mixing messages, echoed function_call items, and
// function_call_output results.
func ResponsesToGemini(body []byte) ([]byte, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperrors.InvalidRequest("request body is not valid JSON")
	}
	req := gjson.ParseBytes(body)

	model := req.Get("model").String()
	if model == "" {
		return nil, apperrors.InvalidRequest("model is required")
	}
	input := req.Get("input")
	if !input.Exists() || input.Type == gjson.Null {
		return nil, apperrors.InvalidRequest("input is required")
	}

	contents := []map[string]any{}
	callNames := map[string]string{}

	switch {
	case input.Type == gjson.String:
		contents = append(contents, map[string]any{
			"role":  "user",
			"parts": textToParts(input.String()),
		})
	case input.IsArray():
		for _, item := range input.Array() {
			if turn, ok := responsesInputTurn(item, callNames); ok {
				contents = append(contents, turn)
			}
		}
	default:
		return nil, apperrors.InvalidRequest("input must be a string or an array of items")
	}

	generationConfig := map[string]any{}
	if v := req.Get("temperature"); present(v) {
		generationConfig["temperature"] = v.Float()
	}
	if v := req.Get("top_p"); present(v) {
		generationConfig["topP"] = v.Float()
	}
	if v := req.Get("max_output_tokens"); present(v) {
		generationConfig["maxOutputTokens"] = v.Int()
	}
	if thinking, ok := thinkingConfigValue(model, req.Get("reasoning.effort").String()); ok {
		generationConfig["thinkingConfig"] = thinking
	}

	payload := map[string]any{
		"contents":         contents,
		"generationConfig": generationConfig,
		"safetySettings":   safetySettingsValue(),
	}
	if instructions := req.Get("instructions").String(); instructions != "" {
		payload["systemInstruction"] = map[string]any{
			"parts": []map[string]any{textPart(instructions)},
		}
	}

	var tools []map[string]any
	var decls []map[string]any
	searchRequested := models.IsSearchModel(model)
	for _, tool := range req.Get("tools").Array() {
		toolType := tool.Get("type").String()
		switch {
		case toolType == "function":
			name := tool.Get("name").String()
			if name == "" {
				continue
			}
			decl := map[string]any{"name": name}
			if desc := tool.Get("description").String(); desc != "" {
				decl["description"] = desc
			}
			if params := tool.Get("parameters"); params.IsObject() {
				decl["parameters"] = cleanFunctionParameters(params)
			}
			decls = append(decls, decl)
		case strings.HasPrefix(toolType, "web_search"):
			searchRequested = true
		}
	}
	if len(decls) > 0 {
		tools = append(tools, map[string]any{"functionDeclarations": decls})
	}
	if searchRequested {
		tools = append(tools, map[string]any{"googleSearch": map[string]any{}})
	}
	if len(tools) > 0 {
		payload["tools"] = tools
	}
	if toolConfig, ok := responsesToolConfig(req.Get("tool_choice")); ok {
		payload["toolConfig"] = toolConfig
	}

	return json.Marshal(payload)
}

// responsesInputTurn maps one input item. Items carrying a role are
// messages; function_call items are echoed model turns; function_call_output
// items become functionResponse turns. Anything else is dropped.
func responsesInputTurn(item gjson.Result, callNames map[string]string) (map[string]any, bool) {
	switch item.Get("type").String() {
	case "function_call":
		name := item.Get("name").String()
		if id := item.Get("call_id").String(); id != "" {
			callNames[id] = name
		}
		return map[string]any{
			"role": "model",
			"parts": []map[string]any{{
				"functionCall": map[string]any{
					"name": name,
					"args": parseCallArguments(item.Get("arguments").String()),
				},
			}},
		}, true
	case "function_call_output":
		callID := item.Get("call_id").String()
		name := callNames[callID]
		if name == "" {
			name = callID
		}
		return map[string]any{
			"role": "user",
			"parts": []map[string]any{{
				"functionResponse": map[string]any{
					"name":     name,
					"response": decodeToolResult(item.Get("output").String()),
				},
			}},
		}, true
	case "message", "":
		role := item.Get("role").String()
		if role == "" {
			return nil, false
		}
		if role == "assistant" {
			role = "model"
		} else if role != "model" {
			role = "user"
		}
		return map[string]any{"role": role, "parts": contentToParts(item.Get("content"))}, true
	}
	return nil, false
}

// responsesToolConfig handles the Responses API's flat tool_choice object
// ({"type": "function", "name": ...}); string forms match chat completions.
func responsesToolConfig(choice gjson.Result) (map[string]any, bool) {
	if choice.IsObject() && choice.Get("type").String() == "function" {
		name := choice.Get("name").String()
		if name == "" {
			return nil, false
		}
		return map[string]any{
			"functionCallingConfig": map[string]any{
				"mode":                 "ANY",
				"allowedFunctionNames": []string{name},
			},
		}, true
	}
	return toolConfigFromChoice(choice)
}

// GeminiToResponses maps a unary upstream response to a Responses API
// response object.
func GeminiToResponses(model string, raw []byte) ([]byte, error) {
	if !gjson.ValidBytes(raw) {
		return nil, apperrors.Transport("upstream returned a non-JSON response")
	}
	resp := gjson.ParseBytes(unwrapFrame(raw))

	var textOut, reasoningOut string
	var calls []functionCall
	for _, candidate := range resp.Get("candidates").Array() {
		parts := candidateParts(candidate)
		content, reasoning := extractContentAndReasoning(parts)
		if content != "" {
			textOut += content
		}
		reasoningOut += reasoning
		calls = append(calls, extractFunctionCalls(parts)...)
	}

	output := []map[string]any{}
	if reasoningOut != "" {
		output = append(output, reasoningItem(reasoningOut))
	}
	for _, call := range calls {
		output = append(output, functionCallItem(call))
	}
	if textOut != "" {
		output = append(output, messageItem(textOut))
	}

	out := map[string]any{
		"id":         newID("resp_", 0),
		"object":     "response",
		"created_at": time.Now().Unix(),
		"model":      model,
		"output":     output,
		"status":     "completed",
	}
	if textOut != "" {
		out["output_text"] = textOut
	} else {
		out["output_text"] = nil
	}
	if usage, ok := responsesUsage(resp.Get("usageMetadata")); ok {
		out["usage"] = usage
	}
	return json.Marshal(out)
}

func reasoningItem(reasoning string) map[string]any {
	return map[string]any{
		"id":      newID("rs_", 32),
		"type":    "reasoning",
		"summary": []map[string]any{{"type": "summary_text", "text": reasoning}},
	}
}

func functionCallItem(call functionCall) map[string]any {
	return map[string]any{
		"id":        newID("fc_", 32),
		"type":      "function_call",
		"call_id":   newID("call_", 32),
		"name":      call.Name,
		"arguments": call.Args,
		"status":    "completed",
	}
}

func messageItem(text string) map[string]any {
	return map[string]any{
		"id":     newID("msg_", 32),
		"type":   "message",
		"role":   "assistant",
		"status": "completed",
		"content": []map[string]any{{
			"type":        "output_text",
			"text":        text,
			"annotations": []any{},
		}},
	}
}

func responsesUsage(meta gjson.Result) (map[string]any, bool) {
	if !meta.Exists() {
		return nil, false
	}
	return map[string]any{
		"input_tokens":  meta.Get("promptTokenCount").Int(),
		"output_tokens": meta.Get("candidatesTokenCount").Int(),
		"total_tokens":  meta.Get("totalTokenCount").Int(),
	}, true
}
