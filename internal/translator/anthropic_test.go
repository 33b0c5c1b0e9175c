package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestMessagesRequestValidation(t *testing.T) {
	_, err := AnthropicToGemini([]byte(`{"model":"gemini-2.5-pro","messages":[{"role":"user","content":"hi"}]}`))
	apiErr := apiErrorFrom(t, err)
	assert.Equal(t, 400, apiErr.HTTPStatus)
	assert.Contains(t, apiErr.Message, "max_tokens is required")

	_, err = AnthropicToGemini([]byte(`{"max_tokens":10,"messages":[{"role":"user","content":"hi"}]}`))
	apiErr = apiErrorFrom(t, err)
	assert.Contains(t, apiErr.Message, "model is required")
}

func TestMessagesRequestMapsConversation(t *testing.T) {
	out := mustTranslate(t, AnthropicToGemini, `{
		"model": "gemini-2.5-pro",
		"max_tokens": 512,
		"system": "Be terse.",
		"temperature": 0.5,
		"top_p": 0.8,
		"top_k": 40,
		"stop_sequences": ["Human:"],
		"messages": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": "hello"},
			{"role": "user", "content": [
				{"type": "text", "text": "what is in this picture?"},
				{"type": "image", "source": {"type": "base64", "media_type": "image/jpeg", "data": "QUJD"}}
			]}
		]
	}`)

	cfg := out.Get("generationConfig")
	assert.EqualValues(t, 512, cfg.Get("maxOutputTokens").Int())
	assert.InDelta(t, 0.5, cfg.Get("temperature").Float(), 1e-9)
	assert.InDelta(t, 0.8, cfg.Get("topP").Float(), 1e-9)
	assert.EqualValues(t, 40, cfg.Get("topK").Int())
	assert.Equal(t, "Human:", cfg.Get("stopSequences.0").String())

	assert.Equal(t, "Be terse.", out.Get("systemInstruction.parts.0.text").String())

	contents := out.Get("contents").Array()
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Get("role").String())
	assert.Equal(t, "model", contents[1].Get("role").String())

	parts := contents[2].Get("parts").Array()
	require.Len(t, parts, 2)
	assert.Equal(t, "what is in this picture?", parts[0].Get("text").String())
	assert.Equal(t, "image/jpeg", parts[1].Get("inlineData.mimeType").String())
	assert.Equal(t, "QUJD", parts[1].Get("inlineData.data").String())
}

func TestMessagesRequestSystemBlocksAndURLImages(t *testing.T) {
	out := mustTranslate(t, AnthropicToGemini, `{
		"model": "gemini-2.5-pro",
		"max_tokens": 100,
		"system": [{"type": "text", "text": "Be terse."}, {"type": "text", "text": "Answer in French."}],
		"messages": [{"role": "user", "content": [
			{"type": "image", "source": {"type": "url", "url": "https://example.com/p.png", "media_type": "image/png"}}
		]}]
	}`)

	assert.Equal(t, "Be terse.\n\nAnswer in French.", out.Get("systemInstruction.parts.0.text").String())

	// URL-sourced images become fileData references instead of inline bytes.
	file := out.Get("contents.0.parts.0.fileData")
	assert.Equal(t, "https://example.com/p.png", file.Get("fileUri").String())
	assert.Equal(t, "image/png", file.Get("mimeType").String())
}

func TestMessagesRequestToolCycle(t *testing.T) {
	out := mustTranslate(t, AnthropicToGemini, `{
		"model": "gemini-2.5-pro",
		"max_tokens": 512,
		"messages": [
			{"role": "user", "content": "weather in Oslo"},
			{"role": "assistant", "content": [
				{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": {"city": "Oslo"}}
			]},
			{"role": "user", "content": [
				{"type": "tool_result", "tool_use_id": "toolu_1", "content": [{"type": "text", "text": "{\"temp\":-3}"}]}
			]}
		],
		"tools": [{"name": "get_weather", "description": "d", "input_schema": {
			"type": "object", "additionalProperties": false,
			"properties": {"city": {"type": "string"}}
		}}],
		"tool_choice": {"type": "tool", "name": "get_weather"}
	}`)

	contents := out.Get("contents").Array()
	require.Len(t, contents, 3)

	call := contents[1].Get("parts.0.functionCall")
	assert.Equal(t, "get_weather", call.Get("name").String())
	assert.Equal(t, "Oslo", call.Get("args.city").String())

	// tool_result recovers the function name from the echoed tool_use id.
	result := contents[2].Get("parts.0.functionResponse")
	assert.Equal(t, "get_weather", result.Get("name").String())
	assert.EqualValues(t, -3, result.Get("response.temp").Int())

	decls := out.Get("tools.0.functionDeclarations").Array()
	require.Len(t, decls, 1)
	assert.Equal(t, "string", decls[0].Get("parameters.properties.city.type").String())
	assert.NotContains(t, out.Raw, "additionalProperties")

	cfg := out.Get("toolConfig.functionCallingConfig")
	assert.Equal(t, "ANY", cfg.Get("mode").String())
	assert.Equal(t, "get_weather", cfg.Get("allowedFunctionNames.0").String())
}

func TestMessagesRequestThinkingField(t *testing.T) {
	messages := `"messages":[{"role":"user","content":"hi"}],"max_tokens":64`

	out := mustTranslate(t, AnthropicToGemini,
		`{"model":"gemini-2.5-pro",`+messages+`,"thinking":{"type":"enabled","budget_tokens":2048}}`)
	assert.EqualValues(t, 2048, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())
	assert.True(t, out.Get("generationConfig.thinkingConfig.includeThoughts").Bool())

	out = mustTranslate(t, AnthropicToGemini,
		`{"model":"gemini-2.5-pro",`+messages+`,"thinking":{"type":"enabled"}}`)
	assert.EqualValues(t, -1, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())

	out = mustTranslate(t, AnthropicToGemini,
		`{"model":"gemini-2.5-pro",`+messages+`,"thinking":{"type":"disabled"}}`)
	assert.EqualValues(t, 0, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())
	assert.False(t, out.Get("generationConfig.thinkingConfig.includeThoughts").Bool())

	// A variant suffix on the model name wins over the request field.
	out = mustTranslate(t, AnthropicToGemini,
		`{"model":"gemini-2.5-flash-nothinking",`+messages+`,"thinking":{"type":"enabled","budget_tokens":2048}}`)
	assert.EqualValues(t, 0, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())
	assert.False(t, out.Get("generationConfig.thinkingConfig.includeThoughts").Bool())
}

func TestMessagesRequestThinkingBlocks(t *testing.T) {
	out := mustTranslate(t, AnthropicToGemini, `{
		"model": "gemini-2.5-pro",
		"max_tokens": 64,
		"messages": [
			{"role": "user", "content": "hi"},
			{"role": "assistant", "content": [
				{"type": "thinking", "thinking": "replay the chain"},
				{"type": "text", "text": "done"}
			]}
		]
	}`)

	parts := out.Get("contents.1.parts").Array()
	require.Len(t, parts, 2)
	assert.Equal(t, "replay the chain", parts[0].Get("text").String())
	assert.True(t, parts[0].Get("thought").Bool())
	assert.False(t, parts[1].Get("thought").Bool())
}

func TestMessagesResponseShape(t *testing.T) {
	raw := `{"response":{
		"candidates":[{"content":{"parts":[
			{"text":"check the forecast","thought":true},
			{"text":"Let me look that up."},
			{"functionCall":{"name":"get_weather","args":{"city":"Oslo"}}}
		]},"finishReason":"STOP"}],
		"usageMetadata":{"promptTokenCount":11,"candidatesTokenCount":6}
	}}`

	out, err := GeminiToAnthropic("gemini-2.5-pro", []byte(raw))
	require.NoError(t, err)
	resp := gjson.ParseBytes(out)

	assert.Equal(t, "message", resp.Get("type").String())
	assert.Equal(t, "assistant", resp.Get("role").String())
	assert.Equal(t, "gemini-2.5-pro", resp.Get("model").String())
	assert.True(t, strings.HasPrefix(resp.Get("id").String(), "msg_"))

	// Blocks keep the upstream part order.
	content := resp.Get("content").Array()
	require.Len(t, content, 3)
	assert.Equal(t, "thinking", content[0].Get("type").String())
	assert.Equal(t, "check the forecast", content[0].Get("thinking").String())
	assert.Equal(t, "text", content[1].Get("type").String())

	toolUse := content[2]
	assert.Equal(t, "tool_use", toolUse.Get("type").String())
	assert.True(t, strings.HasPrefix(toolUse.Get("id").String(), "toolu_"))
	assert.Equal(t, "get_weather", toolUse.Get("name").String())
	assert.Equal(t, "Oslo", toolUse.Get("input.city").String())

	// Any tool_use block forces the stop reason.
	assert.Equal(t, "tool_use", resp.Get("stop_reason").String())
	assert.Equal(t, gjson.Null, resp.Get("stop_sequence").Type)

	assert.EqualValues(t, 11, resp.Get("usage.input_tokens").Int())
	assert.EqualValues(t, 6, resp.Get("usage.output_tokens").Int())
}

func TestMessagesResponseStopReasons(t *testing.T) {
	frame := func(reason string) []byte {
		if reason == "" {
			return []byte(`{"candidates":[{"content":{"parts":[{"text":"x"}]}}]}`)
		}
		return []byte(`{"candidates":[{"content":{"parts":[{"text":"x"}]},"finishReason":"` + reason + `"}]}`)
	}

	out, err := GeminiToAnthropic("gemini-2.5-pro", frame("MAX_TOKENS"))
	require.NoError(t, err)
	assert.Equal(t, "max_tokens", gjson.GetBytes(out, "stop_reason").String())

	out, err = GeminiToAnthropic("gemini-2.5-pro", frame("STOP"))
	require.NoError(t, err)
	assert.Equal(t, "end_turn", gjson.GetBytes(out, "stop_reason").String())

	out, err = GeminiToAnthropic("gemini-2.5-pro", frame(""))
	require.NoError(t, err)
	assert.Equal(t, gjson.Null, gjson.GetBytes(out, "stop_reason").Type)
}

func TestMessagesResponseImageOutput(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[
		{"inlineData":{"mimeType":"image/png","data":"Zm9v"}}
	]}}]}`

	out, err := GeminiToAnthropic("gemini-2.5-flash-image", []byte(raw))
	require.NoError(t, err)

	block := gjson.GetBytes(out, "content.0")
	assert.Equal(t, "text", block.Get("type").String())
	assert.Equal(t, "![image](data:image/png;base64,Zm9v)", block.Get("text").String())
}

func TestMessagesResponseRejectsNonJSON(t *testing.T) {
	_, err := GeminiToAnthropic("gemini-2.5-pro", []byte("::"))
	apiErr := apiErrorFrom(t, err)
	assert.Equal(t, 502, apiErr.HTTPStatus)
}
