package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
)

// mustTranslate runs a request translator and parses the produced upstream
// body for assertion.
func mustTranslate(t *testing.T, fn func([]byte) ([]byte, error), body string) gjson.Result {
	t.Helper()
	out, err := fn([]byte(body))
	require.NoError(t, err)
	return gjson.ParseBytes(out)
}

func apiErrorFrom(t *testing.T, err error) *apperrors.APIError {
	t.Helper()
	require.Error(t, err)
	apiErr := apperrors.FromError(err)
	require.NotNil(t, apiErr)
	return apiErr
}

func TestChatRequestValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"garbage", `{not json`, "not valid JSON"},
		{"missing model", `{"messages":[{"role":"user","content":"hi"}]}`, "model is required"},
		{"empty messages", `{"model":"gemini-2.5-pro","messages":[]}`, "messages must be a non-empty array"},
		{"messages not array", `{"model":"gemini-2.5-pro","messages":"hi"}`, "messages must be a non-empty array"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := OpenAIChatToGemini([]byte(tc.body))
			apiErr := apiErrorFrom(t, err)
			assert.Equal(t, 400, apiErr.HTTPStatus)
			assert.Contains(t, apiErr.Message, tc.want)
		})
	}
}

func TestChatRequestMapsConversation(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini, `{
		"model": "gemini-2.5-pro",
		"messages": [
			{"role": "system", "content": "Be brief."},
			{"role": "system", "content": "Answer in French."},
			{"role": "user", "content": "Bonjour"},
			{"role": "assistant", "content": "Salut"},
			{"role": "user", "content": "Comment vas-tu?"}
		]
	}`)

	// System turns merge into one instruction and leave the contents list.
	assert.Equal(t, "Be brief.\n\nAnswer in French.", out.Get("systemInstruction.parts.0.text").String())
	contents := out.Get("contents").Array()
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Get("role").String())
	assert.Equal(t, "model", contents[1].Get("role").String())
	assert.Equal(t, "Salut", contents[1].Get("parts.0.text").String())

	// Harm filters come back disabled on every translated request.
	settings := out.Get("safetySettings").Array()
	require.NotEmpty(t, settings)
	for _, s := range settings {
		assert.Equal(t, "BLOCK_NONE", s.Get("threshold").String())
	}

	// No effort, no variant suffix: model-default thinking with thoughts on.
	assert.EqualValues(t, -1, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())
	assert.True(t, out.Get("generationConfig.thinkingConfig.includeThoughts").Bool())
}

func TestChatRequestSamplingParams(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini, `{
		"model": "gemini-2.5-pro",
		"messages": [{"role": "user", "content": "hi"}],
		"temperature": 0.7,
		"top_p": 0.9,
		"max_tokens": 1024,
		"stop": ["END", "HALT"],
		"frequency_penalty": 0.5,
		"presence_penalty": -0.25,
		"n": 2,
		"seed": 42,
		"response_format": {"type": "json_object"}
	}`)

	cfg := out.Get("generationConfig")
	assert.InDelta(t, 0.7, cfg.Get("temperature").Float(), 1e-9)
	assert.InDelta(t, 0.9, cfg.Get("topP").Float(), 1e-9)
	assert.EqualValues(t, 1024, cfg.Get("maxOutputTokens").Int())
	assert.Equal(t, "END", cfg.Get("stopSequences.0").String())
	assert.Equal(t, "HALT", cfg.Get("stopSequences.1").String())
	assert.InDelta(t, 0.5, cfg.Get("frequencyPenalty").Float(), 1e-9)
	assert.InDelta(t, -0.25, cfg.Get("presencePenalty").Float(), 1e-9)
	assert.EqualValues(t, 2, cfg.Get("candidateCount").Int())
	assert.EqualValues(t, 42, cfg.Get("seed").Int())
	assert.Equal(t, "application/json", cfg.Get("responseMimeType").String())
}

func TestChatRequestNullAndStringStop(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini, `{
		"model": "gemini-2.5-pro",
		"messages": [{"role": "user", "content": "hi"}],
		"temperature": null,
		"stop": "END"
	}`)

	// Explicit null is absent, a lone stop string becomes a one-entry list.
	assert.False(t, out.Get("generationConfig.temperature").Exists())
	stops := out.Get("generationConfig.stopSequences").Array()
	require.Len(t, stops, 1)
	assert.Equal(t, "END", stops[0].String())
}

func TestChatRequestReasoningEffort(t *testing.T) {
	cases := []struct {
		model  string
		effort string
		budget int64
	}{
		{"gemini-2.5-flash", "minimal", 0},
		{"gemini-2.5-pro", "minimal", 128},
		{"gemini-2.5-pro", "low", 1000},
		{"gemini-2.5-flash", "medium", -1},
		{"gemini-2.5-flash", "high", 24576},
		{"gemini-2.5-pro", "high", 32768},
		{"gemini-3-pro-preview", "high", 45000},
	}
	for _, tc := range cases {
		t.Run(tc.model+"/"+tc.effort, func(t *testing.T) {
			out := mustTranslate(t, OpenAIChatToGemini,
				`{"model":"`+tc.model+`","messages":[{"role":"user","content":"hi"}],"reasoning_effort":"`+tc.effort+`"}`)
			assert.Equal(t, tc.budget, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())
		})
	}
}

func TestChatRequestThinkingEdgeCases(t *testing.T) {
	// Variant suffixes beat the caller's effort level.
	out := mustTranslate(t, OpenAIChatToGemini,
		`{"model":"gemini-2.5-flash-maxthinking","messages":[{"role":"user","content":"hi"}],"reasoning_effort":"low"}`)
	assert.EqualValues(t, 24576, out.Get("generationConfig.thinkingConfig.thinkingBudget").Int())

	// Unknown effort levels and image models take no thinkingConfig.
	out = mustTranslate(t, OpenAIChatToGemini,
		`{"model":"gemini-2.5-pro","messages":[{"role":"user","content":"hi"}],"reasoning_effort":"extreme"}`)
	assert.False(t, out.Get("generationConfig.thinkingConfig").Exists())

	out = mustTranslate(t, OpenAIChatToGemini,
		`{"model":"gemini-2.5-flash-image","messages":[{"role":"user","content":"hi"}]}`)
	assert.False(t, out.Get("generationConfig.thinkingConfig").Exists())
}

func TestChatRequestToolDeclarations(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini, `{
		"model": "gemini-2.5-pro",
		"messages": [{"role": "user", "content": "weather in Oslo"}],
		"tools": [
			{"type": "function", "function": {
				"name": "get_weather",
				"description": "Look up current weather",
				"parameters": {
					"$schema": "http://json-schema.org/draft-07/schema#",
					"type": "object",
					"additionalProperties": false,
					"properties": {"city": {"type": "string"}},
					"required": ["city"]
				}
			}},
			{"type": "retrieval"}
		],
		"tool_choice": "required"
	}`)

	decls := out.Get("tools.0.functionDeclarations").Array()
	require.Len(t, decls, 1)
	assert.Equal(t, "get_weather", decls[0].Get("name").String())
	assert.Equal(t, "Look up current weather", decls[0].Get("description").String())
	assert.Equal(t, "string", decls[0].Get("parameters.properties.city.type").String())

	// Schema keywords the endpoint rejects are stripped everywhere.
	assert.NotContains(t, out.Raw, "$schema")
	assert.NotContains(t, out.Raw, "additionalProperties")

	assert.Equal(t, "ANY", out.Get("toolConfig.functionCallingConfig.mode").String())
}

func TestChatRequestToolChoiceVariants(t *testing.T) {
	chat := func(choice string) gjson.Result {
		return mustTranslate(t, OpenAIChatToGemini,
			`{"model":"gemini-2.5-pro","messages":[{"role":"user","content":"hi"}],"tool_choice":`+choice+`}`)
	}

	out := chat(`"none"`)
	assert.Equal(t, "NONE", out.Get("toolConfig.functionCallingConfig.mode").String())

	out = chat(`{"type":"function","function":{"name":"get_weather"}}`)
	assert.Equal(t, "ANY", out.Get("toolConfig.functionCallingConfig.mode").String())
	assert.Equal(t, "get_weather", out.Get("toolConfig.functionCallingConfig.allowedFunctionNames.0").String())

	// Unrecognized choices are dropped rather than guessed at.
	out = chat(`"sometimes"`)
	assert.False(t, out.Get("toolConfig").Exists())
}

func TestChatRequestSearchVariantAddsTool(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini,
		`{"model":"gemini-2.5-flash-search","messages":[{"role":"user","content":"latest Go release"}]}`)

	tools := out.Get("tools").Array()
	require.Len(t, tools, 1)
	assert.True(t, tools[0].Get("googleSearch").Exists())
}

func TestChatRequestToolCallRoundTrip(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini, `{
		"model": "gemini-2.5-pro",
		"messages": [
			{"role": "user", "content": "weather in Oslo"},
			{"role": "assistant", "tool_calls": [
				{"id": "call_1", "type": "function", "function": {"name": "get_weather", "arguments": "{\"city\":\"Oslo\"}"}}
			]},
			{"role": "tool", "tool_call_id": "call_1", "content": "{\"temp\":-3}"},
			{"role": "tool", "tool_call_id": "call_1", "content": "partly cloudy"}
		]
	}`)

	contents := out.Get("contents").Array()
	require.Len(t, contents, 4)

	assert.Equal(t, "model", contents[1].Get("role").String())
	call := contents[1].Get("parts.0.functionCall")
	assert.Equal(t, "get_weather", call.Get("name").String())
	assert.Equal(t, "Oslo", call.Get("args.city").String())

	// Tool results recover the function name from the echoed call id. JSON
	// object output passes through, plain text is wrapped.
	first := contents[2].Get("parts.0.functionResponse")
	assert.Equal(t, "user", contents[2].Get("role").String())
	assert.Equal(t, "get_weather", first.Get("name").String())
	assert.EqualValues(t, -3, first.Get("response.temp").Int())

	second := contents[3].Get("parts.0.functionResponse")
	assert.Equal(t, "partly cloudy", second.Get("response.result").String())
}

func TestChatRequestInlineImages(t *testing.T) {
	out := mustTranslate(t, OpenAIChatToGemini, `{
		"model": "gemini-2.5-pro",
		"messages": [{"role": "user", "content": [
			{"type": "text", "text": "what is this?"},
			{"type": "image_url", "image_url": {"url": "data:image/png;base64,QUJD"}},
			{"type": "image_url", "image_url": {"url": "https://example.com/x.png"}}
		]}]
	}`)

	parts := out.Get("contents.0.parts").Array()
	require.Len(t, parts, 2)
	assert.Equal(t, "what is this?", parts[0].Get("text").String())
	assert.Equal(t, "image/png", parts[1].Get("inlineData.mimeType").String())
	assert.Equal(t, "QUJD", parts[1].Get("inlineData.data").String())
}

func TestChatResponseFromUpstream(t *testing.T) {
	raw := `{"response":{"candidates":[{"index":0,"content":{"parts":[
		{"text":"line up the facts","thought":true},
		{"text":"Hello there"}
	]},"finishReason":"STOP"}]}}`

	out, err := GeminiToOpenAIChat("gemini-2.5-pro", []byte(raw))
	require.NoError(t, err)
	resp := gjson.ParseBytes(out)

	assert.Equal(t, "chat.completion", resp.Get("object").String())
	assert.Equal(t, "gemini-2.5-pro", resp.Get("model").String())
	assert.NotEmpty(t, resp.Get("id").String())
	assert.Greater(t, resp.Get("created").Int(), int64(0))

	choice := resp.Get("choices.0")
	assert.Equal(t, "assistant", choice.Get("message.role").String())
	assert.Equal(t, "Hello there", choice.Get("message.content").String())
	assert.Equal(t, "line up the facts", choice.Get("message.reasoning_content").String())
	assert.Equal(t, "stop", choice.Get("finish_reason").String())
}

func TestChatResponseAcceptsBareFrame(t *testing.T) {
	raw := `{"candidates":[{"content":{"parts":[{"text":"bare"}]},"finishReason":"STOP"}]}`

	out, err := GeminiToOpenAIChat("gemini-2.5-flash", []byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "bare", gjson.GetBytes(out, "choices.0.message.content").String())
}

func TestChatResponseToolCalls(t *testing.T) {
	raw := `{"response":{"candidates":[{"content":{"parts":[
		{"functionCall":{"name":"lookup","args":{"q":"go"}}}
	]},"finishReason":"STOP"}]}}`

	out, err := GeminiToOpenAIChat("gemini-2.5-pro", []byte(raw))
	require.NoError(t, err)
	resp := gjson.ParseBytes(out)

	choice := resp.Get("choices.0")
	assert.Equal(t, "tool_calls", choice.Get("finish_reason").String())

	call := choice.Get("message.tool_calls.0")
	assert.Equal(t, "function", call.Get("type").String())
	assert.Equal(t, "lookup", call.Get("function.name").String())
	assert.True(t, strings.HasPrefix(call.Get("id").String(), "call_"))
	assert.Equal(t, "go", gjson.Get(call.Get("function.arguments").String(), "q").String())

	// Calls without text leave content as an explicit null.
	content := choice.Get("message.content")
	assert.True(t, content.Exists())
	assert.Equal(t, gjson.Null, content.Type)
}

func TestChatResponseFinishReasons(t *testing.T) {
	cases := []struct {
		upstream string
		want     string
	}{
		{"STOP", "stop"},
		{"MAX_TOKENS", "length"},
		{"SAFETY", "content_filter"},
		{"RECITATION", "content_filter"},
	}
	for _, tc := range cases {
		raw := `{"candidates":[{"content":{"parts":[{"text":"x"}]},"finishReason":"` + tc.upstream + `"}]}`
		out, err := GeminiToOpenAIChat("gemini-2.5-pro", []byte(raw))
		require.NoError(t, err)
		assert.Equal(t, tc.want, gjson.GetBytes(out, "choices.0.finish_reason").String(), tc.upstream)
	}

	// Unknown and absent reasons surface as null, not as a made-up value.
	out, err := GeminiToOpenAIChat("gemini-2.5-pro",
		[]byte(`{"candidates":[{"content":{"parts":[{"text":"x"}]},"finishReason":"SOMETHING_NEW"}]}`))
	require.NoError(t, err)
	reason := gjson.GetBytes(out, "choices.0.finish_reason")
	assert.True(t, reason.Exists())
	assert.Equal(t, gjson.Null, reason.Type)
}

func TestChatResponseRejectsNonJSON(t *testing.T) {
	_, err := GeminiToOpenAIChat("gemini-2.5-pro", []byte("<html>bad gateway</html>"))
	apiErr := apiErrorFrom(t, err)
	assert.Equal(t, 502, apiErr.HTTPStatus)
}
