// Package translator converts between the public API schemas (OpenAI chat,
// OpenAI Responses, Anthropic Messages, native Gemini) and the Code Assist
// request/response forms. Request translators return the upstream body to be
// wrapped in the {model, project, request} envelope; response translators
// accept both the {response: ...} wrapping and bare frames.
package translator

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// markdownImagePattern matches ![alt](uri) so inline base64 images survive
// the trip through plain-text message content.
var markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

func newID(prefix string, size int) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	if size > 0 && size < len(hex) {
		hex = hex[:size]
	}
	return prefix + hex
}

func textPart(text string) map[string]any {
	return map[string]any{"text": text}
}

func inlineDataPart(mimeType, data string) map[string]any {
	return map[string]any{
		"inlineData": map[string]any{
			"mimeType": mimeType,
			"data":     data,
		},
	}
}

// parseImageDataURI splits a data URI and keeps only image payloads.
func parseImageDataURI(url string) (mimeType, data string, ok bool) {
	if !strings.HasPrefix(url, "data:") {
		return "", "", false
	}
	header, payload, found := strings.Cut(url, ",")
	if !found {
		return "", "", false
	}
	mimeType = strings.TrimPrefix(header, "data:")
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = mimeType[:idx]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return "", "", false
	}
	return mimeType, payload, true
}

// textToParts splits message text on Markdown image syntax. Data URIs become
// inlineData parts; other URIs stay as the literal text they were. Empty text
// still yields one empty text part.
func textToParts(text string) []map[string]any {
	if text == "" {
		return []map[string]any{textPart("")}
	}

	var parts []map[string]any
	lastIdx := 0
	for _, loc := range markdownImagePattern.FindAllStringSubmatchIndex(text, -1) {
		url := strings.Trim(strings.TrimSpace(text[loc[2]:loc[3]]), `"'`)

		if loc[0] > lastIdx {
			parts = append(parts, textPart(text[lastIdx:loc[0]]))
		}
		if mime, data, ok := parseImageDataURI(url); ok {
			parts = append(parts, inlineDataPart(mime, data))
		} else {
			parts = append(parts, textPart(text[loc[0]:loc[1]]))
		}
		lastIdx = loc[1]
	}
	if lastIdx < len(text) {
		parts = append(parts, textPart(text[lastIdx:]))
	}
	if len(parts) == 0 {
		return []map[string]any{textPart(text)}
	}
	return parts
}

// extractContentAndReasoning walks candidate parts routing thought-flagged
// text to the reasoning channel. Inline image outputs come back as Markdown
// data URIs inside the main content.
func extractContentAndReasoning(parts []gjson.Result) (content, reasoning string) {
	var contentParts []string
	var reasoningBuilder strings.Builder

	for _, part := range parts {
		if text := part.Get("text"); text.Exists() {
			if part.Get("thought").Bool() {
				reasoningBuilder.WriteString(text.String())
			} else {
				contentParts = append(contentParts, text.String())
			}
			continue
		}
		if inline := part.Get("inlineData"); inline.Exists() && inline.Get("data").String() != "" {
			mime := inline.Get("mimeType").String()
			if mime == "" {
				mime = "image/png"
			}
			if strings.HasPrefix(mime, "image/") {
				contentParts = append(contentParts, "![image](data:"+mime+";base64,"+inline.Get("data").String()+")")
			}
		}
	}

	var nonEmpty []string
	for _, p := range contentParts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n"), reasoningBuilder.String()
}

// functionCall is one upstream functionCall part with its arguments
// re-encoded as a JSON string.
type functionCall struct {
	Name string
	Args string
}

func extractFunctionCalls(parts []gjson.Result) []functionCall {
	var calls []functionCall
	for _, part := range parts {
		fn := part.Get("functionCall")
		if !fn.Exists() {
			continue
		}
		args := "{}"
		if a := fn.Get("args"); a.Exists() {
			args = a.Raw
		}
		calls = append(calls, functionCall{Name: fn.Get("name").String(), Args: args})
	}
	return calls
}

// mapFinishReason translates Gemini finish reasons into the OpenAI
// vocabulary. Unknown reasons map to empty, which callers treat as absent.
func mapFinishReason(geminiReason string) string {
	switch geminiReason {
	case "STOP":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	}
	return ""
}

// mapAnthropicStopReason translates Gemini finish reasons into Anthropic's
// stop_reason vocabulary.
func mapAnthropicStopReason(geminiReason string) string {
	switch geminiReason {
	case "MAX_TOKENS":
		return "max_tokens"
	case "STOP", "SAFETY", "RECITATION":
		return "end_turn"
	}
	return ""
}

// unwrapFrame strips the Code Assist {response: X} wrapping when present.
func unwrapFrame(raw []byte) []byte {
	if inner := gjson.GetBytes(raw, "response"); inner.Exists() {
		return []byte(inner.Raw)
	}
	return raw
}

func candidateParts(candidate gjson.Result) []gjson.Result {
	return candidate.Get("content.parts").Array()
}

// decodeToolResult turns a tool's textual output into the functionResponse
// object form upstream expects: raw JSON objects pass through, everything
// else is wrapped as {result: <text>}.
func decodeToolResult(content string) any {
	var decoded any
	if err := json.Unmarshal([]byte(content), &decoded); err == nil {
		if _, isObj := decoded.(map[string]any); isObj {
			return decoded
		}
	}
	return map[string]any{"result": content}
}
