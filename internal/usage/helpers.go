package usage

import (
	"github.com/tidwall/gjson"
)

// TokensFromFrame extracts token counts from an upstream payload's
// usageMetadata. The payload may still be wrapped in the Code Assist
// {"response": ...} envelope or already unwrapped. ok is false when the
// payload carries no usageMetadata; streaming callers keep the last frame
// that reports one.
func TokensFromFrame(raw []byte) (Tokens, bool) {
	meta := gjson.GetBytes(raw, "response.usageMetadata")
	if !meta.Exists() {
		meta = gjson.GetBytes(raw, "usageMetadata")
	}
	if !meta.Exists() {
		return Tokens{}, false
	}

	t := Tokens{
		Prompt:     meta.Get("promptTokenCount").Int(),
		Completion: meta.Get("candidatesTokenCount").Int(),
		Reasoning:  meta.Get("thoughtsTokenCount").Int(),
		Cached:     meta.Get("cachedContentTokenCount").Int(),
		Total:      meta.Get("totalTokenCount").Int(),
	}
	if t.Total == 0 {
		t.Total = t.Prompt + t.Completion + t.Reasoning
	}
	return t, true
}

// CountFunctionCalls returns the number of functionCall parts in an
// upstream frame, for tool-call metrics.
func CountFunctionCalls(raw []byte) int {
	parts := gjson.GetBytes(raw, "response.candidates.0.content.parts")
	if !parts.Exists() {
		parts = gjson.GetBytes(raw, "candidates.0.content.parts")
	}
	n := 0
	parts.ForEach(func(_, part gjson.Result) bool {
		if part.Get("functionCall").Exists() {
			n++
		}
		return true
	})
	return n
}
