package usage

import (
	"testing"
)

func TestTokensFromFrame(t *testing.T) {
	t.Run("enveloped frame", func(t *testing.T) {
		raw := []byte(`{"response":{"candidates":[],"usageMetadata":{"promptTokenCount":9,"candidatesTokenCount":4,"thoughtsTokenCount":2,"totalTokenCount":15}}}`)
		tokens, ok := TokensFromFrame(raw)
		if !ok {
			t.Fatal("Expected usage metadata to be found")
		}
		if tokens.Prompt != 9 || tokens.Completion != 4 || tokens.Reasoning != 2 || tokens.Total != 15 {
			t.Errorf("Unexpected tokens: %+v", tokens)
		}
	})

	t.Run("bare frame", func(t *testing.T) {
		raw := []byte(`{"candidates":[],"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":1}}`)
		tokens, ok := TokensFromFrame(raw)
		if !ok {
			t.Fatal("Expected usage metadata to be found")
		}
		if tokens.Total != 4 {
			t.Errorf("Expected computed total 4, got %d", tokens.Total)
		}
	})

	t.Run("no metadata", func(t *testing.T) {
		if _, ok := TokensFromFrame([]byte(`{"candidates":[]}`)); ok {
			t.Error("Expected ok=false without usageMetadata")
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, ok := TokensFromFrame([]byte(`{broken`)); ok {
			t.Error("Expected ok=false for invalid JSON")
		}
	})
}

func TestCountFunctionCalls(t *testing.T) {
	raw := []byte(`{"response":{"candidates":[{"content":{"parts":[
		{"text":"let me check"},
		{"functionCall":{"name":"get_weather","args":{"city":"Tokyo"}}},
		{"functionCall":{"name":"get_time","args":{}}}
	]}}]}}`)
	if n := CountFunctionCalls(raw); n != 2 {
		t.Errorf("Expected 2 function calls, got %d", n)
	}

	bare := []byte(`{"candidates":[{"content":{"parts":[{"functionCall":{"name":"f","args":{}}}]}}]}`)
	if n := CountFunctionCalls(bare); n != 1 {
		t.Errorf("Expected 1 function call in bare frame, got %d", n)
	}

	if n := CountFunctionCalls([]byte(`{"candidates":[]}`)); n != 0 {
		t.Errorf("Expected 0 function calls, got %d", n)
	}
}
