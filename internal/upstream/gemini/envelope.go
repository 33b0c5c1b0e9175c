package gemini

import (
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Envelope wraps a native generateContent request in the Code Assist payload
// shape: {"model": ..., "project": ..., "request": {...}}.
func Envelope(model, project string, request []byte) ([]byte, error) {
	out, err := sjson.SetBytes([]byte(`{}`), "model", model)
	if err != nil {
		return nil, fmt.Errorf("set envelope model: %w", err)
	}
	out, err = sjson.SetBytes(out, "project", project)
	if err != nil {
		return nil, fmt.Errorf("set envelope project: %w", err)
	}
	out, err = sjson.SetRawBytes(out, "request", request)
	if err != nil {
		return nil, fmt.Errorf("set envelope request: %w", err)
	}
	return out, nil
}

// UnwrapResponse extracts the native generateContent response from the Code
// Assist envelope. Bodies without a "response" key pass through unchanged.
func UnwrapResponse(body []byte) []byte {
	if inner := gjson.GetBytes(body, "response"); inner.Exists() {
		return []byte(inner.Raw)
	}
	return body
}
