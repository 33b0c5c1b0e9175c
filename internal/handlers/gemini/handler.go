// Package gemini serves the native Gemini v1beta surface. Request bodies
// pass through to upstream with safety settings forced permissive and
// thinkingConfig filled from the model variant; responses are unwrapped from
// the Code Assist envelope and relayed otherwise untouched.
package gemini

import (
	common "geminicli2api-go/internal/handlers/common"
)

// Handler manages the Gemini-native endpoints.
type Handler struct {
	broker *common.Broker
}

// New constructs the native handler set.
func New(broker *common.Broker) *Handler {
	return &Handler{broker: broker}
}
