// Package openai serves the OpenAI-compatible surface: chat completions,
// the Responses API, and the model listing.
package openai

import (
	common "geminicli2api-go/internal/handlers/common"
)

// Handler aggregates shared dependencies for OpenAI-compatible endpoints.
type Handler struct {
	broker *common.Broker
}

// New constructs the OpenAI-compatible handler set.
func New(broker *common.Broker) *Handler {
	return &Handler{broker: broker}
}

// Route handlers live in split files:
// - chat.go: ChatCompletions
// - responses.go: Responses
// - models.go: ListModels/GetModel
