// Package anthropic serves the Anthropic Messages compatibility surface.
package anthropic

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
	common "geminicli2api-go/internal/handlers/common"
	"geminicli2api-go/internal/models"
	"geminicli2api-go/internal/translator"
)

// Handler serves POST /v1/messages.
type Handler struct {
	broker *common.Broker
}

// New constructs the Anthropic-compatible handler set.
func New(broker *common.Broker) *Handler {
	return &Handler{broker: broker}
}

// Messages handles POST /v1/messages. A truthy `stream` field selects the
// Anthropic event stream (message_start .. message_stop); otherwise a single
// message object is returned.
func (h *Handler) Messages(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		common.AbortError(c, apperrors.InvalidRequest("unable to read request body"))
		return
	}

	request, err := translator.AnthropicToGemini(body)
	if err != nil {
		common.AbortError(c, err)
		return
	}

	model := gjson.GetBytes(body, "model").String()
	base := models.BaseModel(model)
	c.Set("model", model)

	if gjson.GetBytes(body, "stream").Bool() {
		resp, err := h.broker.Stream(c.Request.Context(), base, request)
		if err != nil {
			common.AbortError(c, err)
			return
		}
		common.PumpSSE(c, resp.Body, translator.NewAnthropicStream(model), common.StreamParams{
			Protocol: "anthropic",
			Model:    base,
			Tracker:  h.broker.Tracker(),
		})
		return
	}

	raw, err := h.broker.Unary(c.Request.Context(), "anthropic", base, request)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	out, err := translator.GeminiToAnthropic(model, raw)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}
