package openai

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	apperrors "geminicli2api-go/internal/errors"
	common "geminicli2api-go/internal/handlers/common"
	"geminicli2api-go/internal/models"
	"geminicli2api-go/internal/translator"
)

// Responses handles POST /v1/responses, the newer OpenAI responses shape.
// Streaming uses the semantic event vocabulary (response.created,
// response.output_text.delta, ..., response.completed, done) instead of
// chat-completion chunks.
func (h *Handler) Responses(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		common.AbortError(c, apperrors.InvalidRequest("unable to read request body"))
		return
	}

	request, err := translator.ResponsesToGemini(body)
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
		common.PumpSSE(c, resp.Body, translator.NewResponsesStream(model), common.StreamParams{
			Protocol: "responses",
			Model:    base,
			Tracker:  h.broker.Tracker(),
		})
		return
	}

	raw, err := h.broker.Unary(c.Request.Context(), "responses", base, request)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	out, err := translator.GeminiToResponses(model, raw)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}
