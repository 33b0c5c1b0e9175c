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

// ChatCompletions handles POST /v1/chat/completions by translating the
// request into the upstream form and the response back. A truthy `stream`
// field selects SSE output.
func (h *Handler) ChatCompletions(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		common.AbortError(c, apperrors.InvalidRequest("unable to read request body"))
		return
	}

	request, err := translator.OpenAIChatToGemini(body)
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
		common.PumpSSE(c, resp.Body, translator.NewOpenAIChatStream(model), common.StreamParams{
			Protocol: "openai",
			Model:    base,
			Tracker:  h.broker.Tracker(),
		})
		return
	}

	raw, err := h.broker.Unary(c.Request.Context(), "openai", base, request)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	out, err := translator.GeminiToOpenAIChat(model, raw)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}
