package gemini

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "geminicli2api-go/internal/errors"
	common "geminicli2api-go/internal/handlers/common"
	"geminicli2api-go/internal/models"
	"geminicli2api-go/internal/translator"
)

// Actions dispatches POST /v1beta/models/<model>:<action>. Gin 不支持同一段
// 内混合路径参数与字面冒号，所以整段作为一个参数捕获，在这里拆分。
func (h *Handler) Actions(c *gin.Context) {
	segment := c.Param("action")
	model, action, ok := strings.Cut(segment, ":")
	if !ok || model == "" {
		common.AbortError(c, actionNotFound(c))
		return
	}

	switch action {
	case "generateContent":
		h.generateContent(c, model)
	case "streamGenerateContent":
		h.streamGenerateContent(c, model)
	default:
		common.AbortError(c, actionNotFound(c))
	}
}

// generateContent proxies the unary action and returns the unwrapped
// upstream body verbatim.
func (h *Handler) generateContent(c *gin.Context, model string) {
	body, err := c.GetRawData()
	if err != nil {
		common.AbortError(c, apperrors.InvalidRequest("unable to read request body"))
		return
	}

	request, err := translator.ShapeGeminiRequest(model, body)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	c.Set("model", model)

	raw, err := h.broker.Unary(c.Request.Context(), "gemini", models.BaseModel(model), request)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", translator.GeminiUnary(raw))
}

// streamGenerateContent relays the upstream SSE stream frame by frame.
func (h *Handler) streamGenerateContent(c *gin.Context, model string) {
	body, err := c.GetRawData()
	if err != nil {
		common.AbortError(c, apperrors.InvalidRequest("unable to read request body"))
		return
	}

	request, err := translator.ShapeGeminiRequest(model, body)
	if err != nil {
		common.AbortError(c, err)
		return
	}
	c.Set("model", model)
	base := models.BaseModel(model)

	resp, err := h.broker.Stream(c.Request.Context(), base, request)
	if err != nil {
		common.AbortError(c, err)
		return
	}

	setNativeStreamHeaders(c)
	common.PumpSSE(c, resp.Body, translator.NewGeminiStream(), common.StreamParams{
		Protocol: "gemini",
		Model:    base,
		Tracker:  h.broker.Tracker(),
	})
}

// setNativeStreamHeaders mirrors the header set Google's endpoint sends on
// streaming responses.
func setNativeStreamHeaders(c *gin.Context) {
	c.Header("Content-Disposition", "attachment")
	c.Header("Vary", "Origin, X-Origin, Referer")
	c.Header("X-XSS-Protection", "0")
	c.Header("X-Frame-Options", "SAMEORIGIN")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("Server", "ESF")
}

func actionNotFound(c *gin.Context) *apperrors.APIError {
	return apperrors.New(http.StatusNotFound, "not_found", "invalid_request_error",
		fmt.Sprintf("%s not found", c.Request.URL.Path))
}
