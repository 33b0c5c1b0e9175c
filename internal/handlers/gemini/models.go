package gemini

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "geminicli2api-go/internal/errors"
	common "geminicli2api-go/internal/handlers/common"
	"geminicli2api-go/internal/models"
)

// ListModels handles GET /v1beta/models.
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, models.GeminiModels())
}

// GetModel handles GET /v1beta/models/<model>.
func (h *Handler) GetModel(c *gin.Context) {
	name := c.Param("model")
	desc, ok := models.Lookup(name)
	if !ok {
		common.AbortError(c, apperrors.New(http.StatusNotFound, "not_found", "invalid_request_error",
			fmt.Sprintf("models/%s is not found", name)))
		return
	}
	c.JSON(http.StatusOK, desc)
}
