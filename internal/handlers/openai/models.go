package openai

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "geminicli2api-go/internal/errors"
	common "geminicli2api-go/internal/handlers/common"
	"geminicli2api-go/internal/models"
)

// ListModels handles GET /v1/models.
func (h *Handler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, models.OpenAIModels())
}

// GetModel handles GET /v1/models/:id.
func (h *Handler) GetModel(c *gin.Context) {
	id := c.Param("id")
	desc, ok := models.Lookup(id)
	if !ok {
		common.AbortError(c, modelNotFound(id))
		return
	}
	c.JSON(http.StatusOK, models.OpenAIModelEntry(desc.Name))
}

func modelNotFound(id string) *apperrors.APIError {
	return apperrors.New(http.StatusNotFound, "model_not_found", "invalid_request_error",
		fmt.Sprintf("The model '%s' does not exist", id))
}
