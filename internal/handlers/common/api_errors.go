package common

import (
	"net/http"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/httpformat"
	"github.com/gin-gonic/gin"
)

// AbortWithAPIError renders err in the format detected from the request path
// and aborts the request.
func AbortWithAPIError(c *gin.Context, err *apperrors.APIError) {
	if err == nil {
		err = apperrors.New(http.StatusInternalServerError, "server_error", "server_error", "unknown error")
	}

	payload, marshalErr := err.ToJSON(httpformat.DetectFromContext(c))
	if marshalErr != nil {
		c.AbortWithStatusJSON(safeStatus(err.HTTPStatus), gin.H{"error": gin.H{
			"message": err.Message,
			"type":    err.Type,
			"code":    err.Code,
		}})
		return
	}

	c.Data(safeStatus(err.HTTPStatus), "application/json", payload)
	c.Abort()
}

// AbortError maps an arbitrary error into the gateway taxonomy and aborts.
func AbortError(c *gin.Context, err error) {
	AbortWithAPIError(c, apperrors.FromError(err))
}

func safeStatus(status int) int {
	if status >= 400 && status <= 599 {
		return status
	}
	return http.StatusInternalServerError
}
