package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func panicRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.POST("/v1/chat/completions", func(c *gin.Context) { panic("boom") })
	router.POST("/v1/messages", func(c *gin.Context) { panic("boom") })
	router.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	return router
}

func TestRecoveryRendersOpenAIShape(t *testing.T) {
	w := httptest.NewRecorder()
	panicRouter().ServeHTTP(w, httptest.NewRequest("POST", "/v1/chat/completions", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := w.Body.String()
	assert.Equal(t, "internal_error", gjson.Get(body, "error.code").String())
	assert.Equal(t, "server_error", gjson.Get(body, "error.type").String())
}

func TestRecoveryRendersAnthropicShape(t *testing.T) {
	w := httptest.NewRecorder()
	panicRouter().ServeHTTP(w, httptest.NewRequest("POST", "/v1/messages", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := w.Body.String()
	assert.Equal(t, "error", gjson.Get(body, "type").String())
	assert.Equal(t, "api_error", gjson.Get(body, "error.type").String())
}

func TestRecoveryPassesCleanRequests(t *testing.T) {
	w := httptest.NewRecorder()
	panicRouter().ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}
