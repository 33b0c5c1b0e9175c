package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/constants"
	apperrors "geminicli2api-go/internal/errors"
	ah "geminicli2api-go/internal/handlers/anthropic"
	common "geminicli2api-go/internal/handlers/common"
	gh "geminicli2api-go/internal/handlers/gemini"
	oh "geminicli2api-go/internal/handlers/openai"
	mw "geminicli2api-go/internal/middleware"
)

// registerRoutes mounts every caller surface. Root and health stay open;
// everything else sits behind the shared-secret check.
func registerRoutes(engine *gin.Engine, cfg *config.Config, deps Dependencies) {
	openaiHandler := oh.New(deps.Broker)
	anthropicHandler := ah.New(deps.Broker)
	geminiHandler := gh.New(deps.Broker)

	engine.GET("/", rootDescriptor)
	engine.GET("/health", health)
	engine.GET("/metrics", mw.MetricsHandler)

	auth := mw.SharedSecretAuth(cfg.Auth.Password)

	v1 := engine.Group("/v1", auth)
	{
		v1.POST("/chat/completions", mw.Protocol("openai"), openaiHandler.ChatCompletions)
		v1.POST("/responses", mw.Protocol("responses"), openaiHandler.Responses)
		v1.POST("/messages", mw.Protocol("anthropic"), anthropicHandler.Messages)
		v1.GET("/models", mw.Protocol("openai"), openaiHandler.ListModels)
		v1.GET("/models/:id", mw.Protocol("openai"), openaiHandler.GetModel)
	}

	v1beta := engine.Group("/v1beta", auth, mw.Protocol("gemini"))
	{
		v1beta.GET("/models", geminiHandler.ListModels)
		v1beta.GET("/models/:model", geminiHandler.GetModel)
		// 一段式参数同时承载 "model:action"，拆分在 handler 内完成。
		v1beta.POST("/models/:action", geminiHandler.Actions)
	}

	engine.NoRoute(func(c *gin.Context) {
		common.AbortWithAPIError(c, apperrors.New(http.StatusNotFound, "not_found",
			"invalid_request_error", fmt.Sprintf("%s not found", c.Request.URL.Path)))
	})
}

// rootDescriptor advertises the exposed surfaces so a caller can discover
// endpoints without docs.
func rootDescriptor(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        constants.AppName,
		"description": "OpenAI-compatible API proxy for Google's Gemini models",
		"version":     constants.AppVersion,
		"endpoints": gin.H{
			"openai_compatible": gin.H{
				"chat_completions": "/v1/chat/completions",
				"responses":        "/v1/responses",
				"models":           "/v1/models",
			},
			"anthropic_compatible": gin.H{
				"messages": "/v1/messages",
			},
			"native_gemini": gin.H{
				"models":   "/v1beta/models",
				"generate": "/v1beta/models/{model}:generateContent",
				"stream":   "/v1beta/models/{model}:streamGenerateContent",
			},
			"health": "/health",
		},
		"authentication": "Required for all endpoints except root and health",
	})
}

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": constants.AppName})
}
