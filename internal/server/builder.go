package server

import (
	"github.com/gin-gonic/gin"

	"geminicli2api-go/internal/config"
	common "geminicli2api-go/internal/handlers/common"
	mw "geminicli2api-go/internal/middleware"
)

// Dependencies encapsulates the runtime services required to build the HTTP
// engine. It is constructed once in cmd/server and threaded into handlers;
// nothing here is a package global.
type Dependencies struct {
	Broker *common.Broker
}

// BuildEngine constructs the public Gin engine hosting every caller surface:
// OpenAI chat completions and Responses, Anthropic messages, and the native
// Gemini v1beta API.
func BuildEngine(cfg *config.Config, deps Dependencies) *gin.Engine {
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	_ = engine.SetTrustedProxies([]string{})

	engine.Use(mw.Recovery(), mw.RequestID(), mw.Metrics())
	// CORS 先于鉴权：预检请求在这里短路，不要求凭据。
	engine.Use(mw.CORS(cfg.Server.CORSAllowOrigins))
	engine.Use(mw.RequestLogger())

	registerRoutes(engine, cfg, deps)
	return engine
}
