package middleware

import (
	"net/http"
	"strings"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/httpformat"
	"geminicli2api-go/internal/monitoring"
	"github.com/gin-gonic/gin"
)

// ContextKeyAuthUser is the gin context key carrying the symbolic caller
// identity set by SharedSecretAuth.
const ContextKeyAuthUser = "auth_user"

// SharedSecretAuth 校验调用方凭据。按顺序接受四种携带方式：
//   - ?key=<secret> 查询参数            → api_key_user
//   - x-goog-api-key 头（Gemini 风格）   → goog_api_key_user
//   - Authorization: Bearer <secret>    → bearer_user
//   - HTTP Basic（密码位为 secret）      → basic_user
//
// 任一来源命中即放行并记下身份；全部落空返回 401 并带 WWW-Authenticate: Basic。
func SharedSecretAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key := c.Query("key"); key != "" {
			if key == secret {
				authorize(c, "api_key_user")
				return
			}
			reject(c, "api_key")
			return
		}

		if key := c.GetHeader("x-goog-api-key"); key != "" {
			if key == secret {
				authorize(c, "goog_api_key_user")
				return
			}
			reject(c, "goog_api_key")
			return
		}

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			if strings.TrimSpace(authHeader[7:]) == secret {
				authorize(c, "bearer_user")
				return
			}
			reject(c, "bearer")
			return
		}

		if _, password, ok := c.Request.BasicAuth(); ok {
			if password == secret {
				authorize(c, "basic_user")
				return
			}
			reject(c, "basic")
			return
		}

		reject(c, "missing")
	}
}

func authorize(c *gin.Context, identity string) {
	c.Set(ContextKeyAuthUser, identity)
	c.Next()
}

func reject(c *gin.Context, source string) {
	monitoring.AuthFailuresTotal.WithLabelValues(source).Inc()

	message := "Invalid API key"
	if source == "missing" {
		message = "API key required. Use HTTP Basic auth, Bearer token, 'key' query parameter, or x-goog-api-key header."
	}
	c.Header("WWW-Authenticate", "Basic")

	err := apperrors.Unauthenticated(message)
	format := httpformat.DetectFromContext(c)
	payload, marshalErr := err.ToJSON(format)
	if marshalErr != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"message": err.Message,
				"type":    err.Type,
				"code":    err.Code,
			},
		})
		c.Abort()
		return
	}
	c.Data(http.StatusUnauthorized, "application/json", payload)
	c.Abort()
}
