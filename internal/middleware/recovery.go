package middleware

import (
	"net/http"
	"runtime/debug"

	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/httpformat"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Recovery 捕获 handler panic，按请求所属协议面渲染 500。
// 流式响应 panic 时头部早已发出，只能中断，不再补写错误体。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.WithFields(log.Fields{
				"panic":  r,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
				"stack":  string(debug.Stack()),
			}).Error("handler panicked")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			apiErr := apperrors.New(http.StatusInternalServerError, "internal_error", "server_error", "internal server error")
			payload, err := apiErr.ToJSON(httpformat.DetectFromContext(c))
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Data(http.StatusInternalServerError, "application/json", payload)
			c.Abort()
		}()
		c.Next()
	}
}
