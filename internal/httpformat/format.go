// Package httpformat infers which error schema a request expects from the
// path it arrived on.
package httpformat

import (
	"strings"

	apperrors "geminicli2api-go/internal/errors"
	"github.com/gin-gonic/gin"
)

// DetectFromContext picks the error wire format for the surface a request
// came in on. Routed requests use the matched route template; unrouted ones
// (NoRoute 404s, panics before routing) fall back to the raw URL path.
func DetectFromContext(c *gin.Context) apperrors.ErrorFormat {
	if c == nil {
		return apperrors.FormatOpenAI
	}
	if path := c.FullPath(); path != "" {
		return DetectFromPath(path)
	}
	if c.Request != nil && c.Request.URL != nil {
		return DetectFromPath(c.Request.URL.Path)
	}
	return apperrors.FormatOpenAI
}

// DetectFromPath maps a path onto one of the three error schemas. The
// /v1beta tree, the generateContent verbs and the raw upstream prefix answer
// as Gemini, /v1/messages as Anthropic, everything else as OpenAI.
func DetectFromPath(path string) apperrors.ErrorFormat {
	path = strings.ToLower(path)
	switch {
	case strings.Contains(path, "/v1beta/"),
		strings.Contains(path, ":generatecontent"),
		strings.Contains(path, ":streamgeneratecontent"),
		strings.Contains(path, "/v1internal/"):
		return apperrors.FormatGemini
	case strings.Contains(path, "/v1/messages"):
		return apperrors.FormatAnthropic
	default:
		return apperrors.FormatOpenAI
	}
}
