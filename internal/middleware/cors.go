package middleware

import (
	"github.com/gin-gonic/gin"
)

// CORS provides Cross-Origin Resource Sharing support for the API surface.
// allowOrigins comes from config; "*" (the default) allows any caller, any
// other list echoes the request origin only when it matches.
func CORS(allowOrigins []string) gin.HandlerFunc {
	wildcard := len(allowOrigins) == 0
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, o := range allowOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := "*"
		if !wildcard {
			origin = ""
			if reqOrigin := c.GetHeader("Origin"); reqOrigin != "" {
				if _, ok := allowed[reqOrigin]; ok {
					origin = reqOrigin
				}
			}
		}
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		// Credentials are not required for bearer-token style API calls
		// Avoid enabling credentials with wildcard origin
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "false")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, x-goog-api-key, anthropic-version, x-api-key")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
