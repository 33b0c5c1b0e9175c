package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func newAuthRouter(secret string) (*gin.Engine, *string) {
	gin.SetMode(gin.TestMode)
	identity := new(string)
	r := gin.New()
	r.Use(SharedSecretAuth(secret))
	r.POST("/v1/chat/completions", func(c *gin.Context) {
		*identity = c.GetString(ContextKeyAuthUser)
		c.String(http.StatusOK, "ok")
	})
	r.POST("/v1beta/models/gemini-2.5-pro/*action", func(c *gin.Context) {
		*identity = c.GetString(ContextKeyAuthUser)
		c.String(http.StatusOK, "ok")
	})
	return r, identity
}

func TestSharedSecretAuthSources(t *testing.T) {
	cases := []struct {
		name     string
		decorate func(r *http.Request)
		identity string
	}{
		{
			name:     "query key",
			decorate: func(r *http.Request) { r.URL.RawQuery = "key=s3cret" },
			identity: "api_key_user",
		},
		{
			name:     "goog api key header",
			decorate: func(r *http.Request) { r.Header.Set("x-goog-api-key", "s3cret") },
			identity: "goog_api_key_user",
		},
		{
			name:     "bearer",
			decorate: func(r *http.Request) { r.Header.Set("Authorization", "Bearer s3cret") },
			identity: "bearer_user",
		},
		{
			name: "basic password half",
			decorate: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("anyone:s3cret")))
			},
			identity: "basic_user",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, identity := newAuthRouter("s3cret")
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
			tc.decorate(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.identity, *identity)
		})
	}
}

func TestSharedSecretAuthRejects(t *testing.T) {
	cases := []struct {
		name     string
		decorate func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"wrong query key", func(r *http.Request) { r.URL.RawQuery = "key=nope" }},
		{"wrong bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{"basic username half does not count", func(r *http.Request) {
			r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("s3cret:wrong")))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := newAuthRouter("s3cret")
			req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
			tc.decorate(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Basic", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestSharedSecretAuthErrorShapePerSurface(t *testing.T) {
	router, _ := newAuthRouter("s3cret")

	// OpenAI surface: {"error": {"message", "type", "code"}}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil))
	body := w.Body.String()
	assert.True(t, gjson.Get(body, "error.message").Exists())
	assert.Equal(t, "authentication_error", gjson.Get(body, "error.type").String())
	assert.Equal(t, "invalid_api_key", gjson.Get(body, "error.code").String())

	// Gemini surface: {"error": {"code": 401, ...}}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1beta/models/gemini-2.5-pro/:generateContent", nil))
	body = w.Body.String()
	assert.Equal(t, int64(http.StatusUnauthorized), gjson.Get(body, "error.code").Int())
}

func TestSharedSecretAuthQueryBeatsHeaders(t *testing.T) {
	// A wrong query key rejects even when a valid header is present: sources
	// are checked in a fixed order, not first-match-wins across all of them.
	router, _ := newAuthRouter("s3cret")
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions?key=nope", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
