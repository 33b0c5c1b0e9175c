package oauth

import "time"

// Token is the outcome of a token-endpoint call.
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// tokenResponse is the wire shape of Google's token endpoint.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope,omitempty"`
}

// userInfo is the subset of the userinfo endpoint we care about.
type userInfo struct {
	Email string `json:"email"`
}
