package credential

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"geminicli2api-go/internal/config"
	"github.com/tidwall/gjson"
)

// expiryLayout 凭据文件中 expiry 字段的规范格式（UTC）
const expiryLayout = "2006-01-02T15:04:05Z"

// Record 单个 OAuth 用户凭据，对应 Google authorized-user JSON 布局。
type Record struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	Scopes       []string
	TokenURI     string
	Expiry       time.Time
	ProjectID    string
	Email        string
	CreatedAt    string
}

// ParseRecord 解析凭据 JSON 并做归一化:token/access_token 互为别名、
// scope 字符串拆分为 scopes、expiry 接受三种 ISO 形式。仅含 refresh_token
// 的最小记录会补齐官方 CLI 的 client_id/client_secret/token_uri。
func ParseRecord(data []byte) (*Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("credential JSON is not valid")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, fmt.Errorf("credential JSON must be an object")
	}

	rec := &Record{
		ClientID:     doc.Get("client_id").String(),
		ClientSecret: doc.Get("client_secret").String(),
		AccessToken:  doc.Get("token").String(),
		RefreshToken: doc.Get("refresh_token").String(),
		TokenURI:     doc.Get("token_uri").String(),
		ProjectID:    doc.Get("project_id").String(),
		Email:        doc.Get("email").String(),
		CreatedAt:    doc.Get("created_at").String(),
	}
	if rec.AccessToken == "" {
		rec.AccessToken = doc.Get("access_token").String()
	}

	switch scopes := doc.Get("scopes"); {
	case scopes.IsArray():
		for _, item := range scopes.Array() {
			rec.Scopes = append(rec.Scopes, item.String())
		}
	case scopes.Type == gjson.String:
		rec.Scopes = strings.Fields(scopes.String())
	}
	if len(rec.Scopes) == 0 {
		if scope := doc.Get("scope").String(); scope != "" {
			rec.Scopes = strings.Fields(scope)
		}
	}

	if raw := doc.Get("expiry").String(); raw != "" {
		expiry, err := parseExpiry(raw)
		if err != nil {
			return nil, err
		}
		rec.Expiry = expiry
	}

	if rec.RefreshToken != "" {
		if rec.ClientID == "" {
			rec.ClientID = config.DefaultOAuthClientID
		}
		if rec.ClientSecret == "" {
			rec.ClientSecret = config.DefaultOAuthClientSecret
		}
		if rec.TokenURI == "" {
			rec.TokenURI = config.DefaultOAuthTokenURL
		}
	}

	if rec.RefreshToken == "" && rec.AccessToken == "" {
		return nil, fmt.Errorf("credential record has neither refresh_token nor access token")
	}
	return rec, nil
}

// parseExpiry 接受带时区偏移、Z 后缀或无时区（按 UTC 解释）的 ISO 时间。
func parseExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.ParseInLocation("2006-01-02T15:04:05.999999999", raw, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized expiry format %q", raw)
}

// Expired reports whether the access token is stale at now, applying the
// given clock-skew margin. Records without an expiry count as expired so
// the next use forces a refresh.
func (r *Record) Expired(now time.Time, skew time.Duration) bool {
	if r.Expiry.IsZero() {
		return true
	}
	return !now.Before(r.Expiry.Add(-skew))
}

// Clone returns a copy safe to hand out across goroutines.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	dup := *r
	dup.Scopes = append([]string(nil), r.Scopes...)
	return &dup
}

type recordDisk struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Token        string   `json:"token,omitempty"`
	RefreshToken string   `json:"refresh_token,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
	TokenURI     string   `json:"token_uri"`
	Expiry       string   `json:"expiry,omitempty"`
	ProjectID    string   `json:"project_id,omitempty"`
	Email        string   `json:"email,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// EncodeJSON renders the record the way the official CLI writes it: the
// access token under the "token" key and expiry in canonical UTC form.
func (r *Record) EncodeJSON() ([]byte, error) {
	disk := recordDisk{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		Token:        r.AccessToken,
		RefreshToken: r.RefreshToken,
		Scopes:       r.Scopes,
		TokenURI:     r.TokenURI,
		ProjectID:    r.ProjectID,
		Email:        r.Email,
		CreatedAt:    r.CreatedAt,
	}
	if !r.Expiry.IsZero() {
		disk.Expiry = r.Expiry.UTC().Format(expiryLayout)
	}
	return json.MarshalIndent(disk, "", "  ")
}

type minimalDisk struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
}

// MinimalJSON 导出可长期复用的最小凭据，即换取 access token 所需的四个字段。
func (r *Record) MinimalJSON() ([]byte, error) {
	if r.RefreshToken == "" {
		return nil, fmt.Errorf("record has no refresh token to export")
	}
	return json.Marshal(minimalDisk{
		ClientID:     r.ClientID,
		ClientSecret: r.ClientSecret,
		RefreshToken: r.RefreshToken,
		TokenURI:     r.TokenURI,
	})
}
