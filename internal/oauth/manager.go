package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"geminicli2api-go/internal/config"
	apperrors "geminicli2api-go/internal/errors"
	"github.com/skratchdot/open-golang/open"
	"golang.org/x/oauth2"
)

const defaultUserInfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"

// ManagerOption customizes Manager creation.
type ManagerOption func(*Manager)

// Manager handles the installed-app OAuth flow: authorization URL
// construction, the localhost callback listener, code exchange, and refresh.
// Token-endpoint calls are direct POSTs with explicit fields.
type Manager struct {
	clientID         string
	clientSecret     string
	scopes           []string
	authURL          string
	tokenURL         string
	userInfoEndpoint string
	callbackPort     int
	callbackTimeout  time.Duration

	httpClient  *http.Client
	openBrowser func(url string) error
	now         func() time.Time
}

// NewManager creates an OAuth manager from the gateway configuration.
func NewManager(cfg config.OAuthConfig, opts ...ManagerOption) *Manager {
	m := &Manager{
		clientID:         cfg.ClientID,
		clientSecret:     cfg.ClientSecret,
		scopes:           append([]string(nil), cfg.Scopes...),
		authURL:          cfg.AuthURL,
		tokenURL:         cfg.TokenURL,
		userInfoEndpoint: defaultUserInfoEndpoint,
		callbackPort:     cfg.CallbackPort,
		callbackTimeout:  cfg.CallbackTimeout(),
		httpClient:       &http.Client{Timeout: 30 * time.Second},
		openBrowser:      open.Run,
		now:              time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// WithHTTPClient overrides the HTTP client used for token-endpoint calls.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithBrowserOpener overrides how the consent URL is opened (testing).
func WithBrowserOpener(opener func(url string) error) ManagerOption {
	return func(m *Manager) {
		if opener != nil {
			m.openBrowser = opener
		}
	}
}

// WithUserInfoEndpoint overrides the userinfo endpoint.
func WithUserInfoEndpoint(endpoint string) ManagerOption {
	return func(m *Manager) {
		if endpoint != "" {
			m.userInfoEndpoint = endpoint
		}
	}
}

// WithNowFunc overrides the clock used for expiry calculations (testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithCallbackTimeout overrides how long the callback listener waits.
func WithCallbackTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.callbackTimeout = d
		}
	}
}

func (m *Manager) redirectURI() string {
	return fmt.Sprintf("http://localhost:%d", m.callbackPort)
}

// AuthorizationURL builds the consent URL for the installed-app flow.
func (m *Manager) AuthorizationURL(state string) string {
	conf := &oauth2.Config{
		ClientID:     m.clientID,
		ClientSecret: m.clientSecret,
		RedirectURL:  m.redirectURI(),
		Scopes:       append([]string(nil), m.scopes...),
		Endpoint:     oauth2.Endpoint{AuthURL: m.authURL, TokenURL: m.tokenURL},
	}
	return conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "true"),
	)
}

// Exchange trades an authorization code for tokens.
func (m *Manager) Exchange(ctx context.Context, code string) (*Token, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"redirect_uri":  {m.redirectURI()},
		"grant_type":    {"authorization_code"},
	}
	return m.postToken(ctx, data)
}

// Refresh trades a refresh token for a fresh access token. The returned
// Token's RefreshToken is empty when the endpoint did not rotate it.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.NoRefreshToken()
	}
	data := url.Values{
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}
	return m.postToken(ctx, data)
}

func (m *Manager) postToken(ctx context.Context, data url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, apperrors.AuthFailed(fmt.Sprintf("build token request: %v", err))
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.AuthFailed(fmt.Sprintf("token endpoint unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.AuthFailed(fmt.Sprintf("token endpoint returned %d: %s", resp.StatusCode, string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, apperrors.AuthFailed(fmt.Sprintf("decode token response: %v", err))
	}
	if tr.AccessToken == "" {
		return nil, apperrors.AuthFailed("token response missing access_token")
	}

	tok := &Token{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
	}
	if tr.ExpiresIn > 0 {
		tok.Expiry = m.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// UserEmail retrieves the authenticated user's email address.
func (m *Manager) UserEmail(ctx context.Context, accessToken string) (string, error) {
	if accessToken == "" {
		return "", fmt.Errorf("access token is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.userInfoEndpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, string(body))
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode userinfo response: %w", err)
	}
	return info.Email, nil
}
