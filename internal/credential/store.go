package credential

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"geminicli2api-go/internal/config"
	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/monitoring"
	"geminicli2api-go/internal/oauth"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// expirySkew guards against clock drift between the gateway and the token
// endpoint: tokens are refreshed this long before their nominal expiry.
const expirySkew = 30 * time.Second

// StoreOption customizes Store creation.
type StoreOption func(*Store)

// Store 持有网关唯一的一份 OAuth 凭据，负责加载、刷新与持久化。
// 加载优先级：GEMINI_CREDENTIALS 环境变量 → 凭据文件 → 交互式 OAuth。
type Store struct {
	oauth *oauth.Manager

	path             string
	inline           string
	allowInteractive bool
	clientID         string
	clientSecret     string
	tokenURI         string
	scopes           []string

	skew time.Duration
	now  func() time.Time

	mu      sync.RWMutex
	record  *Record
	fromEnv bool

	// refreshMu serializes token refreshes; losers reuse the winner's token.
	refreshMu sync.Mutex

	watchOnce sync.Once
	watcher   *fsnotify.Watcher
	reloadCh  chan struct{}
}

// NewStore wires a credential store against the OAuth manager.
func NewStore(credCfg config.CredentialsConfig, oauthCfg config.OAuthConfig, mgr *oauth.Manager, opts ...StoreOption) *Store {
	s := &Store{
		oauth:            mgr,
		path:             credCfg.File,
		inline:           credCfg.InlineJSON,
		allowInteractive: credCfg.AllowInteractive,
		clientID:         oauthCfg.ClientID,
		clientSecret:     oauthCfg.ClientSecret,
		tokenURI:         oauthCfg.TokenURL,
		scopes:           append([]string(nil), oauthCfg.Scopes...),
		skew:             expirySkew,
		now:              time.Now,
		reloadCh:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// WithClock overrides the time source (testing).
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSkew overrides the refresh-ahead margin.
func WithSkew(d time.Duration) StoreOption {
	return func(s *Store) {
		if d >= 0 {
			s.skew = d
		}
	}
}

// Load 按优先级获取凭据。环境变量凭据不回写磁盘；文件缺失或损坏时，
// 若允许交互式登录则发起 OAuth 流程并保存结果。
func (s *Store) Load(ctx context.Context) error {
	if s.inline != "" {
		rec, err := ParseRecord([]byte(s.inline))
		if err != nil {
			return apperrors.AuthFailed(fmt.Sprintf("GEMINI_CREDENTIALS is set but unusable: %v", err))
		}
		s.setRecord(rec, true)
		log.Info("credentials loaded from GEMINI_CREDENTIALS")
		return nil
	}

	rec, err := s.loadFile()
	if err == nil {
		s.setRecord(rec, false)
		log.Infof("credentials loaded from %s", s.path)
		return nil
	}
	if !os.IsNotExist(err) {
		log.WithError(err).Warnf("credential file %s unusable", s.path)
	}

	if !s.allowInteractive {
		return apperrors.AuthFailed("no credentials available and interactive login is disabled")
	}

	tok, err := s.oauth.Authorize(ctx)
	if err != nil {
		return err
	}
	rec = &Record{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Scopes:       append([]string(nil), s.scopes...),
		TokenURI:     s.tokenURI,
		Expiry:       tok.Expiry,
	}
	s.setRecord(rec, false)
	if err := s.Save(); err != nil {
		log.WithError(err).Warn("could not persist credentials after interactive login")
	}
	return nil
}

func (s *Store) loadFile() (*Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return ParseRecord(data)
}

func (s *Store) setRecord(rec *Record, fromEnv bool) {
	s.mu.Lock()
	s.record = rec
	s.fromEnv = fromEnv
	s.mu.Unlock()
}

// Snapshot returns a copy of the current record, or nil when nothing is loaded.
func (s *Store) Snapshot() *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.record.Clone()
}

// FromEnv reports whether the active record came from GEMINI_CREDENTIALS.
func (s *Store) FromEnv() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fromEnv
}

// ProjectID returns the project recorded alongside the credentials, if any.
func (s *Store) ProjectID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return ""
	}
	return s.record.ProjectID
}

// Token returns a valid access token, refreshing through the OAuth manager
// when the cached one is missing or inside the expiry skew window.
func (s *Store) Token(ctx context.Context) (string, error) {
	current, stale, err := s.currentToken()
	if err != nil {
		return "", err
	}
	if !stale {
		return current, nil
	}
	return s.refresh(ctx)
}

func (s *Store) currentToken() (token string, stale bool, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.record == nil {
		return "", false, apperrors.AuthFailed("no credentials loaded")
	}
	token = s.record.AccessToken
	stale = token == "" || s.record.Expired(s.now(), s.skew)
	return token, stale, nil
}

func (s *Store) refresh(ctx context.Context) (string, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	current, stale, err := s.currentToken()
	if err != nil {
		return "", err
	}
	if !stale {
		return current, nil
	}

	s.mu.RLock()
	refreshToken := ""
	if s.record != nil {
		refreshToken = s.record.RefreshToken
	}
	s.mu.RUnlock()

	tok, err := s.oauth.Refresh(ctx, refreshToken)
	if err != nil {
		monitoring.CredentialRefreshes.WithLabelValues("failure").Inc()
		return "", err
	}
	monitoring.CredentialRefreshes.WithLabelValues("success").Inc()

	s.mu.Lock()
	if s.record != nil {
		s.record.AccessToken = tok.AccessToken
		if tok.RefreshToken != "" {
			s.record.RefreshToken = tok.RefreshToken
		}
		s.record.Expiry = tok.Expiry
	}
	fromEnv := s.fromEnv
	s.mu.Unlock()

	if !fromEnv {
		if err := s.Save(); err != nil {
			log.WithError(err).Warn("could not persist refreshed credentials")
		}
	}
	return tok.AccessToken, nil
}

// SetProjectID records the resolved project and persists it. Env-sourced
// credentials only get the project injected into an existing file that
// lacks one; no file is created for them.
func (s *Store) SetProjectID(projectID string) {
	if projectID == "" {
		return
	}
	s.mu.Lock()
	if s.record == nil || s.record.ProjectID == projectID {
		s.mu.Unlock()
		return
	}
	s.record.ProjectID = projectID
	fromEnv := s.fromEnv
	s.mu.Unlock()

	if fromEnv {
		s.injectProjectID(projectID)
		return
	}
	if err := s.Save(); err != nil {
		log.WithError(err).Warn("could not persist project id")
	}
}

// injectProjectID 将发现的 project_id 写入已存在且缺少该字段的凭据文件。
func (s *Store) injectProjectID(projectID string) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	if gjson.GetBytes(data, "project_id").Exists() {
		return
	}
	updated, err := sjson.SetBytes(data, "project_id", projectID)
	if err != nil {
		log.WithError(err).Warn("could not inject project id into credential file")
		return
	}
	if err := writeFileAtomic(s.path, updated); err != nil {
		log.WithError(err).Warn("could not update credential file")
	}
}

// Save writes the record to the credential file atomically. Env-sourced
// records are never written back.
func (s *Store) Save() error {
	s.mu.RLock()
	rec := s.record.Clone()
	fromEnv := s.fromEnv
	s.mu.RUnlock()

	if rec == nil {
		return fmt.Errorf("no credentials to save")
	}
	if fromEnv {
		return nil
	}
	data, err := rec.EncodeJSON()
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	return writeFileAtomic(s.path, data)
}

func writeFileAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("prepare credential directory: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp credentials: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename credentials: %w", err)
	}
	return nil
}
