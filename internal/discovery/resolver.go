package discovery

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"geminicli2api-go/internal/config"
	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/monitoring"
	up "geminicli2api-go/internal/upstream/gemini"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ProjectStore is the slice of the credential store the resolver needs:
// the project id persisted alongside the OAuth record.
type ProjectStore interface {
	ProjectID() string
	SetProjectID(projectID string)
}

// ProjectResolver 按优先级解析 Google Cloud 项目 ID：
// GOOGLE_CLOUD_PROJECT 环境变量 → 进程内缓存 → 凭据文件 project_id →
// loadCodeAssist 远程发现。解析结果会回写到凭据记录。
type ProjectResolver struct {
	cfg    *config.Config
	store  ProjectStore
	client *up.Client

	mu     sync.RWMutex
	cached string
}

// NewProjectResolver creates a resolver backed by the given credential store
// and Code Assist client.
func NewProjectResolver(cfg *config.Config, store ProjectStore, client *up.Client) *ProjectResolver {
	return &ProjectResolver{
		cfg:    cfg,
		store:  store,
		client: client,
	}
}

// Resolve returns the project id to bill upstream calls against. The
// environment override always wins; a remote discovery result is cached for
// the process lifetime and persisted into the credential record.
func (r *ProjectResolver) Resolve(ctx context.Context) (string, error) {
	if project := strings.TrimSpace(r.cfg.Upstream.ProjectID); project != "" {
		r.remember(project)
		monitoring.ProjectResolutionsTotal.WithLabelValues("env").Inc()
		return project, nil
	}

	r.mu.RLock()
	cached := r.cached
	r.mu.RUnlock()
	if cached != "" {
		monitoring.ProjectResolutionsTotal.WithLabelValues("cache").Inc()
		return cached, nil
	}

	if project := strings.TrimSpace(r.store.ProjectID()); project != "" {
		r.mu.Lock()
		r.cached = project
		r.mu.Unlock()
		monitoring.ProjectResolutionsTotal.WithLabelValues("credential").Inc()
		log.WithFields(log.Fields{
			"component": "project_resolver",
			"source":    "credential",
			"project":   project,
		}).Debug("using project id from credential record")
		return project, nil
	}

	project, err := r.discover(ctx)
	if err != nil {
		return "", err
	}
	r.remember(project)
	monitoring.ProjectResolutionsTotal.WithLabelValues("remote").Inc()
	log.WithFields(log.Fields{
		"component": "project_resolver",
		"source":    "remote",
		"project":   project,
	}).Info("discovered project id")
	return project, nil
}

// remember caches the project and persists it into the credential record.
func (r *ProjectResolver) remember(project string) {
	r.mu.Lock()
	r.cached = project
	r.mu.Unlock()
	r.store.SetProjectID(project)
}

// discover asks loadCodeAssist which cloudaicompanion project the account is
// bound to. The probe carries client metadata only; no project is claimed.
func (r *ProjectResolver) discover(ctx context.Context) (string, error) {
	payload, err := json.Marshal(loadRequest{Metadata: metadata("")})
	if err != nil {
		return "", apperrors.ProjectUndiscoverable("cannot encode loadCodeAssist probe: " + err.Error())
	}

	start := time.Now()
	raw, err := r.client.LoadCodeAssist(ctx, payload)
	monitoring.ProjectDiscoveryDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		log.WithError(err).WithField("component", "project_resolver").Error("project discovery call failed")
		return "", apperrors.ProjectUndiscoverable("failed to discover project id: " + err.Error())
	}

	project := strings.TrimSpace(gjson.GetBytes(raw, "cloudaicompanionProject").String())
	if project == "" {
		return "", apperrors.ProjectUndiscoverable("no cloudaicompanion project in the loadCodeAssist response; set GOOGLE_CLOUD_PROJECT")
	}
	return project, nil
}
