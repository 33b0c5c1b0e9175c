package discovery

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"geminicli2api-go/internal/config"
	"geminicli2api-go/internal/constants"
	apperrors "geminicli2api-go/internal/errors"
	"geminicli2api-go/internal/monitoring"
	up "geminicli2api-go/internal/upstream/gemini"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// Onboarder makes sure the account behind the credential is enrolled in a
// Code Assist tier before any generation traffic is sent. Enrollment is
// checked once per project per process; the result is never persisted.
type Onboarder struct {
	cfg    *config.Config
	client *up.Client

	mu   sync.Mutex
	done map[string]struct{}
}

// NewOnboarder creates an onboarder using the given Code Assist client.
func NewOnboarder(cfg *config.Config, client *up.Client) *Onboarder {
	return &Onboarder{
		cfg:    cfg,
		client: client,
		done:   make(map[string]struct{}),
	}
}

type tierInfo struct {
	ID                 string
	UserDefinedProject bool
}

// Ensure verifies the account is onboarded for the project, running the
// onboardUser long-running operation when it is not. Subsequent calls for the
// same project return immediately.
func (o *Onboarder) Ensure(ctx context.Context, project string) error {
	o.mu.Lock()
	if _, ok := o.done[project]; ok {
		o.mu.Unlock()
		return nil
	}
	o.mu.Unlock()

	payload, err := json.Marshal(loadRequest{CloudAICompanionProject: project, Metadata: metadata(project)})
	if err != nil {
		return apperrors.OnboardingFailed("cannot encode loadCodeAssist request: " + err.Error())
	}
	raw, err := o.client.LoadCodeAssist(ctx, payload)
	if err != nil {
		monitoring.OnboardingRunsTotal.WithLabelValues("failed").Inc()
		return apperrors.OnboardingFailed("onboarding failed: " + err.Error())
	}

	if gjson.GetBytes(raw, "currentTier").Exists() {
		o.markDone(project)
		monitoring.OnboardingRunsTotal.WithLabelValues("already").Inc()
		log.WithFields(log.Fields{
			"component": "onboarder",
			"project":   project,
		}).Debug("account already onboarded")
		return nil
	}

	tier := selectTier(raw)
	if tier.UserDefinedProject && strings.TrimSpace(project) == "" {
		return apperrors.ProjectRequired("GOOGLE_CLOUD_PROJECT environment variable required.")
	}

	onboardPayload, err := json.Marshal(onboardRequest{
		TierID:                  tier.ID,
		CloudAICompanionProject: project,
		Metadata:                metadata(project),
	})
	if err != nil {
		return apperrors.OnboardingFailed("cannot encode onboardUser request: " + err.Error())
	}

	interval := o.cfg.Onboarding.PollInterval()
	if interval <= 0 {
		interval = constants.OnboardPollInterval
	}
	maxWait := o.cfg.Onboarding.MaxWait()
	if maxWait <= 0 {
		maxWait = constants.OnboardMaxWait
	}
	deadline := time.Now().Add(maxWait)

	log.WithFields(log.Fields{
		"component": "onboarder",
		"project":   project,
		"tier":      tier.ID,
	}).Info("onboarding account")

	for {
		raw, err := o.client.OnboardUser(ctx, onboardPayload)
		if err != nil {
			monitoring.OnboardingRunsTotal.WithLabelValues("failed").Inc()
			return apperrors.OnboardingFailed("onboarding failed: " + err.Error())
		}
		monitoring.OnboardingPollsTotal.Inc()

		if gjson.GetBytes(raw, "done").Bool() {
			o.markDone(project)
			monitoring.OnboardingRunsTotal.WithLabelValues("onboarded").Inc()
			log.WithFields(log.Fields{
				"component": "onboarder",
				"project":   project,
				"tier":      tier.ID,
			}).Info("onboarding complete")
			return nil
		}

		if !time.Now().Add(interval).Before(deadline) {
			monitoring.OnboardingRunsTotal.WithLabelValues("timeout").Inc()
			return apperrors.OnboardingTimeout("onboarding did not complete within " + maxWait.String())
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (o *Onboarder) markDone(project string) {
	o.mu.Lock()
	o.done[project] = struct{}{}
	o.mu.Unlock()
}

// selectTier picks the default allowed tier, falling back to the legacy tier
// which always requires a user-supplied project.
func selectTier(raw []byte) tierInfo {
	var picked tierInfo
	gjson.GetBytes(raw, "allowedTiers").ForEach(func(_, t gjson.Result) bool {
		if t.Get("isDefault").Bool() {
			picked = tierInfo{
				ID:                 t.Get("id").String(),
				UserDefinedProject: t.Get("userDefinedCloudaicompanionProject").Bool(),
			}
			return false
		}
		return true
	})
	if picked.ID == "" {
		picked = tierInfo{ID: "legacy-tier", UserDefinedProject: true}
	}
	return picked
}
