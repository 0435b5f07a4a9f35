package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// WebhookPolicy holds the runtime-tunable webhook limits.
type WebhookPolicy struct {
	FreshnessWindow time.Duration `mapstructure:"freshnessWindow"`
	StepTimeout     time.Duration `mapstructure:"stepTimeout"`
}

// DefaultWebhookPolicy seeds the policy from environment configuration.
func DefaultWebhookPolicy(cfg Config) WebhookPolicy {
	return WebhookPolicy{
		FreshnessWindow: cfg.FreshnessWindow,
		StepTimeout:     cfg.StepTimeout,
	}
}

// WebhookPolicyHolder serves the current policy and swaps it when webhook.yml changes.
type WebhookPolicyHolder struct {
	current atomic.Value // holds WebhookPolicy
}

// NewStaticWebhookPolicyHolder returns a holder that never reloads.
func NewStaticWebhookPolicyHolder(policy WebhookPolicy) *WebhookPolicyHolder {
	holder := &WebhookPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

// NewWebhookPolicyHolder reads webhook.yml from the config search path and
// watches it for changes. A missing file falls back to cfg.
func NewWebhookPolicyHolder(cfg Config, log *zap.Logger) (*WebhookPolicyHolder, error) {
	v := viper.New()
	v.SetConfigName("webhook")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/campusswap")
	v.AddConfigPath(".")
	return newWebhookPolicyHolder(v, cfg, log)
}

func newWebhookPolicyHolder(v *viper.Viper, cfg Config, log *zap.Logger) (*WebhookPolicyHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}

	v.SetEnvPrefix("CAMPUSSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultWebhookPolicy(cfg)
	v.SetDefault("webhook.freshnessWindow", defaults.FreshnessWindow)
	v.SetDefault("webhook.stepTimeout", defaults.StepTimeout)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	policy, err := decodeWebhookPolicy(v)
	if err != nil {
		return nil, err
	}

	holder := NewStaticWebhookPolicyHolder(policy)
	if !fileLoaded {
		return holder, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeWebhookPolicy(v)
		if err != nil {
			log.Warn("webhook policy reload ignored", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("webhook policy reloaded",
			zap.String("file", e.Name),
			zap.Duration("freshness_window", updated.FreshnessWindow),
			zap.Duration("step_timeout", updated.StepTimeout),
		)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *WebhookPolicyHolder) Get() WebhookPolicy {
	return h.current.Load().(WebhookPolicy)
}

func decodeWebhookPolicy(v *viper.Viper) (WebhookPolicy, error) {
	policy := WebhookPolicy{
		FreshnessWindow: v.GetDuration("webhook.freshnessWindow"),
		StepTimeout:     v.GetDuration("webhook.stepTimeout"),
	}
	if err := validateWebhookPolicy(policy); err != nil {
		return WebhookPolicy{}, err
	}
	return policy, nil
}

func validateWebhookPolicy(p WebhookPolicy) error {
	if p.StepTimeout <= 0 {
		return errors.New("webhook.stepTimeout must be positive")
	}
	if p.FreshnessWindow < 0 {
		return errors.New("webhook.freshnessWindow cannot be negative")
	}
	return nil
}
