package config

import "go.uber.org/fx"

var Module = fx.Module("config",
	fx.Provide(
		LoadValidated,
		NewWebhookPolicyHolder,
	),
)

// LoadValidated loads the configuration and refuses to start on an invalid one.
func LoadValidated() (Config, error) {
	cfg := Load()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
