package observability

import (
	"testing"

	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestFromAppConfig(t *testing.T) {
	cfg := FromAppConfig(config.Config{
		Environment:       "production",
		AppVersion:        "1.2.3",
		LogLevel:          "info",
		LogFormat:         "json",
		OtelEnabled:       true,
		OTLPEndpoint:      " collector:4317 ",
		OTLPProtocol:      "grpc",
		OtelSamplingRatio: 0.5,
	})

	assert.Equal(t, defaultServiceName, cfg.ServiceName)
	assert.False(t, cfg.Debug())
	assert.Equal(t, "collector:4317", cfg.Tracing().ExporterEndpoint)
	assert.Equal(t, 0.5, cfg.Tracing().SamplingRatio)
	assert.True(t, cfg.Metrics().Enabled)
	assert.Equal(t, "1.2.3", cfg.Logger().Version)
	assert.False(t, cfg.Logger().IncludeStackOnError)
}

func TestDebugInDevelopment(t *testing.T) {
	assert.True(t, FromAppConfig(config.Config{AppName: "cs", Environment: "development", LogLevel: "info"}).Debug())
	assert.True(t, Config{LogLevel: "debug"}.Debug())
	assert.False(t, Config{LogLevel: "warn"}.Debug())
}
