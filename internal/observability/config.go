package observability

import (
	"strings"

	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/observability/tracing"
)

const defaultServiceName = "campusswap"

// Config is the observability slice of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string
	LogFile   string

	OtelEnabled       bool
	OtlpEndpoint      string
	OtlpProtocol      string
	OtelSamplingRatio float64

	development bool
}

func FromAppConfig(cfg config.Config) Config {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = defaultServiceName
	}
	return Config{
		ServiceName:       name,
		Environment:       cfg.Environment,
		Version:           cfg.AppVersion,
		LogLevel:          cfg.LogLevel,
		LogFormat:         cfg.LogFormat,
		LogFile:           cfg.LogFile,
		OtelEnabled:       cfg.OtelEnabled,
		OtlpEndpoint:      strings.TrimSpace(cfg.OTLPEndpoint),
		OtlpProtocol:      cfg.OTLPProtocol,
		OtelSamplingRatio: cfg.OtelSamplingRatio,
		development:       cfg.IsDevelopment(),
	}
}

// Debug turns on verbose request logs and error stacks.
func (c Config) Debug() bool {
	return c.LogLevel == "debug" || c.development
}

func (c Config) Logger() logger.Config {
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               c.Debug(),
		File:                c.LogFile,
		IncludeCaller:       true,
		IncludeStackOnError: c.Debug(),
	}
}

func (c Config) Tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtlpEndpoint,
		ExporterProtocol: c.OtlpProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) Metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtlpEndpoint,
		ExporterProtocol: c.OtlpProtocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}
