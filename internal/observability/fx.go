package observability

import (
	"github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
)

// Module provides the logger, tracer provider, webhook meters and HTTP
// metrics. The tracer provider is forced so the global propagator is set
// even when nothing else asks for it.
var Module = fx.Module("observability",
	fx.Provide(
		FromAppConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
)
