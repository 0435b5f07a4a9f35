package tracing

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/campusswap/internal/observability/context"
	"github.com/smallbiznis/campusswap/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// HeaderReplayed mirrors the header the webhook handler sets on replays.
const HeaderReplayed = "Idempotent-Replayed"

// GinMiddleware opens a server span per request. It must run after the
// request log middleware so the request and correlation ids are present.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("campusswap/http")
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		ids := SafeAttributes(
			attribute.String("request_id", obscontext.RequestIDFromContext(ctx)),
			attribute.String("correlation_id", correlation.ExtractCorrelationID(ctx)),
		)
		span.SetAttributes(ids...)
		ctx = withIDBaggage(ctx, ids)

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
			attribute.Bool("webhook.replayed", c.Writer.Header().Get(HeaderReplayed) == "true"),
		)

		switch {
		case status >= http.StatusInternalServerError:
			if lastErr := c.Errors.Last(); lastErr != nil {
				if safeErr := SafeError(lastErr.Err); safeErr != nil {
					span.RecordError(safeErr)
				}
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		case status == http.StatusTooManyRequests:
			span.AddEvent("throttled")
		}
	}
}

func withIDBaggage(ctx context.Context, attrs []attribute.KeyValue) context.Context {
	members := make([]baggage.Member, 0, len(attrs))
	for _, kv := range attrs {
		if kv.Value.AsString() == "" {
			continue
		}
		m, err := baggage.NewMember(string(kv.Key), kv.Value.AsString())
		if err != nil {
			continue
		}
		members = append(members, m)
	}
	if len(members) == 0 {
		return ctx
	}
	bag, err := baggage.New(members...)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}
