// Package incident records webhook verification failures. Incidents only go
// to the log sink and the security incident counter.
package incident

import (
	"context"

	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	ReasonSignatureMismatch = "signature_mismatch"
	ReasonStaleTimestamp    = "stale_timestamp"
)

const signaturePrefixLen = 8

type Logger struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	clock   clock.Clock
}

func NewLogger(log *zap.Logger, m *metrics.Metrics, clk clock.Clock) *Logger {
	if log == nil {
		log = zap.NewNop()
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Logger{log: log.Named("security"), metrics: m, clock: clk}
}

// Log never fails; a broken sink must not change the webhook response.
func (l *Logger) Log(ctx context.Context, payload domain.WebhookPayload, reason string) {
	inc := l.incident(payload, reason)

	logger.WithContext(ctx, l.log).Warn("security_incident",
		zap.String("severity", inc.Severity),
		zap.String("type", inc.Type),
		zap.String("reason", inc.Reason),
		zap.Time("incident_at", inc.Timestamp),
		zap.Object("payload", redactedPayload(inc.Payload)),
	)
	l.metrics.RecordSecurityIncident(ctx, reason)
}

func (l *Logger) incident(payload domain.WebhookPayload, reason string) domain.SecurityIncident {
	return domain.SecurityIncident{
		Timestamp: l.clock.Now(),
		Reason:    reason,
		Payload:   payload,
		Severity:  domain.IncidentSeverityHigh,
		Type:      domain.IncidentTypeSignatureVerification,
	}
}

type redactedPayload domain.WebhookPayload

func (p redactedPayload) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("payment_id", p.PaymentID)
	enc.AddString("order_id", p.OrderID)
	enc.AddString("status", string(p.Status))
	enc.AddString("amount", p.Amount.String())
	enc.AddString("timestamp", p.Timestamp)
	enc.AddString("signature_prefix", truncate(p.Signature, signaturePrefixLen))
	if p.Metadata != nil {
		enc.AddString("item_id", p.Metadata.ItemID)
		enc.AddString("buyer_id", p.Metadata.BuyerID)
		enc.AddString("seller_id", p.Metadata.SellerID)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ domain.IncidentLogger = (*Logger)(nil)
