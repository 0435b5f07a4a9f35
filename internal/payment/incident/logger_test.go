package incident

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogEmitsHighSeverityIncident(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	l := NewLogger(zap.New(core), nil, clock.NewFakeClock(at))

	payload := domain.WebhookPayload{
		PaymentID: "PAY_1",
		OrderID:   "ORD_1",
		Status:    domain.StatusSuccess,
		Amount:    decimal.RequireFromString("189.75"),
		Timestamp: "2025-03-01T12:00:00Z",
		Signature: "deadbeefcafebabe0123456789",
		Metadata:  &domain.Metadata{ItemID: "ITEM_1", BuyerID: "BUY_1", SellerID: "SEL_1"},
	}
	l.Log(context.Background(), payload, ReasonSignatureMismatch)

	entries := logs.FilterMessage("security_incident").All()
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, domain.IncidentSeverityHigh, fields["severity"])
	assert.Equal(t, domain.IncidentTypeSignatureVerification, fields["type"])
	assert.Equal(t, ReasonSignatureMismatch, fields["reason"])
	assert.Equal(t, at, fields["incident_at"])

	redacted, ok := fields["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "PAY_1", redacted["payment_id"])
	assert.Equal(t, "189.75", redacted["amount"])
	assert.Equal(t, "deadbeef", redacted["signature_prefix"])
	assert.NotContains(t, redacted, "signature")
}

func TestLogToleratesNilDependencies(t *testing.T) {
	l := NewLogger(nil, nil, nil)
	l.Log(context.Background(), domain.WebhookPayload{}, ReasonStaleTimestamp)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 8))
	assert.Equal(t, "abcdefgh", truncate("abcdefghij", 8))
}
