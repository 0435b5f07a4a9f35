package harness

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/observability"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/payment/idempotency"
	"github.com/smallbiznis/campusswap/internal/payment/incident"
	"github.com/smallbiznis/campusswap/internal/payment/signature"
	"github.com/smallbiznis/campusswap/internal/payment/webhook"
	"github.com/smallbiznis/campusswap/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "harness-secret"

type countingHandler struct {
	mu     sync.Mutex
	events []*domain.PaymentEvent
}

func (h *countingHandler) Handle(ctx context.Context, evt *domain.PaymentEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	return nil
}

func (h *countingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

func newWebhookServer(t *testing.T, secret string) (*httptest.Server, *countingHandler, *countingHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	success, failed := &countingHandler{}, &countingHandler{}
	clk := clock.SystemClock{}
	svc := webhook.NewService(webhook.Params{
		Log:         zap.NewNop(),
		Cfg:         config.Config{FreshnessWindow: 5 * time.Minute, IdempotencyTTL: time.Hour},
		Verifier:    signature.NewVerifier(secret),
		Incidents:   incident.NewLogger(zap.NewNop(), nil, clk),
		Idempotency: idempotency.NewMemoryStore(clk),
		Success:     success,
		Failed:      failed,
		Clock:       clk,
	})
	srv := server.NewServer(server.ServerParams{
		Gin:        server.NewEngine(observability.Config{LogLevel: "info"}, nil),
		Cfg:        config.Config{},
		Log:        zap.NewNop(),
		WebhookSvc: svc,
	})

	ts := httptest.NewServer(srv.Engine())
	t.Cleanup(ts.Close)
	return ts, success, failed
}

func TestComputeSignatureMatchesServerVerifier(t *testing.T) {
	p := Payload{
		PaymentID: "PAY_1",
		OrderID:   "ORD_1",
		Status:    "SUCCESS",
		Amount:    189.75,
		Timestamp: "2025-01-01T00:00:00Z",
	}
	fields := domain.SignedFields{
		PaymentID: p.PaymentID,
		OrderID:   p.OrderID,
		Status:    p.Status,
		Amount:    decimal.RequireFromString("189.75"),
		Timestamp: p.Timestamp,
	}

	assert.Equal(t, signature.Sign(fields, testSecret), ComputeSignature(p, testSecret))
	assert.Equal(t, "PAY_1|ORD_1|SUCCESS|189.75|2025-01-01T00:00:00Z", CanonicalString(p))
}

func TestCanonicalStringUsesShortestAmount(t *testing.T) {
	assert.Equal(t, "a|b|FAILED|100|t", CanonicalString(Payload{PaymentID: "a", OrderID: "b", Status: "FAILED", Amount: 100, Timestamp: "t"}))
	assert.Equal(t, "a|b|FAILED|0.5|t", CanonicalString(Payload{PaymentID: "a", OrderID: "b", Status: "FAILED", Amount: 0.5, Timestamp: "t"}))
}

func TestRunnerPassesAllScenarios(t *testing.T) {
	ts, success, failed := newWebhookServer(t, testSecret)

	report := NewRunner(Options{BaseURL: ts.URL, Secret: testSecret, Timeout: 5 * time.Second}, nil).Run(context.Background())

	require.Len(t, report.Results, 4)
	for _, res := range report.Results {
		assert.True(t, res.Passed, "%s expected %d got %d (%v)", res.Scenario, res.Expected, res.Got, res.Err)
		assert.NotEmpty(t, res.RequestID)
	}
	assert.True(t, report.OK())
	assert.Equal(t, 4, report.Passed)
	assert.Equal(t, 1, success.count())
	assert.Equal(t, 1, failed.count())
}

func TestRunnerReportsWrongSecret(t *testing.T) {
	ts, success, _ := newWebhookServer(t, "server-secret")

	report := NewRunner(Options{BaseURL: ts.URL, Secret: "other-secret"}, nil).Run(context.Background())

	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, ScenarioSuccessfulPayment, report.Results[0].Scenario)
	assert.False(t, report.Results[0].Passed)
	assert.Zero(t, success.count())
}

func TestRunnerUnreachableServer(t *testing.T) {
	report := NewRunner(Options{BaseURL: "http://127.0.0.1:1", Secret: testSecret, Timeout: 200 * time.Millisecond}, nil).Run(context.Background())

	assert.Equal(t, 4, report.Failed)
	for _, res := range report.Results {
		assert.Error(t, res.Err)
	}
}

func TestReportWriteFormats(t *testing.T) {
	report := Report{
		Results: []Result{
			{Scenario: ScenarioSuccessfulPayment, Expected: 200, Got: 200, Passed: true, RequestID: "req-1"},
			{Scenario: ScenarioTamperedPayload, Expected: 400, Got: 200, Passed: false},
		},
		Passed: 1,
		Failed: 1,
	}

	var text strings.Builder
	require.NoError(t, report.Write(&text, FormatText))
	assert.Contains(t, text.String(), "[PASS] successful_payment")
	assert.Contains(t, text.String(), "[FAIL] tampered_payload")
	assert.Contains(t, text.String(), "1 passed, 1 failed")

	var js strings.Builder
	require.NoError(t, report.Write(&js, FormatJSON))
	assert.Contains(t, js.String(), `"requestId": "req-1"`)

	var y strings.Builder
	require.NoError(t, report.Write(&y, FormatYAML))
	assert.Contains(t, y.String(), "scenario: tampered_payload")

	assert.Error(t, report.Write(&text, "xml"))
}
