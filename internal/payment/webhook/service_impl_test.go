package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/payment/idempotency"
	"github.com/smallbiznis/campusswap/internal/payment/incident"
	"github.com/smallbiznis/campusswap/internal/payment/signature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-gateway-secret"

var testNow = time.Date(2025, 1, 1, 0, 1, 0, 0, time.UTC)

type fakeHandler struct {
	mu      sync.Mutex
	events  []*domain.PaymentEvent
	err     error
	explode bool
}

func (h *fakeHandler) Handle(_ context.Context, evt *domain.PaymentEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, evt)
	if h.explode {
		panic("collaborator exploded")
	}
	return h.err
}

func (h *fakeHandler) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

type fakeIncidents struct {
	mu      sync.Mutex
	reasons []string
}

func (f *fakeIncidents) Log(_ context.Context, _ domain.WebhookPayload, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reasons = append(f.reasons, reason)
}

type fakeLocker struct {
	held     bool
	released []string
}

func (f *fakeLocker) TryLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	if f.held {
		return "", false, nil
	}
	return "token-" + key, true, nil
}

func (f *fakeLocker) Release(_ context.Context, key, token string) error {
	f.released = append(f.released, key)
	return nil
}

type fixture struct {
	svc       domain.Service
	success   *fakeHandler
	failed    *fakeHandler
	incidents *fakeIncidents
	clock     *clock.FakeClock
}

func newFixture(t *testing.T, opts ...func(*Params)) *fixture {
	t.Helper()
	f := &fixture{
		success:   &fakeHandler{},
		failed:    &fakeHandler{},
		incidents: &fakeIncidents{},
		clock:     clock.NewFakeClock(testNow),
	}
	p := Params{
		Cfg: config.Config{
			FreshnessWindow: 5 * time.Minute,
			IdempotencyTTL:  time.Hour,
		},
		Verifier:    signature.NewVerifier(testSecret),
		Incidents:   f.incidents,
		Idempotency: idempotency.NewMemoryStore(f.clock),
		Success:     f.success,
		Failed:      f.failed,
		Clock:       f.clock,
	}
	for _, opt := range opts {
		opt(&p)
	}
	f.svc = NewService(p)
	return f
}

type body map[string]interface{}

func signedPayload(status string) body {
	b := body{
		"paymentId": "PAY_1",
		"orderId":   "ORD_1",
		"status":    status,
		"amount":    189.75,
		"timestamp": "2025-01-01T00:00:00.000Z",
		"metadata":  body{"itemId": "ITEM_1", "buyerId": "BUY_1", "sellerId": "SEL_1"},
	}
	b["signature"] = sign(b)
	return b
}

func sign(b body) string {
	return signature.Sign(domain.SignedFields{
		PaymentID: b["paymentId"].(string),
		OrderID:   b["orderId"].(string),
		Status:    b["status"].(string),
		Amount:    decimal.NewFromFloat(b["amount"].(float64)),
		Timestamp: b["timestamp"].(string),
	}, testSecret)
}

func (f *fixture) send(t *testing.T, requestID string, b body) domain.Result {
	t.Helper()
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	return f.svc.Handle(context.Background(), requestID, raw)
}

func TestValidSuccessPayment(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Body.Success)
	assert.Equal(t, "ORD_1", res.Body.OrderID)
	assert.Equal(t, "PAY_1", res.Body.PaymentID)
	assert.Equal(t, "req-1", res.Body.RequestID)
	assert.Equal(t, MessagePaymentSucceeded, res.Body.Message)

	require.Equal(t, 1, f.success.Calls())
	assert.Equal(t, 0, f.failed.Calls())
	evt := f.success.events[0]
	assert.Equal(t, domain.StatusSuccess, evt.Status)
	assert.Equal(t, "189.75", evt.Amount.String())
	assert.Equal(t, "SEL_1", evt.Metadata.SellerID)
	assert.Empty(t, f.incidents.reasons)
}

func TestStatusRouting(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "req-failed", signedPayload("FAILED"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, MessagePaymentFailed, res.Body.Message)
	assert.Equal(t, 1, f.failed.Calls())
	assert.Equal(t, 0, f.success.Calls())

	res = f.send(t, "req-pending", signedPayload("PENDING"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Body.Success)
	assert.Equal(t, MessagePaymentPending, res.Body.Message)
	assert.Equal(t, "ORD_1", res.Body.OrderID)
	assert.Equal(t, 1, f.failed.Calls())
	assert.Equal(t, 0, f.success.Calls())
}

func TestUnknownStatus(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "req-1", signedPayload("REFUNDED"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.False(t, res.Body.Success)
	assert.Equal(t, MessageUnknownStatus, res.Body.Error)
	assert.Empty(t, f.incidents.reasons)
}

func TestInvalidSignatureLogsIncident(t *testing.T) {
	f := newFixture(t)
	b := signedPayload("SUCCESS")
	b["signature"] = "deadbeef"

	res := f.send(t, "req-1", b)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageInvalidSignature, res.Body.Error)
	assert.Equal(t, []string{incident.ReasonSignatureMismatch}, f.incidents.reasons)
	assert.Equal(t, 0, f.success.Calls())
}

func TestTamperedAmountRejected(t *testing.T) {
	f := newFixture(t)
	b := signedPayload("SUCCESS")
	b["amount"] = 1.00

	res := f.send(t, "req-1", b)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageInvalidSignature, res.Body.Error)
	assert.Len(t, f.incidents.reasons, 1)
	assert.Equal(t, 0, f.success.Calls())
}

func TestTamperedFieldsNeverLeakWhichField(t *testing.T) {
	for _, field := range []string{"paymentId", "orderId", "status", "timestamp"} {
		t.Run(field, func(t *testing.T) {
			f := newFixture(t)
			b := signedPayload("SUCCESS")
			switch field {
			case "status":
				b[field] = "FAILED"
			case "timestamp":
				b[field] = "2025-01-01T00:00:30.000Z"
			default:
				b[field] = b[field].(string) + "X"
			}

			res := f.send(t, "req-1", b)
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)
			assert.Equal(t, MessageInvalidSignature, res.Body.Error)
			assert.NotContains(t, res.Body.Error, field)
			assert.Equal(t, 0, f.success.Calls()+f.failed.Calls())
		})
	}
}

func TestMissingFieldNotAnIncident(t *testing.T) {
	f := newFixture(t)
	b := signedPayload("SUCCESS")
	delete(b, "orderId")

	res := f.send(t, "req-1", b)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageMissingFields, res.Body.Error)
	assert.Equal(t, "req-1", res.Body.RequestID)
	assert.Empty(t, f.incidents.reasons)
}

func TestNegativeAmountRejected(t *testing.T) {
	f := newFixture(t)
	b := signedPayload("SUCCESS")
	b["amount"] = -5.0
	b["signature"] = sign(b)

	res := f.send(t, "req-1", b)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageInvalidAmount, res.Body.Error)
}

func TestInvalidJSON(t *testing.T) {
	f := newFixture(t)
	for _, raw := range []string{"", "not json", "[1,2,3]", `{"paymentId":`} {
		res := f.svc.Handle(context.Background(), "", []byte(raw))
		assert.Equal(t, http.StatusBadRequest, res.StatusCode, raw)
		assert.Equal(t, MessageInvalidJSON, res.Body.Error, raw)
		assert.NotEmpty(t, res.Body.RequestID, raw)
	}
}

func TestRequestIDUniquePerCall(t *testing.T) {
	f := newFixture(t)
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		res := f.svc.Handle(context.Background(), "", []byte("{}"))
		require.NotEmpty(t, res.Body.RequestID)
		assert.False(t, seen[res.Body.RequestID])
		seen[res.Body.RequestID] = true
	}
}

func TestHandlerErrorReturns500(t *testing.T) {
	f := newFixture(t)
	f.success.err = errors.New("order store unavailable")

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.False(t, res.Body.Success)
	assert.Equal(t, MessageInternalError, res.Body.Error)
	assert.Equal(t, MessageProcessingFailed, res.Body.Message)
	assert.NotContains(t, res.Body.Message, "order store")
	assert.Equal(t, "req-1", res.Body.RequestID)

	f.success.err = nil
	res = f.send(t, "req-2", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusOK, res.StatusCode, "failed deliveries are not recorded")
	assert.Equal(t, 2, f.success.Calls())
}

func TestHandlerPanicReturns500(t *testing.T) {
	f := newFixture(t)
	f.failed.explode = true

	res := f.send(t, "req-1", signedPayload("FAILED"))
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)
	assert.Equal(t, MessageInternalError, res.Body.Error)
	assert.Equal(t, "req-1", res.Body.RequestID)
}

func TestDuplicateDeliveryReplaysResponse(t *testing.T) {
	f := newFixture(t)

	first := f.send(t, "req-1", signedPayload("SUCCESS"))
	require.Equal(t, http.StatusOK, first.StatusCode)

	second := f.send(t, "req-2", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusOK, second.StatusCode)
	assert.True(t, second.Replayed)
	assert.Equal(t, "req-2", second.Body.RequestID)
	assert.Equal(t, first.Body.Message, second.Body.Message)
	assert.Equal(t, 1, f.success.Calls())
}

func TestPendingIsNotRecorded(t *testing.T) {
	f := newFixture(t)

	res := f.send(t, "req-1", signedPayload("PENDING"))
	require.Equal(t, http.StatusOK, res.StatusCode)
	res = f.send(t, "req-2", signedPayload("PENDING"))
	assert.False(t, res.Replayed)

	res = f.send(t, "req-3", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.False(t, res.Replayed)
	assert.Equal(t, 1, f.success.Calls())
}

func TestStaleTimestampRejected(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(10 * time.Minute)

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageStaleTimestamp, res.Body.Error)
	assert.Equal(t, []string{incident.ReasonStaleTimestamp}, f.incidents.reasons)
	assert.Equal(t, 0, f.success.Calls())
}

func TestFreshnessWindowDisabled(t *testing.T) {
	f := newFixture(t, func(p *Params) { p.Cfg.FreshnessWindow = 0 })
	f.clock.Advance(365 * 24 * time.Hour)

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestFreshnessWindowFromPolicy(t *testing.T) {
	policy := config.NewStaticWebhookPolicyHolder(config.WebhookPolicy{FreshnessWindow: 30 * time.Second, StepTimeout: time.Second})
	f := newFixture(t, func(p *Params) { p.Policy = policy })

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageStaleTimestamp, res.Body.Error)
}

func TestUnparseableTimestampRejectedWhenWindowSet(t *testing.T) {
	f := newFixture(t)
	b := signedPayload("SUCCESS")
	b["timestamp"] = "yesterday"
	b["signature"] = sign(b)

	res := f.send(t, "req-1", b)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Equal(t, MessageStaleTimestamp, res.Body.Error)
}

func TestConcurrentDeliveryConflict(t *testing.T) {
	locker := &fakeLocker{held: true}
	f := newFixture(t, func(p *Params) { p.Locker = locker })

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Equal(t, MessageConcurrentDelivery, res.Body.Error)
	assert.Equal(t, 0, f.success.Calls())
}

func TestOrderLockReleasedAfterProcessing(t *testing.T) {
	locker := &fakeLocker{}
	f := newFixture(t, func(p *Params) { p.Locker = locker })

	res := f.send(t, "req-1", signedPayload("SUCCESS"))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []string{"webhook:order:lock:ORD_1"}, locker.released)
}
