package outcome

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successEvent() *domain.PaymentEvent {
	return &domain.PaymentEvent{
		RequestID: "req-1",
		PaymentID: "PAY_1",
		OrderID:   "ORD_1",
		Status:    domain.StatusSuccess,
		Amount:    decimal.RequireFromString("189.75"),
		Timestamp: "2025-03-01T12:00:00Z",
		Metadata:  domain.Metadata{ItemID: "ITEM_1", BuyerID: "BUY_1", SellerID: "SEL_1"},
	}
}

var storedParties = domain.OrderParties{ItemID: "ITEM_1", BuyerID: "BUY_1", SellerID: "SEL_1"}

func successHandler(rec *recorder, timeout time.Duration) *Pipeline {
	return NewSuccessHandler(SuccessDeps{
		Orders:     &fakeOrders{rec: rec, parties: storedParties},
		Locations:  &fakeLocations{rec: rec},
		Notifier:   &fakeNotifier{rec: rec},
		Reputation: &fakeReputation{rec: rec},
		Tokens:     &fakeTokens{rec: rec},
	}, func() time.Duration { return timeout }, nil, nil)
}

func failedHandler(rec *recorder) *Pipeline {
	return NewFailedHandler(FailedDeps{
		Orders:    &fakeOrders{rec: rec, parties: storedParties},
		Refunds:   &fakeRefunds{rec: rec},
		Notifier:  &fakeNotifier{rec: rec},
		Inventory: &fakeInventory{rec: rec},
	}, nil, nil, nil)
}

func TestSuccessHandlerRunsStepsInOrder(t *testing.T) {
	rec := newRecorder()
	h := successHandler(rec, time.Second)

	require.NoError(t, h.Handle(context.Background(), successEvent()))
	assert.Equal(t, []string{
		"order.update:PAYMENT_RECEIVED",
		"location.release",
		"order.parties",
		"notify:payment_received:SEL_1",
		"reputation:BUY_1",
		"notify:order_confirmed:BUY_1",
		"notify:order_confirmed:SEL_1",
		"tokens.issue",
	}, rec.Calls())
	assert.Equal(t, []string{
		StepUpdateOrderStatus,
		StepReleaseMeetingPoint,
		StepNotifySeller,
		StepIncrementBuyerTrust,
		StepSendConfirmations,
		StepIssueHandoffTokens,
	}, h.Steps())
}

func TestSuccessHandlerFallsBackToStoredParties(t *testing.T) {
	rec := newRecorder()
	h := successHandler(rec, time.Second)
	evt := successEvent()
	evt.Metadata = domain.Metadata{}

	require.NoError(t, h.Handle(context.Background(), evt))
	calls := rec.Calls()
	assert.Contains(t, calls, "notify:payment_received:SEL_1")
	assert.Contains(t, calls, "reputation:BUY_1")

	parties := 0
	for _, c := range calls {
		if c == "order.parties" {
			parties++
		}
	}
	assert.Equal(t, 1, parties)
}

func TestFailedHandlerIgnoresMetadataThatDisagreesWithOrder(t *testing.T) {
	rec := newRecorder()
	h := NewFailedHandler(FailedDeps{
		Orders:    &fakeOrders{rec: rec, parties: domain.OrderParties{ItemID: "ITEM_DB", BuyerID: "BUY_DB", SellerID: "SEL_DB"}},
		Refunds:   &fakeRefunds{rec: rec},
		Notifier:  &fakeNotifier{rec: rec},
		Inventory: &fakeInventory{rec: rec},
	}, nil, nil, nil)

	evt := successEvent()
	evt.Status = domain.StatusFailed
	evt.Metadata = domain.Metadata{ItemID: "SOMEONE_ELSES_ITEM", BuyerID: "X"}

	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, []string{
		"order.update:PAYMENT_FAILED",
		"refund.initiate",
		"order.parties",
		"notify:payment_failed:BUY_DB",
		"inventory.release:ITEM_DB",
	}, rec.Calls())
}

func TestMetadataFillsPartiesMissingOnOrder(t *testing.T) {
	rec := newRecorder()
	orders := &fakeOrders{rec: rec, parties: domain.OrderParties{ItemID: "ITEM_DB", BuyerID: "BUY_DB"}}
	evt := successEvent()

	parties, err := resolveParties(context.Background(), orders, evt)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderParties{ItemID: "ITEM_DB", BuyerID: "BUY_DB", SellerID: "SEL_1"}, parties)
	require.NotNil(t, evt.Parties)
	assert.Equal(t, parties, *evt.Parties)
}

func TestSuccessHandlerAbortsOnHardFailure(t *testing.T) {
	rec := newRecorder()
	boom := errors.New("smtp down")
	rec.fail["notify:payment_received:SEL_1"] = boom
	h := successHandler(rec, time.Second)

	err := h.Handle(context.Background(), successEvent())
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepNotifySeller, stepErr.Step)
	assert.ErrorIs(t, err, boom)
	assert.NotContains(t, rec.Calls(), "tokens.issue")
}

func TestStepTimeoutIsAFailure(t *testing.T) {
	rec := newRecorder()
	rec.block["location.release"] = true
	h := successHandler(rec, 20*time.Millisecond)

	err := h.Handle(context.Background(), successEvent())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepReleaseMeetingPoint, stepErr.Step)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFailedHandlerRefundFailureIsSoft(t *testing.T) {
	rec := newRecorder()
	rec.fail["refund.initiate"] = domain.ErrRefundUnavailable
	h := failedHandler(rec)

	evt := successEvent()
	evt.Status = domain.StatusFailed
	require.NoError(t, h.Handle(context.Background(), evt))
	assert.Equal(t, []string{
		"order.update:PAYMENT_FAILED",
		"refund.initiate",
		"order.parties",
		"notify:payment_failed:BUY_1",
		"inventory.release:ITEM_1",
	}, rec.Calls())
}

func TestFailedHandlerAbortsWhenOrderUpdateFails(t *testing.T) {
	rec := newRecorder()
	rec.fail["order.update:PAYMENT_FAILED"] = domain.ErrOrderNotFound
	h := failedHandler(rec)

	err := h.Handle(context.Background(), successEvent())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.Equal(t, []string{"order.update:PAYMENT_FAILED"}, rec.Calls())
}

func TestPipelineRecoversStepPanic(t *testing.T) {
	p := NewPipeline("test", []Step{{
		Name: "explode",
		Run: func(context.Context, *domain.PaymentEvent) error {
			panic("boom")
		},
	}}, nil, nil, nil)

	err := p.Run(context.Background(), successEvent())
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, "explode", stepErr.Step)
}

func TestPipelineRejectsNilEvent(t *testing.T) {
	p := NewPipeline("test", nil, nil, nil, nil)
	assert.ErrorIs(t, p.Run(context.Background(), nil), domain.ErrInvalidEvent)
}
