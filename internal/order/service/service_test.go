package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/migration/migrationtest"
	"github.com/smallbiznis/campusswap/internal/order/domain"
	"github.com/smallbiznis/campusswap/internal/order/repository"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := migrationtest.Open(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
	}).(*Service)

	migrationtest.Exec(t, conn,
		`INSERT INTO orders (id, item_id, buyer_id, seller_id, status, amount, meeting_point)
		 VALUES ('ORD_1', 'ITEM_1', 'BUYER_1', 'SELLER_1', ?, 25.00, 'Library steps')`,
		domain.StatusPendingPayment,
	)
	return svc, conn
}

func TestUpdateStatusIsIdempotentPerPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_1"))
	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_1"))

	order, err := repository.Provide().FindByID(ctx, svc.db, "ORD_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, string(paymentdomain.OrderStatusPaymentReceived), order.Status)
	assert.True(t, order.PaidWith("PAY_1"))
}

func TestUpdateStatusRejectsOtherPaymentAfterReceipt(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_1"))

	err := svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentFailed, "PAY_2")
	assert.True(t, errors.Is(err, paymentdomain.ErrOrderConflict))

	err = svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_2")
	assert.True(t, errors.Is(err, paymentdomain.ErrOrderConflict))
}

func TestUpdateStatusKeepsReceivedOrderOnLateFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_1"))
	require.NoError(t, svc.ReleaseMeetingPoint(ctx, "ORD_1"))

	err := svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentFailed, "PAY_1")
	assert.ErrorIs(t, err, paymentdomain.ErrOrderConflict)

	order, err := svc.repo.FindByID(ctx, svc.db, "ORD_1")
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, string(paymentdomain.OrderStatusPaymentReceived), order.Status)
	assert.True(t, order.PaidWith("PAY_1"))
}

func TestUpdateStatusAllowsRetryAfterFailure(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentFailed, "PAY_1"))
	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentFailed, "PAY_2"))
	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_3"))
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.UpdateStatus(context.Background(), "ORD_MISSING", paymentdomain.OrderStatusPaymentReceived, "PAY_1")
	assert.ErrorIs(t, err, paymentdomain.ErrOrderNotFound)

	err = svc.UpdateStatus(context.Background(), " ", paymentdomain.OrderStatusPaymentReceived, "PAY_1")
	assert.ErrorIs(t, err, paymentdomain.ErrOrderNotFound)
}

func TestParties(t *testing.T) {
	svc, _ := newTestService(t)

	parties, err := svc.Parties(context.Background(), "ORD_1")
	require.NoError(t, err)
	assert.Equal(t, paymentdomain.OrderParties{ItemID: "ITEM_1", BuyerID: "BUYER_1", SellerID: "SELLER_1"}, parties)

	_, err = svc.Parties(context.Background(), "ORD_MISSING")
	assert.ErrorIs(t, err, paymentdomain.ErrOrderNotFound)
}

func TestReleaseMeetingPointOnlyAfterPayment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.ReleaseMeetingPoint(ctx, "ORD_1"), paymentdomain.ErrOrderConflict)
	assert.ErrorIs(t, svc.ReleaseMeetingPoint(ctx, "ORD_MISSING"), paymentdomain.ErrOrderNotFound)

	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_1"))
	require.NoError(t, svc.ReleaseMeetingPoint(ctx, "ORD_1"))

	order, err := svc.repo.FindByID(ctx, svc.db, "ORD_1")
	require.NoError(t, err)
	require.NotNil(t, order.LocationReleasedAt)
	first := *order.LocationReleasedAt

	svc.clock.(*clock.FakeClock).Advance(time.Hour)
	require.NoError(t, svc.ReleaseMeetingPoint(ctx, "ORD_1"))

	order, err = svc.repo.FindByID(ctx, svc.db, "ORD_1")
	require.NoError(t, err)
	assert.True(t, first.Equal(*order.LocationReleasedAt))
}

func TestIssueHandoffTokensReturnsSameTokensOnRepeat(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.IssueHandoffTokens(ctx, "ORD_1")
	assert.ErrorIs(t, err, paymentdomain.ErrOrderConflict)

	require.NoError(t, svc.UpdateStatus(ctx, "ORD_1", paymentdomain.OrderStatusPaymentReceived, "PAY_1"))

	first, err := svc.IssueHandoffTokens(ctx, "ORD_1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.HandoffCode)
	assert.NotEmpty(t, first.ReturnCode)
	assert.NotEqual(t, first.HandoffCode, first.ReturnCode)

	second, err := svc.IssueHandoffTokens(ctx, "ORD_1")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stored, err := svc.repo.ListHandoffTokens(ctx, svc.db, "ORD_1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
