package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/campusswap/internal/clock"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/refund/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("refund.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

// Initiate queues a refund for the captured amount. Nothing is queued when
// no funds were captured, and a payment is queued at most once.
func (s *Service) Initiate(ctx context.Context, paymentID, orderID string, amount decimal.Decimal) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return fmt.Errorf("%w: payment id is required", paymentdomain.ErrRefundUnavailable)
	}
	if !amount.IsPositive() {
		s.log.Debug("refund skipped, nothing captured", zap.String("payment_id", paymentID))
		return nil
	}

	now := s.clock.Now()
	req := &domain.Request{
		ID:        s.genID.Generate(),
		Reference: "rf_" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		PaymentID: paymentID,
		OrderID:   orderID,
		Amount:    amount,
		Status:    domain.StatusRequested,
		CreatedAt: now,
	}
	inserted, err := s.repo.Insert(ctx, s.db, req)
	if err != nil {
		return fmt.Errorf("%w: %v", paymentdomain.ErrRefundUnavailable, err)
	}
	if !inserted {
		return nil
	}

	s.log.Info("refund requested",
		zap.String("reference", req.Reference),
		zap.String("payment_id", paymentID),
		zap.String("order_id", orderID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return nil
}
