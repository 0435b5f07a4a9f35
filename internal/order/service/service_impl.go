package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/order/domain"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
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
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

// UpdateStatus moves the order to status for paymentID. Repeating a
// transition with the same payment is a no-op. A received order never leaves
// PAYMENT_RECEIVED: any other transition is reported as a conflict.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, status paymentdomain.OrderStatus, paymentID string) error {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return paymentdomain.ErrOrderNotFound
	}

	affected, err := s.repo.UpdatePaymentStatus(ctx, s.db, orderID, string(status), paymentID, s.clock.Now())
	if err != nil {
		return err
	}
	if affected > 0 {
		s.log.Info("order status updated",
			zap.String("order_id", orderID),
			zap.String("status", string(status)),
			zap.String("payment_id", paymentID),
		)
		return nil
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return paymentdomain.ErrOrderNotFound
	}
	if order.Status == string(status) && order.PaidWith(paymentID) {
		return nil
	}
	return fmt.Errorf("%w: order %s is already %s", paymentdomain.ErrOrderConflict, orderID, order.Status)
}

func (s *Service) Parties(ctx context.Context, orderID string) (paymentdomain.OrderParties, error) {
	order, err := s.repo.FindByID(ctx, s.db, strings.TrimSpace(orderID))
	if err != nil {
		return paymentdomain.OrderParties{}, err
	}
	if order == nil {
		return paymentdomain.OrderParties{}, paymentdomain.ErrOrderNotFound
	}
	return paymentdomain.OrderParties{
		ItemID:   order.ItemID,
		BuyerID:  order.BuyerID,
		SellerID: order.SellerID,
	}, nil
}

// ReleaseMeetingPoint stamps the release time once. The meeting point is
// only revealed for paid orders.
func (s *Service) ReleaseMeetingPoint(ctx context.Context, orderID string) error {
	affected, err := s.repo.MarkLocationReleased(ctx, s.db, orderID, s.clock.Now())
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return paymentdomain.ErrOrderNotFound
	}
	if order.Status != string(paymentdomain.OrderStatusPaymentReceived) {
		return fmt.Errorf("%w: meeting point withheld while order is %s", paymentdomain.ErrOrderConflict, order.Status)
	}
	return nil
}

// IssueHandoffTokens creates the pickup and return codes for a paid order.
// Reissuing returns the codes created the first time.
func (s *Service) IssueHandoffTokens(ctx context.Context, orderID string) (paymentdomain.HandoffTokens, error) {
	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return paymentdomain.HandoffTokens{}, err
	}
	if order == nil {
		return paymentdomain.HandoffTokens{}, paymentdomain.ErrOrderNotFound
	}
	if order.Status != string(paymentdomain.OrderStatusPaymentReceived) {
		return paymentdomain.HandoffTokens{}, fmt.Errorf("%w: tokens withheld while order is %s", paymentdomain.ErrOrderConflict, order.Status)
	}

	now := s.clock.Now()
	candidates := []domain.HandoffToken{
		{ID: s.genID.Generate(), OrderID: orderID, Kind: domain.TokenKindHandoff, Token: uuid.NewString(), CreatedAt: now},
		{ID: s.genID.Generate(), OrderID: orderID, Kind: domain.TokenKindReturn, Token: uuid.NewString(), CreatedAt: now},
	}
	if err := s.repo.InsertHandoffTokens(ctx, s.db, candidates); err != nil {
		return paymentdomain.HandoffTokens{}, err
	}

	stored, err := s.repo.ListHandoffTokens(ctx, s.db, orderID)
	if err != nil {
		return paymentdomain.HandoffTokens{}, err
	}
	tokens := paymentdomain.HandoffTokens{OrderID: orderID}
	for _, t := range stored {
		switch t.Kind {
		case domain.TokenKindHandoff:
			tokens.HandoffCode = t.Token
		case domain.TokenKindReturn:
			tokens.ReturnCode = t.Token
		}
	}
	if tokens.HandoffCode == "" || tokens.ReturnCode == "" {
		return paymentdomain.HandoffTokens{}, fmt.Errorf("handoff tokens incomplete for order %s", orderID)
	}
	return tokens, nil
}
