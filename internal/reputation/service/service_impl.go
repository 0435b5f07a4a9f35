package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/campusswap/internal/clock"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/reputation/domain"
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
		log:   p.Log.Named("reputation.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

// IncrementTrust applies delta once per (user, order). The event row and the
// score change commit together.
func (s *Service) IncrementTrust(ctx context.Context, userID, orderID string, delta int) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return paymentdomain.ErrUserNotFound
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inserted, err := s.repo.InsertEvent(ctx, tx, &domain.Event{
			ID:        s.genID.Generate(),
			UserID:    userID,
			OrderID:   orderID,
			Delta:     delta,
			CreatedAt: s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if !inserted {
			return nil
		}

		affected, err := s.repo.AddTrust(ctx, tx, userID, delta)
		if err != nil {
			return err
		}
		if affected == 0 {
			return paymentdomain.ErrUserNotFound
		}

		s.log.Info("trust score incremented",
			zap.String("user_id", userID),
			zap.String("order_id", orderID),
			zap.Int("delta", delta),
		)
		return nil
	})
}
