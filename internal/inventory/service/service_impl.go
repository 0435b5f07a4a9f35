package service

import (
	"context"
	"strings"

	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/inventory/domain"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
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
		log:   p.Log.Named("inventory.service"),
		repo:  p.Repo,
		clock: clk,
	}
}

// Release puts the item back on the market. Releasing an available item is a
// no-op and a sold item stays sold.
func (s *Service) Release(ctx context.Context, itemID string) error {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return paymentdomain.ErrItemNotFound
	}

	affected, err := s.repo.UpdateStatus(ctx, s.db, itemID, domain.StatusAvailable, s.clock.Now())
	if err != nil {
		return err
	}
	if affected == 0 {
		item, err := s.repo.FindByID(ctx, s.db, itemID)
		if err != nil {
			return err
		}
		if item == nil {
			return paymentdomain.ErrItemNotFound
		}
		if item.Status == domain.StatusSold {
			s.log.Warn("sold item not released", zap.String("item_id", itemID))
			return nil
		}
	}

	s.log.Info("item released", zap.String("item_id", itemID))
	return nil
}
