package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/campusswap/internal/notification/domain"
	"github.com/smallbiznis/campusswap/internal/observability/logger"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Email email.Provider
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	email email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("notification.service"),
		repo:  p.Repo,
		email: p.Email,
	}
}

// Notify emails one user using the template named by the notification kind.
func (s *Service) Notify(ctx context.Context, n paymentdomain.Notification) error {
	userID := strings.TrimSpace(n.UserID)
	if userID == "" {
		return paymentdomain.ErrRecipientMissing
	}

	recipient, err := s.repo.FindRecipient(ctx, s.db, userID)
	if err != nil {
		return err
	}
	if recipient == nil {
		return fmt.Errorf("%w: %s", paymentdomain.ErrUserNotFound, userID)
	}
	if strings.TrimSpace(recipient.Email) == "" {
		return fmt.Errorf("%w: user %s has no email", paymentdomain.ErrRecipientMissing, userID)
	}

	name := recipient.DisplayName
	if name == "" {
		name = "there"
	}
	data := map[string]interface{}{
		"name":       name,
		"order_id":   n.OrderID,
		"payment_id": n.PaymentID,
		"amount":     n.Amount.StringFixed(2),
	}
	if err := s.email.SendTemplate(ctx, []string{recipient.Email}, string(n.Kind), data); err != nil {
		return fmt.Errorf("send %s notification: %w", n.Kind, err)
	}

	logger.WithContext(ctx, s.log).Info("notification sent",
		zap.String("user_id", userID),
		zap.String("order_id", n.OrderID),
		zap.String("kind", string(n.Kind)),
	)
	return nil
}
