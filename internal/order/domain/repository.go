package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Order, error)
	// UpdatePaymentStatus refuses to touch an order already received under
	// another payment and returns the affected row count.
	UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id, status, paymentID string, at time.Time) (int64, error)
	MarkLocationReleased(ctx context.Context, db *gorm.DB, id string, at time.Time) (int64, error)
	InsertHandoffTokens(ctx context.Context, db *gorm.DB, tokens []HandoffToken) error
	ListHandoffTokens(ctx context.Context, db *gorm.DB, orderID string) ([]HandoffToken, error)
}
