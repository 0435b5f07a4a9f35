package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// Insert reports false when a request for the payment already exists.
	Insert(ctx context.Context, db *gorm.DB, req *Request) (bool, error)
	FindByPaymentID(ctx context.Context, db *gorm.DB, paymentID string) (*Request, error)
}
