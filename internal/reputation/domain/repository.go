package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	// InsertEvent reports false when the (user, order) pair was already recorded.
	InsertEvent(ctx context.Context, db *gorm.DB, evt *Event) (bool, error)
	AddTrust(ctx context.Context, db *gorm.DB, userID string, delta int) (int64, error)
	TrustScore(ctx context.Context, db *gorm.DB, userID string) (int, bool, error)
}
