package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindRecipient(ctx context.Context, db *gorm.DB, userID string) (*Recipient, error)
}
