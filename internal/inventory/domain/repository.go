package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Item, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id, status string, at time.Time) (int64, error)
}
