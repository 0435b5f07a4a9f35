package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/campusswap/internal/inventory/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Item, error) {
	var item domain.Item
	err := db.WithContext(ctx).Raw(
		`SELECT id, seller_id, title, status, created_at, updated_at FROM items WHERE id = ?`,
		id,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == "" {
		return nil, nil
	}
	return &item, nil
}

// UpdateStatus never moves a sold item.
func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id, status string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE items SET status = ?, updated_at = ? WHERE id = ? AND status <> ?`,
		status,
		at,
		id,
		domain.StatusSold,
	)
	return res.RowsAffected, res.Error
}
