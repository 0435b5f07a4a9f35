package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/campusswap/internal/order/domain"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, item_id, buyer_id, seller_id, status, payment_id, amount, meeting_point,
		        location_released_at, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == "" {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id, status, paymentID string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, payment_id = ?, updated_at = ?
		 WHERE id = ? AND (status <> ? OR (status = ? AND payment_id = ?))`,
		status,
		paymentID,
		at,
		id,
		string(paymentdomain.OrderStatusPaymentReceived),
		status,
		paymentID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) MarkLocationReleased(ctx context.Context, db *gorm.DB, id string, at time.Time) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE orders SET location_released_at = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND location_released_at IS NULL`,
		at,
		at,
		id,
		string(paymentdomain.OrderStatusPaymentReceived),
	)
	return res.RowsAffected, res.Error
}

func (r *repo) InsertHandoffTokens(ctx context.Context, db *gorm.DB, tokens []domain.HandoffToken) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}, {Name: "kind"}},
			DoNothing: true,
		}).
		Create(&tokens).Error
}

func (r *repo) ListHandoffTokens(ctx context.Context, db *gorm.DB, orderID string) ([]domain.HandoffToken, error) {
	var tokens []domain.HandoffToken
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("kind asc").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}
