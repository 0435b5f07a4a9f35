package repository

import (
	"context"

	"github.com/smallbiznis/campusswap/internal/reputation/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, evt *domain.Event) (bool, error) {
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "order_id"}},
			DoNothing: true,
		}).
		Create(evt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) AddTrust(ctx context.Context, db *gorm.DB, userID string, delta int) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE users SET trust_score = trust_score + ? WHERE id = ?`,
		delta,
		userID,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) TrustScore(ctx context.Context, db *gorm.DB, userID string) (int, bool, error) {
	var row struct {
		ID         string
		TrustScore int
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, trust_score FROM users WHERE id = ?`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	return row.TrustScore, row.ID != "", nil
}
