package repository

import (
	"context"

	"github.com/smallbiznis/campusswap/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindRecipient(ctx context.Context, db *gorm.DB, userID string) (*domain.Recipient, error) {
	var recipient domain.Recipient
	err := db.WithContext(ctx).Raw(
		`SELECT id, email, display_name FROM users WHERE id = ?`,
		userID,
	).Scan(&recipient).Error
	if err != nil {
		return nil, err
	}
	if recipient.ID == "" {
		return nil, nil
	}
	return &recipient, nil
}
