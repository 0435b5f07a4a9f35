package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Event is one trust adjustment, unique per (user, order).
type Event struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    string       `gorm:"not null" json:"user_id"`
	OrderID   string       `gorm:"not null" json:"order_id"`
	Delta     int          `gorm:"not null" json:"delta"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Event) TableName() string { return "reputation_events" }
