package domain

import "time"

const (
	StatusAvailable = "AVAILABLE"
	StatusReserved  = "RESERVED"
	StatusSold      = "SOLD"
)

type Item struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	SellerID  string    `gorm:"not null" json:"seller_id"`
	Title     string    `json:"title"`
	Status    string    `gorm:"not null" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
