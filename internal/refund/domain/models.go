package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const StatusRequested = "REQUESTED"

// Request is a refund handed to the finance queue, one per payment.
type Request struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Reference string          `gorm:"not null" json:"reference"`
	PaymentID string          `gorm:"not null" json:"payment_id"`
	OrderID   string          `gorm:"not null" json:"order_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	Status    string          `gorm:"not null" json:"status"`
	CreatedAt time.Time       `json:"created_at"`
}

func (Request) TableName() string { return "refund_requests" }
