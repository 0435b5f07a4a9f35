package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

const StatusPendingPayment = "PENDING_PAYMENT"

type Order struct {
	ID                 string          `gorm:"primaryKey" json:"id"`
	ItemID             string          `gorm:"not null" json:"item_id"`
	BuyerID            string          `gorm:"not null" json:"buyer_id"`
	SellerID           string          `gorm:"not null" json:"seller_id"`
	Status             string          `gorm:"not null" json:"status"`
	PaymentID          *string         `json:"payment_id,omitempty"`
	Amount             decimal.Decimal `gorm:"type:numeric(12,2)" json:"amount"`
	MeetingPoint       string          `json:"-"`
	LocationReleasedAt *time.Time      `json:"location_released_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// PaidWith reports whether the order already settled with paymentID.
func (o Order) PaidWith(paymentID string) bool {
	return o.PaymentID != nil && *o.PaymentID == paymentID
}

const (
	TokenKindHandoff = "handoff"
	TokenKindReturn  = "return"
)

// HandoffToken is the QR payload scanned when the item changes hands.
type HandoffToken struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID   string       `gorm:"not null" json:"order_id"`
	Kind      string       `gorm:"not null" json:"kind"`
	Token     string       `gorm:"not null" json:"token"`
	CreatedAt time.Time    `json:"created_at"`
}
