package seed

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fixture ids used by the webhook harness.
const (
	HarnessBuyerID  = "USR_HARNESS_BUYER"
	HarnessSellerID = "USR_HARNESS_SELLER"

	HarnessSuccessItemID  = "ITEM_HARNESS_SUCCESS"
	HarnessSuccessOrderID = "ORD_HARNESS_SUCCESS"
	HarnessFailedItemID   = "ITEM_HARNESS_FAILED"
	HarnessFailedOrderID  = "ORD_HARNESS_FAILED"

	HarnessAmount = "189.99"
)

type user struct {
	ID          string
	Email       string
	DisplayName string
}

type item struct {
	ID       string
	SellerID string
	Title    string
	Status   string
}

type order struct {
	ID           string
	ItemID       string
	BuyerID      string
	SellerID     string
	Status       string
	Amount       decimal.Decimal
	MeetingPoint string
}

// EnsureHarnessFixtures seeds the buyer, seller, items and orders the harness
// scenarios pay for. Existing rows are left as they are.
func EnsureHarnessFixtures(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	amount := decimal.RequireFromString(HarnessAmount)
	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := []user{
			{ID: HarnessBuyerID, Email: "buyer@campusswap.test", DisplayName: "Harness Buyer"},
			{ID: HarnessSellerID, Email: "seller@campusswap.test", DisplayName: "Harness Seller"},
		}
		if err := insertIgnore(tx, "users", &users); err != nil {
			return err
		}

		items := []item{
			{ID: HarnessSuccessItemID, SellerID: HarnessSellerID, Title: "Desk lamp", Status: "RESERVED"},
			{ID: HarnessFailedItemID, SellerID: HarnessSellerID, Title: "Graphing calculator", Status: "RESERVED"},
		}
		if err := insertIgnore(tx, "items", &items); err != nil {
			return err
		}

		orders := []order{
			{ID: HarnessSuccessOrderID, ItemID: HarnessSuccessItemID, BuyerID: HarnessBuyerID, SellerID: HarnessSellerID, Status: "PENDING_PAYMENT", Amount: amount, MeetingPoint: "Student union, north entrance"},
			{ID: HarnessFailedOrderID, ItemID: HarnessFailedItemID, BuyerID: HarnessBuyerID, SellerID: HarnessSellerID, Status: "PENDING_PAYMENT", Amount: amount, MeetingPoint: "Library steps"},
		}
		return insertIgnore(tx, "orders", &orders)
	})
}

func insertIgnore(tx *gorm.DB, table string, rows interface{}) error {
	return tx.Table(table).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(rows).Error
}
