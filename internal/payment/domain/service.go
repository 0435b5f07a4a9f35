package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Service processes a raw webhook body into an HTTP result.
type Service interface {
	Handle(ctx context.Context, requestID string, raw []byte) Result
}

// OrderStore requests order status transitions. Implementations must make a
// repeated transition with the same payment id a no-op.
type OrderStore interface {
	UpdateStatus(ctx context.Context, orderID string, status OrderStatus, paymentID string) error
	Parties(ctx context.Context, orderID string) (OrderParties, error)
}

// OrderParties identifies who is on each side of an order.
type OrderParties struct {
	ItemID   string
	BuyerID  string
	SellerID string
}

// LocationReleaser reveals the withheld meeting point to both parties.
type LocationReleaser interface {
	ReleaseMeetingPoint(ctx context.Context, orderID string) error
}

// Notifier delivers a message to one user.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// ReputationStore adjusts trust scores. Implementations apply at most one
// adjustment per (user, order).
type ReputationStore interface {
	IncrementTrust(ctx context.Context, userID, orderID string, delta int) error
}

// TokenIssuer issues the handoff/return verification tokens for an order.
type TokenIssuer interface {
	IssueHandoffTokens(ctx context.Context, orderID string) (HandoffTokens, error)
}

// RefundService starts a refund for captured funds.
type RefundService interface {
	Initiate(ctx context.Context, paymentID, orderID string, amount decimal.Decimal) error
}

// InventoryStore puts an item back on the market.
type InventoryStore interface {
	Release(ctx context.Context, itemID string) error
}

// IncidentLogger records verification failures. It never fails the request path.
type IncidentLogger interface {
	Log(ctx context.Context, payload WebhookPayload, reason string)
}

// IdempotencyStore remembers processed deliveries.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (*ProcessedWebhook, error)
	Save(ctx context.Context, key string, record ProcessedWebhook, ttl time.Duration) error
}

// OrderLocker serializes deliveries for the same order across replicas.
type OrderLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

// OutcomeHandler runs the side effects for one payment outcome.
type OutcomeHandler interface {
	Handle(ctx context.Context, evt *PaymentEvent) error
}
