package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the payment outcome reported by the gateway.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusPending Status = "PENDING"
)

// OrderStatus is the order transition the webhook requests from the order store.
type OrderStatus string

const (
	OrderStatusPaymentReceived OrderStatus = "PAYMENT_RECEIVED"
	OrderStatusPaymentFailed   OrderStatus = "PAYMENT_FAILED"
)

// Metadata is passed through from the gateway and is not validated structurally.
type Metadata struct {
	ItemID   string `json:"itemId,omitempty"`
	BuyerID  string `json:"buyerId,omitempty"`
	SellerID string `json:"sellerId,omitempty"`
}

// WebhookPayload is the inbound gateway body. It is untrusted until the
// signature verifier accepts it.
type WebhookPayload struct {
	PaymentID string          `json:"paymentId"`
	OrderID   string          `json:"orderId"`
	Status    Status          `json:"status"`
	Amount    decimal.Decimal `json:"amount"`
	Timestamp string          `json:"timestamp"`
	Signature string          `json:"signature"`
	Metadata  *Metadata       `json:"metadata,omitempty"`
}

// SignedFields returns every field covered by the signature.
func (p WebhookPayload) SignedFields() SignedFields {
	return SignedFields{
		PaymentID: p.PaymentID,
		OrderID:   p.OrderID,
		Status:    string(p.Status),
		Amount:    p.Amount,
		Timestamp: p.Timestamp,
	}
}

// SignedFields is the canonical field set of a webhook signature.
type SignedFields struct {
	PaymentID string
	OrderID   string
	Status    string
	Amount    decimal.Decimal
	Timestamp string
}

// PaymentEvent is a verified webhook handed to the outcome handlers.
type PaymentEvent struct {
	RequestID string
	PaymentID string
	OrderID   string
	Status    Status
	Amount    decimal.Decimal
	Timestamp string
	Metadata  Metadata

	// Parties is filled from the order store by the first step that needs it.
	Parties *OrderParties
}

// NewPaymentEvent builds the handler input from a verified payload.
func NewPaymentEvent(requestID string, p WebhookPayload) *PaymentEvent {
	evt := &PaymentEvent{
		RequestID: requestID,
		PaymentID: p.PaymentID,
		OrderID:   p.OrderID,
		Status:    p.Status,
		Amount:    p.Amount,
		Timestamp: p.Timestamp,
	}
	if p.Metadata != nil {
		evt.Metadata = *p.Metadata
	}
	return evt
}

const (
	IncidentSeverityHigh              = "HIGH"
	IncidentTypeSignatureVerification = "SIGNATURE_VERIFICATION_FAILED"
)

// SecurityIncident is emitted on every verification failure. It only lives in the log sink.
type SecurityIncident struct {
	Timestamp time.Time
	Reason    string
	Payload   WebhookPayload
	Severity  string
	Type      string
}

// Response is the JSON body returned to the gateway.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	OrderID   string `json:"orderId,omitempty"`
	PaymentID string `json:"paymentId,omitempty"`
	RequestID string `json:"requestId"`
}

// Result pairs a response body with its HTTP status code.
type Result struct {
	StatusCode int
	Body       Response
	Replayed   bool
}

// ProcessedWebhook is the recorded outcome of a delivery, replayed on duplicates.
type ProcessedWebhook struct {
	PaymentID   string    `json:"payment_id"`
	StatusCode  int       `json:"status_code"`
	Body        Response  `json:"body"`
	ProcessedAt time.Time `json:"processed_at"`
}

// HandoffTokens are the QR payloads exchanged at pickup and return.
type HandoffTokens struct {
	OrderID     string
	HandoffCode string
	ReturnCode  string
}

// NotificationKind names the message template sent to a party.
type NotificationKind string

const (
	NotificationPaymentReceived NotificationKind = "payment_received"
	NotificationOrderConfirmed  NotificationKind = "order_confirmed"
	NotificationPaymentFailed   NotificationKind = "payment_failed"
)

// Notification is a message to a single marketplace user about an order.
type Notification struct {
	UserID    string
	OrderID   string
	PaymentID string
	Kind      NotificationKind
	Amount    decimal.Decimal
}
