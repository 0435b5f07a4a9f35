package domain

import "errors"

var (
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrMissingFields      = errors.New("missing_required_fields")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrStaleTimestamp     = errors.New("stale_timestamp")
	ErrUnknownStatus      = errors.New("unknown_payment_status")
	ErrConcurrentDelivery = errors.New("concurrent_delivery")
	ErrInvalidEvent       = errors.New("invalid_event")

	ErrOrderNotFound      = errors.New("order_not_found")
	ErrOrderConflict      = errors.New("order_status_conflict")
	ErrItemNotFound       = errors.New("item_not_found")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrRecipientMissing   = errors.New("notification_recipient_missing")
	ErrRefundUnavailable  = errors.New("refund_service_unavailable")
	ErrIdempotencyBackend = errors.New("idempotency_backend_unavailable")
)
