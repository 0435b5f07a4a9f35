package outcome

import (
	"context"
	"fmt"
	"strings"

	"github.com/smallbiznis/campusswap/internal/observability/logger"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/zap"
)

const (
	HandlerSuccess = "payment_success"
	HandlerFailed  = "payment_failed"

	StepUpdateOrderStatus   = "update_order_status"
	StepReleaseMeetingPoint = "release_meeting_point"
	StepNotifySeller        = "notify_seller"
	StepIncrementBuyerTrust = "increment_buyer_trust"
	StepSendConfirmations   = "send_confirmations"
	StepIssueHandoffTokens  = "issue_handoff_tokens"
	StepInitiateRefund      = "initiate_refund"
	StepNotifyBuyer         = "notify_buyer"
	StepReleaseInventory    = "release_inventory"
)

// BuyerTrustDelta is added to the buyer's trust score per paid order.
const BuyerTrustDelta = 1

type SuccessDeps struct {
	Orders     domain.OrderStore
	Locations  domain.LocationReleaser
	Notifier   domain.Notifier
	Reputation domain.ReputationStore
	Tokens     domain.TokenIssuer
}

type FailedDeps struct {
	Orders    domain.OrderStore
	Refunds   domain.RefundService
	Notifier  domain.Notifier
	Inventory domain.InventoryStore
}

// NewSuccessHandler builds the SUCCESS pipeline. Every step is hard: a
// failure surfaces as a 500 so the gateway retries the delivery.
func NewSuccessHandler(deps SuccessDeps, timeout TimeoutFunc, log *zap.Logger, m *metrics.Metrics) *Pipeline {
	steps := []Step{
		{
			Name: StepUpdateOrderStatus,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				return deps.Orders.UpdateStatus(ctx, evt.OrderID, domain.OrderStatusPaymentReceived, evt.PaymentID)
			},
		},
		{
			Name: StepReleaseMeetingPoint,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				return deps.Locations.ReleaseMeetingPoint(ctx, evt.OrderID)
			},
		},
		{
			Name: StepNotifySeller,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				parties, err := resolveParties(ctx, deps.Orders, evt)
				if err != nil {
					return err
				}
				return deps.Notifier.Notify(ctx, notification(evt, parties.SellerID, domain.NotificationPaymentReceived))
			},
		},
		{
			Name: StepIncrementBuyerTrust,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				parties, err := resolveParties(ctx, deps.Orders, evt)
				if err != nil {
					return err
				}
				return deps.Reputation.IncrementTrust(ctx, parties.BuyerID, evt.OrderID, BuyerTrustDelta)
			},
		},
		{
			Name: StepSendConfirmations,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				parties, err := resolveParties(ctx, deps.Orders, evt)
				if err != nil {
					return err
				}
				for _, userID := range []string{parties.BuyerID, parties.SellerID} {
					if err := deps.Notifier.Notify(ctx, notification(evt, userID, domain.NotificationOrderConfirmed)); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name: StepIssueHandoffTokens,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				tokens, err := deps.Tokens.IssueHandoffTokens(ctx, evt.OrderID)
				if err != nil {
					return err
				}
				logger.FromContext(ctx).Debug("handoff tokens issued", zap.String("order_id", tokens.OrderID))
				return nil
			},
		},
	}
	return NewPipeline(HandlerSuccess, steps, timeout, log, m)
}

// NewFailedHandler builds the FAILED pipeline. The refund step is soft:
// a refund that cannot be started is left for manual follow-up.
func NewFailedHandler(deps FailedDeps, timeout TimeoutFunc, log *zap.Logger, m *metrics.Metrics) *Pipeline {
	steps := []Step{
		{
			Name: StepUpdateOrderStatus,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				return deps.Orders.UpdateStatus(ctx, evt.OrderID, domain.OrderStatusPaymentFailed, evt.PaymentID)
			},
		},
		{
			Name: StepInitiateRefund,
			Soft: true,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				return deps.Refunds.Initiate(ctx, evt.PaymentID, evt.OrderID, evt.Amount)
			},
		},
		{
			Name: StepNotifyBuyer,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				parties, err := resolveParties(ctx, deps.Orders, evt)
				if err != nil {
					return err
				}
				return deps.Notifier.Notify(ctx, notification(evt, parties.BuyerID, domain.NotificationPaymentFailed))
			},
		},
		{
			Name: StepReleaseInventory,
			Run: func(ctx context.Context, evt *domain.PaymentEvent) error {
				parties, err := resolveParties(ctx, deps.Orders, evt)
				if err != nil {
					return err
				}
				return deps.Inventory.Release(ctx, parties.ItemID)
			},
		},
	}
	return NewPipeline(HandlerFailed, steps, timeout, log, m)
}

// resolveParties reads the parties stored on the order. Metadata is not
// covered by the signature, so it only fills ids the order lacks; a
// disagreeing value is logged and ignored. The result is cached on the event
// so later steps see the same parties.
func resolveParties(ctx context.Context, orders domain.OrderStore, evt *domain.PaymentEvent) (domain.OrderParties, error) {
	if evt.Parties != nil {
		return *evt.Parties, nil
	}
	stored, err := orders.Parties(ctx, evt.OrderID)
	if err != nil {
		return domain.OrderParties{}, fmt.Errorf("resolve order parties: %w", err)
	}

	parties := domain.OrderParties{
		ItemID:   pickParty(ctx, "item_id", stored.ItemID, evt.Metadata.ItemID),
		BuyerID:  pickParty(ctx, "buyer_id", stored.BuyerID, evt.Metadata.BuyerID),
		SellerID: pickParty(ctx, "seller_id", stored.SellerID, evt.Metadata.SellerID),
	}
	evt.Parties = &parties
	return parties, nil
}

func pickParty(ctx context.Context, field, stored, claimed string) string {
	stored = strings.TrimSpace(stored)
	claimed = strings.TrimSpace(claimed)
	if stored == "" {
		return claimed
	}
	if claimed != "" && claimed != stored {
		logger.FromContext(ctx).Warn("webhook metadata disagrees with order",
			zap.String("field", field),
			zap.String("order_value", stored),
			zap.String("metadata_value", claimed),
		)
	}
	return stored
}

func notification(evt *domain.PaymentEvent, userID string, kind domain.NotificationKind) domain.Notification {
	return domain.Notification{
		UserID:    userID,
		OrderID:   evt.OrderID,
		PaymentID: evt.PaymentID,
		Kind:      kind,
		Amount:    evt.Amount,
	}
}
