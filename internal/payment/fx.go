package payment

import (
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/observability/metrics"
	"github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/payment/idempotency"
	"github.com/smallbiznis/campusswap/internal/payment/incident"
	"github.com/smallbiznis/campusswap/internal/payment/outcome"
	"github.com/smallbiznis/campusswap/internal/payment/signature"
	"github.com/smallbiznis/campusswap/internal/payment/webhook"
	"github.com/smallbiznis/campusswap/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment.webhook",
	fx.Provide(
		newVerifier,
		fx.Annotate(incident.NewLogger, fx.As(new(domain.IncidentLogger))),
		newIdempotencyStore,
		newOrderLocker,
		newHandlers,
		webhook.NewService,
	),
)

func newVerifier(cfg config.Config) *signature.Verifier {
	return signature.NewVerifier(cfg.GatewaySecret)
}

func newIdempotencyStore(client *redis.Client, clk clock.Clock) domain.IdempotencyStore {
	return idempotency.NewStore(client, clk)
}

// newOrderLocker yields a nil interface when redis is not configured so the
// dispatcher skips locking.
func newOrderLocker(l *ratelimit.Locker) domain.OrderLocker {
	if l == nil {
		return nil
	}
	return l
}

type handlerParams struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
	Policy  *config.WebhookPolicyHolder

	Orders     domain.OrderStore
	Locations  domain.LocationReleaser
	Notifier   domain.Notifier
	Reputation domain.ReputationStore
	Tokens     domain.TokenIssuer
	Refunds    domain.RefundService
	Inventory  domain.InventoryStore
}

type handlerResult struct {
	fx.Out

	Success domain.OutcomeHandler `name:"payment_success"`
	Failed  domain.OutcomeHandler `name:"payment_failed"`
}

func newHandlers(p handlerParams) handlerResult {
	timeout := func() time.Duration { return p.Policy.Get().StepTimeout }
	return handlerResult{
		Success: outcome.NewSuccessHandler(outcome.SuccessDeps{
			Orders:     p.Orders,
			Locations:  p.Locations,
			Notifier:   p.Notifier,
			Reputation: p.Reputation,
			Tokens:     p.Tokens,
		}, timeout, p.Log, p.Metrics),
		Failed: outcome.NewFailedHandler(outcome.FailedDeps{
			Orders:    p.Orders,
			Refunds:   p.Refunds,
			Notifier:  p.Notifier,
			Inventory: p.Inventory,
		}, timeout, p.Log, p.Metrics),
	}
}
