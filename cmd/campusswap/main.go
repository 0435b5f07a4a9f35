package main

import (
	"github.com/smallbiznis/campusswap/internal/clock"
	"github.com/smallbiznis/campusswap/internal/config"
	"github.com/smallbiznis/campusswap/internal/inventory"
	"github.com/smallbiznis/campusswap/internal/migration"
	"github.com/smallbiznis/campusswap/internal/notification"
	"github.com/smallbiznis/campusswap/internal/observability"
	"github.com/smallbiznis/campusswap/internal/order"
	"github.com/smallbiznis/campusswap/internal/payment"
	"github.com/smallbiznis/campusswap/internal/providers/email"
	"github.com/smallbiznis/campusswap/internal/ratelimit"
	"github.com/smallbiznis/campusswap/internal/refund"
	"github.com/smallbiznis/campusswap/internal/reputation"
	"github.com/smallbiznis/campusswap/internal/server"
	"github.com/smallbiznis/campusswap/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),

		// Core infrastructure
		config.Module,
		observability.Module,
		clock.Module,
		db.Module,
		migration.Module,
		ratelimit.Module,
		email.Module,

		// Marketplace collaborators
		order.Module,
		inventory.Module,
		reputation.Module,
		refund.Module,
		notification.Module,

		// Webhook
		payment.Module,
		server.Module,
	)
	app.Run()
}
