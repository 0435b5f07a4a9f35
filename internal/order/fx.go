package order

import (
	"github.com/smallbiznis/campusswap/internal/order/domain"
	"github.com/smallbiznis/campusswap/internal/order/repository"
	"github.com/smallbiznis/campusswap/internal/order/service"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(
		func(s domain.Service) paymentdomain.OrderStore { return s },
		func(s domain.Service) paymentdomain.LocationReleaser { return s },
		func(s domain.Service) paymentdomain.TokenIssuer { return s },
	),
)
