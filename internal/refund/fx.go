package refund

import (
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/refund/domain"
	"github.com/smallbiznis/campusswap/internal/refund/repository"
	"github.com/smallbiznis/campusswap/internal/refund/service"
	"go.uber.org/fx"
)

var Module = fx.Module("refund.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) paymentdomain.RefundService { return s }),
)
