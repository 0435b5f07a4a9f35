package reputation

import (
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"github.com/smallbiznis/campusswap/internal/reputation/domain"
	"github.com/smallbiznis/campusswap/internal/reputation/repository"
	"github.com/smallbiznis/campusswap/internal/reputation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reputation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) paymentdomain.ReputationStore { return s }),
)
