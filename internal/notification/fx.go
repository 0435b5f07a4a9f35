package notification

import (
	"github.com/smallbiznis/campusswap/internal/notification/domain"
	"github.com/smallbiznis/campusswap/internal/notification/repository"
	"github.com/smallbiznis/campusswap/internal/notification/service"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) paymentdomain.Notifier { return s }),
)
