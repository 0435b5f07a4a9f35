package inventory

import (
	"github.com/smallbiznis/campusswap/internal/inventory/domain"
	"github.com/smallbiznis/campusswap/internal/inventory/repository"
	"github.com/smallbiznis/campusswap/internal/inventory/service"
	paymentdomain "github.com/smallbiznis/campusswap/internal/payment/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s domain.Service) paymentdomain.InventoryStore { return s }),
)
