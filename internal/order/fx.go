package order

import (
	"github.com/eoladapo/sellmate-backend-sub002/internal/order/repository"
	"github.com/eoladapo/sellmate-backend-sub002/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
