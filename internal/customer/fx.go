package customer

import (
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer/repository"
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer/service"
	"go.uber.org/fx"
)

var Module = fx.Module("customer.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
