package subscription

import (
	"github.com/eoladapo/sellmate-backend-sub002/internal/subscription/repository"
	"github.com/eoladapo/sellmate-backend-sub002/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
