package analytics

import (
	"github.com/eoladapo/sellmate-backend-sub002/internal/analytics/repository"
	"github.com/eoladapo/sellmate-backend-sub002/internal/analytics/service"
	"go.uber.org/fx"
)

var Module = fx.Module("analytics.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
