package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/analytics"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
	"github.com/eoladapo/sellmate-backend-sub002/internal/customer"
	"github.com/eoladapo/sellmate-backend-sub002/internal/migration"
	"github.com/eoladapo/sellmate-backend-sub002/internal/notification"
	"github.com/eoladapo/sellmate-backend-sub002/internal/observability"
	"github.com/eoladapo/sellmate-backend-sub002/internal/order"
	"github.com/eoladapo/sellmate-backend-sub002/internal/scheduler"
	"github.com/eoladapo/sellmate-backend-sub002/internal/subscription"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db"
	"go.uber.org/fx"
)

// Background worker binary. Runs migrations on boot, then the job
// loop. No HTTP surface beyond what observability exposes.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Job handlers call the domain services directly.
		order.Module,
		customer.Module,
		subscription.Module,
		notification.Module,
		analytics.Module,

		migration.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
