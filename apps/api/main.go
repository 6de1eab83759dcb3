package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
	"github.com/eoladapo/sellmate-backend-sub002/internal/observability"
	"github.com/eoladapo/sellmate-backend-sub002/internal/server"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db"
	"go.uber.org/fx"
)

// API-only binary. Migrations and background jobs run in the
// scheduler deployment.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		server.Module,
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
