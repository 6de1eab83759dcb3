package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/eoladapo/sellmate-backend-sub002/internal/clock"
	"github.com/eoladapo/sellmate-backend-sub002/internal/config"
	"github.com/eoladapo/sellmate-backend-sub002/internal/migration"
	"github.com/eoladapo/sellmate-backend-sub002/internal/observability"
	"github.com/eoladapo/sellmate-backend-sub002/internal/scheduler"
	"github.com/eoladapo/sellmate-backend-sub002/internal/server"
	"github.com/eoladapo/sellmate-backend-sub002/pkg/db"
	"go.uber.org/fx"
)

// Single-process deployment: HTTP API, background jobs and migrations
// in one binary.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		server.Module,
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
