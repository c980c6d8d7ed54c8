package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/keepsakelabs/keepsake/internal/clock"
	"github.com/keepsakelabs/keepsake/internal/config"
	"github.com/keepsakelabs/keepsake/internal/migration"
	"github.com/keepsakelabs/keepsake/internal/observability"
	"github.com/keepsakelabs/keepsake/internal/scheduler"
	"github.com/keepsakelabs/keepsake/internal/server"
	"github.com/keepsakelabs/keepsake/pkg/db"
	"go.uber.org/fx"
)

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
