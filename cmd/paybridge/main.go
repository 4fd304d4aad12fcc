package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paybridge/internal/clock"
	"github.com/smallbiznis/paybridge/internal/config"
	"github.com/smallbiznis/paybridge/internal/events"
	"github.com/smallbiznis/paybridge/internal/integration"
	"github.com/smallbiznis/paybridge/internal/migration"
	"github.com/smallbiznis/paybridge/internal/observability"
	"github.com/smallbiznis/paybridge/internal/platform/adapters"
	"github.com/smallbiznis/paybridge/internal/platform/syncer"
	"github.com/smallbiznis/paybridge/internal/platform/webhook"
	"github.com/smallbiznis/paybridge/internal/ratelimit"
	"github.com/smallbiznis/paybridge/internal/scheduler"
	"github.com/smallbiznis/paybridge/internal/server"
	"github.com/smallbiznis/paybridge/internal/transaction"
	"github.com/smallbiznis/paybridge/pkg/db"
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

		events.Module,
		ratelimit.Module,
		transaction.Module,
		integration.Module,
		adapters.Module,
		syncer.Module,
		webhook.Module,

		scheduler.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
