package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/opsbill/tarifa/internal/agreement"
	"github.com/opsbill/tarifa/internal/batch"
	"github.com/opsbill/tarifa/internal/billingprocess"
	"github.com/opsbill/tarifa/internal/clock"
	"github.com/opsbill/tarifa/internal/config"
	"github.com/opsbill/tarifa/internal/customer"
	"github.com/opsbill/tarifa/internal/migration"
	"github.com/opsbill/tarifa/internal/observability"
	"github.com/opsbill/tarifa/internal/project"
	"github.com/opsbill/tarifa/internal/scheduler"
	"github.com/opsbill/tarifa/internal/servicerequest"
	"github.com/opsbill/tarifa/internal/servicerequesttype"
	"github.com/opsbill/tarifa/pkg/db"
	"go.uber.org/fx"
)

// Headless billing worker: runs the cron-driven monthly job without
// exposing the admin API.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		customer.Module,
		project.Module,
		agreement.Module,
		servicerequesttype.Module,
		servicerequest.Module,
		billingprocess.Module,

		batch.Module,
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
