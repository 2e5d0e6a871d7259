package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"clipfuel-platform/pkg/config"
	"clipfuel-platform/pkg/db"
	"clipfuel-platform/pkg/health"
	"clipfuel-platform/pkg/logger"
	"clipfuel-platform/pkg/otelcol"
	"clipfuel-platform/pkg/otelcol/exporters"
	"clipfuel-platform/pkg/rabbitmq"
	"clipfuel-platform/pkg/redis"
	"clipfuel-platform/pkg/scraper"
	"clipfuel-platform/pkg/server"
	"clipfuel-platform/pkg/task"
	"clipfuel-platform/services/campaign"
	"clipfuel-platform/services/creator"
	"clipfuel-platform/services/notification"
	"clipfuel-platform/services/tracking"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		fx.Provide(
			provideSnowflakeNode,
			exporters.ProvideGrpc,
		),
		otelcol.Module,
		task.Client,
		task.Server,
		task.Scheduler,
		scraper.Module,
		rabbitmq.Module,
		health.Module,
		server.ProvideHTTPServer,
		campaign.Module,
		notification.Module,
		tracking.Module,
		fx.Invoke(
			migrate,
			db.Otel,
			db.Metric,
		),
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&campaign.Campaign{},
		&campaign.Submission{},
		&creator.Balance{},
		&tracking.Clip{},
		&tracking.TrackingRecord{},
		&tracking.Run{},
	)
}
