package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"

	"github.com/Basil-Gomaa/AZTrackonomy/pkg/config"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/db"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/extract"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/logger"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/mailer"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/notify"
	"github.com/Basil-Gomaa/AZTrackonomy/pkg/sweep"
	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; deployments usually set real environment variables.
	_ = godotenv.Load()

	if err := config.LoadConfig("config.json"); err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := logger.Configure(logger.Options{
		Level: config.AppConfig.Logging.Level,
		File:  config.AppConfig.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	store, err := db.InitDB(config.AppConfig.Database)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	client := &http.Client{Timeout: config.AppConfig.Checker.RequestTimeout()}
	extractor := extract.New(client, config.AppConfig.Checker.ProductAPIKey)
	checker := sweep.New(store, extractor, config.AppConfig.Checker)
	consumer := notify.New(store, mailer.NewSMTP(config.AppConfig.SMTP))

	go consumer.Start(ctx, config.AppConfig.Checker.DeliveryPollInterval())
	go consumer.StartWeekly(ctx)

	logger.Info("Starting price tracker...")
	checker.Start(ctx)
}
