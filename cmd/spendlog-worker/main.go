package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/cli"
	"spendlog/internal/worker"
)

const reportInterval = time.Minute

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting spendlog-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	activity := worker.NewActivityWorker(logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		activity.Report(context.Background())
	})

	go activity.RunReports(ctx, reportInterval)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeLedgerEvents(ctx, activity.HandleLedgerEvent)
	}()

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption failed", "error", err)
			_ = amqpClient.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	if err := amqpClient.Close(); err != nil {
		logger.Warn("AMQP close error", "error", err)
	}
	logger.Info("Worker shutdown complete")
}
