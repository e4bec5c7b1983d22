package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/services"
	"financas/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting financas-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	// The worker reads every user's purchase groups, so it always opens the
	// shared SQLite file regardless of DATA_BACKEND.
	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	reconciler := services.NewReconciler(sqliteRepo)
	reconcileWorker := worker.NewReconcileWorker(reconciler, cfg.ReconcileInterval)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		amqpClient = client
	} else {
		logger.Info("AMQP disabled, running periodic sweeps only")
	}

	var wg sync.WaitGroup
	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		wg.Wait()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if err := sqliteRepo.Close(); err != nil {
			logger.Error("SQLite close error", "error", err)
		}
	})

	if amqpClient != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := amqpClient.ConsumePurchaseEvents(ctx, reconcileWorker.HandlePurchaseMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		reconcileWorker.RunPeriodicSweep(ctx)
	}()

	logger.Info("Worker started",
		"reconcile_interval", cfg.ReconcileInterval,
		"queue", cfg.AMQPQueue,
		"events", amqpClient != nil)

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
