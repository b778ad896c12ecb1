package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting bilancio-worker")

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer sqliteRepo.Close()

	writer := cli.InitExportBackend(context.Background(), logger, cfg)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		return
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(sqliteRepo, writer, cfg.SyncBatchSize)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	// On startup, catch up on imports that were missed while the worker
	// was down.
	if err := syncWorker.ProcessPendingImports(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	// AMQP consumer: import batches as they land.
	g.Go(func() error {
		err := amqpClient.ConsumeImportSync(gctx, func(msg *amqp.ImportSyncMessage) error {
			return syncWorker.HandleSyncMessage(gctx, msg)
		})
		if err == context.Canceled {
			return nil
		}
		return err
	})

	// Periodic scan: backup for lost messages.
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if err := syncWorker.ProcessPendingImports(gctx); err != nil {
					logger.Error("Periodic sync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Error("Worker stopped with error", "error", err)
		return
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
