package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pos-server/internal/app/api"
	saleactivities "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/activities/sales"
	saleworkflows "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/workflows/sales"
	platformobservability "github.com/Apurer/go-gin-pos-server/internal/platform/observability"
)

func main() {
	ctx := context.Background()
	const serviceName = "pos-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	// The worker never seeds; the API owns the demo catalog.
	cfg.SeedDemoData = false
	store, cleanupStore, err := api.BuildStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build sales store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupStore()
	if store.Backend == "memory" {
		logger.Warn("worker running against the in-memory store; sales will not be visible to the API")
	}
	saleActivities := saleactivities.NewActivities(api.NewSaleService(store, instruments))

	cfg.TemporalDisabled = false
	temporalClient, err := api.ConnectTemporalClient(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, saleworkflows.SaleTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(saleworkflows.SaleWorkflow, workflow.RegisterOptions{Name: saleworkflows.SaleWorkflowName})
	w.RegisterActivityWithOptions(saleActivities.ExecuteSale, activity.RegisterOptions{Name: saleactivities.ExecuteSaleActivityName})

	logger.Info("worker listening", slog.String("taskQueue", saleworkflows.SaleTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
