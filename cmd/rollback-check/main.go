package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	salespostgres "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/persistence/postgres"
	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-pos-server/internal/platform/postgres"
)

func main() {
	customerID := flag.Int64("customer", 1, "customer id used for the throwaway sale header")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger)
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot verify rollback")
	}
	if err := migrations.Run(db); err != nil {
		log.Fatalf("failed to migrate sales schema: %v", err)
	}

	service := salesapp.NewService(salespostgres.NewSession(db))
	report, err := service.VerifyRollback(ctx, *customerID)
	if err != nil {
		log.Fatalf("rollback verification failed: %v", err)
	}
	logger.Info("rollback verification completed",
		slog.Int64("before", report.Before),
		slog.Int64("during", report.During),
		slog.Int64("after", report.After),
		slog.Int64("temporary_sale_id", report.TemporarySaleID),
		slog.Bool("restored", report.Restored),
	)
	if !report.Restored {
		os.Exit(1)
	}
}
