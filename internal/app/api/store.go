package api

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	salespostgres "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/resilience"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-pos-server/internal/platform/postgres"
)

type catalogSeeder interface {
	SeedCatalog(ctx context.Context, customers []domain.Customer, products []domain.Product) error
}

// Store bundles the transactional session with the catalog reader of the same backend.
type Store struct {
	Session ports.StoreSession
	Catalog ports.CatalogReader
	Backend string
}

// BuildStore connects to Postgres when POSTGRES_DSN is set and falls back to the in-memory store
// otherwise. The session is wrapped in a circuit breaker around Begin.
func BuildStore(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, func(), error) {
	var (
		session ports.StoreSession
		catalog ports.CatalogReader
		seeder  catalogSeeder
		backend string
		cleanup = func() {}
	)

	db, closeDB := connectPostgres(ctx, cfg, logger)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("failed to migrate sales schema: %w", err)
		}
		pg := salespostgres.NewSession(db,
			salespostgres.WithIsolation(cfg.TxIsolation),
			salespostgres.WithLockTimeout(cfg.LockTimeout),
		)
		session, catalog, seeder, backend, cleanup = pg, pg, pg, "postgres", closeDB
		logger.Info("sales store configured with postgres", slog.String("isolation", cfg.TxIsolation.String()))
	} else {
		mem := memory.NewStore()
		session, catalog, seeder, backend = mem, mem, mem, "memory"
		logger.Info("sales store configured in memory")
	}

	if cfg.SeedDemoData {
		if err := seeder.SeedCatalog(ctx, DemoCustomers(), DemoProducts()); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to seed demo catalog: %w", err)
		}
		logger.Info("demo catalog seeded", slog.String("backend", backend))
	}

	if cfg.BreakerFailures > 0 {
		session = resilience.NewSession(session, resilience.Settings{
			ConsecutiveFailures: cfg.BreakerFailures,
			OpenTimeout:         cfg.BreakerTimeout,
			Logger:              logger,
		})
	}
	return &Store{Session: session, Catalog: catalog, Backend: backend}, cleanup, nil
}

func connectPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*gorm.DB, func()) {
	if cfg.PostgresDSN == "" {
		logger.Warn("POSTGRES_DSN not set, falling back to the in-memory store")
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, cfg.PostgresDSN, platformpostgres.DefaultPool)
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to the in-memory store", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to the in-memory store", slog.String("error", err.Error()))
		return nil, func() {}
	}
	return db, func() { _ = sqlDB.Close() }
}
