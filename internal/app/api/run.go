package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	posserver "github.com/Apurer/go-gin-pos-server/go"

	salesobs "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/observability"
	salesworkflows "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/workflows"
	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	platformmetrics "github.com/Apurer/go-gin-pos-server/internal/platform/metrics"
	platformobservability "github.com/Apurer/go-gin-pos-server/internal/platform/observability"
)

const serviceName = "pos-api"

// Run boots the point-of-sale HTTP API with observability, the store, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	store, cleanupStore, err := BuildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupStore()

	saleService := NewSaleService(store, instruments)
	var saleWorkflows salesports.WorkflowOrchestrator = salesworkflows.NewInlineSaleWorkflows(saleService)
	if temporalClient, err := ConnectTemporalClient(cfg, instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running sales inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		saleWorkflows = salesworkflows.NewTemporalSaleWorkflows(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	handlers := posserver.ApiHandleFunctions{
		SalesAPI:       posserver.NewSalesAPI(saleService, saleWorkflows),
		CatalogAPI:     posserver.NewCatalogAPI(salesapp.NewCatalogService(store.Catalog)),
		DiagnosticsAPI: posserver.NewDiagnosticsAPI(saleService, store.Session),
	}
	router := NewEngine(cfg, logger)
	posserver.NewRouterWithGinEngine(router, handlers)

	server := &http.Server{Addr: cfg.Addr(), Handler: router, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("POS API listening", slog.String("addr", server.Addr), slog.String("store", store.Backend))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		logger.Error("POS API server exited", slog.String("addr", server.Addr), slog.String("error", err.Error()))
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("POS API shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

// NewEngine builds the gin engine with recovery, tracing, access logging and, when enabled, metrics.
// Middleware must be attached before routes are registered.
func NewEngine(cfg Config, logger *slog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), otelgin.Middleware(serviceName), requestLogger(logger))
	if cfg.MetricsEnabled {
		platformmetrics.NewRegistry("pos").Register(router)
	}
	return router
}

// NewSaleService wires the sales use cases over the store with the observability decorator.
func NewSaleService(store *Store, instruments *platformobservability.Instruments) salesports.Service {
	logger := instruments.Logger
	core := salesapp.NewService(store.Session, salesapp.WithStateListener(func(ctx context.Context, history []domain.State) {
		states := make([]string, 0, len(history))
		for _, state := range history {
			states = append(states, string(state))
		}
		logger.DebugContext(ctx, "sale orchestration finished", slog.Any("states", states))
	}))
	return salesobs.New(
		core,
		salesobs.WithLogger(logger),
		salesobs.WithTracer(instruments.Tracer("internal.sales.application")),
		salesobs.WithMeter(instruments.Meter("internal.sales.application")),
	)
}
