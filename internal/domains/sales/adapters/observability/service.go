package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

const tracerName = "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/observability/service"

// Service decorates the sales port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// ExecuteSale runs one sale orchestration with instrumentation.
func (s *Service) ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	ctx, span := s.startSpan(ctx, "SaleService.ExecuteSale",
		attribute.Int64("sale.customer_id", req.CustomerID),
		attribute.Int("sale.items", len(req.Items)),
		attribute.Bool("sale.idempotent", req.IdempotencyKey != ""),
	)
	defer span.End()

	s.logInfo(ctx, "executing sale", slog.Int64("customer.id", req.CustomerID), slog.Int("items", len(req.Items)))
	receipt, err := s.inner.ExecuteSale(ctx, req)
	if err != nil {
		s.metrics.recordFailed(ctx, application.KindOf(err))
		return nil, s.handleError(ctx, span, err, "sale failed", slog.Int64("customer.id", req.CustomerID))
	}
	span.SetAttributes(attribute.Int64("sale.id", receipt.SaleID), attribute.Bool("sale.replayed", receipt.Replayed))
	if !receipt.Replayed {
		s.metrics.recordCommitted(ctx, receipt)
	}
	s.logInfo(ctx, "sale committed",
		slog.Int64("sale.id", receipt.SaleID),
		slog.String("total", domain.FormatMoney(receipt.Total)),
		slog.Bool("replayed", receipt.Replayed),
	)
	return receipt, nil
}

// ExecuteSaleWithForcedFailure runs the fault-injection variant with instrumentation.
func (s *Service) ExecuteSaleWithForcedFailure(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	ctx, span := s.startSpan(ctx, "SaleService.ExecuteSaleWithForcedFailure", attribute.Int64("sale.customer_id", req.CustomerID))
	defer span.End()

	s.logInfo(ctx, "executing sale with forced failure", slog.Int64("customer.id", req.CustomerID))
	receipt, err := s.inner.ExecuteSaleWithForcedFailure(ctx, req)
	if err != nil {
		s.metrics.recordFailed(ctx, application.KindOf(err))
		return nil, s.handleError(ctx, span, err, "forced failure rolled back", slog.Int64("customer.id", req.CustomerID))
	}
	return receipt, nil
}

// VerifyRollback runs the rollback check with instrumentation.
func (s *Service) VerifyRollback(ctx context.Context, customerID int64) (*types.RollbackReport, error) {
	ctx, span := s.startSpan(ctx, "SaleService.VerifyRollback", attribute.Int64("sale.customer_id", customerID))
	defer span.End()

	report, err := s.inner.VerifyRollback(ctx, customerID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "rollback verification failed", slog.Int64("customer.id", customerID))
	}
	span.SetAttributes(attribute.Bool("rollback.restored", report.Restored))
	attrs := []slog.Attr{
		slog.Int64("before", report.Before),
		slog.Int64("during", report.During),
		slog.Int64("after", report.After),
		slog.Bool("restored", report.Restored),
	}
	if !report.Restored {
		s.logger.LogAttrs(ctx, slog.LevelWarn, "rollback did not restore sale count", attrs...)
		return report, nil
	}
	s.logInfo(ctx, "rollback verified", attrs...)
	return report, nil
}

// GetSale loads a committed sale with instrumentation.
func (s *Service) GetSale(ctx context.Context, id int64) (*ports.SaleProjection, error) {
	ctx, span := s.startSpan(ctx, "SaleService.GetSale", attribute.Int64("sale.id", id))
	defer span.End()

	result, err := s.inner.GetSale(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get sale", slog.Int64("sale.id", id))
	}
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

// handleError logs business rejections at warn and infrastructure failures at error.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	kind := application.KindOf(err)
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("sale.error_kind", string(kind)))
	}
	if s.logger == nil {
		return err
	}
	attrs = append(attrs, slog.String("kind", string(kind)), slog.String("error", err.Error()))
	level := slog.LevelError
	if kind.IsBusiness() {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
	return err
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	salesCommitted metric.Int64Counter
	salesFailed    metric.Int64Counter
	itemsSold      metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	salesCommitted, _ := m.Int64Counter("sales.service.sales_committed", metric.WithDescription("Number of committed sales"))
	salesFailed, _ := m.Int64Counter("sales.service.sales_failed", metric.WithDescription("Number of rolled back sales by error kind"))
	itemsSold, _ := m.Int64Counter("sales.service.items_sold", metric.WithDescription("Units decremented from stock by committed sales"))
	return serviceMetrics{
		salesCommitted: salesCommitted,
		salesFailed:    salesFailed,
		itemsSold:      itemsSold,
	}
}

func (m serviceMetrics) recordCommitted(ctx context.Context, receipt *types.SaleReceipt) {
	addCounter(ctx, m.salesCommitted, 1, attribute.String("sale.status", string(receipt.Status)))
	var units int64
	for _, line := range receipt.Lines {
		units += int64(line.Quantity)
	}
	addCounter(ctx, m.itemsSold, units)
}

func (m serviceMetrics) recordFailed(ctx context.Context, kind application.Kind) {
	addCounter(ctx, m.salesFailed, 1, attribute.String("sale.error_kind", string(kind)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
