package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	salesmemory "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

func newInstrumented(t *testing.T) (*tracetest.SpanRecorder, *sdkmetric.ManualReader, *bytes.Buffer, *Service) {
	t.Helper()
	store := salesmemory.NewStore()
	store.Seed(
		[]domain.Customer{{ID: 1, Name: "Ana"}},
		[]domain.Product{{ID: 1, Name: "Rice", UnitPrice: decimal.RequireFromString("1.50"), QuantityOnHand: 10}},
	)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	svc := New(application.NewService(store),
		WithTracer(tp.Tracer("test")),
		WithMeter(mp.Meter("test")),
		WithLogger(logger),
	).(*Service)
	return recorder, reader, &logs, svc
}

func counterTotal(t *testing.T, reader *sdkmetric.ManualReader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestService_RecordsCommittedSale(t *testing.T) {
	recorder, reader, logs, svc := newInstrumented(t)

	_, err := svc.ExecuteSale(context.Background(), types.SaleRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 3}}})
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "SaleService.ExecuteSale", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, int64(1), counterTotal(t, reader, "sales.service.sales_committed"))
	assert.Equal(t, int64(3), counterTotal(t, reader, "sales.service.items_sold"))
	assert.Contains(t, logs.String(), "sale committed")
}

func TestService_RecordsFailureKind(t *testing.T) {
	recorder, reader, logs, svc := newInstrumented(t)

	_, err := svc.ExecuteSale(context.Background(), types.SaleRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 99}}})
	require.ErrorIs(t, err, application.ErrInsufficientStock)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, int64(1), counterTotal(t, reader, "sales.service.sales_failed"))
	assert.Zero(t, counterTotal(t, reader, "sales.service.sales_committed"))
	assert.Contains(t, logs.String(), `"level":"WARN"`)
	assert.Contains(t, logs.String(), string(application.KindInsufficientStock))
}

func TestService_ForcedFailureLogsError(t *testing.T) {
	_, _, logs, svc := newInstrumented(t)

	_, err := svc.ExecuteSaleWithForcedFailure(context.Background(), types.SaleRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 1}}})
	require.ErrorIs(t, err, application.ErrStoreFailure)
	assert.Contains(t, logs.String(), `"level":"ERROR"`)

	report, err := svc.VerifyRollback(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, report.Restored)
}
