package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/mocks"

	salesmemory "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	saleactivities "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/activities/sales"
	saleworkflows "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/workflows/sales"
)

func TestInlineSaleWorkflows_DelegatesToService(t *testing.T) {
	store := salesmemory.NewStore()
	store.Seed([]domain.Customer{{ID: 1}}, []domain.Product{{ID: 1, Name: "Rice", UnitPrice: decimal.RequireFromString("1.50"), QuantityOnHand: 1}})
	orchestrator := NewInlineSaleWorkflows(application.NewService(store))

	receipt, err := orchestrator.ExecuteSale(context.Background(), types.SaleRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 1}}})
	require.NoError(t, err)
	assert.Equal(t, "1.50", domain.FormatMoney(receipt.Total))

	_, err = orchestrator.ExecuteSale(context.Background(), types.SaleRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 1}}})
	require.ErrorIs(t, err, application.ErrInsufficientStock)
}

func TestUnconfiguredOrchestrators(t *testing.T) {
	var inline *InlineSaleWorkflows
	_, err := inline.ExecuteSale(context.Background(), types.SaleRequest{})
	require.Error(t, err)

	var durable *TemporalSaleWorkflows
	_, err = durable.ExecuteSale(context.Background(), types.SaleRequest{})
	require.Error(t, err)
}

func TestBuildSaleWorkflowID(t *testing.T) {
	keyed := types.SaleRequest{CustomerID: 3, IdempotencyKey: "till-9"}
	assert.Equal(t, buildSaleWorkflowID(keyed), buildSaleWorkflowID(keyed))
	assert.True(t, strings.HasPrefix(buildSaleWorkflowID(keyed), "sale-idem-"))

	anonymous := types.SaleRequest{CustomerID: 3}
	assert.NotEqual(t, buildSaleWorkflowID(anonymous), buildSaleWorkflowID(anonymous))
	assert.True(t, strings.HasPrefix(buildSaleWorkflowID(anonymous), "sale-3-"))
}

func TestSameSale(t *testing.T) {
	req := types.SaleRequest{CustomerID: 1, Items: []domain.LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 4, Quantity: 1}}}
	receipt := &types.SaleReceipt{CustomerID: 1, Lines: []types.ReceiptLine{{ProductID: 1, Quantity: 2}, {ProductID: 4, Quantity: 1}}}
	assert.True(t, sameSale(req, receipt))

	receipt.Lines[1].Quantity = 3
	assert.False(t, sameSale(req, receipt))

	receipt.Lines[1].Quantity = 1
	receipt.CustomerID = 2
	assert.False(t, sameSale(req, receipt))
}

func keyedSale() types.SaleRequest {
	return types.SaleRequest{
		CustomerID:     1,
		Items:          []domain.LineRequest{{ProductID: 1, Quantity: 2}},
		IdempotencyKey: "till-7",
	}
}

func committedReceipt() types.SaleReceipt {
	return types.SaleReceipt{
		SaleID:     42,
		CustomerID: 1,
		Total:      decimal.RequireFromString("3.00"),
		Status:     domain.StatusCompleted,
		Lines:      []types.ReceiptLine{{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("1.50"), Subtotal: decimal.RequireFromString("3.00")}},
	}
}

func runReturning(t *testing.T, receipt *types.SaleReceipt, err error) *mocks.WorkflowRun {
	t.Helper()
	run := mocks.NewWorkflowRun(t)
	call := run.On("Get", mock.Anything, mock.AnythingOfType("*types.SaleReceipt"))
	if receipt != nil {
		call.Run(func(args mock.Arguments) {
			*args.Get(1).(*types.SaleReceipt) = *receipt
		})
	}
	call.Return(err)
	return run
}

func TestTemporalSaleWorkflows_StartsRegisteredWorkflow(t *testing.T) {
	temporalClient := mocks.NewClient(t)
	receipt := committedReceipt()
	req := keyedSale()
	temporalClient.On("ExecuteWorkflow",
		mock.Anything,
		mock.MatchedBy(func(opts client.StartWorkflowOptions) bool {
			return opts.TaskQueue == saleworkflows.SaleTaskQueue && opts.ID == buildSaleWorkflowID(req)
		}),
		saleworkflows.SaleWorkflowName,
		mock.MatchedBy(func(in saleworkflows.SaleWorkflowInput) bool {
			return in.Command.CustomerID == req.CustomerID && len(in.Command.Items) == 1
		}),
	).Return(runReturning(t, &receipt, nil), nil)

	got, err := NewTemporalSaleWorkflows(temporalClient).ExecuteSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.SaleID)
	assert.False(t, got.Replayed)
}

func TestTemporalSaleWorkflows_AttachesToRunWithSamePayload(t *testing.T) {
	temporalClient := mocks.NewClient(t)
	receipt := committedReceipt()
	req := keyedSale()
	workflowID := buildSaleWorkflowID(req)
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, saleworkflows.SaleWorkflowName, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-1"))
	temporalClient.On("GetWorkflow", mock.Anything, workflowID, "run-1").Return(runReturning(t, &receipt, nil))

	got, err := NewTemporalSaleWorkflows(temporalClient).ExecuteSale(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.SaleID)
	assert.True(t, got.Replayed)
}

func TestTemporalSaleWorkflows_RejectsKeyReusedWithDifferentPayload(t *testing.T) {
	temporalClient := mocks.NewClient(t)
	receipt := committedReceipt()
	req := keyedSale()
	req.CustomerID = 7
	req.Items = []domain.LineRequest{{ProductID: 3, Quantity: 50}}
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, saleworkflows.SaleWorkflowName, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-1"))
	temporalClient.On("GetWorkflow", mock.Anything, buildSaleWorkflowID(req), "run-1").Return(runReturning(t, &receipt, nil))

	got, err := NewTemporalSaleWorkflows(temporalClient).ExecuteSale(context.Background(), req)
	require.Nil(t, got)
	require.ErrorIs(t, err, application.ErrInvalidRequest)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
}

func TestTemporalSaleWorkflows_AlreadyStartedWithoutKeyIsStoreFailure(t *testing.T) {
	temporalClient := mocks.NewClient(t)
	req := keyedSale()
	req.IdempotencyKey = ""
	temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, saleworkflows.SaleWorkflowName, mock.Anything).
		Return(nil, serviceerror.NewWorkflowExecutionAlreadyStarted("already started", "", "run-1"))

	_, err := NewTemporalSaleWorkflows(temporalClient).ExecuteSale(context.Background(), req)
	require.ErrorIs(t, err, application.ErrStoreFailure)
}

func TestTemporalSaleWorkflows_UnwrapsWorkflowErrors(t *testing.T) {
	stockErr := saleactivities.ToApplicationError(&application.SaleError{
		Kind:        application.KindInsufficientStock,
		Message:     "insufficient stock",
		ProductID:   1,
		ProductName: "Rice",
		Available:   1,
		Requested:   2,
	})
	cases := map[string]struct {
		runErr error
		want   error
	}{
		"typed activity failure": {runErr: fmt.Errorf("workflow execution error: %w", stockErr), want: application.ErrInsufficientStock},
		"infrastructure failure": {runErr: errors.New("context deadline exceeded"), want: application.ErrStoreFailure},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			temporalClient := mocks.NewClient(t)
			temporalClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, saleworkflows.SaleWorkflowName, mock.Anything).
				Return(runReturning(t, nil, tc.runErr), nil)

			_, err := NewTemporalSaleWorkflows(temporalClient).ExecuteSale(context.Background(), keyedSale())
			require.ErrorIs(t, err, tc.want)
			var saleErr *application.SaleError
			require.True(t, errors.As(err, &saleErr))
		})
	}
}
