package sales

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/durable/temporal/sequences"
)

const (
	// SaleWorkflowName is the public identifier for registering the workflow.
	SaleWorkflowName = "sales.workflows.ExecuteSale"
	// SaleTaskQueue is the queue consumed by the worker processing sale workflows.
	SaleTaskQueue = "POS_SALES"
)

// SaleWorkflowInput captures the sale command plus the caller's trace id.
type SaleWorkflowInput struct {
	Command types.SaleRequest
	TraceID string
}

// SaleWorkflow runs one sale orchestration durably.
func SaleWorkflow(ctx workflow.Context, input SaleWorkflowInput) (*types.SaleReceipt, error) {
	logger := workflow.GetLogger(ctx)
	customerID := input.Command.CustomerID
	logger.Info("SaleWorkflow started", withTraceID(input.TraceID, "customerId", customerID)...)
	receipt, err := sequences.RunSaleSequence(ctx, input.Command)
	if err != nil {
		logger.Error("SaleWorkflow failed", withTraceID(input.TraceID, "customerId", customerID, "error", err)...)
		return nil, err
	}
	logger.Info("SaleWorkflow completed", withTraceID(input.TraceID, "saleId", receipt.SaleID)...)
	return receipt, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
