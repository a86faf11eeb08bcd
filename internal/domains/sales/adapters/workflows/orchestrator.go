package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	saleactivities "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/activities/sales"
	saleworkflows "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/workflows/sales"
)

var (
	_ ports.WorkflowOrchestrator = (*TemporalSaleWorkflows)(nil)
	_ ports.WorkflowOrchestrator = (*InlineSaleWorkflows)(nil)
)

// TemporalSaleWorkflows starts sale workflows on a Temporal cluster.
type TemporalSaleWorkflows struct {
	client    client.Client
	taskQueue string
}

// NewTemporalSaleWorkflows wires a Temporal client into the orchestrator.
func NewTemporalSaleWorkflows(c client.Client) *TemporalSaleWorkflows {
	return &TemporalSaleWorkflows{client: c, taskQueue: saleworkflows.SaleTaskQueue}
}

// ExecuteSale starts the sale workflow and waits for its receipt. Restarting a workflow for a
// known idempotency key attaches to the original run, which must have been started with the
// same payload.
func (o *TemporalSaleWorkflows) ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	if o == nil || o.client == nil {
		return nil, errors.New("temporal sale workflows not configured")
	}
	traceID := workflowTraceID(ctx)
	workflowID := buildSaleWorkflowID(req)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: o.taskQueue,
	}
	run, err := o.client.ExecuteWorkflow(
		ctx,
		options,
		saleworkflows.SaleWorkflowName,
		saleworkflows.SaleWorkflowInput{Command: req, TraceID: traceID},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(req.IdempotencyKey) != "" {
			existingRun := o.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId)
			var receipt types.SaleReceipt
			if err := existingRun.Get(ctx, &receipt); err != nil {
				return nil, saleactivities.FromWorkflowError(err)
			}
			receipt.Replayed = true
			return &receipt, nil
		}
		return nil, saleactivities.FromWorkflowError(err)
	}
	var receipt types.SaleReceipt
	if err := run.Get(ctx, &receipt); err != nil {
		return nil, saleactivities.FromWorkflowError(err)
	}
	return &receipt, nil
}

func (o *TemporalSaleWorkflows) attach(ctx context.Context, workflowID, runID, key string, req types.SaleRequest) (*types.SaleReceipt, error) {
	var receipt types.SaleReceipt
	if err := o.client.GetWorkflow(ctx, workflowID, runID).Get(ctx, &receipt); err != nil {
		return nil, saleactivities.FromWorkflowError(err)
	}
	if !sameSale(req, &receipt) {
		return nil, application.IdempotencyConflict(key)
	}
	receipt.Replayed = true
	return &receipt, nil
}

// InlineSaleWorkflows executes the service directly without Temporal, useful for tests or dev fallbacks.
type InlineSaleWorkflows struct {
	service ports.Service
}

// NewInlineSaleWorkflows wraps the sales service for synchronous execution.
func NewInlineSaleWorkflows(service ports.Service) *InlineSaleWorkflows {
	return &InlineSaleWorkflows{service: service}
}

// ExecuteSale delegates to the application service without durable orchestration.
func (o *InlineSaleWorkflows) ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline sale workflows not configured")
	}
	return o.service.ExecuteSale(ctx, req)
}

// sameSale reports whether the receipt of an in-flight run was produced by the same payload.
// Receipts carry one line per requested item in request order.
func sameSale(req types.SaleRequest, receipt *types.SaleReceipt) bool {
	replayed := types.SaleRequest{CustomerID: receipt.CustomerID}
	for _, line := range receipt.Lines {
		replayed.Items = append(replayed.Items, domain.LineRequest{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	want, err := application.FingerprintSale(req)
	if err != nil {
		return false
	}
	got, err := application.FingerprintSale(replayed)
	return err == nil && want == got
}

func buildSaleWorkflowID(req types.SaleRequest) string {
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		return fmt.Sprintf("sale-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("sale-%d-%s", req.CustomerID, uuid.NewString())
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
