package sales

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

const (
	// ExecuteSaleActivityName runs one sale orchestration against the store.
	ExecuteSaleActivityName = "sales.activities.ExecuteSale"
)

// SaleFailure carries a typed sale error across the Temporal boundary.
type SaleFailure struct {
	Kind           application.Kind
	Message        string
	CustomerID     int64
	ProductID      int64
	ProductName    string
	Available      int32
	Requested      int32
	RollbackFailed bool
	// IdempotencyConflict marks an idempotency key reused with a different payload.
	IdempotencyConflict bool
}

// Activities groups activities that operate on the sales bounded context.
type Activities struct {
	service salesports.Service
}

// NewActivities wires the sales service into the Temporal activities bundle.
func NewActivities(service salesports.Service) *Activities {
	return &Activities{service: service}
}

// ExecuteSale runs the orchestration once. Every failure is non-retryable: a sale is never
// re-attempted automatically.
func (a *Activities) ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("sale activity not initialized", "customerId", req.CustomerID)
		return nil, temporal.NewNonRetryableApplicationError("sale activity not initialized", string(application.KindStoreFailure), nil)
	}
	logger.Info("ExecuteSale activity started", "customerId", req.CustomerID, "items", len(req.Items))
	receipt, err := a.service.ExecuteSale(ctx, req)
	if err != nil {
		logger.Error("ExecuteSale activity failed", "customerId", req.CustomerID, "error", err)
		return nil, ToApplicationError(err)
	}
	logger.Info("ExecuteSale activity completed", "saleId", receipt.SaleID)
	return receipt, nil
}

// ToApplicationError converts a sale error into a non-retryable Temporal application error.
func ToApplicationError(err error) error {
	if err == nil {
		return nil
	}
	failure := SaleFailure{Kind: application.KindOf(err), Message: err.Error()}
	var saleErr *application.SaleError
	if errors.As(err, &saleErr) {
		failure.Message = saleErr.Message
		failure.CustomerID = saleErr.CustomerID
		failure.ProductID = saleErr.ProductID
		failure.ProductName = saleErr.ProductName
		failure.Available = saleErr.Available
		failure.Requested = saleErr.Requested
		failure.RollbackFailed = saleErr.RollbackFailed()
	}
	failure.IdempotencyConflict = errors.Is(err, salesports.ErrIdempotencyConflict)
	return temporal.NewNonRetryableApplicationError(failure.Message, string(failure.Kind), nil, failure)
}

// FromWorkflowError restores the typed sale error from a workflow or activity failure.
// Errors that did not originate in the sale activity are reported as store failures.
func FromWorkflowError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return &application.SaleError{Kind: application.KindStoreFailure, Message: err.Error(), Cause: err}
	}
	var failure SaleFailure
	if appErr.HasDetails() {
		if detailsErr := appErr.Details(&failure); detailsErr != nil {
			failure = SaleFailure{}
		}
	}
	if failure.Kind == "" {
		failure.Kind = application.Kind(appErr.Type())
		failure.Message = appErr.Message()
	}
	saleErr := &application.SaleError{
		Kind:        failure.Kind,
		Message:     failure.Message,
		CustomerID:  failure.CustomerID,
		ProductID:   failure.ProductID,
		ProductName: failure.ProductName,
		Available:   failure.Available,
		Requested:   failure.Requested,
		Cause:       err,
	}
	if failure.IdempotencyConflict {
		saleErr.Cause = fmt.Errorf("%w: %w", salesports.ErrIdempotencyConflict, err)
	}
	if failure.RollbackFailed {
		saleErr.RollbackErr = errors.New("rollback failed in worker")
	}
	return saleErr
}
