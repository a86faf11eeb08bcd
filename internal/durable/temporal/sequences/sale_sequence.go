package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	saleactivities "github.com/Apurer/go-gin-pos-server/internal/durable/temporal/activities/sales"
)

// RunSaleSequence executes the sale activity exactly once.
func RunSaleSequence(ctx workflow.Context, req types.SaleRequest) (*types.SaleReceipt, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("sale sequence started", "customerId", req.CustomerID)
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var receipt types.SaleReceipt
	err := workflow.ExecuteActivity(ctx, saleactivities.ExecuteSaleActivityName, req).Get(ctx, &receipt)
	if err != nil {
		logger.Error("sale sequence failed", "customerId", req.CustomerID, "error", err)
		return nil, err
	}
	logger.Info("sale sequence completed", "saleId", receipt.SaleID)
	return &receipt, nil
}
