package ports

import (
	"context"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
)

// WorkflowOrchestrator dispatches sale execution either inline or through a durable engine.
type WorkflowOrchestrator interface {
	ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error)
}
