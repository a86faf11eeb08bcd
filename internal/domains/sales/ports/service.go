package ports

import (
	"context"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// Service exposes the sale use cases to adapters.
type Service interface {
	ExecuteSale(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error)
	ExecuteSaleWithForcedFailure(ctx context.Context, req types.SaleRequest) (*types.SaleReceipt, error)
	VerifyRollback(ctx context.Context, customerID int64) (*types.RollbackReport, error)
	GetSale(ctx context.Context, id int64) (*SaleProjection, error)
}

// Catalog exposes the display listings.
type Catalog interface {
	ListProducts(ctx context.Context, minStock int32) ([]*domain.Product, error)
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
}
