package ports

import (
	"context"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// CatalogReader exposes read-only lookups of customers and products.
type CatalogReader interface {
	// FindCustomer returns ErrNotFound when the customer does not exist.
	FindCustomer(ctx context.Context, id int64) (*domain.Customer, error)
	// FindProduct returns ErrNotFound when the product does not exist. Inside a unit of
	// work the read participates in the transaction's isolation (row lock or version check).
	FindProduct(ctx context.Context, id int64) (*domain.Product, error)
	// ListProducts returns products whose quantity-on-hand is at least minStock, ordered by id.
	ListProducts(ctx context.Context, minStock int32) ([]*domain.Product, error)
	// ListCustomers returns every customer ordered by id.
	ListCustomers(ctx context.Context) ([]*domain.Customer, error)
}
