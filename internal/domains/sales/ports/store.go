package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict signals that a concurrent unit of work changed state this one depends on.
	ErrConflict = errors.New("concurrent write conflict")
	// ErrUnavailable signals the store cannot currently accept work.
	ErrUnavailable = errors.New("store unavailable")
)

// SaleProjection is a committed sale plus persistence timestamps.
type SaleProjection = projection.Projection[*domain.Sale]

// StoreSession opens units of work against the transactional backing store.
type StoreSession interface {
	// Begin returns a unit of work that is already started. The caller must end it with
	// exactly one Commit or Rollback; Rollback after Commit is a no-op.
	Begin(ctx context.Context) (UnitOfWork, error)
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// UnitOfWork is a bounded sequence of reads and writes that either all persist or all vanish.
type UnitOfWork interface {
	CatalogReader
	SaleReader

	// InsertSale persists the header and returns the store-assigned id.
	InsertSale(ctx context.Context, sale *domain.Sale) (int64, error)
	// InsertSaleLine persists one line of a previously inserted sale.
	InsertSaleLine(ctx context.Context, line domain.SaleLine) error
	// UpdateProductStock sets quantity-on-hand to next if it still equals expected,
	// returning ErrConflict otherwise.
	UpdateProductStock(ctx context.Context, productID int64, expected, next int32) error

	// FindIdempotencyKey returns nil when the key is unknown.
	FindIdempotencyKey(ctx context.Context, key string) (*IdempotencyRecord, error)
	// SaveIdempotencyKey stores the key; an existing key yields ErrConflict.
	SaveIdempotencyKey(ctx context.Context, record IdempotencyRecord) error

	Commit() error
	Rollback() error
}

// SaleReader loads committed (or, inside a unit of work, in-flight) sales.
type SaleReader interface {
	// GetSale returns the sale with its lines or ErrNotFound.
	GetSale(ctx context.Context, id int64) (*SaleProjection, error)
	// CountSales returns the number of sale headers visible to the reader.
	CountSales(ctx context.Context) (int64, error)
}
