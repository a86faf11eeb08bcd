package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

func seeded() *Store {
	s := NewStore()
	s.Seed(
		[]domain.Customer{{ID: 1, Name: "Ana"}},
		[]domain.Product{{ID: 1, Name: "Rice", UnitPrice: decimal.RequireFromString("1.50"), QuantityOnHand: 4}},
	)
	return s
}

func TestUnitOfWork_RollbackDiscardsWrites(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	id, err := uow.InsertSale(ctx, &domain.Sale{CustomerID: 1, Status: domain.StatusPending})
	require.NoError(t, err)
	require.NoError(t, uow.UpdateProductStock(ctx, 1, 4, 1))

	inside, err := uow.CountSales(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), inside)
	_, err = uow.GetSale(ctx, id)
	require.NoError(t, err)

	require.NoError(t, uow.Rollback())
	require.NoError(t, uow.Rollback())

	p, err := s.FindProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(4), p.QuantityOnHand)

	_, err = uow.CountSales(ctx)
	require.ErrorIs(t, err, ErrUnitOfWorkDone)
}

func TestUnitOfWork_CommitPublishesAndBumpsVersion(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	id, err := uow.InsertSale(ctx, &domain.Sale{CustomerID: 1, Status: domain.StatusCompleted, Total: decimal.RequireFromString("3.00")})
	require.NoError(t, err)
	require.NoError(t, uow.InsertSaleLine(ctx, domain.SaleLine{SaleID: id, ProductID: 1, Quantity: 2}))
	require.NoError(t, uow.UpdateProductStock(ctx, 1, 4, 2))
	require.NoError(t, uow.Commit())
	require.NoError(t, uow.Rollback())

	p, err := s.FindProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(2), p.QuantityOnHand)
	assert.Equal(t, int64(1), p.Version)

	reader, err := s.Begin(ctx)
	require.NoError(t, err)
	defer reader.Rollback()
	sale, err := reader.GetSale(ctx, id)
	require.NoError(t, err)
	require.Len(t, sale.Entity.Lines, 1)
}

func TestUnitOfWork_StaleReadConflictsAtCommit(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	first, err := s.Begin(ctx)
	require.NoError(t, err)
	second, err := s.Begin(ctx)
	require.NoError(t, err)

	_, err = first.FindProduct(ctx, 1)
	require.NoError(t, err)
	_, err = second.FindProduct(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, first.UpdateProductStock(ctx, 1, 4, 3))
	require.NoError(t, second.UpdateProductStock(ctx, 1, 4, 3))
	require.NoError(t, first.Commit())
	require.ErrorIs(t, second.Commit(), ports.ErrConflict)

	p, err := s.FindProduct(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int32(3), p.QuantityOnHand)
}

func TestUnitOfWork_GuardsStock(t *testing.T) {
	s := seeded()
	ctx := context.Background()
	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	defer uow.Rollback()

	require.ErrorIs(t, uow.UpdateProductStock(ctx, 1, 4, -1), domain.ErrNegativeStock)
	require.ErrorIs(t, uow.UpdateProductStock(ctx, 1, 3, 2), ports.ErrConflict)
	require.ErrorIs(t, uow.UpdateProductStock(ctx, 99, 1, 0), ports.ErrNotFound)
	_, err = uow.InsertSale(ctx, &domain.Sale{CustomerID: 99, Status: domain.StatusPending})
	require.Error(t, err)
}

func TestUnitOfWork_IdempotencyKeys(t *testing.T) {
	s := seeded()
	ctx := context.Background()

	uow, err := s.Begin(ctx)
	require.NoError(t, err)
	record := ports.IdempotencyRecord{Key: "k1", RequestHash: "h", SaleID: 5}
	require.NoError(t, uow.SaveIdempotencyKey(ctx, record))
	require.ErrorIs(t, uow.SaveIdempotencyKey(ctx, record), ports.ErrConflict)
	require.NoError(t, uow.Commit())

	next, err := s.Begin(ctx)
	require.NoError(t, err)
	defer next.Rollback()
	found, err := next.FindIdempotencyKey(ctx, "k1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(5), found.SaleID)
	assert.False(t, found.CreatedAt.IsZero())

	missing, err := next.FindIdempotencyKey(ctx, "k2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_Listings(t *testing.T) {
	s := seeded()
	s.Seed(nil, []domain.Product{{ID: 2, Name: "Empty shelf", QuantityOnHand: 0}})

	inStock, err := s.ListProducts(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, inStock, 1)
	assert.Equal(t, int64(1), inStock[0].ID)

	all, err := s.ListProducts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
