package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

var _ ports.UnitOfWork = (*unitOfWork)(nil)

// unitOfWork wraps one database transaction.
type unitOfWork struct {
	tx   *gorm.DB
	done bool
}

func (u *unitOfWork) FindCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return findCustomer(u.tx.WithContext(ctx), id)
}

// FindProduct locks the row until the transaction ends so the stock check and the
// decrement see the same quantity.
func (u *unitOfWork) FindProduct(ctx context.Context, id int64) (*domain.Product, error) {
	var record productRecord
	err := u.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, "id = ?", id).Error
	if err != nil {
		return nil, classify("find product", err)
	}
	return record.toDomain(), nil
}

func (u *unitOfWork) ListProducts(ctx context.Context, minStock int32) ([]*domain.Product, error) {
	return listProducts(u.tx.WithContext(ctx), minStock)
}

func (u *unitOfWork) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	return listCustomers(u.tx.WithContext(ctx))
}

func (u *unitOfWork) GetSale(ctx context.Context, id int64) (*ports.SaleProjection, error) {
	db := u.tx.WithContext(ctx)
	var header saleRecord
	if err := db.First(&header, "id = ?", id).Error; err != nil {
		return nil, classify("get sale", err)
	}
	var lines []saleLineRecord
	if err := db.Where("sale_id = ?", id).Order("id").Find(&lines).Error; err != nil {
		return nil, classify("get sale lines", err)
	}
	return toSaleProjection(header, lines), nil
}

func (u *unitOfWork) CountSales(ctx context.Context) (int64, error) {
	var count int64
	if err := u.tx.WithContext(ctx).Model(&saleRecord{}).Count(&count).Error; err != nil {
		return 0, classify("count sales", err)
	}
	return count, nil
}

func (u *unitOfWork) InsertSale(ctx context.Context, sale *domain.Sale) (int64, error) {
	if sale == nil {
		return 0, errors.New("sale is nil")
	}
	record := toSaleRecord(sale)
	if err := u.tx.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, classify("insert sale", err)
	}
	return record.ID, nil
}

func (u *unitOfWork) InsertSaleLine(ctx context.Context, line domain.SaleLine) error {
	record := toSaleLineRecord(line)
	if err := u.tx.WithContext(ctx).Create(&record).Error; err != nil {
		return classify("insert sale line", err)
	}
	return nil
}

// UpdateProductStock is a compare-and-set on quantity_on_hand; zero affected rows means the
// product vanished or another transaction moved the quantity first.
func (u *unitOfWork) UpdateProductStock(ctx context.Context, productID int64, expected, next int32) error {
	if next < 0 {
		return fmt.Errorf("product %d: %w", productID, domain.ErrNegativeStock)
	}
	db := u.tx.WithContext(ctx)
	result := db.Model(&productRecord{}).
		Where("id = ? AND quantity_on_hand = ?", productID, expected).
		Updates(map[string]any{
			"quantity_on_hand": next,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return classify("update stock", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}
	var count int64
	if err := db.Model(&productRecord{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return classify("update stock", err)
	}
	if count == 0 {
		return ports.ErrNotFound
	}
	return fmt.Errorf("%w: product %d no longer has %d on hand", ports.ErrConflict, productID, expected)
}

func (u *unitOfWork) FindIdempotencyKey(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	var record idempotencyRecord
	if err := u.tx.WithContext(ctx).First(&record, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, classify("find idempotency key", err)
	}
	return record.toPort(), nil
}

func (u *unitOfWork) SaveIdempotencyKey(ctx context.Context, record ports.IdempotencyRecord) error {
	dbRecord := toIdempotencyRecord(record)
	if err := u.tx.WithContext(ctx).Create(&dbRecord).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: idempotency key %q", ports.ErrConflict, record.Key)
		}
		return classify("save idempotency key", err)
	}
	return nil
}

func (u *unitOfWork) Commit() error {
	if u.done {
		return sql.ErrTxDone
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		return classify("commit", err)
	}
	return nil
}

// Rollback is a no-op once the transaction has been committed or rolled back.
func (u *unitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Rollback().Error; err != nil && !errors.Is(err, sql.ErrTxDone) {
		return classify("rollback", err)
	}
	return nil
}
