package postgres

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	"github.com/Apurer/go-gin-pos-server/internal/shared/projection"
)

// Records mirror the tables created by platform/migrations.

type customerRecord struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name"`
	Email     string    `gorm:"column:email"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (customerRecord) TableName() string { return "customers" }

func (r customerRecord) toDomain() *domain.Customer {
	return &domain.Customer{ID: r.ID, Name: r.Name, Email: r.Email}
}

type productRecord struct {
	ID             int64           `gorm:"primaryKey;column:id"`
	Name           string          `gorm:"column:name"`
	Category       string          `gorm:"column:category"`
	UnitPrice      decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	QuantityOnHand int32           `gorm:"column:quantity_on_hand"`
	Version        int64           `gorm:"column:version"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:             r.ID,
		Name:           r.Name,
		Category:       r.Category,
		UnitPrice:      r.UnitPrice,
		QuantityOnHand: r.QuantityOnHand,
		Version:        r.Version,
	}
}

type saleRecord struct {
	ID         int64           `gorm:"primaryKey;column:id;autoIncrement"`
	CustomerID int64           `gorm:"column:customer_id"`
	Total      decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	Status     string          `gorm:"column:status;type:varchar(16)"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (saleRecord) TableName() string { return "sales" }

type saleLineRecord struct {
	ID          int64           `gorm:"primaryKey;column:id;autoIncrement"`
	SaleID      int64           `gorm:"column:sale_id"`
	ProductID   int64           `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name"`
	Quantity    int32           `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
}

func (saleLineRecord) TableName() string { return "sale_lines" }

type idempotencyRecord struct {
	Key         string    `gorm:"primaryKey;column:key;size:255"`
	RequestHash string    `gorm:"column:request_hash;size:128"`
	SaleID      int64     `gorm:"column:sale_id"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (idempotencyRecord) TableName() string { return "sale_idempotency_keys" }

func toSaleRecord(sale *domain.Sale) saleRecord {
	return saleRecord{
		CustomerID: sale.CustomerID,
		Total:      domain.RoundMoney(sale.Total),
		Status:     string(sale.Status),
		CreatedAt:  sale.CreatedAt,
		UpdatedAt:  sale.CreatedAt,
	}
}

func toSaleLineRecord(line domain.SaleLine) saleLineRecord {
	return saleLineRecord{
		SaleID:      line.SaleID,
		ProductID:   line.ProductID,
		ProductName: line.ProductName,
		Quantity:    line.Quantity,
		UnitPrice:   domain.RoundMoney(line.UnitPrice),
		Subtotal:    domain.RoundMoney(line.Subtotal),
	}
}

func toSaleProjection(rec saleRecord, lines []saleLineRecord) *ports.SaleProjection {
	sale := &domain.Sale{
		ID:         rec.ID,
		CustomerID: rec.CustomerID,
		Total:      rec.Total,
		Status:     domain.Status(rec.Status),
		CreatedAt:  rec.CreatedAt,
		Lines:      make([]domain.SaleLine, 0, len(lines)),
	}
	for _, l := range lines {
		sale.Lines = append(sale.Lines, domain.SaleLine{
			SaleID:      l.SaleID,
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		})
	}
	return &ports.SaleProjection{
		Entity:   sale,
		Metadata: projection.Metadata{CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt},
	}
}

func toIdempotencyRecord(rec ports.IdempotencyRecord) idempotencyRecord {
	return idempotencyRecord{
		Key:         rec.Key,
		RequestHash: rec.RequestHash,
		SaleID:      rec.SaleID,
		CreatedAt:   rec.CreatedAt,
	}
}

func (r idempotencyRecord) toPort() *ports.IdempotencyRecord {
	return &ports.IdempotencyRecord{
		Key:         r.Key,
		RequestHash: r.RequestHash,
		SaleID:      r.SaleID,
		CreatedAt:   r.CreatedAt,
	}
}
