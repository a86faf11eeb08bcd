package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// SaleRequest is the inbound command for one orchestration.
type SaleRequest struct {
	CustomerID int64
	Items      []domain.LineRequest
	// IdempotencyKey is optional; when set, retries with the same payload replay the receipt.
	IdempotencyKey string
}

// Validate checks the request shape before any unit of work is opened.
func (r SaleRequest) Validate() error {
	if r.CustomerID <= 0 {
		return domain.ErrInvalidCustomerID
	}
	if len(r.Items) == 0 {
		return domain.ErrNoItems
	}
	for _, item := range r.Items {
		if err := item.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ReceiptLine is one committed line as returned to the caller.
type ReceiptLine struct {
	ProductID int64
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal
}

// SaleReceipt is the successful result of an orchestration.
type SaleReceipt struct {
	SaleID       int64
	CustomerID   int64
	CustomerName string
	Total        decimal.Decimal
	Status       domain.Status
	Lines        []ReceiptLine
	// Replayed is true when the receipt was served from a previously committed sale
	// sharing the same idempotency key.
	Replayed bool
}

// ReceiptFromSale converts a committed sale aggregate into a receipt.
func ReceiptFromSale(sale *domain.Sale) *SaleReceipt {
	if sale == nil {
		return nil
	}
	lines := make([]ReceiptLine, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		lines = append(lines, ReceiptLine{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Subtotal:  line.Subtotal,
		})
	}
	return &SaleReceipt{
		SaleID:     sale.ID,
		CustomerID: sale.CustomerID,
		Total:      sale.Total,
		Status:     sale.Status,
		Lines:      lines,
	}
}

// RollbackReport is the outcome of a rollback verification run.
type RollbackReport struct {
	CustomerID int64
	Before     int64
	During     int64
	After      int64
	// TemporarySaleID is the id the discarded header received inside the unit of work.
	TemporarySaleID int64
	Restored        bool
}
