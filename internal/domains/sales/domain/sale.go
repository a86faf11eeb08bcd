package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the lifecycle tag stored on a sale header.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusFailed    Status = "failed"
)

// Valid reports whether the status is one of the known tags.
func (s Status) Valid() bool {
	switch s {
	case StatusCompleted, StatusPending, StatusFailed:
		return true
	default:
		return false
	}
}

// LineRequest is one requested (product, quantity) pair.
type LineRequest struct {
	ProductID int64
	Quantity  int32
}

// Validate enforces the shape of a single requested line.
func (l LineRequest) Validate() error {
	if l.ProductID <= 0 {
		return ErrInvalidProductID
	}
	if l.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	return nil
}

// SaleLine is a persisted line item. UnitPrice is the price observed at validation time.
type SaleLine struct {
	SaleID      int64
	ProductID   int64
	ProductName string
	Quantity    int32
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// NewSaleLine snapshots the product price and computes the subtotal.
func NewSaleLine(product Product, quantity int32) (SaleLine, error) {
	if quantity <= 0 {
		return SaleLine{}, ErrInvalidQuantity
	}
	return SaleLine{
		ProductID:   product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.UnitPrice,
		Subtotal:    LineSubtotal(product.UnitPrice, quantity),
	}, nil
}

// Sale is the header aggregate; Lines are attached once persisted or validated.
type Sale struct {
	ID         int64
	CustomerID int64
	Total      decimal.Decimal
	Status     Status
	CreatedAt  time.Time
	Lines      []SaleLine
}

// NewSale builds a sale header whose total is the exact sum of the given lines.
func NewSale(customerID int64, status Status, lines []SaleLine) (*Sale, error) {
	if customerID <= 0 {
		return nil, ErrInvalidCustomerID
	}
	if len(lines) == 0 {
		return nil, ErrNoItems
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	sale := &Sale{
		CustomerID: customerID,
		Status:     status,
		Total:      SumLines(lines),
		Lines:      append([]SaleLine(nil), lines...),
	}
	if err := sale.VerifyTotal(); err != nil {
		return nil, err
	}
	return sale, nil
}

// SumLines adds line subtotals in fixed-point arithmetic.
func SumLines(lines []SaleLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal)
	}
	return total
}

// VerifyTotal checks that every subtotal matches its price and quantity and that the
// header total equals their sum at MoneyScale.
func (s *Sale) VerifyTotal() error {
	for _, line := range s.Lines {
		if !RoundMoney(line.Subtotal).Equal(RoundMoney(LineSubtotal(line.UnitPrice, line.Quantity))) {
			return fmt.Errorf("%w: product %d subtotal %s", ErrTotalMismatch, line.ProductID, FormatMoney(line.Subtotal))
		}
	}
	if !RoundMoney(SumLines(s.Lines)).Equal(RoundMoney(s.Total)) {
		return fmt.Errorf("%w: total %s, lines %s", ErrTotalMismatch, FormatMoney(s.Total), FormatMoney(SumLines(s.Lines)))
	}
	return nil
}

// AssignID stamps the store-assigned identifier on the header and every line.
func (s *Sale) AssignID(id int64) {
	s.ID = id
	for i := range s.Lines {
		s.Lines[i].SaleID = id
	}
}
