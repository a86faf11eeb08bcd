package mapper

import (
	"strings"
	"time"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// SaleItem is one requested line in the inbound payload.
type SaleItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int32 `json:"quantity"`
}

// SaleRequest is the inbound payload of POST /v1/sales.
type SaleRequest struct {
	CustomerID int64      `json:"customer_id"`
	Items      []SaleItem `json:"items"`
}

// SaleLine is a committed line as rendered on the wire. Money is a fixed two-decimal string.
type SaleLine struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name,omitempty"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

// SaleResponse is returned by a successful sale.
type SaleResponse struct {
	Success      bool       `json:"success"`
	SaleID       int64      `json:"sale_id"`
	CustomerID   int64      `json:"customer_id"`
	CustomerName string     `json:"customer_name,omitempty"`
	Total        string     `json:"total"`
	Status       string     `json:"status"`
	Lines        []SaleLine `json:"lines"`
	Replayed     bool       `json:"replayed,omitempty"`
}

// Sale is a stored sale loaded by id.
type Sale struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customer_id"`
	Total      string     `json:"total"`
	Status     string     `json:"status"`
	Lines      []SaleLine `json:"lines"`
	CreatedAt  time.Time  `json:"created_at,omitempty"`
}

// Product is a catalog entry.
type Product struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category,omitempty"`
	UnitPrice      string `json:"unit_price"`
	QuantityOnHand int32  `json:"quantity_on_hand"`
}

// Customer is a buyer entry.
type Customer struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// RollbackRequest selects the customer used by the rollback check.
type RollbackRequest struct {
	CustomerID int64 `json:"customer_id"`
}

// RollbackReport is the rendered result of a rollback verification.
type RollbackReport struct {
	Success         bool  `json:"success"`
	CustomerID      int64 `json:"customer_id"`
	Before          int64 `json:"before"`
	During          int64 `json:"during"`
	After           int64 `json:"after"`
	TemporarySaleID int64 `json:"temporary_sale_id"`
	Restored        bool  `json:"restored"`
}

// ToSaleRequest maps the payload and the optional Idempotency-Key header into a command.
func ToSaleRequest(payload SaleRequest, idempotencyKey string) types.SaleRequest {
	items := make([]domain.LineRequest, 0, len(payload.Items))
	for _, item := range payload.Items {
		items = append(items, domain.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return types.SaleRequest{
		CustomerID:     payload.CustomerID,
		Items:          items,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
}

// FromReceipt renders a receipt.
func FromReceipt(receipt *types.SaleReceipt) SaleResponse {
	if receipt == nil {
		return SaleResponse{}
	}
	lines := make([]SaleLine, 0, len(receipt.Lines))
	for _, line := range receipt.Lines {
		lines = append(lines, SaleLine{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: domain.FormatMoney(line.UnitPrice),
			Subtotal:  domain.FormatMoney(line.Subtotal),
		})
	}
	return SaleResponse{
		Success:      true,
		SaleID:       receipt.SaleID,
		CustomerID:   receipt.CustomerID,
		CustomerName: receipt.CustomerName,
		Total:        domain.FormatMoney(receipt.Total),
		Status:       string(receipt.Status),
		Lines:        lines,
		Replayed:     receipt.Replayed,
	}
}

// FromSaleProjection renders a stored sale.
func FromSaleProjection(p *ports.SaleProjection) Sale {
	if p == nil || p.Entity == nil {
		return Sale{}
	}
	sale := p.Entity
	lines := make([]SaleLine, 0, len(sale.Lines))
	for _, line := range sale.Lines {
		lines = append(lines, SaleLine{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			UnitPrice: domain.FormatMoney(line.UnitPrice),
			Subtotal:  domain.FormatMoney(line.Subtotal),
		})
	}
	createdAt := p.Metadata.CreatedAt
	if createdAt.IsZero() {
		createdAt = sale.CreatedAt
	}
	return Sale{
		ID:         sale.ID,
		CustomerID: sale.CustomerID,
		Total:      domain.FormatMoney(sale.Total),
		Status:     string(sale.Status),
		Lines:      lines,
		CreatedAt:  createdAt,
	}
}

// FromProducts renders a product listing.
func FromProducts(products []*domain.Product) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if p == nil {
			continue
		}
		out = append(out, Product{
			ID:             p.ID,
			Name:           p.Name,
			Category:       p.Category,
			UnitPrice:      domain.FormatMoney(p.UnitPrice),
			QuantityOnHand: p.QuantityOnHand,
		})
	}
	return out
}

// FromCustomers renders a customer listing.
func FromCustomers(customers []*domain.Customer) []Customer {
	out := make([]Customer, 0, len(customers))
	for _, c := range customers {
		if c == nil {
			continue
		}
		out = append(out, Customer{ID: c.ID, Name: c.Name, Email: c.Email})
	}
	return out
}

// FromRollbackReport renders a rollback verification result.
func FromRollbackReport(report *types.RollbackReport) RollbackReport {
	if report == nil {
		return RollbackReport{}
	}
	return RollbackReport{
		Success:         report.Restored,
		CustomerID:      report.CustomerID,
		Before:          report.Before,
		During:          report.During,
		After:           report.After,
		TemporarySaleID: report.TemporarySaleID,
		Restored:        report.Restored,
	}
}
