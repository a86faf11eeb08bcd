package application

import (
	"context"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// CatalogService serves the product and customer listings shown before a sale.
type CatalogService struct {
	reader ports.CatalogReader
}

// NewCatalogService wires the listings to a catalog reader.
func NewCatalogService(reader ports.CatalogReader) *CatalogService {
	return &CatalogService{reader: reader}
}

// ListProducts returns the products with at least minStock units on hand.
func (c *CatalogService) ListProducts(ctx context.Context, minStock int32) ([]*domain.Product, error) {
	if minStock < 0 {
		minStock = 0
	}
	products, err := c.reader.ListProducts(ctx, minStock)
	if err != nil {
		return nil, storeError("list products", err)
	}
	return products, nil
}

func (c *CatalogService) ListCustomers(ctx context.Context) ([]*domain.Customer, error) {
	customers, err := c.reader.ListCustomers(ctx)
	if err != nil {
		return nil, storeError("list customers", err)
	}
	return customers, nil
}

var _ ports.Catalog = (*CatalogService)(nil)
