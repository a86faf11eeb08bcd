package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	salehttpmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// DefaultMinStock hides sold-out products unless the caller asks for them.
const DefaultMinStock int32 = 1

// CatalogAPI serves the product and customer listings shown before a sale.
type CatalogAPI struct {
	catalog salesports.Catalog
}

// NewCatalogAPI creates a CatalogAPI backed by the provided catalog.
func NewCatalogAPI(catalog salesports.Catalog) CatalogAPI {
	return CatalogAPI{catalog: catalog}
}

// Get /v1/products
// Lists products with at least min_stock units on hand
func (api *CatalogAPI) ListProducts(c *gin.Context) {
	minStock := DefaultMinStock
	if err := runtime.BindQueryParameter("form", true, false, "min_stock", c.Request.URL.Query(), &minStock); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	products, err := api.catalog.ListProducts(c.Request.Context(), minStock)
	if err != nil {
		respondSaleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, salehttpmapper.FromProducts(products))
}

// Get /v1/customers
// Lists customers
func (api *CatalogAPI) ListCustomers(c *gin.Context) {
	customers, err := api.catalog.ListCustomers(c.Request.Context())
	if err != nil {
		respondSaleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, salehttpmapper.FromCustomers(customers))
}
