package posserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/oapi-codegen/runtime"

	salehttpmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salestypes "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// IdempotencyKeyHeader carries the optional client key that makes POST /v1/sales replayable.
const IdempotencyKeyHeader = "Idempotency-Key"

// SalesAPI wires HTTP transport with the sales service and workflows.
type SalesAPI struct {
	service   salesports.Service
	workflows salesports.WorkflowOrchestrator
}

// NewSalesAPI creates a SalesAPI backed by the provided service.
func NewSalesAPI(service salesports.Service, workflows salesports.WorkflowOrchestrator) SalesAPI {
	return SalesAPI{service: service, workflows: workflows}
}

// Post /v1/sales
// Execute a sale atomically
func (api *SalesAPI) ExecuteSale(c *gin.Context) {
	var payload salehttpmapper.SaleRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	req := salehttpmapper.ToSaleRequest(payload, c.GetHeader(IdempotencyKeyHeader))
	receipt, err := api.executeSale(c.Request.Context(), req)
	if err != nil {
		respondSaleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, salehttpmapper.FromReceipt(receipt))
}

func (api *SalesAPI) executeSale(ctx context.Context, req salestypes.SaleRequest) (*salestypes.SaleReceipt, error) {
	if api.workflows != nil {
		return api.workflows.ExecuteSale(ctx, req)
	}
	return api.service.ExecuteSale(ctx, req)
}

// Post /v1/sales/simulate-failure
// Execute a sale that fails after its header is written
func (api *SalesAPI) SimulateFailure(c *gin.Context) {
	var payload salehttpmapper.SaleRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	receipt, err := api.service.ExecuteSaleWithForcedFailure(c.Request.Context(), salehttpmapper.ToSaleRequest(payload, ""))
	if err != nil {
		respondSaleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, salehttpmapper.FromReceipt(receipt))
}

// Get /v1/sales/:saleId
// Find sale by ID
func (api *SalesAPI) GetSale(c *gin.Context) {
	id, ok := parseIDParam(c, "saleId")
	if !ok {
		return
	}
	sale, err := api.service.GetSale(c.Request.Context(), id)
	if err != nil {
		respondSaleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, salehttpmapper.FromSaleProjection(sale))
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
