package posserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	salehttpmapper "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/http/mapper"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// DefaultRollbackCustomerID is used when the rollback request names no customer.
const DefaultRollbackCustomerID int64 = 1

type breakerState interface {
	State() string
}

// DiagnosticsAPI exposes store health and the rollback verification check.
type DiagnosticsAPI struct {
	service salesports.Service
	session salesports.StoreSession
}

// NewDiagnosticsAPI creates a DiagnosticsAPI for the given service and store session.
func NewDiagnosticsAPI(service salesports.Service, session salesports.StoreSession) DiagnosticsAPI {
	return DiagnosticsAPI{service: service, session: session}
}

// Post /v1/diagnostics/rollback
// Verifies that an abandoned unit of work leaves no trace
func (api *DiagnosticsAPI) VerifyRollback(c *gin.Context) {
	payload := salehttpmapper.RollbackRequest{CustomerID: DefaultRollbackCustomerID}
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondInvalidRequest(c, err)
		return
	}
	report, err := api.service.VerifyRollback(c.Request.Context(), payload.CustomerID)
	if err != nil {
		respondSaleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, salehttpmapper.FromRollbackReport(report))
}

// Get /healthz
// Reports whether the store accepts connections
func (api *DiagnosticsAPI) Healthz(c *gin.Context) {
	body := gin.H{"status": "ok"}
	if breaker, ok := api.session.(breakerState); ok {
		body["breaker"] = breaker.State()
	}
	if err := api.session.Ping(c.Request.Context()); err != nil {
		respondError(c, http.StatusServiceUnavailable, err)
		return
	}
	c.JSON(http.StatusOK, body)
}
