package posserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
	apierrors "github.com/Apurer/go-gin-pos-server/internal/shared/errors"
)

// Problem types for sale failures, one per error kind.
const (
	TypeInvalidRequest      = "/problems/sales/invalid-request"
	TypeIdempotencyConflict = "/problems/sales/idempotency-conflict"
	TypeCustomerNotFound    = "/problems/sales/customer-not-found"
	TypeProductNotFound     = "/problems/sales/product-not-found"
	TypeInsufficientStock   = "/problems/sales/insufficient-stock"
	TypeConcurrencyConflict = "/problems/sales/concurrency-conflict"
	TypeStoreFailure        = "/problems/sales/store-failure"
)

var saleProblems = map[salesapp.Kind]apierrors.ProblemDetail{
	salesapp.KindInvalidRequest:      {Type: TypeInvalidRequest, Title: "Invalid Sale Request", Status: http.StatusBadRequest},
	salesapp.KindCustomerNotFound:    {Type: TypeCustomerNotFound, Title: "Customer Not Found", Status: http.StatusNotFound},
	salesapp.KindProductNotFound:     {Type: TypeProductNotFound, Title: "Product Not Found", Status: http.StatusNotFound},
	salesapp.KindInsufficientStock:   {Type: TypeInsufficientStock, Title: "Insufficient Stock", Status: http.StatusConflict},
	salesapp.KindConcurrencyConflict: {Type: TypeConcurrencyConflict, Title: "Concurrency Conflict", Status: http.StatusConflict},
	salesapp.KindStoreFailure:        {Type: TypeStoreFailure, Title: "Store Failure", Status: http.StatusServiceUnavailable},
}

var idempotencyProblem = apierrors.ProblemDetail{
	Type:   TypeIdempotencyConflict,
	Title:  "Idempotency Key Reused",
	Status: http.StatusConflict,
}

var responder = apierrors.NewResponder(mapSaleError, mapStoreError)

// mapSaleError renders a typed sale failure with its kind-specific problem type.
func mapSaleError(err error) (apierrors.ProblemDetail, bool) {
	var saleErr *salesapp.SaleError
	if !errors.As(err, &saleErr) {
		return apierrors.ProblemDetail{}, false
	}
	problem, ok := saleProblems[saleErr.Kind]
	if !ok {
		problem = saleProblems[salesapp.KindStoreFailure]
	}
	if errors.Is(err, salesports.ErrIdempotencyConflict) {
		problem = idempotencyProblem
	}
	problem = problem.WithDetail(saleErr.Message).
		Failed(err).
		WithExtension("kind", string(saleErr.Kind))
	switch saleErr.Kind {
	case salesapp.KindInsufficientStock:
		problem = problem.
			WithExtension("product", saleErr.ProductName).
			WithExtension("product_id", saleErr.ProductID).
			WithExtension("available", saleErr.Available).
			WithExtension("requested", saleErr.Requested)
	case salesapp.KindProductNotFound:
		problem = problem.WithExtension("product_id", saleErr.ProductID)
	case salesapp.KindCustomerNotFound:
		problem = problem.WithExtension("customer_id", saleErr.CustomerID)
	}
	if saleErr.RollbackFailed() {
		problem = problem.WithExtension("rollback_failed", true)
	}
	return problem, true
}

func mapStoreError(err error) (apierrors.ProblemDetail, bool) {
	switch {
	case errors.Is(err, salesports.ErrNotFound):
		return apierrors.ErrNotFound.WithDetail(err.Error()).Failed(err), true
	case errors.Is(err, salesports.ErrUnavailable):
		return apierrors.ErrUnavailable.WithDetail(err.Error()).Failed(err), true
	default:
		return apierrors.ProblemDetail{}, false
	}
}

// respondError renders transport-level failures such as unparsable parameters.
func respondError(c *gin.Context, status int, err error) {
	if err == nil {
		return
	}
	responder.Respond(c, apierrors.ForStatus(status).WithDetail(err.Error()).Failed(err))
}

// respondInvalidRequest reports a body that could not be decoded as an invalid request.
func respondInvalidRequest(c *gin.Context, err error) {
	respondSaleServiceError(c, salesapp.InvalidRequest(err))
}

// respondSaleServiceError renders errors returned by the sales service and catalog.
func respondSaleServiceError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	responder.RespondError(c, err)
}
