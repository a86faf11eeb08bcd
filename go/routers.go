/*
 * Point of Sale Transaction API
 *
 * Executes multi-line sales against a transactional store: every sale either commits its header, lines, and stock decrements together or leaves no trace.
 *
 * API version: 1.0.0
 */

package posserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine add routes to existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}

	return router
}

// Default handler for not yet implemented routes
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {

	// Routes for the SalesAPI part of the API
	SalesAPI SalesAPI
	// Routes for the CatalogAPI part of the API
	CatalogAPI CatalogAPI
	// Routes for the DiagnosticsAPI part of the API
	DiagnosticsAPI DiagnosticsAPI
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			"ExecuteSale",
			http.MethodPost,
			"/v1/sales",
			handleFunctions.SalesAPI.ExecuteSale,
		},
		{
			"SimulateFailure",
			http.MethodPost,
			"/v1/sales/simulate-failure",
			handleFunctions.SalesAPI.SimulateFailure,
		},
		{
			"GetSale",
			http.MethodGet,
			"/v1/sales/:saleId",
			handleFunctions.SalesAPI.GetSale,
		},
		{
			"ListProducts",
			http.MethodGet,
			"/v1/products",
			handleFunctions.CatalogAPI.ListProducts,
		},
		{
			"ListCustomers",
			http.MethodGet,
			"/v1/customers",
			handleFunctions.CatalogAPI.ListCustomers,
		},
		{
			"VerifyRollback",
			http.MethodPost,
			"/v1/diagnostics/rollback",
			handleFunctions.DiagnosticsAPI.VerifyRollback,
		},
		{
			"Healthz",
			http.MethodGet,
			"/healthz",
			handleFunctions.DiagnosticsAPI.Healthz,
		},
	}
}
