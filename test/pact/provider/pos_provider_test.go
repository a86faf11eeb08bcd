//go:build pact
// +build pact

package provider_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	pacttest "github.com/Apurer/go-gin-pos-server/test/pact"

	posserver "github.com/Apurer/go-gin-pos-server/go"
	salesmemory "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/memory"
	salesobs "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/observability"
	salesworkflows "github.com/Apurer/go-gin-pos-server/internal/domains/sales/adapters/workflows"
	salesapp "github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestPOSProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogBaseline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
		pacttest.StateSaleMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset()
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset()
			return nil
		},
	})
	require.NoError(t, err)
}

// contractProviderApp swaps in a freshly seeded store for every provider state.
type contractProviderApp struct {
	router atomic.Pointer[gin.Engine]
	server *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()
	app := &contractProviderApp{}
	app.reset()
	app.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app.router.Load().ServeHTTP(w, r)
	}))
	t.Cleanup(app.server.Close)
	return app
}

func (a *contractProviderApp) reset() {
	store := salesmemory.NewStore()
	store.Seed(
		[]domain.Customer{{ID: pacttest.CustomerID, Name: "Pact Customer"}},
		[]domain.Product{{
			ID:             pacttest.ProductID,
			Name:           pacttest.ProductName,
			UnitPrice:      decimal.RequireFromString(pacttest.ProductPrice),
			QuantityOnHand: pacttest.ProductStock,
		}},
	)
	service := salesobs.New(salesapp.NewService(store))
	handlers := posserver.ApiHandleFunctions{
		SalesAPI:       posserver.NewSalesAPI(service, salesworkflows.NewInlineSaleWorkflows(service)),
		CatalogAPI:     posserver.NewCatalogAPI(salesapp.NewCatalogService(store)),
		DiagnosticsAPI: posserver.NewDiagnosticsAPI(service, store),
	}
	router := gin.New()
	router.Use(gin.Recovery())
	a.router.Store(posserver.NewRouterWithGinEngine(router, handlers))
}
