//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-pos-server/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"
)

type saleLine struct {
	ProductID int64  `json:"product_id"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Subtotal  string `json:"subtotal"`
}

type saleReceipt struct {
	Success bool       `json:"success"`
	SaleID  int64      `json:"sale_id"`
	Total   string     `json:"total"`
	Status  string     `json:"status"`
	Lines   []saleLine `json:"lines"`
}

type product struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	UnitPrice      string `json:"unit_price"`
	QuantityOnHand int32  `json:"quantity_on_hand"`
}

type problemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Extensions map[string]any `json:"extensions"`
}

type apiError struct {
	status int
	kind   string
	detail string
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.kind, e.detail, e.status)
}

func TestTerminalContract(t *testing.T) {
	t.Helper()
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", "application\\/json(?:;\\s?charset=utf-8)?")
	money := func(example string) matchers.Matcher {
		return matchers.Term(example, `^\d+\.\d{2}$`)
	}

	pact.AddInteraction().
		Given(pacttest.StateCatalogBaseline).
		UponReceiving("a request to sell two units of an in-stock product").
		WithRequest("POST", "/v1/sales", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleSalePayload(2))
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"success": matchers.Like(true),
				"sale_id": matchers.Like(1),
				"total":   matchers.S("3.00"),
				"status":  matchers.S("completed"),
				"lines": matchers.EachLike(matchers.Map{
					"product_id": matchers.Like(pacttest.ProductID),
					"quantity":   matchers.Like(2),
					"unit_price": money(pacttest.ProductPrice),
					"subtotal":   money("3.00"),
				}, 1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateCatalogBaseline).
		UponReceiving("a request to sell more units than are on hand").
		WithRequest("POST", "/v1/sales", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(pacttest.ExampleSalePayload(pacttest.OversizedRequest))
		}).
		WillRespondWith(http.StatusConflict, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/sales/insufficient-stock"),
				"status": matchers.Like(http.StatusConflict),
				"extensions": matchers.Map{
					"success":   matchers.Like(false),
					"kind":      matchers.S("insufficient_stock"),
					"available": matchers.Like(pacttest.ProductStock),
					"requested": matchers.Like(pacttest.OversizedRequest),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateCatalogBaseline).
		UponReceiving("a request for in-stock products").
		WithRequest("GET", "/v1/products").
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.EachLike(matchers.Map{
				"id":               matchers.Like(pacttest.ProductID),
				"name":             matchers.Like(pacttest.ProductName),
				"unit_price":       money(pacttest.ProductPrice),
				"quantity_on_hand": matchers.Like(pacttest.ProductStock),
			}, 1))
		})

	pact.AddInteraction().
		Given(pacttest.StateSaleMissing).
		UponReceiving("a request for a missing sale").
		WithRequest("GET", fmt.Sprintf("/v1/sales/%d", pacttest.MissingSaleID)).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":   matchers.S("/problems/not-found"),
				"title":  matchers.S("Resource Not Found"),
				"status": matchers.Like(http.StatusNotFound),
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		client := newTerminalClient(config)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		receipt, err := client.Sell(ctx, pacttest.ExampleSalePayload(2))
		if err != nil {
			return fmt.Errorf("sell: %w", err)
		}
		if !receipt.Success || receipt.SaleID == 0 || receipt.Total != "3.00" {
			return fmt.Errorf("unexpected receipt %+v", receipt)
		}

		_, err = client.Sell(ctx, pacttest.ExampleSalePayload(pacttest.OversizedRequest))
		apiErr, ok := err.(apiError)
		if !ok || apiErr.status != http.StatusConflict || apiErr.kind != "insufficient_stock" {
			return fmt.Errorf("expected insufficient stock rejection, got %v", err)
		}

		products, err := client.Products(ctx)
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		if len(products) == 0 {
			return fmt.Errorf("expected at least one product")
		}

		if err := client.GetSale(ctx, pacttest.MissingSaleID); err == nil {
			return fmt.Errorf("expected 404 for sale %d", pacttest.MissingSaleID)
		} else if apiErr, ok := err.(apiError); ok && apiErr.status != http.StatusNotFound {
			return fmt.Errorf("expected 404, got %d", apiErr.status)
		}
		return nil
	})
	require.NoError(t, err)
}

type terminalClient struct {
	baseURL    string
	httpClient *http.Client
}

func newTerminalClient(config pactconsumer.MockServerConfig) *terminalClient {
	host := config.Host
	if host == "" {
		host = "localhost"
	}
	transport := &http.Transport{TLSClientConfig: config.TLSConfig}
	client := &http.Client{Transport: transport, Timeout: 10 * time.Second}
	return &terminalClient{
		baseURL:    fmt.Sprintf("http://%s:%d", host, config.Port),
		httpClient: client,
	}
}

func (c *terminalClient) Sell(ctx context.Context, payload map[string]any) (*saleReceipt, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/sales", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	var receipt saleReceipt
	if err := c.do(req, &receipt); err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (c *terminalClient) Products(ctx context.Context) ([]product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/products", nil)
	if err != nil {
		return nil, err
	}
	var products []product
	if err := c.do(req, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *terminalClient) GetSale(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/sales/%d", c.baseURL, id), nil)
	if err != nil {
		return err
	}
	var sale map[string]any
	return c.do(req, &sale)
}

func (c *terminalClient) do(req *http.Request, out any) error {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(res)
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func decodeAPIError(res *http.Response) error {
	var problem problemDetail
	_ = json.NewDecoder(res.Body).Decode(&problem)
	status := problem.Status
	if status == 0 {
		status = res.StatusCode
	}
	kind, _ := problem.Extensions["kind"].(string)
	return apiError{status: status, kind: kind, detail: problem.Detail}
}
