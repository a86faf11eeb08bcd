//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "pos-api"
	ConsumerName = "pos-terminal"

	StateCatalogBaseline = "customer 1 and product 1 with 10 units exist"
	StateSaleMissing     = "no sale with id 404"
)

const (
	CustomerID       int64 = 1
	ProductID        int64 = 1
	ProductName            = "Arroz 1kg"
	ProductPrice           = "1.50"
	ProductStock     int32 = 10
	MissingSaleID    int64 = 404
	OversizedRequest int32 = 999
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the terminal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleSalePayload is a two-unit sale of the baseline product.
func ExampleSalePayload(quantity int32) map[string]any {
	return map[string]any{
		"customer_id": CustomerID,
		"items": []map[string]any{
			{"product_id": ProductID, "quantity": quantity},
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
