package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application/types"
)

type normalizedSaleRequest struct {
	CustomerID int64            `json:"customerId"`
	Items      []normalizedItem `json:"items"`
}

type normalizedItem struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// FingerprintSale builds a deterministic hash of the sale payload (excluding the idempotency key).
// Line order is significant because it drives validation order.
func FingerprintSale(req types.SaleRequest) (string, error) {
	normalized := normalizedSaleRequest{
		CustomerID: req.CustomerID,
		Items:      make([]normalizedItem, 0, len(req.Items)),
	}
	for _, item := range req.Items {
		normalized.Items = append(normalized.Items, normalizedItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
