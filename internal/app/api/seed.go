package api

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
)

// DemoCustomers is the small customer list loaded when SEED_DEMO_DATA is enabled.
func DemoCustomers() []domain.Customer {
	return []domain.Customer{
		{ID: 1, Name: "Juan Pérez", Email: "juan.perez@example.com"},
		{ID: 2, Name: "María García", Email: "maria.garcia@example.com"},
		{ID: 3, Name: "Carlos López", Email: "carlos.lopez@example.com"},
		{ID: 4, Name: "Ana Martínez", Email: "ana.martinez@example.com"},
	}
}

// DemoProducts is the grocery catalog loaded when SEED_DEMO_DATA is enabled.
func DemoProducts() []domain.Product {
	price := decimal.RequireFromString
	return []domain.Product{
		{ID: 1, Name: "Arroz 1kg", Category: "granos", UnitPrice: price("1.50"), QuantityOnHand: 100},
		{ID: 2, Name: "Aceite de oliva 500ml", Category: "aceites", UnitPrice: price("7.25"), QuantityOnHand: 40},
		{ID: 3, Name: "Leche entera 1L", Category: "lácteos", UnitPrice: price("0.95"), QuantityOnHand: 80},
		{ID: 4, Name: "Pan de molde", Category: "panadería", UnitPrice: price("2.10"), QuantityOnHand: 25},
		{ID: 5, Name: "Café molido 250g", Category: "bebidas", UnitPrice: price("4.80"), QuantityOnHand: 30},
		{ID: 6, Name: "Huevos docena", Category: "frescos", UnitPrice: price("3.40"), QuantityOnHand: 50},
		{ID: 7, Name: "Azúcar 1kg", Category: "despensa", UnitPrice: price("1.15"), QuantityOnHand: 60},
		{ID: 8, Name: "Queso fresco 400g", Category: "lácteos", UnitPrice: price("5.60"), QuantityOnHand: 1},
		{ID: 9, Name: "Harina de trigo 1kg", Category: "despensa", UnitPrice: price("1.05"), QuantityOnHand: 0},
	}
}
