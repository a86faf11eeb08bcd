package domain

import "strings"

// Customer is the buyer referenced by a sale. It is read-only for this bounded context.
type Customer struct {
	ID    int64
	Name  string
	Email string
}

// DisplayName falls back to the identifier-free placeholder used on receipts.
func (c Customer) DisplayName() string {
	if name := strings.TrimSpace(c.Name); name != "" {
		return name
	}
	return "unnamed customer"
}
