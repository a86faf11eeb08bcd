package domain

import "errors"

var (
	ErrInvalidCustomerID = errors.New("customer id must be greater than zero")
	ErrInvalidProductID  = errors.New("product id must be greater than zero")
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrNoItems           = errors.New("sale requires at least one item")
	ErrInvalidStatus     = errors.New("sale status is invalid")
	ErrNegativeStock     = errors.New("quantity on hand cannot become negative")
	ErrTotalMismatch     = errors.New("sale total does not match the sum of its lines")
	ErrInvalidTransition = errors.New("invalid orchestration state transition")
)
