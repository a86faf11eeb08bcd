package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/domain"
	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

// Kind is the stable error category returned to callers.
type Kind string

const (
	KindCustomerNotFound    Kind = "customer_not_found"
	KindProductNotFound     Kind = "product_not_found"
	KindInsufficientStock   Kind = "insufficient_stock"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindStoreFailure        Kind = "store_failure"
	KindInvalidRequest      Kind = "invalid_request"
)

// IsBusiness distinguishes business-rule rejections from infrastructure failures.
func (k Kind) IsBusiness() bool {
	switch k {
	case KindCustomerNotFound, KindProductNotFound, KindInsufficientStock, KindInvalidRequest:
		return true
	default:
		return false
	}
}

// Sentinels matching each kind; errors.Is(err, ErrInsufficientStock) holds for any
// *SaleError of that kind.
var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	ErrStoreFailure        = errors.New("store failure")
	ErrInvalidRequest      = errors.New("invalid sale request")

	// ErrInjectedFault is raised by the forced-failure variant and fault injectors.
	ErrInjectedFault = errors.New("injected fault")
)

var kindSentinels = map[Kind]error{
	KindCustomerNotFound:    ErrCustomerNotFound,
	KindProductNotFound:     ErrProductNotFound,
	KindInsufficientStock:   ErrInsufficientStock,
	KindConcurrencyConflict: ErrConcurrencyConflict,
	KindStoreFailure:        ErrStoreFailure,
	KindInvalidRequest:      ErrInvalidRequest,
}

// SaleError is the typed failure of a sale orchestration.
type SaleError struct {
	Kind    Kind
	Message string

	CustomerID  int64
	ProductID   int64
	ProductName string
	Available   int32
	Requested   int32

	// Cause is the underlying error, if any.
	Cause error
	// RollbackErr is set when abandoning the unit of work failed too. Such errors are
	// always KindStoreFailure and RollbackFailed reports true.
	RollbackErr error
}

func (e *SaleError) Error() string {
	if e.RollbackErr != nil {
		return fmt.Sprintf("%s: %s (rollback failed: %v)", e.Kind, e.Message, e.RollbackErr)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the original cause and the rollback failure.
func (e *SaleError) Unwrap() []error {
	var errs []error
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	if e.RollbackErr != nil {
		errs = append(errs, e.RollbackErr)
	}
	return errs
}

// Is matches the kind sentinel.
func (e *SaleError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && sentinel == target
}

// RollbackFailed reports whether the unit of work could not be abandoned cleanly.
func (e *SaleError) RollbackFailed() bool {
	return e.RollbackErr != nil
}

// KindOf extracts the kind of a sale error; unknown errors are store failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var saleErr *SaleError
	if errors.As(err, &saleErr) {
		return saleErr.Kind
	}
	return KindStoreFailure
}

// InvalidRequest rejects a request that cannot be turned into a sale.
func InvalidRequest(err error) *SaleError {
	return &SaleError{Kind: KindInvalidRequest, Message: err.Error(), Cause: err}
}

// IdempotencyConflict reports a key reused with a different payload.
func IdempotencyConflict(key string) *SaleError {
	return InvalidRequest(fmt.Errorf("%w: key %q was used with a different request", ports.ErrIdempotencyConflict, key))
}

func customerNotFound(id int64) *SaleError {
	return &SaleError{
		Kind:       KindCustomerNotFound,
		Message:    fmt.Sprintf("customer with id %d does not exist", id),
		CustomerID: id,
		Cause:      ports.ErrNotFound,
	}
}

func productNotFound(id int64) *SaleError {
	return &SaleError{
		Kind:      KindProductNotFound,
		Message:   fmt.Sprintf("product with id %d does not exist", id),
		ProductID: id,
		Cause:     ports.ErrNotFound,
	}
}

func insufficientStock(product *domain.Product, available, requested int32) *SaleError {
	return &SaleError{
		Kind:        KindInsufficientStock,
		Message:     fmt.Sprintf("insufficient stock for %q: available %d, requested %d", product.Name, available, requested),
		ProductID:   product.ID,
		ProductName: product.Name,
		Available:   available,
		Requested:   requested,
	}
}

// storeError classifies an error raised by the store session.
func storeError(op string, err error) *SaleError {
	var saleErr *SaleError
	if errors.As(err, &saleErr) {
		return saleErr
	}
	if errors.Is(err, ports.ErrConflict) {
		return &SaleError{Kind: KindConcurrencyConflict, Message: fmt.Sprintf("%s: %v", op, err), Cause: err}
	}
	return &SaleError{Kind: KindStoreFailure, Message: fmt.Sprintf("%s: %v", op, err), Cause: err}
}

// withRollbackFailure escalates a failure whose rollback also failed.
func withRollbackFailure(cause *SaleError, rollbackErr error) *SaleError {
	return &SaleError{
		Kind:        KindStoreFailure,
		Message:     fmt.Sprintf("rollback failed after %s", cause.Message),
		CustomerID:  cause.CustomerID,
		ProductID:   cause.ProductID,
		ProductName: cause.ProductName,
		Available:   cause.Available,
		Requested:   cause.Requested,
		Cause:       cause,
		RollbackErr: rollbackErr,
	}
}
