package ports

import (
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the same key was used with a different payload.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord associates a client-supplied key with the sale it produced.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	SaleID      int64
	CreatedAt   time.Time
}
