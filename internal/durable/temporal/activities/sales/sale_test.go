package sales

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"

	"github.com/Apurer/go-gin-pos-server/internal/domains/sales/application"
	salesports "github.com/Apurer/go-gin-pos-server/internal/domains/sales/ports"
)

func TestApplicationErrorRoundTrip(t *testing.T) {
	original := &application.SaleError{
		Kind:        application.KindInsufficientStock,
		Message:     "insufficient stock",
		ProductID:   3,
		ProductName: "Last loaf",
		Available:   1,
		Requested:   2,
	}

	converted := ToApplicationError(original)
	var appErr *temporal.ApplicationError
	require.True(t, errors.As(converted, &appErr))
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, string(application.KindInsufficientStock), appErr.Type())

	restored := FromWorkflowError(converted)
	require.ErrorIs(t, restored, application.ErrInsufficientStock)
	var saleErr *application.SaleError
	require.True(t, errors.As(restored, &saleErr))
	assert.Equal(t, "Last loaf", saleErr.ProductName)
	assert.Equal(t, int32(1), saleErr.Available)
	assert.Equal(t, int32(2), saleErr.Requested)
	assert.False(t, saleErr.RollbackFailed())
}

func TestApplicationErrorKeepsIdempotencyConflict(t *testing.T) {
	restored := FromWorkflowError(ToApplicationError(application.IdempotencyConflict("till-1")))

	require.ErrorIs(t, restored, application.ErrInvalidRequest)
	require.ErrorIs(t, restored, salesports.ErrIdempotencyConflict)
}

func TestFromWorkflowError_UnknownErrorsAreStoreFailures(t *testing.T) {
	restored := FromWorkflowError(errors.New("connection refused"))

	require.ErrorIs(t, restored, application.ErrStoreFailure)
	assert.Nil(t, FromWorkflowError(nil))
}
