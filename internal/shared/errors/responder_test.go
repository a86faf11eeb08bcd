package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errOutOfPaper = errors.New("receipt printer out of paper")

func TestResponder_Problem(t *testing.T) {
	responder := NewResponder(
		func(err error) (ProblemDetail, bool) {
			if errors.Is(err, errOutOfPaper) {
				return ErrUnavailable.WithDetail("printer").Failed(err), true
			}
			return ProblemDetail{}, false
		},
		func(error) (ProblemDetail, bool) { return ErrBadRequest, true },
	)

	mapped := responder.Problem(fmt.Errorf("print: %w", errOutOfPaper))
	assert.Equal(t, http.StatusServiceUnavailable, mapped.Status)
	assert.Equal(t, false, mapped.Extensions["success"])
	assert.Equal(t, "print: receipt printer out of paper", mapped.Extensions["error"])

	assert.Equal(t, TypeBadRequest, responder.Problem(errors.New("other")).Type)
}

func TestResponder_FallbackToInternal(t *testing.T) {
	responder := NewResponder()

	problem := responder.Problem(errors.New("boom"))
	assert.Equal(t, TypeInternal, problem.Type)
	assert.Equal(t, "boom", problem.Detail)
	assert.Equal(t, false, problem.Extensions["success"])

	wrapped := fmt.Errorf("lookup: %w", ErrNotFound.WithDetail("sale 9"))
	assert.Equal(t, http.StatusNotFound, responder.Problem(wrapped).Status)
}

func TestResponder_RespondWritesProblemJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/v1/sales/9", nil)

	NewResponder().RespondError(c, ErrNotFound.WithDetail("sale 9"))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	var body ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "/v1/sales/9", body.Instance)
	assert.Equal(t, "sale 9", body.Detail)
}

func TestWithExtensionDoesNotShareTemplates(t *testing.T) {
	first := ErrBadRequest.WithExtension("field", "quantity")
	second := first.WithExtension("field", "customer_id")

	assert.Equal(t, "quantity", first.Extensions["field"])
	assert.Equal(t, "customer_id", second.Extensions["field"])
	assert.Nil(t, ErrBadRequest.Extensions)
}

func TestForStatus(t *testing.T) {
	assert.Equal(t, ErrBadRequest, ForStatus(http.StatusBadRequest))
	assert.Equal(t, ErrNotFound, ForStatus(http.StatusNotFound))
	assert.Equal(t, ErrUnavailable, ForStatus(http.StatusServiceUnavailable))
	assert.Equal(t, ErrInternal, ForStatus(http.StatusTeapot))
}
