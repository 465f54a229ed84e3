package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "type", Message: "required"},
		{Field: "price", Message: "unknown"},
	})
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, CodeValidationFailed, err.ErrorCode)
	assert.Len(t, err.Details.(ValidationErrors).Errors, 2)

	assert.Equal(t, "Dataset could not be loaded", DatasetUnavailable(fmt.Errorf("gone")).Error())
	assert.Equal(t, "gone", DatasetUnavailable(fmt.Errorf("gone")).Details)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, InvalidRequestWithError(fmt.Errorf("unexpected EOF")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, CodeInvalidRequest, body.Error.ErrorCode)
	assert.Equal(t, "unexpected EOF", body.Error.Details)
}
