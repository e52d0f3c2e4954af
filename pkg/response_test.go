package pkg

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: server not found", ErrNotFound), http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: insufficient permissions", ErrForbidden), http.StatusForbidden},
		{ErrAlreadyExists, http.StatusConflict},
		{fmt.Errorf("%w: name is required", ErrBadRequest), http.StatusBadRequest},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
		{ErrUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("outer: %w", fmt.Errorf("%w: deep", ErrNotFound)), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var resp APIResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.err.Error(), resp.Error)
		})
	}
}

func TestError_MasksUnexpected(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, errors.New("pq: connection refused to 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"internal error"}`, rec.Body.String())
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]string{"id": "s1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true,"data":{"id":"s1"}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	ErrorWithMessage(rec, http.StatusUnsupportedMediaType, "unsupported content type")
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"unsupported content type"}`, rec.Body.String())
}
