package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error status wins", New(ErrInternal, http.StatusTeapot, "brew"), http.StatusTeapot},
		{"invalid record", fmt.Errorf("loading: %w", ErrInvalidRecord), http.StatusBadRequest},
		{"unknown strategy", ErrUnknownStrategy, http.StatusBadRequest},
		{"unknown source", ErrUnknownSource, http.StatusBadRequest},
		{"not finalized", ErrNotFinalized, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("lookup: %w", ErrTimeout), http.StatusGatewayTimeout},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusCode(tt.err))
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	err := Newf(ErrInvalidInput, http.StatusBadRequest, "track %q is not a number", "x")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, `invalid input: track "x" is not a number`, err.Error())
}
