package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/mapleads/internal/quota"
)

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "query", Message: "failed on required"}
	assert.Equal(t, "validation error: query - failed on required", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", &ErrValidation{Field: "f"}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("decode: %w", &ErrValidation{Field: "f"}), http.StatusBadRequest},
		{"quota denied", &quota.LimitError{Limit: 10, Used: 10, Requested: 1}, http.StatusTooManyRequests},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}

func TestValidateRequest_UsesJSONNames(t *testing.T) {
	err := validateRequest(&ScrapeRequest{})
	var verr *ErrValidation
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "query", verr.Field)
	assert.Equal(t, "failed on required", verr.Message)

	assert.NoError(t, validateRequest(&ScrapeRequest{Query: "pizza in brooklyn"}))
}
