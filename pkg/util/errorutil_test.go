package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThrough(t *testing.T) {
	original := NewDomainError("CONFLICT", "username taken", http.StatusConflict, nil)
	wrapped := fmt.Errorf("register: %w", original)

	got := ToDomainError(wrapped)
	require.Same(t, original, got)
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	got := ToDomainError(fmt.Errorf("lookup: %w", pgx.ErrNoRows))
	require.Equal(t, "NOT_FOUND", got.Code)
	require.Equal(t, http.StatusNotFound, got.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	cause := errors.New("boom")
	got := ToDomainError(cause)
	require.Equal(t, "INTERNAL_ERROR", got.Code)
	require.Equal(t, http.StatusInternalServerError, got.HTTPStatus)
	require.ErrorIs(t, got, cause)
}

func TestDomainErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError(cause)
	require.ErrorIs(t, err, cause)
}
