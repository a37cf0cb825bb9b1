package errors

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewValidationError("amount must be non-negative"),
			expected: "[VALIDATION] amount must be non-negative",
		},
		{
			name:     "with cause",
			err:      NewStorageError("write parquet", fmt.Errorf("disk full")),
			expected: "[STORAGE] write parquet: disk full",
		},
		{
			name:     "not found includes path",
			err:      NewNotFoundError("data/raw/orders.csv", os.ErrNotExist),
			expected: "[NOT_FOUND] input file not found: data/raw/orders.csv: file does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := os.ErrNotExist
	err := NewNotFoundError("orders.csv", cause)

	require.ErrorIs(t, err, os.ErrNotExist)

	var appErr *AppError
	require.ErrorAs(t, fmt.Errorf("load inputs: %w", err), &appErr)
	assert.Equal(t, ErrTypeNotFound, appErr.Type)
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, ErrTypeSchema, TypeOf(NewSchemaError("missing column amount", nil)))
	assert.Equal(t, ErrorType(""), TypeOf(errors.New("plain error")))
	assert.Equal(t, ErrTypeStorage, TypeOf(fmt.Errorf("wrapped: %w", NewStorageError("create dir", nil))))
}

func TestIsType(t *testing.T) {
	err := NewSchemaError("duplicate order_id", nil)
	assert.True(t, IsType(err, ErrTypeSchema))
	assert.False(t, IsType(err, ErrTypeNotFound))
}

func TestWithContext(t *testing.T) {
	err := NewSchemaError("missing column", nil).
		WithContext("column", "amount").
		WithContext("file", "orders.csv")

	assert.Equal(t, "amount", err.Context["column"])
	assert.Equal(t, "orders.csv", err.Context["file"])
}
