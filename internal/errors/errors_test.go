package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKVErrorMessage(t *testing.T) {
	err := New(ErrorTypeIO, "failed to sync log", io.ErrShortWrite)
	assert.Equal(t, "IO: failed to sync log (short write)", err.Error())
	assert.ErrorIs(t, err, io.ErrShortWrite)
	assert.NotEmpty(t, err.Stack)

	bare := New(ErrorTypeNotFound, "key not found", nil)
	assert.Equal(t, "NOT_FOUND: key not found", bare.Error())
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		errType ErrorType
		check   func(error) bool
	}{
		{ErrorTypeIO, IsIO},
		{ErrorTypeSerialization, IsSerialization},
		{ErrorTypeNotFound, IsNotFound},
		{ErrorTypeInvalidCommand, IsInvalidCommand},
		{ErrorTypeInvalidFileHeader, IsInvalidFileHeader},
		{ErrorTypeInvalidInput, IsInvalidInput},
		{ErrorTypeInternal, IsInternal},
	}

	for _, tt := range tests {
		t.Run(string(tt.errType), func(t *testing.T) {
			err := New(tt.errType, "boom", nil)
			assert.True(t, tt.check(err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", err)))
			assert.False(t, tt.check(io.EOF))
			assert.False(t, tt.check(nil))
		})
	}
}

func TestOutermostTypeWins(t *testing.T) {
	inner := New(ErrorTypeNotFound, "key not found", nil)
	outer := New(ErrorTypeInvalidFileHeader, "read lookup failed", inner)

	assert.True(t, IsInvalidFileHeader(outer))
	assert.False(t, IsNotFound(outer))
	assert.Equal(t, ErrorTypeInvalidFileHeader, TypeOf(outer))
	assert.Equal(t, ErrorType(""), TypeOf(io.EOF))
}

func TestRecoverError(t *testing.T) {
	assert.Nil(t, RecoverError(nil))
	assert.True(t, IsInternal(RecoverError("boom")))
	assert.True(t, IsInternal(RecoverError(io.EOF)))
	assert.Contains(t, RecoverError(42).Error(), "42")
}
