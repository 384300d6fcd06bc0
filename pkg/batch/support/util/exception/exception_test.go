package exception_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
)

func TestNewBatchError(t *testing.T) {
	originalErr := errors.New("database is locked")
	be := exception.NewBatchError("loader", "flush failed", originalErr, false, true)

	assert.Equal(t, "loader", be.Module)
	assert.Equal(t, "flush failed", be.Message)
	assert.Equal(t, originalErr, be.Unwrap())
	assert.True(t, be.IsRetryable())
	assert.False(t, be.IsSkippable())
	assert.Equal(t, "[loader] flush failed: database is locked", be.Error())
	assert.NotEmpty(t, be.StackTrace)
}

func TestNewBatchErrorf(t *testing.T) {
	be1 := exception.NewBatchErrorf("reader", "row %d too short", 7)
	assert.Nil(t, be1.Unwrap())
	assert.Equal(t, "[reader] row 7 too short", be1.Error())
	assert.True(t, exception.IsFatal(be1))

	cause := errors.New("disk full")
	be2 := exception.NewBatchErrorf("quarantine", "write of row %d failed", 3, cause)
	assert.Equal(t, cause, be2.Unwrap())
	assert.Equal(t, "write of row 3 failed", be2.Message)
}

func TestIsSkippable_WalksChain(t *testing.T) {
	skippable := exception.NewBatchError("validator", "bad amount", nil, true, false)
	wrapped := fmt.Errorf("row 4: %w", skippable)

	assert.True(t, exception.IsSkippable(wrapped))
	assert.True(t, exception.IsBatchError(wrapped))
	assert.False(t, exception.IsFatal(wrapped))

	assert.False(t, exception.IsSkippable(errors.New("plain")))
	assert.True(t, exception.IsFatal(errors.New("plain")))
	assert.False(t, exception.IsFatal(nil))
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", exception.ExtractErrorMessage(nil))
	assert.Equal(t, "flush failed", exception.ExtractErrorMessage(exception.NewBatchError("loader", "flush failed", errors.New("x"), false, false)))
	assert.Equal(t, "plain", exception.ExtractErrorMessage(errors.New("plain")))
}
