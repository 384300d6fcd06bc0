package skip_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tigerroll/userload/pkg/batch/engine/step/skip"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
)

func skippable() error {
	return exception.NewBatchError("validator", "malformed currency", errors.New("bad"), true, false)
}

func TestLimitSkipPolicy_StopsAtLimit(t *testing.T) {
	p := skip.NewLimitSkipPolicy(2)

	assert.True(t, p.ShouldSkip(skippable()))
	assert.True(t, p.ShouldSkip(skippable()))
	assert.False(t, p.ShouldSkip(skippable()))
	assert.Equal(t, 2, p.GetSkipCount())
	assert.Equal(t, 2, p.GetSkipLimit())
}

func TestLimitSkipPolicy_Unlimited(t *testing.T) {
	p := skip.NewLimitSkipPolicy(0)
	for i := 0; i < 100; i++ {
		assert.True(t, p.ShouldSkip(skippable()))
	}
	assert.Equal(t, 100, p.GetSkipCount())
}

func TestLimitSkipPolicy_RefusesOtherErrors(t *testing.T) {
	p := skip.NewLimitSkipPolicy(0)

	assert.False(t, p.ShouldSkip(nil))
	assert.False(t, p.ShouldSkip(errors.New("plain")))
	assert.False(t, p.ShouldSkip(exception.NewBatchError("loader", "insert failed", nil, false, false)))
	assert.Equal(t, 0, p.GetSkipCount())
}
