package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

func TestRawRecord_Clean(t *testing.T) {
	row := model.RawRecord{"a", "b", "c", "Male", "e", "f", "$1.00", "true", "false", "j", "extra", ""}
	clean, ok := row.Clean()
	require.True(t, ok)
	assert.Equal(t, "j", clean[9])
	assert.False(t, clean.HasEmptyField(), "fields past the tenth are ignored")

	_, ok = model.RawRecord{"a", "b"}.Clean()
	assert.False(t, ok)

	clean, _ = model.RawRecord{"a", "b", "c", "", "e", "f", "g", "h", "i", "j"}.Clean()
	assert.True(t, clean.HasEmptyField())
}

func TestRawRecord_Equal(t *testing.T) {
	assert.True(t, model.RawRecord{"A", "B"}.Equal(model.RawRecord{"A", "B"}))
	assert.False(t, model.RawRecord{"A", "B"}.Equal(model.RawRecord{"A", "B", ""}))
	assert.False(t, model.RawRecord{"A", "B"}.Equal(model.RawRecord{"A", "b"}))
}

func TestTypedRecord_Values(t *testing.T) {
	name := "Ada"
	amount := 12.5
	flag := true
	rec := model.TypedRecord{A: &name, G: &amount, H: &flag}

	vals := rec.Values()
	require.Len(t, vals, model.FieldCount)
	assert.Equal(t, "Ada", vals[0])
	assert.Nil(t, vals[1])
	assert.Equal(t, 12.5, vals[6])
	assert.Equal(t, true, vals[7])
	assert.Nil(t, vals[8])
}

func TestRunStatistics_Counters(t *testing.T) {
	s := model.NewRunStatistics()
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, model.RunStatusInit, s.Status)

	assert.Equal(t, 1, s.RecordAccepted())
	assert.Equal(t, 2, s.RecordAccepted())
	s.RecordRejected()
	s.RecordHeaderEcho()

	assert.Equal(t, 3, s.Received)
	assert.Equal(t, 2, s.Accepted)
	assert.Equal(t, 1, s.Rejected)
	assert.Equal(t, 1, s.HeaderEchoes)
	assert.Equal(t, s.Received, s.Accepted+s.Rejected)
}

func TestRunStatistics_Transitions(t *testing.T) {
	s := model.NewRunStatistics()
	require.NoError(t, s.TransitionTo(model.RunStatusReading))
	assert.Error(t, s.TransitionTo(model.RunStatusCommitted), "commit is only reachable from DRAINING")
	require.NoError(t, s.TransitionTo(model.RunStatusDraining))
	require.NoError(t, s.TransitionTo(model.RunStatusCommitted))
	assert.True(t, s.Status.IsFinished())
	assert.NotNil(t, s.EndTime)
	assert.Error(t, s.TransitionTo(model.RunStatusRolledBack))

	f := model.NewRunStatistics()
	f.AddFailure(errors.New("boom"))
	f.AddFailure(nil)
	require.NoError(t, f.TransitionTo(model.RunStatusFailed))
	assert.Equal(t, []string{"boom"}, f.Failures)
}
