package writer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/userload/pkg/batch/component/step/writer"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

func TestQuarantineWriter_HeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "bad-data.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale content\n"), 0o644))

	w := writer.NewQuarantineWriter(path)
	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.WriteHeader(model.RawRecord{"\ufeffA", "B"}))
	require.NoError(t, w.WriteRejected(model.RawRecord{"x", "", "with, comma", "extra"}))
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "second close is a no-op")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "A,B\nx,,\"with, comma\",extra\n", string(data))
	assert.Equal(t, 1, w.Rows())
}

func TestQuarantineWriter_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "bad.csv")
	w := writer.NewQuarantineWriter(path)
	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.WriteHeader(model.RawRecord{"A"}))
	require.NoError(t, w.Close())

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestQuarantineWriter_HeaderOnlyOnce(t *testing.T) {
	w := writer.NewQuarantineWriter(filepath.Join(t.TempDir(), "bad.csv"))
	require.NoError(t, w.Open(context.Background()))
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, w.WriteHeader(model.RawRecord{"A"}))
	assert.Error(t, w.WriteHeader(model.RawRecord{"A"}))
}

func TestQuarantineWriter_WriteAfterClose(t *testing.T) {
	w := writer.NewQuarantineWriter(filepath.Join(t.TempDir(), "bad.csv"))
	require.NoError(t, w.Open(context.Background()))
	require.NoError(t, w.Close())

	assert.Error(t, w.WriteRejected(model.RawRecord{"late"}))
}

func TestQuarantineWriter_OpenFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	w := writer.NewQuarantineWriter(filepath.Join(blocker, "bad.csv"))
	assert.Error(t, w.Open(context.Background()))
	assert.NoError(t, w.Close(), "closing an unopened writer is a no-op")
}
