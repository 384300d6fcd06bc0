package reader_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/userload/pkg/batch/adapter/storage"
	"github.com/tigerroll/userload/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/userload/pkg/batch/component/step/reader"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
)

func newOpener() *storage.InputOpener {
	return storage.NewInputOpenerFromProviders(local.NewLocalProvider())
}

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVRecordReader_ReadsRaggedRows(t *testing.T) {
	path := writeInput(t, "A,B,C\n1,\"two, quoted\",3,extra\nshort\n")
	r := reader.NewCSVRecordReader(newOpener(), path)
	ctx := context.Background()
	require.NoError(t, r.Open(ctx))

	var rows []model.RawRecord
	for {
		row, err := r.Read(ctx)
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		rows = append(rows, row)
	}
	require.NoError(t, r.Close(ctx))
	require.NoError(t, r.Close(ctx), "second close is a no-op")

	require.Len(t, rows, 3)
	assert.Equal(t, model.RawRecord{"A", "B", "C"}, rows[0])
	assert.Equal(t, model.RawRecord{"1", "two, quoted", "3", "extra"}, rows[1])
	assert.Equal(t, model.RawRecord{"short"}, rows[2])
	assert.Equal(t, 3, r.ReadCount())
}

func TestCSVRecordReader_MissingInput(t *testing.T) {
	r := reader.NewCSVRecordReader(newOpener(), filepath.Join(t.TempDir(), "absent.csv"))
	err := r.Open(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrInputNotFound))
	assert.True(t, exception.IsFatal(err))
}

func TestCSVRecordReader_ReadBeforeOpen(t *testing.T) {
	r := reader.NewCSVRecordReader(newOpener(), "unused.csv")
	_, err := r.Read(context.Background())
	assert.Error(t, err)
}

func TestCSVRecordReader_CanceledContext(t *testing.T) {
	path := writeInput(t, "A\n1\n")
	r := reader.NewCSVRecordReader(newOpener(), path)
	require.NoError(t, r.Open(context.Background()))
	t.Cleanup(func() { _ = r.Close(context.Background()) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Read(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
