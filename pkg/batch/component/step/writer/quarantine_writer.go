package writer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-multierror"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
	"github.com/tigerroll/userload/pkg/batch/support/util/textclean"
)

// QuarantineWriter is the [port.QuarantineSink] writing rejected rows to a CSV file.
// The file is truncated on Open; the first row is the cleaned header.
type QuarantineWriter struct {
	path          string
	file          *os.File
	csv           *csv.Writer
	headerWritten bool
	rows          int

	closeOnce sync.Once
	closeErr  error
}

// NewQuarantineWriter creates a writer for path. Nothing is created until Open.
func NewQuarantineWriter(path string) *QuarantineWriter {
	return &QuarantineWriter{path: path}
}

// Verify that [QuarantineWriter] implements the [port.QuarantineSink] interface at compile time.
var _ port.QuarantineSink = (*QuarantineWriter)(nil)

// Open creates the parent directory if needed and truncates the file.
func (w *QuarantineWriter) Open(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return exception.NewBatchError("quarantine", "open canceled", err, false, false)
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return exception.NewBatchError("quarantine", fmt.Sprintf("failed to create directory for '%s'", w.path), err, false, false)
		}
	}
	f, err := os.Create(w.path)
	if err != nil {
		return exception.NewBatchError("quarantine", fmt.Sprintf("failed to create quarantine file '%s'", w.path), err, false, false)
	}
	w.file = f
	w.csv = csv.NewWriter(f)
	logger.Infof("QuarantineWriter: Writing rejected rows to '%s'.", w.path)
	return nil
}

// WriteHeader writes header with invisible characters removed from its first field.
func (w *QuarantineWriter) WriteHeader(header model.RawRecord) error {
	if w.csv == nil {
		return exception.NewBatchError("quarantine", "writer not opened or already closed", errors.New("writer not initialized"), false, false)
	}
	if w.headerWritten {
		return exception.NewBatchError("quarantine", "header already written", nil, false, false)
	}
	if err := w.csv.Write(textclean.CleanHeader(header)); err != nil {
		return exception.NewBatchError("quarantine", fmt.Sprintf("failed to write header to '%s'", w.path), err, false, false)
	}
	w.headerWritten = true
	return nil
}

// WriteRejected appends row verbatim.
func (w *QuarantineWriter) WriteRejected(row model.RawRecord) error {
	if w.csv == nil {
		return exception.NewBatchError("quarantine", "writer not opened or already closed", errors.New("writer not initialized"), false, false)
	}
	if err := w.csv.Write(row); err != nil {
		return exception.NewBatchError("quarantine", fmt.Sprintf("failed to write rejected row to '%s'", w.path), err, false, false)
	}
	w.rows++
	return nil
}

// Close flushes buffered rows and closes the file. Only the first call does any work;
// it returns the combined flush and close errors, and later calls return nil.
func (w *QuarantineWriter) Close() error {
	var err error
	w.closeOnce.Do(func() {
		if w.file == nil {
			return
		}
		var result *multierror.Error
		w.csv.Flush()
		if flushErr := w.csv.Error(); flushErr != nil {
			result = multierror.Append(result, flushErr)
		}
		if closeErr := w.file.Close(); closeErr != nil {
			result = multierror.Append(result, closeErr)
		}
		w.csv = nil
		w.file = nil
		if result.ErrorOrNil() != nil {
			w.closeErr = exception.NewBatchError("quarantine", fmt.Sprintf("failed to close '%s'", w.path), result.ErrorOrNil(), false, false)
		}
		err = w.closeErr
		logger.Debugf("QuarantineWriter: Closed '%s' with %d rejected rows.", w.path, w.rows)
	})
	return err
}

// Rows returns the number of rejected rows written, header excluded.
func (w *QuarantineWriter) Rows() int {
	return w.rows
}
