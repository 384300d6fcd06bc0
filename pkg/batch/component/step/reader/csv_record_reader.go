// Package reader provides the input side of a load run.
package reader

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/tigerroll/userload/pkg/batch/adapter/storage"
	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// InputSource opens an input location. *storage.InputOpener satisfies it.
type InputSource interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// CSVRecordReader is a [port.RecordReader] over a comma-separated input.
// Rows may have any number of fields; structural checks belong to the validator.
type CSVRecordReader struct {
	source    InputSource   // source resolves path to a stream (local file or gs:// object).
	path      string        // path is the configured input location.
	input     io.ReadCloser // input is the open stream, nil before Open and after Close.
	csv       *csv.Reader
	readCount int // readCount is the number of rows returned so far, header included.
}

// NewCSVRecordReader creates a reader for path.
func NewCSVRecordReader(source InputSource, path string) *CSVRecordReader {
	return &CSVRecordReader{source: source, path: path}
}

var _ port.RecordReader = (*CSVRecordReader)(nil)

// Open opens the input. A missing input is returned wrapping model.ErrInputNotFound.
func (r *CSVRecordReader) Open(ctx context.Context) error {
	input, err := r.source.Open(ctx, r.path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return exception.NewBatchError("reader", fmt.Sprintf("could not find input CSV at: %s", r.path), fmt.Errorf("%w: %v", model.ErrInputNotFound, err), false, false)
		}
		return exception.NewBatchError("reader", fmt.Sprintf("failed to open input CSV at: %s", r.path), err, false, false)
	}
	r.input = input
	r.csv = csv.NewReader(input)
	r.csv.FieldsPerRecord = -1
	r.csv.LazyQuotes = true
	r.readCount = 0
	logger.Infof("CSVRecordReader: Opened input '%s'.", r.path)
	return nil
}

// Read returns the next row or io.EOF.
func (r *CSVRecordReader) Read(ctx context.Context) (model.RawRecord, error) {
	if r.csv == nil {
		return nil, exception.NewBatchError("reader", "CSVRecordReader: reader not opened or already closed", errors.New("reader not initialized"), false, false)
	}
	if err := ctx.Err(); err != nil {
		return nil, exception.NewBatchError("reader", "read canceled", err, false, false)
	}

	fields, err := r.csv.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, exception.NewBatchError("reader", fmt.Sprintf("failed to read row %d of '%s'", r.readCount+1, r.path), err, false, false)
	}
	r.readCount++
	return model.RawRecord(fields), nil
}

// Close closes the input. It is safe to call more than once.
func (r *CSVRecordReader) Close(ctx context.Context) error {
	if r.input == nil {
		return nil
	}
	err := r.input.Close()
	r.input = nil
	r.csv = nil
	if err != nil {
		return exception.NewBatchError("reader", fmt.Sprintf("failed to close input '%s'", r.path), err, false, false)
	}
	logger.Debugf("CSVRecordReader: Closed input '%s' after %d rows.", r.path, r.readCount)
	return nil
}

// ReadCount returns the number of rows read so far, header included.
func (r *CSVRecordReader) ReadCount() int {
	return r.readCount
}
