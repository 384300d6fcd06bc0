// Package port defines the interfaces between the import step and the components it drives.
package port

import (
	"context"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	tx "github.com/tigerroll/userload/pkg/batch/core/tx"
)

// Step is one complete unit of work executed against a run.
type Step interface {
	// Execute runs the step. The step updates stats as it goes and leaves it in a terminal state.
	//
	// Parameters:
	//   ctx: The context for the operation. Cancellation aborts the run.
	//   stats: The run-scoped statistics, created by the caller.
	//
	// Returns:
	//   An error if the run did not commit.
	Execute(ctx context.Context, stats *model.RunStatistics) error

	// StepName returns the name of the step.
	StepName() string

	// SetMetricRecorder sets the MetricRecorder for the step.
	SetMetricRecorder(recorder metrics.MetricRecorder)

	// SetTracer sets the Tracer for the step.
	SetTracer(tracer metrics.Tracer)
}

// RecordReader reads input rows in order. The first row returned is the header.
type RecordReader interface {
	// Open prepares the reader. A missing input is reported as model.ErrInputNotFound.
	Open(ctx context.Context) error

	// Read returns the next row, or io.EOF when the input is exhausted.
	Read(ctx context.Context) (model.RawRecord, error)

	// Close releases the underlying input. Calling Close more than once is allowed.
	Close(ctx context.Context) error
}

// RecordClassifier decides what happens to a single row.
// Implementations are pure: they do not touch counters or sinks.
type RecordClassifier interface {
	// Classify compares row with the (cleaned) header and validates it.
	//
	// Returns:
	//   The classification, or an error when a typed field is malformed.
	Classify(header, row model.RawRecord) (model.Classification, error)
}

// RecordLoader stages accepted records into the run's transaction and flushes them in batches.
type RecordLoader interface {
	// Open binds the loader to the open transaction of the run.
	Open(t tx.Tx)

	// Prepare drops and recreates the destination table inside the transaction bound by Open.
	Prepare(ctx context.Context) error

	// Stage enqueues one record.
	Stage(record *model.TypedRecord)

	// MaybeFlush executes the queued batch iff acceptedSoFar is a multiple of batchSize.
	//
	// Returns: The number of rows flushed (0 when no flush happened).
	MaybeFlush(ctx context.Context, acceptedSoFar, batchSize int) (int, error)

	// FlushRemaining executes whatever is still queued. It is a no-op on an empty queue.
	FlushRemaining(ctx context.Context) (int, error)

	// Flushes returns the number of non-empty batches executed so far.
	Flushes() int

	// GetTableName returns the destination table name.
	GetTableName() string
}

// QuarantineSink receives rejected rows verbatim.
type QuarantineSink interface {
	// Open creates (or truncates) the quarantine output.
	Open(ctx context.Context) error

	// WriteHeader writes the header row. It must be called once, before any WriteRejected.
	WriteHeader(header model.RawRecord) error

	// WriteRejected appends one raw row.
	WriteRejected(row model.RawRecord) error

	// Close flushes and closes the output exactly once; later calls return nil.
	Close() error
}

// RunListener is notified before a run starts reading and after it has reached a terminal state.
type RunListener interface {
	// BeforeRun is called once the run has been created.
	BeforeRun(ctx context.Context, stats *model.RunStatistics)
	// AfterRun is called with the final statistics and the error the run ended with, if any.
	AfterRun(ctx context.Context, stats *model.RunStatistics, err error)
}

// RecordListener is notified about rows that did not reach the destination.
type RecordListener interface {
	// OnHeaderEcho is called for a repeated header row.
	OnHeaderEcho(ctx context.Context, row model.RawRecord)
	// OnReject is called for a row routed to quarantine.
	OnReject(ctx context.Context, classification model.Classification)
}

// Fx groups collecting the listeners registered with the import step.
const (
	RunListenerGroup    = "run_listeners"
	RecordListenerGroup = "record_listeners"
)
