// Package writer provides the two sinks of a load run: the destination table and the quarantine file.
package writer

import (
	"context"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	"github.com/tigerroll/userload/pkg/batch/core/tx"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// IdentifierQuoter quotes table and column names for the destination dialect.
// database.DBConnection satisfies it.
type IdentifierQuoter interface {
	QuoteIdentifier(name string) string
}

// BatchLoader is the [port.RecordLoader] writing accepted records to the destination table.
// Staged records are queued in memory and executed as one multi-row INSERT per batch,
// inside the transaction bound by Open. The table is recreated inside that same transaction,
// so a failed run leaves the previous table in place. The loader never retries a failed batch.
type BatchLoader struct {
	quoter    IdentifierQuoter      // quoter renders identifiers in the drop/create statements.
	tableName string                // tableName is the destination table.
	tx        tx.Tx                 // tx is the run's transaction, set by Open.
	queue     []model.TypedRecord   // queue holds the records staged since the last flush.
	flushes   int                   // flushes counts the non-empty batches executed.
	recorder  metrics.MetricRecorder
	tracer    metrics.Tracer
}

// NewBatchLoader creates a new [BatchLoader].
//
// Parameters:
//
//	quoter: The identifier quoting of the destination dialect.
//	tableName: The destination table.
//
// Returns:
//
//	A new [BatchLoader] instance.
func NewBatchLoader(quoter IdentifierQuoter, tableName string) *BatchLoader {
	return &BatchLoader{
		quoter:    quoter,
		tableName: tableName,
		recorder:  metrics.NewNoOpMetricRecorder(),
		tracer:    metrics.NewNoOpTracer(),
	}
}

// Verify that [BatchLoader] implements the [port.RecordLoader] interface at compile time.
var _ port.RecordLoader = (*BatchLoader)(nil)

// SetMetricRecorder sets the recorder notified on each flush.
func (l *BatchLoader) SetMetricRecorder(recorder metrics.MetricRecorder) {
	l.recorder = recorder
}

// SetTracer sets the tracer wrapping each flush in a span.
func (l *BatchLoader) SetTracer(tracer metrics.Tracer) {
	l.tracer = tracer
}

// Prepare drops and recreates the destination table within the transaction bound by Open.
func (l *BatchLoader) Prepare(ctx context.Context) error {
	if l.tx == nil {
		return exception.NewBatchError("loader", "no transaction bound; call Open first", nil, false, false)
	}
	quote := l.quoter.QuoteIdentifier
	for _, stmt := range []string{
		DropTableStatement(quote, l.tableName),
		CreateTableStatement(quote, l.tableName),
	} {
		logger.Debugf("BatchLoader: %s", stmt)
		if err := l.tx.ExecuteDDL(ctx, stmt); err != nil {
			return exception.NewBatchErrorf("loader", "failed to prepare table '%s'", l.tableName, err)
		}
	}
	logger.Infof("BatchLoader: Table '%s' recreated.", l.tableName)
	return nil
}

// Open binds the loader to the run's transaction and clears any previous state.
func (l *BatchLoader) Open(t tx.Tx) {
	l.tx = t
	l.queue = nil
	l.flushes = 0
}

// Stage enqueues one record.
func (l *BatchLoader) Stage(record *model.TypedRecord) {
	l.queue = append(l.queue, *record)
}

// MaybeFlush executes the queue iff acceptedSoFar is a positive multiple of batchSize.
func (l *BatchLoader) MaybeFlush(ctx context.Context, acceptedSoFar, batchSize int) (int, error) {
	if batchSize <= 0 || acceptedSoFar == 0 || acceptedSoFar%batchSize != 0 {
		return 0, nil
	}
	return l.flush(ctx)
}

// FlushRemaining executes whatever is queued.
func (l *BatchLoader) FlushRemaining(ctx context.Context) (int, error) {
	return l.flush(ctx)
}

// Flushes returns the number of non-empty batches executed since Open.
func (l *BatchLoader) Flushes() int {
	return l.flushes
}

// Pending returns the number of staged records not yet flushed.
func (l *BatchLoader) Pending() int {
	return len(l.queue)
}

// GetTableName returns the destination table.
func (l *BatchLoader) GetTableName() string {
	return l.tableName
}

func (l *BatchLoader) flush(ctx context.Context) (int, error) {
	n := len(l.queue)
	if n == 0 {
		return 0, nil
	}
	if l.tx == nil {
		return 0, exception.NewBatchError("loader", "no transaction bound; call Open first", nil, false, false)
	}

	ctx, end := l.tracer.StartFlushSpan(ctx, n)
	defer end()

	if _, err := l.tx.ExecuteInsert(ctx, &l.queue, l.tableName); err != nil {
		l.tracer.RecordError(ctx, "loader", err)
		return 0, exception.NewBatchErrorf("loader", "failed to insert batch of %d rows into '%s'", n, l.tableName, err)
	}
	l.queue = nil
	l.flushes++
	l.recorder.RecordBatchFlush(ctx, n)
	logger.Debugf("BatchLoader: Flushed %d rows into '%s' (batch #%d).", n, l.tableName, l.flushes)
	return n, nil
}
