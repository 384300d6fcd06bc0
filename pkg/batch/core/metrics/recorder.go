package metrics

import (
	"context"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

// Transaction outcomes reported through RecordTransaction.
const (
	OutcomeCommitted      = "commit"
	OutcomeRolledBack     = "rollback"
	OutcomeRollbackFailed = "rollback_failed"
)

// MetricRecorder is an abstract interface for recording metrics of a load run.
// It allows the import step to stay independent of the metrics backend (Prometheus, no-op).
type MetricRecorder interface {
	// RecordRunStart records the start of a run.
	RecordRunStart(ctx context.Context, stats *model.RunStatistics)

	// RecordRunEnd records the final status and duration of a run.
	// Implementations may export their state at this point.
	RecordRunEnd(ctx context.Context, stats *model.RunStatistics)

	// RecordAccepted records one row routed to the destination.
	RecordAccepted(ctx context.Context)

	// RecordRejected records one row routed to quarantine.
	//
	// reason: One of the model.Reject* constants.
	RecordRejected(ctx context.Context, reason string)

	// RecordBatchFlush records one executed batch of rows.
	RecordBatchFlush(ctx context.Context, rows int)

	// RecordTransaction records how the run's transaction ended (see the Outcome* constants).
	RecordTransaction(ctx context.Context, outcome string)
}
