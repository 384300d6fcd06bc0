package metrics

import (
	"context"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

// Tracer is an abstract interface for distributed tracing of a load run.
type Tracer interface {
	// StartRunSpan starts the root span of a run.
	//
	// Returns: A context with the new span set, and a function that ends it.
	//          The end function reads the final counters from stats.
	StartRunSpan(ctx context.Context, stats *model.RunStatistics) (context.Context, func())

	// StartFlushSpan starts a child span around one batch flush.
	StartFlushSpan(ctx context.Context, rows int) (context.Context, func())

	// RecordError records an error in the current span.
	//
	// module: The component where the error occurred (e.g., "loader", "reader").
	RecordError(ctx context.Context, module string, err error)

	// RecordEvent records an event in the current span.
	RecordEvent(ctx context.Context, name string, attributes map[string]interface{})
}
