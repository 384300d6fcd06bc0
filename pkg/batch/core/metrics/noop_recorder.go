package metrics

import (
	"context"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

// NoOpMetricRecorder is an implementation of MetricRecorder that does nothing.
// It is used when metrics are disabled or during testing.
type NoOpMetricRecorder struct{}

// NewNoOpMetricRecorder creates a new instance of NoOpMetricRecorder.
func NewNoOpMetricRecorder() MetricRecorder {
	return &NoOpMetricRecorder{}
}

func (r *NoOpMetricRecorder) RecordRunStart(ctx context.Context, stats *model.RunStatistics) {}
func (r *NoOpMetricRecorder) RecordRunEnd(ctx context.Context, stats *model.RunStatistics)   {}
func (r *NoOpMetricRecorder) RecordAccepted(ctx context.Context)                              {}
func (r *NoOpMetricRecorder) RecordRejected(ctx context.Context, reason string)               {}
func (r *NoOpMetricRecorder) RecordBatchFlush(ctx context.Context, rows int)                  {}
func (r *NoOpMetricRecorder) RecordTransaction(ctx context.Context, outcome string)           {}

var _ MetricRecorder = (*NoOpMetricRecorder)(nil)

// --- NoOpTracer ---

// NoOpTracer is an implementation of Tracer that does nothing.
type NoOpTracer struct{}

// NewNoOpTracer creates a new instance of NoOpTracer.
func NewNoOpTracer() Tracer {
	return &NoOpTracer{}
}

func (t *NoOpTracer) StartRunSpan(ctx context.Context, stats *model.RunStatistics) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) StartFlushSpan(ctx context.Context, rows int) (context.Context, func()) {
	return ctx, func() {}
}

func (t *NoOpTracer) RecordError(ctx context.Context, module string, err error) {}

func (t *NoOpTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
}

var _ Tracer = (*NoOpTracer)(nil)
