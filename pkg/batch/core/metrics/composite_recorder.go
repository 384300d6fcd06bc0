package metrics

import (
	"context"

	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

// CompositeRecorder fans every call out to a list of recorders, in order.
type CompositeRecorder struct {
	recorders []MetricRecorder
}

// NewCompositeRecorder creates a recorder delegating to recorders. Nil entries are ignored.
func NewCompositeRecorder(recorders ...MetricRecorder) *CompositeRecorder {
	c := &CompositeRecorder{}
	for _, r := range recorders {
		if r != nil {
			c.recorders = append(c.recorders, r)
		}
	}
	return c
}

func (c *CompositeRecorder) RecordRunStart(ctx context.Context, stats *model.RunStatistics) {
	for _, r := range c.recorders {
		r.RecordRunStart(ctx, stats)
	}
}

func (c *CompositeRecorder) RecordRunEnd(ctx context.Context, stats *model.RunStatistics) {
	for _, r := range c.recorders {
		r.RecordRunEnd(ctx, stats)
	}
}

func (c *CompositeRecorder) RecordAccepted(ctx context.Context) {
	for _, r := range c.recorders {
		r.RecordAccepted(ctx)
	}
}

func (c *CompositeRecorder) RecordRejected(ctx context.Context, reason string) {
	for _, r := range c.recorders {
		r.RecordRejected(ctx, reason)
	}
}

func (c *CompositeRecorder) RecordBatchFlush(ctx context.Context, rows int) {
	for _, r := range c.recorders {
		r.RecordBatchFlush(ctx, rows)
	}
}

func (c *CompositeRecorder) RecordTransaction(ctx context.Context, outcome string) {
	for _, r := range c.recorders {
		r.RecordTransaction(ctx, outcome)
	}
}

var _ MetricRecorder = (*CompositeRecorder)(nil)
