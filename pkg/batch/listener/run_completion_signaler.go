package listener

import (
	"context"
	"sync"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// RunCompletionSignaler is a RunListener that closes a channel once the run has reached a
// terminal state. Shutdown hooks wait on it so that connections outlive the run.
type RunCompletionSignaler struct {
	done   chan struct{}
	once   sync.Once
	status model.RunStatus
	err    error
}

// NewRunCompletionSignaler creates a new RunCompletionSignaler.
func NewRunCompletionSignaler() *RunCompletionSignaler {
	return &RunCompletionSignaler{done: make(chan struct{})}
}

// BeforeRun does nothing.
func (l *RunCompletionSignaler) BeforeRun(ctx context.Context, stats *model.RunStatistics) {}

// AfterRun records the outcome and closes the channel. Later calls are ignored.
func (l *RunCompletionSignaler) AfterRun(ctx context.Context, stats *model.RunStatistics, err error) {
	l.once.Do(func() {
		l.status = stats.Status
		l.err = err
		logger.Debugf("RunCompletionSignaler: run '%s' reached %s.", stats.RunID, stats.Status)
		close(l.done)
	})
}

// Done is closed when the run has finished.
func (l *RunCompletionSignaler) Done() <-chan struct{} {
	return l.done
}

// Wait blocks until the run has finished or ctx is done, and returns the run's final status and error.
func (l *RunCompletionSignaler) Wait(ctx context.Context) (model.RunStatus, error) {
	select {
	case <-l.done:
		return l.status, l.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Verify that RunCompletionSignaler implements the port.RunListener interface.
var _ port.RunListener = (*RunCompletionSignaler)(nil)
