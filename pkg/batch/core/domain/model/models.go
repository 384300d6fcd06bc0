package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// RunStatus represents the state of a single load run.
type RunStatus string

const (
	RunStatusInit       RunStatus = "INIT"        // Destination, input and quarantine are being opened.
	RunStatusReading    RunStatus = "READING"     // Rows are being classified and routed.
	RunStatusDraining   RunStatus = "DRAINING"    // Input exhausted; sinks closed, statistics logged, final flush.
	RunStatusCommitted  RunStatus = "COMMITTED"   // Terminal: transaction committed.
	RunStatusRolledBack RunStatus = "ROLLED_BACK" // Terminal: a failure occurred after the transaction began.
	RunStatusFailed     RunStatus = "FAILED"      // Terminal: a failure occurred before any transaction existed.
)

// String returns the string representation of RunStatus.
func (s RunStatus) String() string {
	return string(s)
}

// IsFinished returns whether the status is terminal.
func (s RunStatus) IsFinished() bool {
	return s == RunStatusCommitted || s == RunStatusRolledBack || s == RunStatusFailed
}

// RunStatistics is the run-scoped state of one load: the three counters plus bookkeeping.
// It is created per run, owned by the import step and returned to the caller at the end.
type RunStatistics struct {
	RunID     string
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time

	// Received counts every non-header row. Received == Accepted + Rejected.
	Received int
	Accepted int
	Rejected int
	// HeaderEchoes counts repeated header rows; they are not part of Received.
	HeaderEchoes int
	// Flushes counts the non-empty batches executed against the destination.
	Flushes int

	// StatisticsLogged is set once the three counters were written to the statistics log.
	StatisticsLogged bool
	Failures         []string
}

// NewRunStatistics creates a new RunStatistics in the INIT state.
func NewRunStatistics() *RunStatistics {
	return &RunStatistics{
		RunID:     NewID(),
		Status:    RunStatusInit,
		StartTime: time.Now(),
		Failures:  make([]string, 0),
	}
}

// NewID generates a new UUID string.
func NewID() string {
	return uuid.New().String()
}

// RecordAccepted counts an accepted row and returns the accepted count so far.
func (s *RunStatistics) RecordAccepted() int {
	s.Received++
	s.Accepted++
	return s.Accepted
}

// RecordRejected counts a rejected row.
func (s *RunStatistics) RecordRejected() {
	s.Received++
	s.Rejected++
}

// RecordHeaderEcho counts a repeated header row without touching the three counters.
func (s *RunStatistics) RecordHeaderEcho() {
	s.HeaderEchoes++
}

// AddFailure records the message of an error that ended the run.
func (s *RunStatistics) AddFailure(err error) {
	if err != nil {
		s.Failures = append(s.Failures, err.Error())
	}
}

// isValidRunTransition checks if the state transition for a run is valid.
func isValidRunTransition(current, next RunStatus) bool {
	switch current {
	case RunStatusInit:
		return next == RunStatusReading || next == RunStatusFailed || next == RunStatusRolledBack
	case RunStatusReading:
		return next == RunStatusDraining || next == RunStatusRolledBack
	case RunStatusDraining:
		return next == RunStatusCommitted || next == RunStatusRolledBack
	default:
		return false
	}
}

// TransitionTo moves the run to newStatus. Terminal states also set EndTime.
func (s *RunStatistics) TransitionTo(newStatus RunStatus) error {
	if !isValidRunTransition(s.Status, newStatus) {
		return fmt.Errorf("run %s: invalid state transition: %s -> %s", s.RunID, s.Status, newStatus)
	}
	s.Status = newStatus
	if newStatus.IsFinished() {
		now := time.Now()
		s.EndTime = &now
	}
	return nil
}

// MarkAs transitions to newStatus, logging (not failing) on an invalid transition.
func (s *RunStatistics) MarkAs(newStatus RunStatus) {
	if err := s.TransitionTo(newStatus); err != nil {
		logger.Warnf("%v", err)
	}
}

// Duration returns the elapsed time of the run, up to now if it has not finished.
func (s *RunStatistics) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
