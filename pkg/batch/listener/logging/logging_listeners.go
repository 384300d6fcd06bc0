// Package logging provides listeners that report run progress through the leveled logger.
package logging

import (
	"context"

	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	exception "github.com/tigerroll/userload/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// --- Run Listener ---

type LoggingRunListener struct{}

func NewLoggingRunListener() *LoggingRunListener {
	return &LoggingRunListener{}
}

func (l *LoggingRunListener) BeforeRun(ctx context.Context, stats *model.RunStatistics) {
	logger.Infof("RunListener: BeforeRun - RunID: %s", stats.RunID)
}

// AfterRun reports the outcome at INFO for a committed run and at WARN otherwise.
// A failing BatchError is summarized by its message at ERROR; the wrapped chain goes to DEBUG.
func (l *LoggingRunListener) AfterRun(ctx context.Context, stats *model.RunStatistics, err error) {
	message := "RunListener: AfterRun - RunID: %s, Status: %s, Received: %d, Accepted: %d, Rejected: %d, HeaderEchoes: %d, Flushes: %d, Duration: %s"
	args := []interface{}{stats.RunID, stats.Status, stats.Received, stats.Accepted, stats.Rejected, stats.HeaderEchoes, stats.Flushes, stats.Duration()}

	if stats.Status == model.RunStatusCommitted {
		logger.Infof(message, args...)
		return
	}
	logger.Warnf(message, args...)
	if err == nil {
		return
	}
	kind := "error"
	if exception.IsFatal(err) {
		kind = "fatal error"
	}
	logger.Errorf("RunListener: AfterRun - RunID: %s ended with %s: %s", stats.RunID, kind, exception.ExtractErrorMessage(err))
	if exception.IsBatchError(err) {
		logger.Debugf("RunListener: AfterRun - RunID: %s error detail: %v", stats.RunID, err)
	}
}

var _ port.RunListener = (*LoggingRunListener)(nil)

// --- Record Listener ---

type LoggingRecordListener struct{}

func NewLoggingRecordListener() *LoggingRecordListener {
	return &LoggingRecordListener{}
}

func (l *LoggingRecordListener) OnHeaderEcho(ctx context.Context, row model.RawRecord) {
	logger.Debugf("RecordListener: OnHeaderEcho - skipping repeated header (%d fields)", len(row))
}

// OnReject logs the reason only. Field values stay in the quarantine file.
func (l *LoggingRecordListener) OnReject(ctx context.Context, classification model.Classification) {
	logger.Debugf("RecordListener: OnReject - reason: %s, fields: %d", classification.Reason, len(classification.Raw))
}

var _ port.RecordListener = (*LoggingRecordListener)(nil)
