package item

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"

	coreAdapter "github.com/tigerroll/userload/pkg/batch/core/adapter"
	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	tx "github.com/tigerroll/userload/pkg/batch/core/tx"
	skip "github.com/tigerroll/userload/pkg/batch/engine/step/skip"
	exception "github.com/tigerroll/userload/pkg/batch/support/util/exception"
	logger "github.com/tigerroll/userload/pkg/batch/support/util/logger"
	"github.com/tigerroll/userload/pkg/batch/support/util/textclean"
)

const moduleName = "step"

// StatisticsWriter receives the three counters of a run. *logger.StatisticsLog satisfies it.
type StatisticsWriter interface {
	WriteCounts(received, accepted, rejected int) error
}

// ImportStep drives one load run: it reads every input row, classifies it, routes it to the
// loader or to quarantine and owns the transaction boundary.
//
// The run is strictly sequential. Rows are staged, and batches flushed, in input order.
type ImportStep struct {
	name        string
	destination coreAdapter.ResourceConnection // destination is closed exactly once per Execute.
	txManager   tx.TransactionManager
	reader      port.RecordReader
	classifier  port.RecordClassifier
	loader      port.RecordLoader
	quarantine  port.QuarantineSink
	statistics  StatisticsWriter
	batchSize   int
	skipLimit   int

	runListeners    []port.RunListener
	recordListeners []port.RecordListener

	// Metrics and Tracing
	metricRecorder metrics.MetricRecorder
	tracer         metrics.Tracer
}

// Verify that ImportStep implements the port.Step interface.
var _ port.Step = (*ImportStep)(nil)

// NewImportStep creates a new ImportStep.
//
// Parameters:
//
//	name: The step name, used in logs.
//	destination: The destination connection. It is closed when Execute returns.
//	txManager: The transaction manager of the destination connection.
//	reader, classifier, loader, quarantine: The pipeline components.
//	statistics: The sink of the three counters.
//	batchSize: The number of accepted rows per flushed batch.
func NewImportStep(
	name string,
	destination coreAdapter.ResourceConnection,
	txManager tx.TransactionManager,
	reader port.RecordReader,
	classifier port.RecordClassifier,
	loader port.RecordLoader,
	quarantine port.QuarantineSink,
	statistics StatisticsWriter,
	batchSize int,
) *ImportStep {
	return &ImportStep{
		name:           name,
		destination:    destination,
		txManager:      txManager,
		reader:         reader,
		classifier:     classifier,
		loader:         loader,
		quarantine:     quarantine,
		statistics:     statistics,
		batchSize:      batchSize,
		metricRecorder: metrics.NewNoOpMetricRecorder(),
		tracer:         metrics.NewNoOpTracer(),
	}
}

// SetSkipLimit caps the skippable row errors absorbed per run. 0, the default, means unlimited.
func (s *ImportStep) SetSkipLimit(limit int) {
	s.skipLimit = limit
}

// StepName returns the name of the step.
func (s *ImportStep) StepName() string {
	return s.name
}

// SetMetricRecorder sets the MetricRecorder for the step and for a loader that accepts one.
func (s *ImportStep) SetMetricRecorder(recorder metrics.MetricRecorder) {
	s.metricRecorder = recorder
	if l, ok := s.loader.(interface{ SetMetricRecorder(metrics.MetricRecorder) }); ok {
		l.SetMetricRecorder(recorder)
	}
}

// SetTracer sets the Tracer for the step and for a loader that accepts one.
func (s *ImportStep) SetTracer(tracer metrics.Tracer) {
	s.tracer = tracer
	if l, ok := s.loader.(interface{ SetTracer(metrics.Tracer) }); ok {
		l.SetTracer(tracer)
	}
}

// RegisterRunListener adds a listener notified before and after the run.
func (s *ImportStep) RegisterRunListener(l port.RunListener) {
	s.runListeners = append(s.runListeners, l)
}

// RegisterRecordListener adds a listener notified about skipped and rejected rows.
func (s *ImportStep) RegisterRecordListener(l port.RecordListener) {
	s.recordListeners = append(s.recordListeners, l)
}

// Run executes the step with fresh statistics and returns them.
func (s *ImportStep) Run(ctx context.Context) (*model.RunStatistics, error) {
	stats := model.NewRunStatistics()
	err := s.Execute(ctx, stats)
	return stats, err
}

// Execute performs one run:
//
//	INIT:     begin the transaction, recreate the table in it, open input and quarantine, write the header.
//	READING:  classify and route every row, flushing on every batchSize accepted rows.
//	DRAINING: close input and quarantine, log the counters, flush the remainder.
//	then commit. Any failure after the transaction began is followed by a rollback attempt.
//
// Only a failure to begin the transaction leaves the run FAILED; every later one leaves it
// ROLLED_BACK, with the previous table restored where the dialect's DDL is transactional.
func (s *ImportStep) Execute(ctx context.Context, stats *model.RunStatistics) (err error) {
	ctx, endSpan := s.tracer.StartRunSpan(ctx, stats)
	defer endSpan()

	logger.Infof("Step '%s' (run %s) started, loading into '%s'.", s.name, stats.RunID, s.loader.GetTableName())
	s.metricRecorder.RecordRunStart(ctx, stats)
	for _, l := range s.runListeners {
		l.BeforeRun(ctx, stats)
	}

	var closeOnce sync.Once
	closeDestination := func() {
		closeOnce.Do(func() {
			if s.destination == nil {
				return
			}
			if closeErr := s.destination.Close(); closeErr != nil {
				logger.Warnf("Step '%s': failed to close destination '%s': %v", s.name, s.destination.Name(), closeErr)
			}
		})
	}

	defer func() {
		closeDestination()
		if err != nil {
			stats.AddFailure(err)
			s.tracer.RecordError(ctx, moduleName, err)
			logger.Errorf("Step '%s' (run %s) ended with status %s: %v", s.name, stats.RunID, stats.Status, err)
		} else {
			logger.Infof("Step '%s' (run %s) ended with status %s. Received: %d, Accepted: %d, Rejected: %d, Header echoes: %d.",
				s.name, stats.RunID, stats.Status, stats.Received, stats.Accepted, stats.Rejected, stats.HeaderEchoes)
		}
		s.metricRecorder.RecordRunEnd(ctx, stats)
		for _, l := range s.runListeners {
			l.AfterRun(ctx, stats, err)
		}
	}()

	// --- INIT ---
	t, err := s.txManager.Begin(ctx)
	if err != nil {
		stats.MarkAs(model.RunStatusFailed)
		return exception.NewBatchError(moduleName, "failed to begin transaction", err, false, false)
	}
	s.loader.Open(t)

	header, err := s.open(ctx)
	defer s.closeQuietly(ctx)
	if err != nil {
		return s.rollback(ctx, stats, t, err)
	}

	// --- READING / DRAINING ---
	if err := s.process(ctx, stats, header, skip.NewLimitSkipPolicy(s.skipLimit)); err != nil {
		return s.rollback(ctx, stats, t, err)
	}

	// --- COMMIT ---
	if err := s.txManager.Commit(t); err != nil {
		return s.rollback(ctx, stats, t, exception.NewBatchError(moduleName, "failed to commit transaction", err, false, false))
	}
	stats.MarkAs(model.RunStatusCommitted)
	s.metricRecorder.RecordTransaction(ctx, metrics.OutcomeCommitted)
	return nil
}

// open recreates the table, opens the input and the quarantine sink and writes the cleaned header.
func (s *ImportStep) open(ctx context.Context) (model.RawRecord, error) {
	if err := s.loader.Prepare(ctx); err != nil {
		return nil, err
	}
	if err := s.reader.Open(ctx); err != nil {
		return nil, err
	}
	if err := s.quarantine.Open(ctx); err != nil {
		return nil, err
	}

	first, err := s.reader.Read(ctx)
	if errors.Is(err, io.EOF) {
		return nil, exception.NewBatchError(moduleName, "input has no header row", err, false, false)
	}
	if err != nil {
		return nil, err
	}
	header := model.RawRecord(textclean.CleanHeader(first))
	if err := s.quarantine.WriteHeader(header); err != nil {
		return nil, err
	}
	return header, nil
}

// process reads every row and then drains the run.
func (s *ImportStep) process(ctx context.Context, stats *model.RunStatistics, header model.RawRecord, skipPolicy skip.SkipPolicy) error {
	stats.MarkAs(model.RunStatusReading)

	for {
		row, err := s.reader.Read(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if err := s.route(ctx, stats, header, row, skipPolicy); err != nil {
			return err
		}
	}

	stats.MarkAs(model.RunStatusDraining)
	if err := s.reader.Close(ctx); err != nil {
		return err
	}
	if err := s.quarantine.Close(); err != nil {
		return err
	}
	if err := s.statistics.WriteCounts(stats.Received, stats.Accepted, stats.Rejected); err != nil {
		return exception.NewBatchError(moduleName, "failed to write statistics", err, false, false)
	}
	stats.StatisticsLogged = true

	if _, err := s.loader.FlushRemaining(ctx); err != nil {
		return err
	}
	stats.Flushes = s.loader.Flushes()
	return nil
}

// route classifies one row and sends it to its destination.
func (s *ImportStep) route(ctx context.Context, stats *model.RunStatistics, header, row model.RawRecord, skipPolicy skip.SkipPolicy) error {
	c, err := s.classifier.Classify(header, row)
	if err != nil {
		if c.Kind != model.KindInvalid || !exception.IsSkippable(err) {
			return err
		}
		if !skipPolicy.ShouldSkip(err) {
			return exception.NewBatchErrorf(moduleName, "skip limit of %d exceeded", skipPolicy.GetSkipLimit(), err)
		}
		logger.Warnf("Step '%s': skipping row (%d/%d): %v", s.name, skipPolicy.GetSkipCount(), skipPolicy.GetSkipLimit(), err)
	}

	switch c.Kind {
	case model.KindHeaderEcho:
		stats.RecordHeaderEcho()
		s.tracer.RecordEvent(ctx, "header_echo", map[string]interface{}{"received": stats.Received})
		for _, l := range s.recordListeners {
			l.OnHeaderEcho(ctx, row)
		}
		return nil

	case model.KindInvalid:
		stats.RecordRejected()
		s.metricRecorder.RecordRejected(ctx, c.Reason)
		s.tracer.RecordEvent(ctx, "record_rejected", map[string]interface{}{"reason": c.Reason, "received": stats.Received})
		for _, l := range s.recordListeners {
			l.OnReject(ctx, c)
		}
		return s.quarantine.WriteRejected(c.Raw)

	case model.KindValid:
		accepted := stats.RecordAccepted()
		s.metricRecorder.RecordAccepted(ctx)
		s.loader.Stage(c.Record)
		if _, err := s.loader.MaybeFlush(ctx, accepted, s.batchSize); err != nil {
			return err
		}
		stats.Flushes = s.loader.Flushes()
		return nil

	default:
		return exception.NewBatchError(moduleName, fmt.Sprintf("unknown classification %s", c.Kind), nil, false, false)
	}
}

// rollback undoes the transaction after cause. A rollback failure is reported together with
// cause, never instead of it.
func (s *ImportStep) rollback(ctx context.Context, stats *model.RunStatistics, t tx.Tx, cause error) error {
	logger.Warnf("Step '%s': rolling back run %s after error: %v", s.name, stats.RunID, cause)
	stats.MarkAs(model.RunStatusRolledBack)

	rbErr := s.txManager.Rollback(t)
	if rbErr == nil {
		s.metricRecorder.RecordTransaction(ctx, metrics.OutcomeRolledBack)
		return cause
	}
	s.metricRecorder.RecordTransaction(ctx, metrics.OutcomeRollbackFailed)
	logger.Errorf("Step '%s': rollback of run %s failed: %v", s.name, stats.RunID, rbErr)
	return multierror.Append(cause, exception.NewBatchError(moduleName, "rollback failed", rbErr, false, false))
}

// closeQuietly releases the input and the quarantine sink on every exit path.
// Both are no-ops when already closed during draining.
func (s *ImportStep) closeQuietly(ctx context.Context) {
	if err := s.reader.Close(ctx); err != nil {
		logger.Warnf("Step '%s': %v", s.name, err)
	}
	if err := s.quarantine.Close(); err != nil {
		logger.Warnf("Step '%s': %v", s.name, err)
	}
}
