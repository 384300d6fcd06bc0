package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
)

func newRecordingTracer(t *testing.T) (*OpenTelemetryTracer, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return NewOpenTelemetryTracerWithProvider(tp), sr
}

func TestOpenTelemetryTracer_RunAndFlushSpans(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	stats := model.NewRunStatistics()

	ctx, endRun := tracer.StartRunSpan(context.Background(), stats)
	_, endFlush := tracer.StartFlushSpan(ctx, 20)
	endFlush()
	stats.RecordAccepted()
	stats.MarkAs(model.RunStatusReading)
	stats.MarkAs(model.RunStatusDraining)
	stats.MarkAs(model.RunStatusCommitted)
	endRun()

	spans := sr.Ended()
	require.Len(t, spans, 2)
	flush, run := spans[0], spans[1]
	assert.Equal(t, "userload.flush", flush.Name())
	assert.Equal(t, "userload.run", run.Name())
	assert.Equal(t, run.SpanContext().SpanID(), flush.Parent().SpanID())
	assert.Equal(t, codes.Ok, run.Status().Code)

	attrs := map[string]interface{}{}
	for _, kv := range run.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, int64(1), attrs["userload.accepted"])
	assert.Equal(t, "COMMITTED", attrs["userload.status"])
}

func TestOpenTelemetryTracer_RecordErrorAndEvent(t *testing.T) {
	tracer, sr := newRecordingTracer(t)
	stats := model.NewRunStatistics()

	ctx, end := tracer.StartRunSpan(context.Background(), stats)
	tracer.RecordEvent(ctx, "header_echo", map[string]interface{}{"line": 7, "skipped": true})
	tracer.RecordError(ctx, "loader", errors.New("constraint violation"))
	stats.MarkAs(model.RunStatusRolledBack)
	end()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 2)
	assert.Equal(t, "header_echo", events[0].Name)
	assert.Equal(t, "exception", events[1].Name)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

func TestNewOpenTelemetryTracer_Disabled(t *testing.T) {
	tracer, err := NewOpenTelemetryTracer(context.Background(), config.NewConfig())
	require.NoError(t, err)
	assert.Nil(t, tracer)
}
