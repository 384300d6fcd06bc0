package app_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"

	"github.com/tigerroll/userload/internal/app"
	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
	storage "github.com/tigerroll/userload/pkg/batch/adapter/storage"
	"github.com/tigerroll/userload/pkg/batch/adapter/storage/local"
	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	config "github.com/tigerroll/userload/pkg/batch/core/config"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	"github.com/tigerroll/userload/pkg/batch/listener/logging"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
	"github.com/tigerroll/userload/pkg/batch/test"
)

func importStepParams(t *testing.T, resolver database.DBConnectionResolver) app.ImportStepParams {
	return app.ImportStepParams{
		Lifecycle:       fxtest.NewLifecycle(t),
		Cfg:             config.NewConfig(),
		AppCtx:          context.Background(),
		Resolver:        resolver,
		TxFactory:       gormadapter.NewGormTransactionManagerFactory(),
		Opener:          storage.NewInputOpenerFromProviders(local.NewLocalProvider()),
		Statistics:      logger.NewStatisticsLog(&bytes.Buffer{}),
		MetricRecorder:  metrics.NewNoOpMetricRecorder(),
		Tracer:          metrics.NewNoOpTracer(),
		RunListeners:    []port.RunListener{logging.NewLoggingRunListener()},
		RecordListeners: []port.RecordListener{logging.NewLoggingRecordListener()},
	}
}

func TestNewImportStep_ResolvesDestination(t *testing.T) {
	conn := test.NewMockDBConnection()
	p := importStepParams(t, test.NewSingleConnectionResolver(conn))

	step, err := app.NewImportStep(p)
	require.NoError(t, err)
	assert.Equal(t, "userImportStep", step.StepName())

	lc := p.Lifecycle.(*fxtest.Lifecycle)
	lc.RequireStart().RequireStop()
}

func TestNewImportStep_ResolveFailure(t *testing.T) {
	resolver := new(test.MockDBConnectionResolver)
	resolver.On("ResolveDBConnection", context.Background(), database.DestinationConnectionName).
		Return(nil, errors.New("connection refused"))

	_, err := app.NewImportStep(importStepParams(t, resolver))
	assert.ErrorContains(t, err, "connection refused")
	resolver.AssertExpectations(t)
}
