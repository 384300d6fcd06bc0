// Package app wires the loader components into an Fx application that performs one run.
package app

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/userload/pkg/batch/adapter/database/gorm/mysql"
	"github.com/tigerroll/userload/pkg/batch/adapter/database/gorm/postgres"
	"github.com/tigerroll/userload/pkg/batch/adapter/database/gorm/sqlite"
	storage "github.com/tigerroll/userload/pkg/batch/adapter/storage"
	processor "github.com/tigerroll/userload/pkg/batch/component/step/processor"
	reader "github.com/tigerroll/userload/pkg/batch/component/step/reader"
	writer "github.com/tigerroll/userload/pkg/batch/component/step/writer"
	port "github.com/tigerroll/userload/pkg/batch/core/application/port"
	config "github.com/tigerroll/userload/pkg/batch/core/config"
	metrics "github.com/tigerroll/userload/pkg/batch/core/metrics"
	item "github.com/tigerroll/userload/pkg/batch/engine/step/item"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// importStepName names the single step of a run in logs.
const importStepName = "userImportStep"

// DBProviderMap is used by main.go to select providers.
var DBProviderMap = map[string]func(cfg *config.Config) database.DBProvider{
	"postgres": postgres.NewProvider,
	"mysql":    mysql.NewProvider,
	"sqlite":   sqlite.NewProvider,
}

// NewStatisticsLog opens the statistics log and closes it when the application stops.
func NewStatisticsLog(lc fx.Lifecycle, cfg *config.LoggingConfig) (*logger.StatisticsLog, error) {
	statisticsLog, err := logger.OpenStatisticsLog(cfg.StatisticsPath)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return statisticsLog.Close()
		},
	})
	return statisticsLog, nil
}

// ImportStepParams defines the dependencies for NewImportStep.
type ImportStepParams struct {
	fx.In
	Lifecycle   fx.Lifecycle
	Cfg         *config.Config
	AppCtx      context.Context `name:"appCtx"`
	Resolver    database.DBConnectionResolver
	TxFactory   *gormadapter.GormTransactionManagerFactory
	DBProviders []database.DBProvider `group:"db_providers"`
	Opener      *storage.InputOpener
	Statistics  *logger.StatisticsLog

	MetricRecorder  metrics.MetricRecorder
	Tracer          metrics.Tracer
	RunListeners    []port.RunListener    `group:"run_listeners"`
	RecordListeners []port.RecordListener `group:"record_listeners"`
}

// NewImportStep resolves the destination connection and assembles the import step around it.
func NewImportStep(p ImportStepParams) (*item.ImportStep, error) {
	u := p.Cfg.Userload

	conn, err := p.Resolver.ResolveDBConnection(p.AppCtx, database.DestinationConnectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve the destination database: %w", err)
	}
	logger.Infof("Destination database '%s' (%s) resolved.", conn.Name(), conn.Type())

	// Providers and storage connections outlive the step; the step only closes the destination itself.
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			var lastErr error
			for _, provider := range p.DBProviders {
				if err := provider.CloseAll(); err != nil {
					logger.Errorf("Failed to close connections for provider %s: %v", provider.Type(), err)
					lastErr = err
				}
			}
			if err := p.Opener.CloseAll(); err != nil {
				lastErr = err
			}
			return lastErr
		},
	})

	loader := writer.NewBatchLoader(conn, u.Database.Table)
	step := item.NewImportStep(
		importStepName,
		conn,
		p.TxFactory.NewTransactionManager(conn),
		reader.NewCSVRecordReader(p.Opener, u.Input.Path),
		processor.NewRecordValidator(u.Batch.MalformedRecordPolicy),
		loader,
		writer.NewQuarantineWriter(u.Quarantine.Path),
		p.Statistics,
		u.Batch.Size,
	)
	step.SetSkipLimit(u.Batch.SkipLimit)
	step.SetMetricRecorder(p.MetricRecorder)
	step.SetTracer(p.Tracer)
	for _, l := range p.RunListeners {
		step.RegisterRunListener(l)
	}
	for _, l := range p.RecordListeners {
		step.RegisterRecordListener(l)
	}
	return step, nil
}

// Module provides the statistics log and the import step.
var Module = fx.Options(
	fx.Provide(NewStatisticsLog),
	fx.Provide(NewImportStep),
)
