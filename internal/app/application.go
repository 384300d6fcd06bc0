package app

import (
	"context"
	"time"

	"go.uber.org/fx"

	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
	storage "github.com/tigerroll/userload/pkg/batch/adapter/storage"
	"github.com/tigerroll/userload/pkg/batch/adapter/storage/gcs"
	"github.com/tigerroll/userload/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	item "github.com/tigerroll/userload/pkg/batch/engine/step/item"
	infraMetrics "github.com/tigerroll/userload/pkg/batch/infrastructure/metrics"
	batchlistener "github.com/tigerroll/userload/pkg/batch/listener"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// Exit codes of the process.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// stopTimeout bounds how long shutdown waits for an in-flight run to roll back.
const stopTimeout = time.Minute

// RunApplication builds the Fx application, performs one run and returns the process exit code.
// The code is ExitSuccess only when the run committed.
func RunApplication(appCtx context.Context, envFilePath, configPath string, embeddedConfig config.EmbeddedConfig, dbProviderOptions []fx.Option) int {
	var signaler *batchlistener.RunCompletionSignaler

	app := fx.New(
		fx.Supply(
			embeddedConfig,
			fx.Annotate(envFilePath, fx.ResultTags(`name:"envFilePath"`)),
			fx.Annotate(configPath, fx.ResultTags(`name:"configPath"`)),
			fx.Annotate(
				appCtx,
				fx.As(new(context.Context)),
				fx.ResultTags(`name:"appCtx"`),
			),
		),
		fx.StopTimeout(stopTimeout),

		logger.Module,
		config.Module,
		fx.Invoke(applyLogLevel),

		fx.Options(dbProviderOptions...),
		gormadapter.Module,
		storage.Module,
		local.Module,
		gcs.Module,

		infraMetrics.Module,
		batchlistener.Module,
		Module,

		fx.Populate(&signaler),
		fx.Invoke(fx.Annotate(startRun, fx.ParamTags(
			"",              // lc fx.Lifecycle
			"",              // shutdowner fx.Shutdowner
			"",              // step *item.ImportStep
			"",              // signaler *batchlistener.RunCompletionSignaler
			`name:"appCtx"`, // appCtx context.Context
		))),
	)
	if err := app.Err(); err != nil {
		logger.Errorf("Failed to build the application: %v", err)
		return ExitFailure
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), fx.DefaultTimeout)
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		logger.Errorf("Failed to start the application: %v", err)
		return ExitFailure
	}

	<-app.Wait()

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopTimeout)
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		logger.Errorf("Failed to stop the application cleanly: %v", err)
	}

	return exitCode(signaler)
}

// exitCode maps the run outcome to the process exit code. A run that never finished is a failure.
func exitCode(signaler *batchlistener.RunCompletionSignaler) int {
	select {
	case <-signaler.Done():
	default:
		return ExitFailure
	}
	status, err := signaler.Wait(context.Background())
	if err != nil || status != model.RunStatusCommitted {
		return ExitFailure
	}
	return ExitSuccess
}

func applyLogLevel(cfg *config.LoggingConfig) {
	logger.SetLogLevel(cfg.Level)
	logger.Infof("Log level set to: %s", cfg.Level)
}

// startRun launches the run when the application starts and requests shutdown when it ends.
// On stop it waits for the run to finish so that connections are not closed under it.
func startRun(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	step *item.ImportStep,
	signaler *batchlistener.RunCompletionSignaler,
	appCtx context.Context,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				code := ExitSuccess
				defer func() {
					if r := recover(); r != nil {
						logger.Errorf("Panic recovered in run execution: %v", r)
						code = ExitFailure
					}
					logger.Infof("Requesting application shutdown after run completion.")
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Errorf("Failed to shutdown application: %v", err)
					}
				}()

				logger.Infof("Starting step '%s'...", step.StepName())
				stats, err := step.Run(appCtx)
				if err != nil {
					code = ExitFailure
					logger.Errorf("Step '%s' failed with status %s: %v", step.StepName(), stats.Status, err)
					return
				}
				logger.Infof("Step '%s' finished with status %s.", step.StepName(), stats.Status)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if _, err := signaler.Wait(ctx); err != nil && ctx.Err() != nil {
				logger.Warnf("Run did not finish before shutdown: %v", err)
			}
			logger.Infof("Application is shutting down.")
			return nil
		},
	})
}
