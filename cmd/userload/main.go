package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/fx"

	"github.com/tigerroll/userload/internal/app"
	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	"github.com/tigerroll/userload/pkg/batch/core/config"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// embeddedConfig holds the packaged defaults. The configuration file is merged over it.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// legacyConfigPath is picked up from the working directory when USERLOAD_CONFIG is not set.
const legacyConfigPath = "config.properties"

// getDBProviderOptions selects the DB providers to register. DB_ADAPTORS is a comma-separated list;
// all known providers are registered when it is empty.
func getDBProviderOptions() []fx.Option {
	adaptors := os.Getenv("DB_ADAPTORS")
	if adaptors == "" {
		adaptors = "sqlite,postgres,mysql"
	}

	options := make([]fx.Option, 0)
	for _, name := range strings.Split(adaptors, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if provider, ok := app.DBProviderMap[name]; ok {
			options = append(options, fx.Provide(fx.Annotate(provider, fx.ResultTags(`group:"`+database.DBProviderGroup+`"`))))
			logger.Debugf("DB Provider '%s' selected and registered.", name)
		} else {
			logger.Warnf("DB Provider '%s' is configured but not recognized/supported. Skipping.", name)
		}
	}
	return options
}

// resolveConfigPath returns USERLOAD_CONFIG, else ./config.properties when it exists.
// A run without a configuration file is refused.
func resolveConfigPath() (string, error) {
	return findConfigPath(os.Getenv("USERLOAD_CONFIG"), legacyConfigPath)
}

func findConfigPath(explicit, fallback string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	_, err := os.Stat(fallback)
	if err == nil {
		return fallback, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", exception.NewBatchError("main", fmt.Sprintf("no configuration file: set USERLOAD_CONFIG or provide %s", fallback),
			fmt.Errorf("%w: %s", config.ErrConfigNotFound, fallback), false, false)
	}
	return "", exception.NewBatchError("main", fmt.Sprintf("cannot inspect %s", fallback), err, false, false)
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Attempting to stop the run...", sig)
		cancel()
	}()

	envFilePath := os.Getenv("ENV_FILE_PATH")
	if envFilePath == "" {
		envFilePath = ".env"
	}

	configPath, err := resolveConfigPath()
	if err != nil {
		logger.Errorf("%v", err)
		cancel()
		os.Exit(app.ExitFailure)
	}

	code := app.RunApplication(ctx, envFilePath, configPath, embeddedConfig, getDBProviderOptions())
	cancel()
	os.Exit(code)
}
