// Package config provides the configuration structures of the loader and their Fx providers.
package config

import "go.uber.org/fx"

// NewLoggingConfigProvider extracts and provides *LoggingConfig from *Config.
// This allows other Fx components to depend only on the logging configuration.
func NewLoggingConfigProvider(cfg *Config) *LoggingConfig {
	return &cfg.Userload.System.Logging
}

// Module provides *Config and the narrower views other components depend on.
// The caller supplies EmbeddedConfig and, optionally, the named "envFilePath" and "configPath" strings.
var Module = fx.Options(
	fx.Provide(NewConfigProvider),
	fx.Provide(NewLoggingConfigProvider),
	fx.Provide(func(cfg *Config) *BatchConfig { return &cfg.Userload.Batch }),
)
