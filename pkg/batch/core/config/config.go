package config

import (
	"fmt"
	"strings"

	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
)

// Package config provides structures and utilities for managing application configuration.

// EmbeddedConfig holds the content of the default configuration file, passed from main.go.
type EmbeddedConfig []byte

// LogLevel defines the logging level for the application.
type LogLevel string

const (
	LogLevelDebug  LogLevel = "DEBUG"
	LogLevelInfo   LogLevel = "INFO"
	LogLevelWarn   LogLevel = "WARN"
	LogLevelError  LogLevel = "ERROR"
	LogLevelFatal  LogLevel = "FATAL"
	LogLevelSilent LogLevel = "SILENT"
)

// MalformedRecordPolicy decides what happens to a row whose currency or flag field cannot be parsed.
type MalformedRecordPolicy string

const (
	// PolicyFail aborts the run (and rolls the transaction back).
	PolicyFail MalformedRecordPolicy = "fail"
	// PolicyQuarantine routes the row to the quarantine file like any other invalid row.
	PolicyQuarantine MalformedRecordPolicy = "quarantine"
)

// Exporters accepted by tracing.exporter and metrics.exporter.
const (
	TracingExporterNone     = "none"
	TracingExporterOTLPHTTP = "otlp-http"
	TracingExporterOTLPGRPC = "otlp-grpc"
)

// Batch size bounds.
const (
	MinBatchSize = 1
	MaxBatchSize = 1000
)

// SupportedDatabaseTypes lists the destination dialects the loader ships with.
var SupportedDatabaseTypes = []string{"sqlite", "mysql", "postgres"}

// InputConfig locates the delimited input file.
type InputConfig struct {
	// Path is a local file path or a gs://bucket/object URL.
	Path string `yaml:"path"`
	// CredentialsFile is an optional service account key used for gs:// inputs.
	CredentialsFile string `yaml:"credentials_file"`
}

// QuarantineConfig locates the file receiving rejected rows.
type QuarantineConfig struct {
	Path string `yaml:"path"`
}

// BatchConfig holds the loading parameters.
type BatchConfig struct {
	// Size is the number of accepted rows per flushed batch.
	Size int `yaml:"size"`
	// MalformedRecordPolicy is "fail" (default) or "quarantine".
	MalformedRecordPolicy MalformedRecordPolicy `yaml:"malformed_record_policy"`
	// SkipLimit caps the malformed rows quarantined under the quarantine policy. 0 means unlimited.
	SkipLimit int `yaml:"skip_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the diagnostic logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
	// StatisticsPath is the append-mode log receiving the three run counters.
	StatisticsPath string `yaml:"statistics_path"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig holds Prometheus and OpenTelemetry metric settings.
type MetricsConfig struct {
	// TextfilePath, when set, receives a node-exporter textfile dump at the end of the run.
	TextfilePath string `yaml:"textfile_path"`
	// Exporter additionally pushes the run metrics over OTLP: none, otlp-http or otlp-grpc.
	Exporter string `yaml:"exporter"`
	Endpoint string `yaml:"endpoint"`
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Exporter    string `yaml:"exporter"`     // none, otlp-http or otlp-grpc.
	Endpoint    string `yaml:"endpoint"`     // Collector endpoint (host:port).
	ServiceName string `yaml:"service_name"` // Service name attached to spans.
}

// UserloadConfig holds all configuration under the "userload" top-level key.
type UserloadConfig struct {
	Database   dbconfig.DatabaseConfig `yaml:"database"`
	Input      InputConfig             `yaml:"input"`
	Quarantine QuarantineConfig        `yaml:"quarantine"`
	Batch      BatchConfig             `yaml:"batch"`
	System     SystemConfig            `yaml:"system"`
	Metrics    MetricsConfig           `yaml:"metrics"`
	Tracing    TracingConfig           `yaml:"tracing"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Userload UserloadConfig `yaml:"userload"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
// The defaults are a local SQLite file and a batch size of 20.
func NewConfig() *Config {
	return &Config{
		Userload: UserloadConfig{
			Database: dbconfig.DatabaseConfig{
				Type:     "sqlite",
				Database: "./users.db",
				Table:    "user",
				Pool: dbconfig.PoolConfig{
					MaxOpenConns: 1,
					MaxIdleConns: 1,
				},
			},
			Input:      InputConfig{Path: "./input.csv"},
			Quarantine: QuarantineConfig{Path: "./bad-data.csv"},
			Batch: BatchConfig{
				Size:                  20,
				MalformedRecordPolicy: PolicyFail,
			},
			System: SystemConfig{
				Logging: LoggingConfig{
					Level:          string(LogLevelInfo),
					StatisticsPath: "./userload.log",
				},
			},
			Metrics: MetricsConfig{Exporter: TracingExporterNone},
			Tracing: TracingConfig{
				Exporter:    TracingExporterNone,
				ServiceName: "userload",
			},
		},
	}
}

// Validate checks the values a run cannot start without.
func (c *Config) Validate() error {
	u := c.Userload
	if u.Batch.Size < MinBatchSize || u.Batch.Size > MaxBatchSize {
		return fmt.Errorf("batch.size must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, u.Batch.Size)
	}
	if u.Batch.SkipLimit < 0 {
		return fmt.Errorf("batch.skip_limit must not be negative, got %d", u.Batch.SkipLimit)
	}
	switch u.Batch.MalformedRecordPolicy {
	case PolicyFail, PolicyQuarantine:
	default:
		return fmt.Errorf("batch.malformed_record_policy must be %q or %q, got %q", PolicyFail, PolicyQuarantine, u.Batch.MalformedRecordPolicy)
	}
	if strings.TrimSpace(u.Input.Path) == "" {
		return fmt.Errorf("input.path must not be empty")
	}
	if strings.TrimSpace(u.Quarantine.Path) == "" {
		return fmt.Errorf("quarantine.path must not be empty")
	}
	if strings.TrimSpace(u.System.Logging.StatisticsPath) == "" {
		return fmt.Errorf("system.logging.statistics_path must not be empty")
	}
	if strings.TrimSpace(u.Database.Table) == "" {
		return fmt.Errorf("database.table must not be empty")
	}
	if !isSupportedDatabaseType(u.Database.Type) {
		return fmt.Errorf("database.type %q is not supported (expected one of %s)", u.Database.Type, strings.Join(SupportedDatabaseTypes, ", "))
	}
	if !isSupportedExporter(u.Tracing.Exporter) {
		return fmt.Errorf("tracing.exporter %q is not supported", u.Tracing.Exporter)
	}
	if !isSupportedExporter(u.Metrics.Exporter) {
		return fmt.Errorf("metrics.exporter %q is not supported", u.Metrics.Exporter)
	}
	return nil
}

func isSupportedExporter(e string) bool {
	switch e {
	case "", TracingExporterNone, TracingExporterOTLPHTTP, TracingExporterOTLPGRPC:
		return true
	}
	return false
}

func isSupportedDatabaseType(t string) bool {
	for _, s := range SupportedDatabaseTypes {
		if s == t {
			return true
		}
	}
	return false
}
