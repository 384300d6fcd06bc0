package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"gopkg.in/yaml.v3"

	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// Package config provides utilities for loading and managing application configuration
// from YAML files, Java-style .properties files and environment variables.

const moduleName = "config"

// ErrConfigNotFound is wrapped when an explicitly named configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration not found")

// ConfigParams defines the dependencies for NewConfigProvider.
type ConfigParams struct {
	fx.In
	EmbeddedConfig EmbeddedConfig // EmbeddedConfig contains the raw bytes of the default configuration file.
	EnvFilePath    string         `name:"envFilePath" optional:"true"` // EnvFilePath is the path to the .env file, if any.
	ConfigPath     string         `name:"configPath" optional:"true"`  // ConfigPath is a .yaml or .properties file overriding the embedded one.
}

// loadConfig loads configuration from a file and environment variables.
//
// Parameters:
//
//	envFilePath: The path to the .env file.
//	configPath: A .yaml/.yml or .properties file. Empty selects embeddedConfig.
//	embeddedConfig: The embedded configuration bytes.
//
// Returns:
//
//	A pointer to the loaded Config and an error if loading fails.
func loadConfig(envFilePath, configPath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	// 1. Defaults.
	cfg := NewConfig()
	cfg.EmbeddedConfig = embeddedConfig

	// 2. Packaged defaults under an explicit file. Without a file they are the source itself.
	if configPath != "" && len(embeddedConfig) > 0 {
		if err := yaml.Unmarshal(embeddedConfig, cfg); err != nil {
			return nil, exception.NewBatchError(moduleName, "failed to unmarshal embedded configuration", err, false, false)
		}
	}

	// 3. File or embedded source, with ${VAR} placeholders expanded.
	source, raw, err := readSource(configPath, embeddedConfig)
	if err != nil {
		return nil, err
	}
	expanded, err := NewOsEnvironmentExpander().Expand(raw)
	if err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to expand environment placeholders", err, false, false)
	}

	if isPropertiesFile(configPath) {
		if err := applyProperties(cfg, expanded); err != nil {
			return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to load properties from %s", source), err, false, false)
		}
	} else if len(expanded) > 0 {
		// Unmarshalling over the defaults only replaces the keys present in the document.
		if err := yaml.Unmarshal(expanded, cfg); err != nil {
			return nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to unmarshal %s", source), err, false, false)
		}
	}

	// 4. Environment overrides, named after the yaml path (USERLOAD_BATCH_SIZE, ...).
	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem(), ""); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to load config from environment variables", err, false, false)
	}

	// 5. Validation.
	if err := cfg.Validate(); err != nil {
		return nil, exception.NewBatchError(moduleName, "invalid configuration", err, false, false)
	}
	logger.Debugf("Configuration loaded from %s.", source)
	return cfg, nil
}

// readSource returns a human readable name of the source and its bytes.
func readSource(configPath string, embeddedConfig EmbeddedConfig) (string, []byte, error) {
	if configPath == "" {
		return "embedded configuration", embeddedConfig, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, exception.NewBatchError(moduleName, fmt.Sprintf("configuration file %s does not exist", configPath), fmt.Errorf("%w: %s", ErrConfigNotFound, configPath), false, false)
		}
		return "", nil, exception.NewBatchError(moduleName, fmt.Sprintf("failed to read configuration file %s", configPath), err, false, false)
	}
	return configPath, data, nil
}

func isPropertiesFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".properties")
}

// applyProperties parses key=value lines and merges the recognised keys into cfg.
func applyProperties(cfg *Config, data []byte) error {
	props, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return err
	}
	return mergeProperties(cfg, props)
}

// NewConfigProvider is an Fx provider that loads and provides *Config.
// It loads defaults, merges the configuration file, applies environment overrides
// and sets the global logger level.
//
// Parameters:
//
//	params: ConfigParams containing the embedded config, the config path and the env file path.
//
// Returns:
//
//	A pointer to the initialized Config and an error if loading or validation fails.
func NewConfigProvider(params ConfigParams) (*Config, error) {
	cfg, err := loadConfig(params.EnvFilePath, params.ConfigPath, params.EmbeddedConfig)
	if err != nil {
		return nil, err
	}

	logger.SetLogLevel(cfg.Userload.System.Logging.Level)
	logger.Debugf("Log level set to: %s", cfg.Userload.System.Logging.Level)
	return cfg, nil
}

// LoadConfig loads configuration from the given file (or the embedded bytes) and environment variables.
func LoadConfig(envFilePath, configPath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	return loadConfig(envFilePath, configPath, embeddedConfig)
}

// loadStructFromEnv recursively loads configuration values into a struct from environment variables.
// It uses the "yaml" tag to determine the environment variable name.
//
// Parameters:
//
//	val: The reflect.Value of the struct to populate.
//	prefix: The prefix for environment variable names (e.g., "USERLOAD_BATCH_").
//
// Returns: An error if any field cannot be set.
func loadStructFromEnv(val reflect.Value, prefix string) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)
		yamlTag := strings.Split(fieldType.Tag.Get("yaml"), ",")[0]
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		envVarName := strings.ToUpper(prefix + yamlTag)

		if field.Kind() == reflect.Struct {
			if err := loadStructFromEnv(field, envVarName+"_"); err != nil {
				return err
			}
			continue
		}

		envValue, exists := os.LookupEnv(envVarName)
		if !exists {
			continue
		}
		if err := setField(field, envValue); err != nil {
			return fmt.Errorf("failed to set field '%s' from env var '%s': %w", fieldType.Name, envVarName, err)
		}
	}
	return nil
}

// setField sets the value of a reflect.Value field based on its kind.
// It handles string, int, float, and bool types.
func setField(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		intValue, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(intValue)
	case reflect.Float64, reflect.Float32:
		floatValue, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatValue)
	case reflect.Bool:
		boolValue, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolValue)
	}
	return nil
}
