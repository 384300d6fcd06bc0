package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tigerroll/userload/pkg/batch/support/util/configbinder"
)

// LegacyProperties are the keys of the legacy .properties configuration.
type LegacyProperties struct {
	DBURL         string `yaml:"DB.Url"`        // JDBC-style URL, e.g. jdbc:sqlite:./users.db
	DBType        string `yaml:"DB.Type"`       // Overrides the type derived from DB.Url.
	InputCSVPath  string `yaml:"InputCSVPath"`  // Input file.
	BadColCSVPath string `yaml:"BadColCSVPath"` // Quarantine file.
	LogPath       string `yaml:"LogPath"`       // Statistics log.
	BatchSize     int    `yaml:"BatchSize"`     // Rows per batch.
}

// mergeProperties binds props to LegacyProperties and copies every non-empty value into cfg.
func mergeProperties(cfg *Config, props map[string]string) error {
	var legacy LegacyProperties
	if err := configbinder.BindProperties(props, &legacy); err != nil {
		return err
	}

	u := &cfg.Userload
	if legacy.DBURL != "" {
		if err := applyDatabaseURL(u, legacy.DBURL); err != nil {
			return err
		}
	}
	if legacy.DBType != "" {
		u.Database.Type = strings.ToLower(legacy.DBType)
	}
	if legacy.InputCSVPath != "" {
		u.Input.Path = legacy.InputCSVPath
	}
	if legacy.BadColCSVPath != "" {
		u.Quarantine.Path = legacy.BadColCSVPath
	}
	if legacy.LogPath != "" {
		u.System.Logging.StatisticsPath = legacy.LogPath
	}
	if legacy.BatchSize != 0 {
		u.Batch.Size = legacy.BatchSize
	}
	return nil
}

// applyDatabaseURL understands jdbc:sqlite:<path>, jdbc:mysql://... and jdbc:postgresql://...
// The "jdbc:" prefix is optional. A value without a "://" scheme separator, such as users.db,
// is a SQLite file path.
func applyDatabaseURL(u *UserloadConfig, raw string) error {
	rest := strings.TrimPrefix(strings.TrimSpace(raw), "jdbc:")

	path, isSQLite := strings.CutPrefix(rest, "sqlite:")
	if !isSQLite && !strings.Contains(rest, "://") {
		path, isSQLite = rest, true
	}
	if isSQLite {
		if path == "" {
			return fmt.Errorf("DB.Url %q has an empty SQLite path", raw)
		}
		u.Database.Type = "sqlite"
		u.Database.Database = path
		return nil
	}

	parsed, err := url.Parse(rest)
	if err != nil {
		return fmt.Errorf("DB.Url %q is not a valid URL: %w", raw, err)
	}
	switch parsed.Scheme {
	case "mysql":
		u.Database.Type = "mysql"
	case "postgres", "postgresql":
		u.Database.Type = "postgres"
	default:
		return fmt.Errorf("DB.Url %q uses an unsupported scheme %q", raw, parsed.Scheme)
	}

	u.Database.Host = parsed.Hostname()
	if p := parsed.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("DB.Url %q has an invalid port: %w", raw, err)
		}
		u.Database.Port = port
	}
	u.Database.Database = strings.TrimPrefix(parsed.Path, "/")

	q := parsed.Query()
	if parsed.User != nil {
		u.Database.User = parsed.User.Username()
		if pw, ok := parsed.User.Password(); ok {
			u.Database.Password = pw
		}
	}
	if v := q.Get("user"); v != "" {
		u.Database.User = v
	}
	if v := q.Get("password"); v != "" {
		u.Database.Password = v
	}
	if v := q.Get("sslmode"); v != "" {
		u.Database.Sslmode = v
	}
	return nil
}
