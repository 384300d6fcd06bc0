package config

// PoolConfig holds database connection pool settings.
type PoolConfig struct {
	MaxOpenConns           int `yaml:"max_open_conns"`
	MaxIdleConns           int `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int `yaml:"conn_max_lifetime_minutes"`
}

// DatabaseConfig holds the destination connection settings.
type DatabaseConfig struct {
	Type     string     `yaml:"type"`     // Database type ("sqlite", "mysql", "postgres").
	Host     string     `yaml:"host"`     // Database host address.
	Port     int        `yaml:"port"`     // Database port number.
	Database string     `yaml:"database"` // Database name, or the file path for SQLite.
	User     string     `yaml:"user"`     // Database user.
	Password string     `yaml:"password"` // Database password.
	Sslmode  string     `yaml:"sslmode"`  // SSL mode for PostgreSQL connections.
	Table    string     `yaml:"table"`    // Destination table that is dropped and recreated on every run.
	Pool     PoolConfig `yaml:"pool"`     // Connection pool settings.
}
