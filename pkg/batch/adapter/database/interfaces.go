package database

import (
	"context"
	"database/sql"

	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
	coreAdapter "github.com/tigerroll/userload/pkg/batch/core/adapter"
)

// DestinationConnectionName is the name under which the destination connection is registered.
const DestinationConnectionName = "destination"

// DBConnection represents an abstraction of a database connection.
// It embeds coreAdapter.ResourceConnection for generic connection management.
type DBConnection interface {
	coreAdapter.ResourceConnection // Embeds Type(), Name(), Close()

	// QuoteIdentifier quotes a table or column name using the dialect's quoting rules.
	QuoteIdentifier(name string) string
	// Config returns the database configuration associated with this connection.
	Config() dbconfig.DatabaseConfig
	// GetSQLDB returns the underlying *sql.DB connection.
	GetSQLDB() (*sql.DB, error)
}

// DBConnectionResolver resolves a database connection instance by name.
type DBConnectionResolver interface {
	// ResolveDBConnection returns a live connection, re-establishing it if a ping fails.
	ResolveDBConnection(ctx context.Context, name string) (DBConnection, error)
}

// DBProvider is responsible for providing database connections based on configuration.
type DBProvider interface {
	// GetConnection retrieves a database connection with the specified name.
	GetConnection(name string) (DBConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the database type handled by this provider (e.g., "sqlite").
	Type() string
	// ForceReconnect closes and re-establishes the connection with the specified name.
	ForceReconnect(name string) (DBConnection, error)
}

// DBProviderGroup is the Fx group name used to collect all DBProvider implementations.
const DBProviderGroup = "db_providers"
