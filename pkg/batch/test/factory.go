package test

import (
	"database/sql"
	"sync"

	dbadapter "github.com/tigerroll/userload/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
)

// MockDBConnection is an in-memory implementation of the database.DBConnection interface.
// It records Close calls instead of talking to a database.
type MockDBConnection struct {
	// CloseErr is returned by every Close call.
	CloseErr error

	mu         sync.Mutex
	closeCalls int
}

// NewMockDBConnection creates a new instance of MockDBConnection.
func NewMockDBConnection() *MockDBConnection {
	return &MockDBConnection{}
}

// QuoteIdentifier quotes name with double quotes.
func (m *MockDBConnection) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

// Close counts the call and returns CloseErr.
func (m *MockDBConnection) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeCalls++
	return m.CloseErr
}

// CloseCalls returns how many times Close was called.
func (m *MockDBConnection) CloseCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closeCalls
}

// Type always returns "mock_db".
func (m *MockDBConnection) Type() string {
	return "mock_db"
}

// Name always returns the destination connection name.
func (m *MockDBConnection) Name() string {
	return dbadapter.DestinationConnectionName
}

// Config returns an empty configuration.
func (m *MockDBConnection) Config() dbconfig.DatabaseConfig {
	return dbconfig.DatabaseConfig{}
}

// GetSQLDB returns a nil *sql.DB, as it's a mock.
func (m *MockDBConnection) GetSQLDB() (*sql.DB, error) {
	return nil, nil
}

var _ dbadapter.DBConnection = (*MockDBConnection)(nil)
