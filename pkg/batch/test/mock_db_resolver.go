package test

import (
	"context"

	"github.com/stretchr/testify/mock"

	dbadapter "github.com/tigerroll/userload/pkg/batch/adapter/database"
)

// MockDBConnectionResolver is a mock implementation of the database.DBConnectionResolver interface.
type MockDBConnectionResolver struct {
	mock.Mock
}

// ResolveDBConnection mocks the ResolveDBConnection method.
// It records the call and returns the predefined values.
func (m *MockDBConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dbadapter.DBConnection), args.Error(1)
}

// singleConnectionResolver always returns the same connection.
type singleConnectionResolver struct {
	conn dbadapter.DBConnection
}

// NewSingleConnectionResolver returns a resolver that always yields conn.
func NewSingleConnectionResolver(conn dbadapter.DBConnection) dbadapter.DBConnectionResolver {
	return &singleConnectionResolver{conn: conn}
}

// ResolveDBConnection implements the database.DBConnectionResolver interface.
func (r *singleConnectionResolver) ResolveDBConnection(ctx context.Context, name string) (dbadapter.DBConnection, error) {
	return r.conn, nil
}

var _ dbadapter.DBConnectionResolver = (*MockDBConnectionResolver)(nil)
