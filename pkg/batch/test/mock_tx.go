package test

import (
	"context"
	"database/sql"

	"github.com/stretchr/testify/mock"

	tx "github.com/tigerroll/userload/pkg/batch/core/tx"
)

// MockTx is a mock implementation of the tx.Tx interface.
type MockTx struct {
	mock.Mock
}

// ExecuteDDL mocks the ExecuteDDL method of tx.TxExecutor.
func (m *MockTx) ExecuteDDL(ctx context.Context, statement string) error {
	args := m.Called(ctx, statement)
	return args.Error(0)
}

// ExecuteInsert mocks the ExecuteInsert method of tx.TxExecutor.
// It records the call and returns the predefined values.
func (m *MockTx) ExecuteInsert(ctx context.Context, model interface{}, tableName string) (rowsAffected int64, err error) {
	args := m.Called(ctx, model, tableName)
	return args.Get(0).(int64), args.Error(1)
}

// MockTxManager is a mock implementation of the tx.TransactionManager interface.
// It allows for mocking the lifecycle of transactions (Begin, Commit, Rollback).
type MockTxManager struct {
	mock.Mock
}

// Begin mocks the Begin method of tx.TransactionManager.
// It records the call and returns a mock Tx instance or an error.
func (m *MockTxManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(tx.Tx), args.Error(1)
}

// Commit mocks the Commit method of tx.TransactionManager.
func (m *MockTxManager) Commit(t tx.Tx) error {
	args := m.Called(t)
	return args.Error(0)
}

// Rollback mocks the Rollback method of tx.TransactionManager.
func (m *MockTxManager) Rollback(t tx.Tx) error {
	args := m.Called(t)
	return args.Error(0)
}

// Ensure that MockTx implements the tx.Tx interface.
var _ tx.Tx = (*MockTx)(nil)

// Ensure that MockTxManager implements the tx.TransactionManager interface.
var _ tx.TransactionManager = (*MockTxManager)(nil)
