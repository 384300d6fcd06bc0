package gorm

import (
	"context"
	"database/sql"
	"fmt"

	"gorm.io/gorm"

	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	tx "github.com/tigerroll/userload/pkg/batch/core/tx"
)

// GormTxAdapter implements tx.Tx and is used by GormTransactionManager.
type GormTxAdapter struct {
	db *gorm.DB
}

// ExecuteDDL implements tx.TxExecutor.
func (t *GormTxAdapter) ExecuteDDL(ctx context.Context, statement string) error {
	return t.db.WithContext(ctx).Exec(statement).Error
}

// ExecuteInsert implements tx.TxExecutor.
// A pointer to a slice is written by gorm as a single multi-row INSERT.
func (t *GormTxAdapter) ExecuteInsert(ctx context.Context, model interface{}, tableName string) (rowsAffected int64, err error) {
	db := t.db.WithContext(ctx)
	if tableName != "" {
		db = db.Table(tableName)
	}
	result := db.Create(model)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GormTransactionManager implements tx.TransactionManager for one connection.
type GormTransactionManager struct {
	conn database.DBConnection
}

// NewGormTransactionManager creates a transaction manager bound to conn.
func NewGormTransactionManager(conn database.DBConnection) tx.TransactionManager {
	return &GormTransactionManager{conn: conn}
}

// Begin starts a transaction on the bound connection.
func (m *GormTransactionManager) Begin(ctx context.Context, opts ...*sql.TxOptions) (tx.Tx, error) {
	// Access to the *gorm.DB is acceptable only within the adapter layer.
	adapter, ok := m.conn.(*GormDBAdapter)
	if !ok {
		return nil, fmt.Errorf("internal error: DBConnection implementation is not *GormDBAdapter")
	}
	gormDB := adapter.GetGormDB().WithContext(ctx)

	var txOpts *sql.TxOptions
	if len(opts) > 0 && opts[0] != nil {
		txOpts = opts[0]
	}

	gormTx := gormDB.Begin(txOpts)
	if gormTx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", gormTx.Error)
	}
	return &GormTxAdapter{db: gormTx}, nil
}

func (m *GormTransactionManager) Commit(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Commit().Error
}

func (m *GormTransactionManager) Rollback(t tx.Tx) error {
	gormTxAdapter, ok := t.(*GormTxAdapter)
	if !ok {
		return fmt.Errorf("invalid transaction type: expected *GormTxAdapter")
	}
	return gormTxAdapter.db.Rollback().Error
}

// GormTransactionManagerFactory creates transaction managers from connections.
type GormTransactionManagerFactory struct{}

// NewGormTransactionManagerFactory creates a new GormTransactionManagerFactory.
func NewGormTransactionManagerFactory() *GormTransactionManagerFactory {
	return &GormTransactionManagerFactory{}
}

// NewTransactionManager creates a TransactionManager for conn.
func (f *GormTransactionManagerFactory) NewTransactionManager(conn database.DBConnection) tx.TransactionManager {
	return NewGormTransactionManager(conn)
}
