// Package tx provides an abstraction for transaction management.
// A load run performs all of its inserts inside one transaction so that the
// destination either receives every accepted row or none of them.
package tx

import (
	"context"
	"database/sql"
)

// TxExecutor defines the write operations executable within a transaction.
type TxExecutor interface {
	// ExecuteDDL runs a schema statement inside the transaction. On dialects with
	// transactional DDL a later rollback also undoes it.
	ExecuteDDL(ctx context.Context, statement string) error

	// ExecuteInsert inserts model, a pointer to an entity or to a slice of entities,
	// into tableName. A slice is written as one multi-row INSERT statement.
	//
	// Returns: The number of affected rows and any error that occurred during the operation.
	ExecuteInsert(ctx context.Context, model interface{}, tableName string) (rowsAffected int64, err error)
}

// Tx represents an ongoing database transaction.
type Tx interface {
	TxExecutor
}

// TransactionManager manages the lifecycle of database transactions (begin, commit, rollback).
type TransactionManager interface {
	// Begin starts a new database transaction.
	// opts: Optional transaction options (e.g., isolation level).
	Begin(ctx context.Context, opts ...*sql.TxOptions) (Tx, error)
	// Commit persists all changes made within tx.
	Commit(tx Tx) error
	// Rollback undoes all changes made within tx.
	Rollback(tx Tx) error
}
