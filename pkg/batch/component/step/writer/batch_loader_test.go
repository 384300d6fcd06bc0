package writer_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/userload/pkg/batch/adapter/database/gorm/sqlite"
	"github.com/tigerroll/userload/pkg/batch/component/step/writer"
	"github.com/tigerroll/userload/pkg/batch/core/config"
	model "github.com/tigerroll/userload/pkg/batch/core/domain/model"
	"github.com/tigerroll/userload/pkg/batch/support/util/exception"
	"github.com/tigerroll/userload/pkg/batch/test"
)

func ptr[T any](v T) *T { return &v }

func batchOf(n int) interface{} {
	return mock.MatchedBy(func(m interface{}) bool {
		rows, ok := m.(*[]model.TypedRecord)
		return ok && len(*rows) == n
	})
}

func TestBatchLoader_Prepare(t *testing.T) {
	var stmts []string
	mockTx := new(test.MockTx)
	mockTx.On("ExecuteDDL", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { stmts = append(stmts, args.String(1)) }).
		Return(nil)

	loader := writer.NewBatchLoader(test.NewMockDBConnection(), "user")
	loader.Open(mockTx)
	require.NoError(t, loader.Prepare(context.Background()))

	require.Len(t, stmts, 2)
	assert.Equal(t, `DROP TABLE IF EXISTS "user"`, stmts[0])
	assert.Contains(t, stmts[1], `CREATE TABLE "user" ("A" VARCHAR(20), "B" VARCHAR(20), "C" VARCHAR(320)`)
	assert.Contains(t, stmts[1], `"D" VARCHAR(6) CHECK ("D" IS NULL OR "D" IN ('Male', 'Female'))`)
	assert.Contains(t, stmts[1], `"G" DECIMAL(15,2), "H" BOOLEAN, "I" BOOLEAN, "J" VARCHAR(320))`)
	assert.Equal(t, "user", loader.GetTableName())
}

func TestBatchLoader_PrepareFailure(t *testing.T) {
	mockTx := new(test.MockTx)
	mockTx.On("ExecuteDDL", mock.Anything, mock.MatchedBy(func(stmt string) bool {
		return strings.HasPrefix(stmt, "DROP")
	})).Return(nil).Once()
	mockTx.On("ExecuteDDL", mock.Anything, mock.Anything).Return(errors.New("permission denied")).Once()

	loader := writer.NewBatchLoader(test.NewMockDBConnection(), "user")
	loader.Open(mockTx)

	err := loader.Prepare(context.Background())
	require.Error(t, err)
	assert.True(t, exception.IsFatal(err))
	assert.ErrorContains(t, err, "permission denied")
	mockTx.AssertExpectations(t)
}

func TestBatchLoader_PrepareWithoutTransaction(t *testing.T) {
	loader := writer.NewBatchLoader(test.NewMockDBConnection(), "user")
	assert.Error(t, loader.Prepare(context.Background()))
}

func TestBatchLoader_FlushesOnMultiplesAndRemainder(t *testing.T) {
	ctx := context.Background()
	mockTx := new(test.MockTx)
	mockTx.On("ExecuteInsert", mock.Anything, batchOf(3), "user").Return(int64(3), nil).Twice()
	mockTx.On("ExecuteInsert", mock.Anything, batchOf(1), "user").Return(int64(1), nil).Once()

	loader := writer.NewBatchLoader(test.NewMockDBConnection(), "user")
	loader.Open(mockTx)

	var flushedAt []int
	for accepted := 1; accepted <= 7; accepted++ {
		loader.Stage(&model.TypedRecord{A: ptr("row")})
		n, err := loader.MaybeFlush(ctx, accepted, 3)
		require.NoError(t, err)
		if n > 0 {
			flushedAt = append(flushedAt, accepted)
		}
	}
	assert.Equal(t, []int{3, 6}, flushedAt)
	assert.Equal(t, 1, loader.Pending())

	n, err := loader.FlushRemaining(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, loader.Flushes())

	n, err = loader.FlushRemaining(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "an empty queue is not executed")

	mockTx.AssertExpectations(t)
}

func TestBatchLoader_InsertFailure(t *testing.T) {
	ctx := context.Background()
	mockTx := new(test.MockTx)
	mockTx.On("ExecuteInsert", mock.Anything, batchOf(2), "user").Return(int64(0), errors.New("disk I/O error"))

	loader := writer.NewBatchLoader(test.NewMockDBConnection(), "user")
	loader.Open(mockTx)
	loader.Stage(&model.TypedRecord{})
	loader.Stage(&model.TypedRecord{})

	_, err := loader.MaybeFlush(ctx, 2, 2)
	require.Error(t, err)
	assert.True(t, exception.IsFatal(err))
	assert.Zero(t, loader.Flushes())
	mockTx.AssertNumberOfCalls(t, "ExecuteInsert", 1)
}

func TestBatchLoader_FlushWithoutTransaction(t *testing.T) {
	loader := writer.NewBatchLoader(test.NewMockDBConnection(), "user")
	loader.Stage(&model.TypedRecord{})
	_, err := loader.FlushRemaining(context.Background())
	assert.Error(t, err)
}

// openSQLite returns a real SQLite destination in a temporary directory.
func openSQLite(t *testing.T) database.DBConnection {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Userload.Database.Database = filepath.Join(t.TempDir(), "users.db")
	provider := sqlite.NewProvider(cfg)
	conn, err := provider.GetConnection(database.DestinationConnectionName)
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.CloseAll() })
	return conn
}

func TestBatchLoader_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	loader := writer.NewBatchLoader(conn, "user")

	txManager := gormadapter.NewGormTransactionManager(conn)
	tx, err := txManager.Begin(ctx)
	require.NoError(t, err)
	loader.Open(tx)
	require.NoError(t, loader.Prepare(ctx))

	loader.Stage(&model.TypedRecord{A: ptr("Ada"), D: ptr("Female"), G: ptr(12.50), H: ptr(true), I: ptr(false)})
	loader.Stage(&model.TypedRecord{A: ptr("Bob")})
	_, err = loader.FlushRemaining(ctx)
	require.NoError(t, err)
	require.NoError(t, txManager.Commit(tx))

	db, err := conn.GetSQLDB()
	require.NoError(t, err)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM "user"`).Scan(&count))
	assert.Equal(t, 2, count)

	var g sql.NullFloat64
	var h, i sql.NullBool
	require.NoError(t, db.QueryRow(`SELECT "G", "H", "I" FROM "user" WHERE "A" = 'Ada'`).Scan(&g, &h, &i))
	assert.InDelta(t, 12.50, g.Float64, 1e-9)
	assert.True(t, h.Valid && h.Bool)
	assert.True(t, i.Valid && !i.Bool)

	var d sql.NullString
	require.NoError(t, db.QueryRow(`SELECT "D", "G" FROM "user" WHERE "A" = 'Bob'`).Scan(&d, &g))
	assert.False(t, d.Valid, "absent fields are stored as NULL")
	assert.False(t, g.Valid)
}

func TestBatchLoader_SQLiteCheckViolationRollsBack(t *testing.T) {
	ctx := context.Background()
	conn := openSQLite(t)
	loader := writer.NewBatchLoader(conn, "user")

	txManager := gormadapter.NewGormTransactionManager(conn)
	tx, err := txManager.Begin(ctx)
	require.NoError(t, err)
	loader.Open(tx)
	require.NoError(t, loader.Prepare(ctx))

	loader.Stage(&model.TypedRecord{A: ptr("ok"), D: ptr("Male")})
	_, err = loader.MaybeFlush(ctx, 1, 1)
	require.NoError(t, err)

	loader.Stage(&model.TypedRecord{A: ptr("bad"), D: ptr("Other")})
	_, err = loader.MaybeFlush(ctx, 2, 1)
	require.Error(t, err)
	assert.True(t, sqlite.IsConstraintViolation(err))
	require.NoError(t, txManager.Rollback(tx))

	db, err := conn.GetSQLDB()
	require.NoError(t, err)
	var count int
	assert.Error(t, db.QueryRow(`SELECT COUNT(*) FROM "user"`).Scan(&count), "the table created in the transaction is rolled back too")
}
