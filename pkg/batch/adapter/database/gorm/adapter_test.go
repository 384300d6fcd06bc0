package gorm_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
)

type person struct {
	A string  `gorm:"column:A"`
	B *string `gorm:"column:B"`
}

func setupMock(t *testing.T) (*gormadapter.GormDBAdapter, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	conn, err := gormadapter.NewGormDBAdapter(gormDB, dbconfig.DatabaseConfig{Type: "mysql"}, "destination")
	require.NoError(t, err)
	t.Cleanup(func() {
		mock.ExpectClose()
		_ = conn.Close()
	})
	return conn, mock
}

func TestGormDBAdapter_QuoteIdentifier(t *testing.T) {
	conn, _ := setupMock(t)
	assert.Equal(t, "`user`", conn.QuoteIdentifier("user"))
	assert.Equal(t, "mysql", conn.Type())
	assert.Equal(t, "destination", conn.Name())
}

func TestGormTransactionManager_DDLIsRolledBackWithTheTransaction(t *testing.T) {
	conn, mock := setupMock(t)
	txManager := gormadapter.NewGormTransactionManager(conn)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `user`")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE `user`")).WillReturnError(errors.New("table exists"))
	mock.ExpectRollback()

	tx, err := txManager.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.ExecuteDDL(ctx, "DROP TABLE IF EXISTS `user`"))
	assert.ErrorContains(t, tx.ExecuteDDL(ctx, "CREATE TABLE `user` (`A` VARCHAR(20))"), "table exists")
	require.NoError(t, txManager.Rollback(tx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionManager_InsertAndCommit(t *testing.T) {
	conn, mock := setupMock(t)
	txManager := gormadapter.NewGormTransactionManager(conn)
	ctx := context.Background()

	b := "second"
	rows := []person{{A: "one"}, {A: "two", B: &b}}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `user` (`A`,`B`) VALUES (?,?),(?,?)")).
		WithArgs("one", sqlmock.AnyArg(), "two", "second").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := txManager.Begin(ctx)
	require.NoError(t, err)
	affected, err := tx.ExecuteInsert(ctx, &rows, "user")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.NoError(t, txManager.Commit(tx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionManager_InsertFailureAndRollback(t *testing.T) {
	conn, mock := setupMock(t)
	txManager := gormadapter.NewGormTransactionManager(conn)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `user`")).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	tx, err := txManager.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.ExecuteInsert(ctx, &[]person{{A: "one"}}, "user")
	assert.ErrorContains(t, err, "disk full")
	require.NoError(t, txManager.Rollback(tx))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormTransactionManager_BeginFailure(t *testing.T) {
	conn, mock := setupMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	_, err := gormadapter.NewGormTransactionManager(conn).Begin(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestGetDialectorFactory_Unknown(t *testing.T) {
	_, err := gormadapter.GetDialectorFactory("oracle")
	assert.Error(t, err)
}
