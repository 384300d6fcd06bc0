package gorm

import (
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
	"github.com/tigerroll/userload/pkg/batch/support/util/logger"
)

// GormDBAdapter implements database.DBConnection on top of *gorm.DB.
type GormDBAdapter struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	cfg    dbconfig.DatabaseConfig
	dbType string
	name   string
}

// NewGormDBAdapter creates a new GormDBAdapter.
// It returns an error if the underlying *sql.DB cannot be obtained.
func NewGormDBAdapter(db *gorm.DB, cfg dbconfig.DatabaseConfig, name string) (*GormDBAdapter, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}

	return &GormDBAdapter{
		db:     db,
		sqlDB:  sqlDB,
		cfg:    cfg,
		dbType: cfg.Type,
		name:   name,
	}, nil
}

var _ database.DBConnection = (*GormDBAdapter)(nil)

// GetGormDB returns the underlying *gorm.DB instance.
// NOTE: This method is intended for use within the gorm adapter package only.
func (a *GormDBAdapter) GetGormDB() *gorm.DB {
	return a.db
}

// Close closes the connection pool.
func (a *GormDBAdapter) Close() error {
	if a.sqlDB != nil {
		logger.Debugf("Closing database connection '%s'...", a.name)
		return a.sqlDB.Close()
	}
	return nil
}

func (a *GormDBAdapter) Type() string {
	return a.dbType
}

func (a *GormDBAdapter) Name() string {
	return a.name
}

// Config implements database.DBConnection.
func (a *GormDBAdapter) Config() dbconfig.DatabaseConfig {
	return a.cfg
}

// GetSQLDB implements database.DBConnection.
func (a *GormDBAdapter) GetSQLDB() (*sql.DB, error) {
	if a.sqlDB == nil {
		return nil, fmt.Errorf("underlying sql.DB is nil")
	}
	return a.sqlDB, nil
}

// QuoteIdentifier implements database.DBConnection using the dialector's own quoting
// (backticks for MySQL, double quotes for SQLite and PostgreSQL).
func (a *GormDBAdapter) QuoteIdentifier(name string) string {
	var b strings.Builder
	a.db.Dialector.QuoteTo(&b, name)
	return b.String()
}
