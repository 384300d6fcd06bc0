package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/userload/pkg/batch/adapter/database/gorm/postgres"
)

func TestConnectionString(t *testing.T) {
	cfg := dbconfig.DatabaseConfig{
		Type:     "postgres",
		Host:     "pg_host",
		Port:     5432,
		Database: "pg_db",
		User:     "pg_user",
		Password: "pg_password",
		Sslmode:  "require",
	}
	expected := "host=pg_host port=5432 user=pg_user password=pg_password dbname=pg_db sslmode=require"
	assert.Equal(t, expected, postgres.ConnectionString(cfg))

	cfg.Port = 0
	cfg.Sslmode = ""
	assert.Contains(t, postgres.ConnectionString(cfg), "port=5432")
	assert.Contains(t, postgres.ConnectionString(cfg), "sslmode=disable")
}

func TestDialectorRegistered(t *testing.T) {
	factory, err := gormadapter.GetDialectorFactory("postgres")
	require.NoError(t, err)
	dialector, err := factory(dbconfig.DatabaseConfig{Host: "h", Database: "d"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", dialector.Name())
}
