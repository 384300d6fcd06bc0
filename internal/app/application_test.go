package app_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/tigerroll/userload/internal/app"
	"github.com/tigerroll/userload/pkg/batch/adapter/database"
	dbconfig "github.com/tigerroll/userload/pkg/batch/adapter/database/config"
	gormadapter "github.com/tigerroll/userload/pkg/batch/adapter/database/gorm"
	"github.com/tigerroll/userload/pkg/batch/test"
)

type paths struct {
	dir, input, quarantine, statistics, db string
}

func newPaths(t *testing.T) paths {
	dir := t.TempDir()
	return paths{
		dir:        dir,
		input:      filepath.Join(dir, "input.csv"),
		quarantine: filepath.Join(dir, "out", "bad-data.csv"),
		statistics: filepath.Join(dir, "userload.log"),
		db:         filepath.Join(dir, "users.db"),
	}
}

func (p paths) writeConfig(t *testing.T, batchSize int) string {
	t.Helper()
	doc := fmt.Sprintf(`userload:
  database:
    type: sqlite
    database: %s
  input:
    path: %s
  quarantine:
    path: %s
  batch:
    size: %d
  system:
    logging:
      statistics_path: %s
`, p.db, p.input, p.quarantine, batchSize, p.statistics)
	path := filepath.Join(p.dir, "application.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func sqliteOnly() []fx.Option {
	return []fx.Option{
		fx.Provide(fx.Annotate(app.DBProviderMap["sqlite"], fx.ResultTags(`group:"`+database.DBProviderGroup+`"`))),
	}
}

func countUsers(t *testing.T, dbPath string) int {
	t.Helper()
	db, err := gormadapter.Open(dbconfig.DatabaseConfig{Type: "sqlite", Database: dbPath})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM "user"`).Scan(&n))
	return n
}

func TestRunApplication_CommitsAndQuarantines(t *testing.T) {
	p := newPaths(t)
	header := test.NewTestHeader()
	require.NoError(t, os.WriteFile(p.input, []byte(test.NewTestCSV(
		header,
		test.NewTestValidRow(1),
		test.NewTestRowWithEmptyField(2, 4),
		test.NewTestValidRow(3),
	)), 0o644))

	code := app.RunApplication(context.Background(), "", p.writeConfig(t, 1), nil, sqliteOnly())
	require.Equal(t, app.ExitSuccess, code)

	assert.Equal(t, 2, countUsers(t, p.db))

	quarantined, err := os.ReadFile(p.quarantine)
	require.NoError(t, err)
	assert.Equal(t, test.NewTestCSV(header, test.NewTestRowWithEmptyField(2, 4)), string(quarantined))

	statistics, err := os.ReadFile(p.statistics)
	require.NoError(t, err)
	assert.Contains(t, string(statistics), "Received: 3")
	assert.Contains(t, string(statistics), "Successful: 2")
	assert.Contains(t, string(statistics), "Failed: 1")
}

func TestRunApplication_MissingInputFails(t *testing.T) {
	p := newPaths(t)

	code := app.RunApplication(context.Background(), "", p.writeConfig(t, 20), nil, sqliteOnly())
	assert.Equal(t, app.ExitFailure, code)
}

func TestRunApplication_InvalidConfigFails(t *testing.T) {
	p := newPaths(t)
	path := filepath.Join(p.dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("userload:\n  batch:\n    size: 0\n"), 0o644))

	code := app.RunApplication(context.Background(), "", path, nil, sqliteOnly())
	assert.Equal(t, app.ExitFailure, code)
}
