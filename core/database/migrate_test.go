package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_callbacks.up.sql", "0001_sessions.up.sql", "0001_sessions.down.sql", "README"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.up.sql"), 0o755))

	assert.Equal(t, []string{"0001_sessions.up.sql", "0002_callbacks.up.sql"}, listMigrationFiles(dir))
	assert.Nil(t, listMigrationFiles(filepath.Join(dir, "missing")))
}

func TestSelectApplied(t *testing.T) {
	files := []string{"0001_sessions.up.sql", "0002_callbacks.up.sql", "0003_x.up.sql"}
	assert.Equal(t, []string{"0002_callbacks.up.sql", "0003_x.up.sql"}, selectApplied(files, 1, 3))
	assert.Nil(t, selectApplied(files, 3, 3))
	assert.Equal(t, uint64(12), parseVersion("0012_more.up.sql"))
	assert.Zero(t, parseVersion("bad.up.sql"))
}

func TestConfigDSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "bot", Password: "pw", Name: "maxbot", SSLMode: "disable"}
	assert.Equal(t, "user=bot password=pw host=db port=5432 dbname=maxbot sslmode=disable", cfg.DSN())
	assert.Equal(t, "postgres://bot:pw@db:5432/maxbot?sslmode=disable", cfg.URL())
}

func TestMigrationsDirOverride(t *testing.T) {
	dir, err := migrationsDir(Config{MigrationsDir: "sql"})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(dir))
	assert.Equal(t, "sql", filepath.Base(dir))
}
