package database

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostgresDSN(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		dsn, err := postgresDSN(Config{User: "platewatch", Name: "platewatch"})
		require.NoError(t, err)
		require.Equal(t, "host=localhost port=5432 user=platewatch dbname=platewatch sslmode=disable", dsn)
	})

	t.Run("overrides", func(t *testing.T) {
		dsn, err := postgresDSN(Config{
			User:     "user",
			Name:     "db",
			Host:     "db.example.com",
			Port:     6543,
			Password: "pass",
			Options: map[string]string{
				"sslmode":     "require",
				"search_path": "public",
			},
		})
		require.NoError(t, err)
		for _, part := range []string{
			"host=db.example.com", "port=6543", "user=user", "dbname=db",
			"password=pass", "sslmode=require", "search_path=public",
		} {
			require.Contains(t, dsn, part)
		}
	})

	t.Run("dsn override wins", func(t *testing.T) {
		dsn, err := postgresDSN(Config{DSN: "postgres://raw"})
		require.NoError(t, err)
		require.Equal(t, "postgres://raw", dsn)
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := postgresDSN(Config{})
		require.Error(t, err)
	})
}

func TestMySQLDSN(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		dsn, err := mysqlDSN(Config{User: "platewatch", Name: "platewatch"})
		require.NoError(t, err)
		require.Equal(t, "platewatch@tcp(127.0.0.1:3306)/platewatch?charset=utf8mb4&loc=Local&parseTime=True", dsn)
	})

	t.Run("overrides", func(t *testing.T) {
		dsn, err := mysqlDSN(Config{
			User:     "user",
			Password: "secret",
			Name:     "db",
			Host:     "db.example.com",
			Port:     3307,
			Options:  map[string]string{"tls": "skip-verify"},
		})
		require.NoError(t, err)
		require.Contains(t, dsn, "user:secret@tcp(db.example.com:3307)/db?")
		require.Contains(t, dsn, "tls=skip-verify")
	})

	t.Run("missing credentials", func(t *testing.T) {
		_, err := mysqlDSN(Config{Host: "localhost"})
		require.Error(t, err)
	})
}

func TestSQLiteDSN(t *testing.T) {
	dsn, err := sqliteDSN("")
	require.NoError(t, err)
	require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", dsn)

	dsn, err = sqliteDSN(":memory:")
	require.NoError(t, err)
	require.Contains(t, dsn, ":memory:")

	dsn, err = sqliteDSN(t.TempDir() + "/data/moderation.db")
	require.NoError(t, err)
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")
}
