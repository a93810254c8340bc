package db

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/stemquiz/apps/go-server/assets"
)

func TestMigrateIsIdempotent(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "nested", "quiz.db"))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, Migrate(d, assets.Migrations()))
	require.NoError(t, Migrate(d, assets.Migrations()))

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 1, n)

	_, err = d.Exec(`INSERT INTO results (run_id, session_id, player_id, subject, duration, score, finished_at)
	                 VALUES ('r', 's', 'p', 'bio', 60, 10, '2026-01-01T00:00:00Z')`)
	assert.NoError(t, err)
}

func TestMigrateFailureIsReported(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	defer d.Close()

	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("CREATE TABLE;")}}
	assert.Error(t, Migrate(d, bad))

	var n int
	require.NoError(t, d.QueryRow(`SELECT COUNT(1) FROM _migrations`).Scan(&n))
	assert.Equal(t, 0, n)
}

func TestMigrateRunsSelfManagedScriptsInOrder(t *testing.T) {
	d, err := Open(filepath.Join(t.TempDir(), "quiz.db"))
	require.NoError(t, err)
	defer d.Close()

	m := fstest.MapFS{
		"002_own.sql": {Data: []byte("BEGIN TRANSACTION; INSERT INTO kv VALUES ('b'); COMMIT;")},
		"001_kv.sql":  {Data: []byte("CREATE TABLE kv (k TEXT);")},
	}
	require.NoError(t, Migrate(d, m))

	var names []string
	rows, err := d.Query(`SELECT name FROM _migrations ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var n string
		require.NoError(t, rows.Scan(&n))
		names = append(names, n)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"001_kv.sql", "002_own.sql"}, names)

	var k string
	require.NoError(t, d.QueryRow(`SELECT k FROM kv`).Scan(&k))
	assert.Equal(t, "b", k)
}
