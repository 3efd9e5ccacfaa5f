package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenMemory(t *testing.T) {
	d, err := OpenMemory()
	require.NoError(t, err)
	defer d.Close()

	for _, table := range []string{"tests", "passages", "questions", "attempts", "audit_entries"} {
		var count int
		err := d.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		assert.NoError(t, err, table)
	}
	assert.Equal(t, ":memory:", d.Path())
}

func TestMigrateIdempotent(t *testing.T) {
	d, err := OpenMemory()
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.migrate())
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "examdesk.db")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.Exec(`INSERT INTO tests (id, title) VALUES ('t1', 'Practice 1')`)
	require.NoError(t, err)
	assert.Equal(t, path, d.Path())
}
