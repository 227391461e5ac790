package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationSource(t *testing.T) {
	dir := t.TempDir()
	migrations := filepath.Join(dir, "migrations")
	require.NoError(t, os.Mkdir(migrations, 0o755))
	chdir(t, dir)

	src := migrationSource("")
	assert.True(t, strings.HasPrefix(src, "file://"))
	assert.True(t, strings.HasSuffix(src, "/migrations"))

	assert.Equal(t, "file://does-not-exist", migrationSource("does-not-exist"))
}
