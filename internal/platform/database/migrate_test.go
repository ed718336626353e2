package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marriage-registry/internal/platform/config"
	"marriage-registry/migrations"
)

func TestUpMigrationsOrdering(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.up.sql":             {Data: []byte("-- 2")},
		"001_create_certificates.up.sql":   {Data: []byte("-- 1")},
		"001_create_certificates.down.sql": {Data: []byte("-- down")},
		"README.md":                        {Data: []byte("docs")},
	}

	files, err := upMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_certificates.up.sql", "002_add_index.up.sql"}, files)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	files, err := upMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, up := range files {
		down := up[:len(up)-len(".up.sql")] + ".down.sql"
		_, err := migrations.FS.Open(down)
		assert.NoError(t, err, "missing %s", down)
	}
}

func TestNewWithoutURL(t *testing.T) {
	pool, err := New(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, pool)
	assert.ErrorIs(t, pool.Health(context.Background()), ErrNotConfigured)
	assert.NoError(t, pool.Close())
}
