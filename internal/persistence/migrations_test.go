package persistence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_users", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "add_phone", migrations[1].Name)
	for _, m := range migrations {
		assert.NotEmpty(t, m.UpFile)
		assert.NotEmpty(t, m.DownFile)
	}
}

func TestLoadMigrations_OrderAndFiltering(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0003_third.up.sql":   {Data: []byte("SELECT 3")},
		"m/0001_first.up.sql":   {Data: []byte("SELECT 1")},
		"m/0001_first.down.sql": {Data: []byte("SELECT -1")},
		"m/README.md":           {Data: []byte("ignored")},
	}

	migrations, err := loadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "m/0001_first.down.sql", migrations[0].DownFile)
	assert.Equal(t, 3, migrations[1].Version)
	assert.Empty(t, migrations[1].DownFile)
}

func TestLoadMigrations_MissingUp(t *testing.T) {
	fsys := fstest.MapFS{
		"m/0001_orphan.down.sql": {Data: []byte("SELECT 1")},
	}

	_, err := loadMigrations(fsys, "m")
	assert.Error(t, err)
}
