package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMigrationsOrderedByVersion(t *testing.T) {
	c := &Client{}
	migrations, err := c.loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		require.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
	require.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS contributors")
}

func TestNewClientRejectsEmptyURL(t *testing.T) {
	_, err := NewClient("", 1, 1)
	require.Error(t, err)
}
