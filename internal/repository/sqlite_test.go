package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/alexivanou/weather-widget/internal/database"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (KVRepository, *sqlx.DB, func()) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("kv_%s", uuid.NewString())}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	require.NoError(t, err)

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations/sqlite",
		"sqlite3",
		driver,
	)
	require.NoError(t, err)
	err = m.Up()
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
	}

	return NewRepository(db, config.DBTypeMemory), db, cleanup
}

func TestSQLiteKVRepository_Get(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		value, err := repo.Get(ctx, "weatherSearchHistory")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, value)
	})

	t.Run("stored key", func(t *testing.T) {
		require.NoError(t, repo.Set(ctx, "weatherSearchHistory", []byte(`["Tokyo"]`)))

		value, err := repo.Get(ctx, "weatherSearchHistory")
		require.NoError(t, err)
		assert.Equal(t, `["Tokyo"]`, string(value))
	})
}

func TestSQLiteKVRepository_SetOverwrites(t *testing.T) {
	repo, db, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte(`["Tokyo"]`)))
	require.NoError(t, repo.Set(ctx, "k", []byte(`["Osaka","Tokyo"]`)))

	value, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `["Osaka","Tokyo"]`, string(value))

	count, err := CountKeys(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSQLiteKVRepository_Delete(t *testing.T) {
	repo, _, cleanup := setupRepo(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "k", []byte(`[]`)))
	require.NoError(t, repo.Delete(ctx, "k"))

	_, err := repo.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing key is not an error
	assert.NoError(t, repo.Delete(ctx, "k"))
}

func TestNewRepository_Backend(t *testing.T) {
	assert.Equal(t, "memory", NewRepository(nil, config.DBTypeMemory).Backend())
	assert.Equal(t, "sqlite", NewRepository(nil, config.DBTypeSQLite).Backend())
	assert.Equal(t, "postgres", NewRepository(nil, config.DBTypePostgreSQL).Backend())
}
