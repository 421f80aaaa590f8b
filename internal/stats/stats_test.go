package stats

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexivanou/weather-widget/internal/config"
	"github.com/alexivanou/weather-widget/internal/database"
	"github.com/alexivanou/weather-widget/internal/model"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticHistory model.SearchHistory

func (h staticHistory) All() model.SearchHistory { return model.SearchHistory(h) }

func setupTestDB(t *testing.T) (*sqlx.DB, config.DBConfig) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("stats_%s", uuid.NewString())}
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

	return db, cfg
}

func TestCollector_Collect(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO kv_store (key, value) VALUES ('weatherSearchHistory', '[\"Osaka\",\"Tokyo\"]')")
	require.NoError(t, err)

	collector := NewCollector(db, cfg, staticHistory{"Osaka", "Tokyo"})

	stats, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, "memory", stats.Storage.Type)
	assert.Equal(t, int64(1), stats.Storage.Keys)
	assert.Equal(t, 2, stats.History.Entries)
	assert.Equal(t, "Osaka", stats.History.Latest)

	assert.Greater(t, stats.Memory.Alloc, uint64(0))
	assert.GreaterOrEqual(t, stats.Runtime.NumGoroutines, 1)

	stats2, err := collector.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Memory.Alloc, stats2.Memory.Alloc)
}

func TestCollector_EmptyDB(t *testing.T) {
	db, cfg := setupTestDB(t)
	defer db.Close()

	collector := NewCollector(db, cfg, staticHistory{})

	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Storage.Keys)
	assert.Zero(t, stats.History.Entries)
	assert.Empty(t, stats.History.Latest)
}

func TestCollector_NonSQLBackend(t *testing.T) {
	collector := NewCollector(nil, config.DBConfig{Type: config.DBTypeRedis}, nil)

	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "redis", stats.Storage.Type)
	assert.Zero(t, stats.Storage.Keys)
	assert.Zero(t, stats.History.Entries)
}

func TestCollector_MissingSchema(t *testing.T) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: fmt.Sprintf("stats_%s", uuid.NewString())}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	collector := NewCollector(db, cfg, nil)

	_, err = collector.Collect(context.Background())
	assert.Error(t, err)
}
