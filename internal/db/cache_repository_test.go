package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *Database {
	t.Helper()

	database, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, database.Initialize())
	return database
}

func TestCacheGetAbsent(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))

	_, err := repo.Get("76561198000000000")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCacheUpsertAndGet(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))

	games := []FormattedGame{
		{AppID: 440, Name: "Team Fortress 2", PlaytimeHours: "2.1 hours", LastPlayed: "Never", IconURL: "No Icon URL Available"},
		{AppID: 570, Name: "Dota 2", PlaytimeHours: "150.0 hours", LastPlayed: "November 14, 2023", IconURL: "http://example/icon.jpg"},
	}
	cachedAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Upsert("76561198000000000", games, cachedAt))

	entry, err := repo.Get("76561198000000000")
	require.NoError(t, err)
	assert.Equal(t, "76561198000000000", entry.SteamID)
	assert.Equal(t, 2, entry.GameCount)
	assert.Equal(t, games, entry.Games)
	assert.WithinDuration(t, cachedAt, entry.CachedAt, time.Second)
}

func TestCacheUpsertOverwrites(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))

	first := []FormattedGame{{AppID: 1, Name: "First"}}
	second := []FormattedGame{
		{AppID: 2, Name: "Second"},
		{AppID: 3, Name: "Third"},
	}

	require.NoError(t, repo.Upsert("76561198000000000", first, time.Now().Add(-time.Hour)))
	require.NoError(t, repo.Upsert("76561198000000000", second, time.Now()))

	// Exactly one row, reflecting the second payload.
	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entry, err := repo.Get("76561198000000000")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.GameCount)
	assert.Equal(t, "Second", entry.Games[0].Name)
}

func TestCacheUpsertEmptyList(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert("76561198000000000", nil, time.Now()))

	entry, err := repo.Get("76561198000000000")
	require.NoError(t, err)
	assert.Equal(t, 0, entry.GameCount)
	assert.Empty(t, entry.Games)
}

func TestCacheEntriesAreIndependent(t *testing.T) {
	repo := NewCacheRepository(setupTestDB(t))

	require.NoError(t, repo.Upsert("76561198000000001", []FormattedGame{{AppID: 1, Name: "A"}}, time.Now()))
	require.NoError(t, repo.Upsert("76561198000000002", []FormattedGame{{AppID: 2, Name: "B"}}, time.Now()))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	entry, err := repo.Get("76561198000000001")
	require.NoError(t, err)
	assert.Equal(t, "A", entry.Games[0].Name)
}
