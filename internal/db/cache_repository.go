// Package db provides database access and persistence functionality.
package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// CacheRepository handles game cache persistence operations.
type CacheRepository struct {
	db *Database
}

// NewCacheRepository creates a new cache repository.
func NewCacheRepository(db *Database) *CacheRepository {
	return &CacheRepository{db: db}
}

// Get retrieves the cache entry for a Steam user.
// Returns sql.ErrNoRows if no entry exists.
func (r *CacheRepository) Get(steamID string) (*CacheEntry, error) {
	query := `
		SELECT steam_id, games, game_count, cached_at
		FROM game_cache WHERE steam_id = ?
	`

	var (
		entry CacheEntry
		games string
	)

	row := r.db.DB().QueryRow(query, steamID)
	if err := row.Scan(&entry.SteamID, &games, &entry.GameCount, &entry.CachedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	if err := json.Unmarshal([]byte(games), &entry.Games); err != nil {
		return nil, fmt.Errorf("failed to decode cached games: %w", err)
	}

	return &entry, nil
}

// Upsert inserts or replaces the cache entry for a Steam user.
// The replacement is a single atomic statement keyed on steam_id.
func (r *CacheRepository) Upsert(steamID string, games []FormattedGame, cachedAt time.Time) error {
	payload, err := json.Marshal(games)
	if err != nil {
		return fmt.Errorf("failed to encode games: %w", err)
	}

	query := `
		INSERT INTO game_cache (steam_id, games, game_count, cached_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			games = excluded.games,
			game_count = excluded.game_count,
			cached_at = excluded.cached_at
	`

	if _, err := r.db.DB().Exec(query, steamID, string(payload), len(games), cachedAt); err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

// Count returns the number of cached users.
func (r *CacheRepository) Count() (int, error) {
	var n int
	if err := r.db.DB().QueryRow(`SELECT COUNT(*) FROM game_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}
