// Package db provides database access and persistence functionality.
package db

import (
	"time"
)

// FormattedGame is the display-ready projection of an owned game, as
// stored in the cache and returned to clients.
type FormattedGame struct {
	AppID         int    `json:"appId"`
	Name          string `json:"name"`
	PlaytimeHours string `json:"playtimeHours"`
	LastPlayed    string `json:"lastPlayed"`
	IconURL       string `json:"iconUrl"`
}

// CacheEntry represents a cached game list for a single Steam user.
// SteamID is the primary key; the row is replaced on every fetch.
type CacheEntry struct {
	SteamID   string          `json:"steam_id"`
	Games     []FormattedGame `json:"games"`
	GameCount int             `json:"game_count"`
	CachedAt  time.Time       `json:"cached_at"`
}

// Age returns how long ago the entry was cached.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.CachedAt)
}
