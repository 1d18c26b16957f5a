// Package library orchestrates cache-then-fetch retrieval of a user's
// game library.
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"steamlens/internal/db"
	"steamlens/internal/monitor"
	"steamlens/internal/steam"
)

// Source values reported in the result descriptor.
const (
	SourceCache = "cache"
	SourceAPI   = "api"
)

// ErrStore marks cache store failures, as opposed to upstream fetch
// failures.
var ErrStore = errors.New("library: store failure")

// CatalogClient fetches owned games from the upstream platform.
type CatalogClient interface {
	FetchOwnedGames(ctx context.Context, steamID string) ([]steam.OwnedGame, error)
}

// CacheStore is the persistent per-user game cache.
type CacheStore interface {
	Get(steamID string) (*db.CacheEntry, error)
	Upsert(steamID string, games []db.FormattedGame, cachedAt time.Time) error
}

// Result describes where the game list came from and how to retrieve
// it again: DataID is the SteamID accepted by the analyze endpoint.
type Result struct {
	DataID    string `json:"dataId"`
	Source    string `json:"source"`
	GameCount int    `json:"gameCount"`
	Message   string `json:"message"`
}

// Service decides cache-hit vs. fetch, writes through on fetch, and
// returns a result descriptor.
type Service struct {
	catalog CatalogClient
	cache   CacheStore
	ttl     atomic.Int64 // nanoseconds; reloadable at runtime
	metrics *monitor.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a library service.
func NewService(catalog CatalogClient, cache CacheStore, ttl time.Duration, metrics *monitor.Metrics, logger *zap.Logger) *Service {
	s := &Service{
		catalog: catalog,
		cache:   cache,
		metrics: metrics,
		logger:  logger.Named("library"),
		now:     time.Now,
	}
	s.ttl.Store(int64(ttl))
	return s
}

// SetTTL updates the freshness window. Safe for concurrent use; used
// by config hot reload.
func (s *Service) SetTTL(ttl time.Duration) {
	s.ttl.Store(int64(ttl))
}

// TTL returns the current freshness window.
func (s *Service) TTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

// Fresh reports whether a cache entry is still usable: within the TTL
// window and holding at least one game. A zero-count entry is always
// stale so a transient private-profile result is never trapped in the
// cache.
func Fresh(entry *db.CacheEntry, now time.Time, ttl time.Duration) bool {
	if entry == nil || entry.GameCount == 0 {
		return false
	}
	return entry.Age(now) <= ttl
}

// GetGames returns the user's game list descriptor, serving from the
// cache when fresh and fetching upstream otherwise. On upstream
// success the result is written through, even when empty.
func (s *Service) GetGames(ctx context.Context, steamID string) (*Result, error) {
	now := s.now()

	entry, err := s.cache.Get(steamID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: cache lookup: %v", ErrStore, err)
	}

	if Fresh(entry, now, s.TTL()) {
		if s.metrics != nil {
			s.metrics.CacheHits.Inc()
		}
		s.logger.Debug("cache hit",
			zap.String("steam_id", steamID),
			zap.Int("game_count", entry.GameCount),
			zap.Duration("age", entry.Age(now)))
		return &Result{
			DataID:    steamID,
			Source:    SourceCache,
			GameCount: entry.GameCount,
			Message:   fmt.Sprintf("Retrieved %d games from cache", entry.GameCount),
		}, nil
	}

	if s.metrics != nil {
		s.metrics.CacheMisses.Inc()
	}

	fetchStart := time.Now()
	games, err := s.catalog.FetchOwnedGames(ctx, steamID)
	if s.metrics != nil {
		s.metrics.UpstreamLatency.WithLabelValues("steam").Observe(time.Since(fetchStart).Seconds())
	}
	if err != nil {
		return nil, err
	}

	formatted := steam.FormatGames(games)
	if err := s.cache.Upsert(steamID, formatted, now); err != nil {
		return nil, fmt.Errorf("%w: cache write: %v", ErrStore, err)
	}

	s.logger.Info("refreshed game cache",
		zap.String("steam_id", steamID),
		zap.Int("game_count", len(formatted)))

	return &Result{
		DataID:    steamID,
		Source:    SourceAPI,
		GameCount: len(formatted),
		Message:   fmt.Sprintf("Fetched %d games from Steam", len(formatted)),
	}, nil
}

// GetCached returns the cached entry for a user, or sql.ErrNoRows.
// Used by the narrative endpoint, which never triggers a fetch.
func (s *Service) GetCached(steamID string) (*db.CacheEntry, error) {
	return s.cache.Get(steamID)
}
