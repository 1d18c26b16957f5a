package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"steamlens/internal/config"
	"steamlens/internal/db"
	"steamlens/internal/library"
	"steamlens/internal/monitor"
	"steamlens/internal/steam"
)

// wires real sqlite and the real Steam client against a stub upstream.
func setupE2E(t *testing.T, steamHandler http.HandlerFunc) (*Server, *atomic.Int64) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		steamHandler(w, r)
	}))
	t.Cleanup(upstream.Close)

	database, err := db.NewDatabase(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, database.Initialize())

	logger := zap.NewNop()
	metrics := monitor.NewMetrics()
	client := steam.NewClient("test-key", logger, steam.WithBaseURL(upstream.URL))
	svc := library.NewService(client, db.NewCacheRepository(database), 7*24*time.Hour, metrics, logger)

	cfg := config.Default()
	cfg.SteamAPIKey = "test-key"

	return NewServer(*cfg, svc, client, &fakeNarrator{}, database, metrics, logger), &upstreamCalls
}

func TestEndToEndCacheFlow(t *testing.T) {
	server, upstreamCalls := setupE2E(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{"game_count":1,"games":[
			{"appid":440,"name":"Team Fortress 2","playtime_forever":125}
		]}}`))
	})

	// First request fetches upstream and writes through.
	w := doRequest(server, http.MethodGet, "/api/games/"+testSteamID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "api", data["source"])
	assert.Equal(t, float64(1), data["gameCount"])

	// Second request is a cache hit; upstream is not called again.
	w = doRequest(server, http.MethodGet, "/api/games/"+testSteamID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, "cache", data["source"])
	assert.Equal(t, int64(1), upstreamCalls.Load())
}

func TestEndToEndEmptyLibraryIsNeverAHit(t *testing.T) {
	server, upstreamCalls := setupE2E(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"response":{}}`))
	})

	// Both requests go upstream: the stored zero-count entry is always
	// treated as stale, even well within the TTL window.
	for i := 0; i < 2; i++ {
		w := doRequest(server, http.MethodGet, "/api/games/"+testSteamID, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]interface{})
		assert.Equal(t, "api", data["source"])
		assert.Equal(t, float64(0), data["gameCount"])
	}
	assert.Equal(t, int64(2), upstreamCalls.Load())
}

func TestEndToEndUpstreamFailure(t *testing.T) {
	server, _ := setupE2E(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	w := doRequest(server, http.MethodGet, "/api/games/"+testSteamID, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
