package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"steamlens/internal/library"
	"steamlens/internal/narrative"
	"steamlens/internal/steam"
)

// getGames runs the cache-then-fetch orchestration and returns the
// result descriptor.
func (s *Server) getGames(c *gin.Context) {
	steamID := c.Param("steamID")
	if !steam.ValidSteamID(steamID) {
		respondError(c, http.StatusBadRequest, "invalid SteamID", "expected a 17-digit numeric id")
		return
	}

	if s.cfg.SteamAPIKey == "" {
		respondError(c, http.StatusInternalServerError, "Steam API key not configured", "")
		return
	}

	result, err := s.games.GetGames(c.Request.Context(), steamID)
	if err != nil {
		s.logger.Error("game fetch failed", zap.String("steam_id", steamID), zap.Error(err))
		switch {
		case errors.Is(err, library.ErrStore):
			respondError(c, http.StatusInternalServerError, "cache store failure", "")
		case errors.Is(err, steam.ErrUnauthorized):
			respondError(c, http.StatusBadGateway, "Steam API rejected the configured key", "")
		default:
			respondError(c, http.StatusBadGateway, "failed to fetch games from Steam", "")
		}
		return
	}

	respondSuccess(c, result)
}

// getUser fetches the player profile, always fresh.
func (s *Server) getUser(c *gin.Context) {
	steamID := c.Param("steamID")
	if !steam.ValidSteamID(steamID) {
		respondError(c, http.StatusBadRequest, "invalid SteamID", "expected a 17-digit numeric id")
		return
	}

	if s.cfg.SteamAPIKey == "" {
		respondError(c, http.StatusInternalServerError, "Steam API key not configured", "")
		return
	}

	profile, err := s.profiles.FetchProfile(c.Request.Context(), steamID)
	if err != nil {
		if errors.Is(err, steam.ErrPlayerNotFound) {
			respondError(c, http.StatusNotFound, "user not found", "")
			return
		}
		s.logger.Error("profile fetch failed", zap.String("steam_id", steamID), zap.Error(err))
		respondError(c, http.StatusBadGateway, "failed to fetch profile from Steam", "")
		return
	}

	respondSuccess(c, profile)
}

// analyze streams narrative commentary for a previously cached game
// list as server-sent events. Chunks are relayed in receipt order; a
// client disconnect abandons the relay silently.
func (s *Server) analyze(c *gin.Context) {
	steamID := c.Param("steamID")
	if !steam.ValidSteamID(steamID) {
		respondError(c, http.StatusBadRequest, "invalid SteamID", "expected a 17-digit numeric id")
		return
	}

	entry, err := s.games.GetCached(steamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			respondError(c, http.StatusNotFound, "no cached game data for this user",
				"fetch game data first via /api/games/"+steamID)
			return
		}
		s.logger.Error("cache lookup failed", zap.String("steam_id", steamID), zap.Error(err))
		respondError(c, http.StatusInternalServerError, "cache store failure", "")
		return
	}

	chunks, err := s.narrator.Narrate(c.Request.Context(), entry.Games)
	if err != nil {
		s.logger.Error("narrative stream failed to start", zap.String("steam_id", steamID), zap.Error(err))
		switch {
		case errors.Is(err, narrative.ErrUpstreamAPI):
			respondError(c, http.StatusBadGateway, "completion API error", "")
		case errors.Is(err, narrative.ErrUpstreamNetwork):
			respondError(c, http.StatusGatewayTimeout, "completion API unreachable", "")
		default:
			respondError(c, http.StatusInternalServerError, "failed to start analysis", "")
		}
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				return
			}
			if s.metrics != nil {
				s.metrics.StreamChunks.Inc()
			}
			c.SSEvent("message", chunk)
			c.Writer.Flush()
		case <-ctx.Done():
			// Client went away; the generator's context is derived from
			// the request and winds down on its own.
			return
		}
	}
}

// getModel returns the configured model name. No side effects.
func (s *Server) getModel(c *gin.Context) {
	respondSuccess(c, gin.H{"model": s.narrator.Model()})
}

// healthz reports liveness, including a database ping.
func (s *Server) healthz(c *gin.Context) {
	if s.database != nil {
		if err := s.database.Ping(); err != nil {
			respondError(c, http.StatusServiceUnavailable, "database unavailable", "")
			return
		}
	}
	respondSuccess(c, gin.H{"status": "ok"})
}
