// Package api provides the REST API using the Gin framework.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"steamlens/internal/config"
	"steamlens/internal/db"
	"steamlens/internal/library"
	"steamlens/internal/monitor"
	"steamlens/internal/steam"
)

// GameService runs the cache-then-fetch orchestration.
type GameService interface {
	GetGames(ctx context.Context, steamID string) (*library.Result, error)
	GetCached(steamID string) (*db.CacheEntry, error)
}

// ProfileFetcher retrieves a player profile, always fresh.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, steamID string) (*steam.Profile, error)
}

// Narrator streams play-habit commentary for a cached game list.
type Narrator interface {
	Narrate(ctx context.Context, games []db.FormattedGame) (<-chan string, error)
	Model() string
}

// Server provides the HTTP endpoints.
type Server struct {
	router   *gin.Engine
	server   *http.Server
	cfg      config.Config
	games    GameService
	profiles ProfileFetcher
	narrator Narrator
	database *db.Database
	metrics  *monitor.Metrics
	logger   *zap.Logger
}

// NewServer creates a new API server instance.
func NewServer(
	cfg config.Config,
	games GameService,
	profiles ProfileFetcher,
	narrator Narrator,
	database *db.Database,
	metrics *monitor.Metrics,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:   gin.New(),
		cfg:      cfg,
		games:    games,
		profiles: profiles,
		narrator: narrator,
		database: database,
		metrics:  metrics,
		logger:   logger.Named("api"),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	api := s.router.Group("/api")
	{
		api.Use(s.authMiddleware())

		api.GET("/games/:steamID", s.getGames)
		api.GET("/user/:steamID", s.getUser)
		api.GET("/analyze/:steamID", s.analyze)
		api.GET("/model", s.getModel)

		api.GET("/healthz", s.healthz)
		if s.metrics != nil {
			api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))
		}
	}
}

// requestLogger attaches a request id and logs each request with its
// status and duration.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
			s.metrics.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
		}

		s.logger.Info("request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", elapsed))
	}
}

// authMiddleware validates API key authentication.
// If no API key is configured, authentication is skipped.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.APIKey == "" {
			c.Next()
			return
		}

		if c.GetHeader("X-API-Key") != s.cfg.APIKey {
			respondError(c, http.StatusUnauthorized, "invalid or missing API key", "")
			c.Abort()
			return
		}

		c.Next()
	}
}

// Start starts the API server on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.router,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

// Router exposes the underlying handler. Used in tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// APIResponse represents a unified API response format.
type APIResponse struct {
	Success bool        `json:"success"`
	Msg     string      `json:"msg"`
	Data    interface{} `json:"data,omitempty"`
}

// respondError sends an error response with unified format.
func respondError(c *gin.Context, code int, message string, details string) {
	msg := message
	if details != "" {
		msg = message + ": " + details
	}
	c.JSON(code, APIResponse{
		Success: false,
		Msg:     msg,
	})
}

// respondSuccess sends a success response with unified format.
func respondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Msg:     "ok",
		Data:    data,
	})
}
