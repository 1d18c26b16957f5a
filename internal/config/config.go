// Package config provides configuration management functionality.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds the service configuration. It is loaded from a JSON file
// and may be overridden by environment variables for secrets.
type Config struct {
	ListenAddr   string `json:"listen_addr"`
	DatabasePath string `json:"database_path"`

	// SteamAPIKey authenticates requests against the Steam Web API.
	// Overridden by STEAM_API_KEY.
	SteamAPIKey string `json:"steam_api_key"`

	// OpenAIAPIKey and OpenAIBaseURL configure the completion endpoint
	// used for narrative generation. Overridden by OPENAI_API_KEY and
	// OPENAI_BASE_URL.
	OpenAIAPIKey  string `json:"openai_api_key"`
	OpenAIBaseURL string `json:"openai_base_url"`
	Model         string `json:"model"`

	// APIKey protects the HTTP surface. Empty disables authentication.
	APIKey string `json:"api_key"`

	// CacheTTLHours is the max age of a cached game list before it is
	// refetched.
	CacheTTLHours int `json:"cache_ttl_hours"`

	// PromptMaxGames caps how many games are rendered into the
	// narrative prompt.
	PromptMaxGames int `json:"prompt_max_games"`

	// StreamTimeoutMinutes bounds a single narrative stream.
	StreamTimeoutMinutes int `json:"stream_timeout_minutes"`

	LogLevel string `json:"log_level"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		ListenAddr:           ":8080",
		DatabasePath:         "steamlens.db",
		OpenAIBaseURL:        "https://api.openai.com/v1",
		Model:                "gpt-4o-mini",
		CacheTTLHours:        168,
		PromptMaxGames:       100,
		StreamTimeoutMinutes: 2,
		LogLevel:             "info",
	}
}

// Load loads the configuration from a JSON file and applies environment
// overrides. If the file doesn't exist, defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "steamlens.db"
	}
	if c.OpenAIBaseURL == "" {
		c.OpenAIBaseURL = "https://api.openai.com/v1"
	}
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.CacheTTLHours <= 0 {
		c.CacheTTLHours = 168
	}
	if c.PromptMaxGames <= 0 {
		c.PromptMaxGames = 100
	}
	if c.StreamTimeoutMinutes <= 0 {
		c.StreamTimeoutMinutes = 2
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STEAM_API_KEY"); v != "" {
		c.SteamAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.OpenAIBaseURL = v
	}
	if v := os.Getenv("STEAMLENS_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("STEAMLENS_LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("STEAMLENS_CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.CacheTTLHours = n
		}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return errors.New("listen_addr cannot be empty")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path cannot be empty")
	}
	if c.Model == "" {
		return errors.New("model cannot be empty")
	}
	if c.CacheTTLHours <= 0 {
		return fmt.Errorf("cache_ttl_hours must be positive, got %d", c.CacheTTLHours)
	}
	if c.PromptMaxGames <= 0 {
		return fmt.Errorf("prompt_max_games must be positive, got %d", c.PromptMaxGames)
	}
	if c.StreamTimeoutMinutes <= 0 {
		return fmt.Errorf("stream_timeout_minutes must be positive, got %d", c.StreamTimeoutMinutes)
	}
	return nil
}

// CacheTTL returns the cache freshness window as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// StreamTimeout returns the narrative stream bound as a duration.
func (c *Config) StreamTimeout() time.Duration {
	return time.Duration(c.StreamTimeoutMinutes) * time.Minute
}

// Manager manages the configuration with hot reload support.
type Manager struct {
	mu         sync.RWMutex
	cfg        *Config
	configPath string
	watcher    *fsnotify.Watcher
	watcherMu  sync.Mutex
	onChange   func(*Config) // callback when config changes
}

// NewManager creates a Manager and performs the initial load.
func NewManager(configPath string) (*Manager, error) {
	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	return &Manager{cfg: cfg, configPath: configPath}, nil
}

// Current returns a copy of the current configuration.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.cfg
}

// Reload reloads the configuration from the file.
func (m *Manager) Reload() error {
	cfg, err := Load(m.configPath)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.cfg = cfg
	cb := m.onChange
	m.mu.Unlock()

	if cb != nil {
		cb(cfg)
	}
	return nil
}

// SetOnChange registers a callback invoked after a successful reload.
func (m *Manager) SetOnChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = callback
}

// Watch starts watching the configuration file for changes.
// When changes are detected, it automatically reloads the configuration.
func (m *Manager) Watch(ctx context.Context, onError func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	m.watcherMu.Lock()
	m.watcher = watcher
	m.watcherMu.Unlock()

	// Watch the directory rather than the file so editors that replace
	// the file on save don't break the watch.
	dir := filepath.Dir(m.configPath)
	if err := watcher.Add(dir); err != nil {
		m.closeWatcher()
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	go func() {
		defer m.closeWatcher()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != m.configPath {
					continue
				}
				if event.Op&fsnotify.Write == fsnotify.Write ||
					event.Op&fsnotify.Create == fsnotify.Create {
					// Small delay to ensure file write is complete
					time.Sleep(100 * time.Millisecond)
					if err := m.Reload(); err != nil && onError != nil {
						onError(err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onError != nil {
					onError(err)
				}
			}
		}
	}()

	return nil
}

// StopWatch stops watching the configuration file.
func (m *Manager) StopWatch() {
	m.closeWatcher()
}

func (m *Manager) closeWatcher() {
	m.watcherMu.Lock()
	defer m.watcherMu.Unlock()
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
}
