package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, 168, cfg.CacheTTLHours)
	assert.Equal(t, 100, cfg.PromptMaxGames)
	assert.Equal(t, 2, cfg.StreamTimeoutMinutes)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"listen_addr": ":9090",
		"steam_api_key": "filekey",
		"model": "gpt-4o",
		"cache_ttl_hours": 24
	}`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "filekey", cfg.SteamAPIKey)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 24, cfg.CacheTTLHours)
	// Unset fields still get defaults.
	assert.Equal(t, "steamlens.db", cfg.DatabasePath)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"steam_api_key": "filekey"}`), 0644))

	t.Setenv("STEAM_API_KEY", "envkey")
	t.Setenv("STEAMLENS_CACHE_TTL_HOURS", "12")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "envkey", cfg.SteamAPIKey)
	assert.Equal(t, 12, cfg.CacheTTLHours)
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

// For any configuration, Validate returns an error when any required
// field is empty or non-positive.
func TestValidationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	positive := gen.IntRange(1, 10000)

	properties.Property("positive tunables pass validation", prop.ForAll(
		func(ttl, maxGames, timeout int) bool {
			cfg := Default()
			cfg.CacheTTLHours = ttl
			cfg.PromptMaxGames = maxGames
			cfg.StreamTimeoutMinutes = timeout
			return cfg.Validate() == nil
		},
		positive, positive, positive,
	))

	properties.Property("non-positive ttl fails validation", prop.ForAll(
		func(ttl int) bool {
			cfg := Default()
			cfg.CacheTTLHours = ttl
			return cfg.Validate() != nil
		},
		gen.IntRange(-10000, 0),
	))

	properties.TestingRun(t)
}

func TestManagerReloadInvokesCallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cache_ttl_hours": 24}`), 0644))

	manager, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, 24, manager.Current().CacheTTLHours)

	var reloaded *Config
	manager.SetOnChange(func(cfg *Config) { reloaded = cfg })

	require.NoError(t, os.WriteFile(path, []byte(`{"cache_ttl_hours": 48}`), 0644))
	require.NoError(t, manager.Reload())

	require.NotNil(t, reloaded)
	assert.Equal(t, 48, reloaded.CacheTTLHours)
	assert.Equal(t, 48, manager.Current().CacheTTLHours)
}

func TestManagerReloadKeepsOldConfigOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cache_ttl_hours": 24}`), 0644))

	manager, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{broken`), 0644))
	assert.Error(t, manager.Reload())
	assert.Equal(t, 24, manager.Current().CacheTTLHours)
}
