package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPOONACULAR_API_KEY", "key-123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "key-123", cfg.Spoonacular.APIKey)
	assert.Equal(t, DefaultSpoonacularURL, cfg.Spoonacular.BaseURL)
	assert.Equal(t, 0, cfg.Spoonacular.RetryMax)
	assert.Zero(t, cfg.Spoonacular.Timeout)
	assert.Equal(t, "file", cfg.Store.Backend)
	assert.Equal(t, "data", cfg.Store.Dir)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.False(t, cfg.Mail.Enabled())
	assert.False(t, cfg.LogSink.Enabled())
	assert.False(t, cfg.Telemetry.Enabled())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SPOONACULAR_API_KEY", "key")
	t.Setenv("SPOONACULAR_BASE_URL", "http://localhost:9999/recipes/")
	t.Setenv("SPOONACULAR_RETRY_MAX", "2")
	t.Setenv("SPOONACULAR_TIMEOUT", "15s")
	t.Setenv("STORE_BACKEND", "BOLT")
	t.Setenv("STORE_PATH", "/tmp/mc.db")
	t.Setenv("SENDGRID_API_KEY", "sg")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/recipes", cfg.Spoonacular.BaseURL)
	assert.Equal(t, 2, cfg.Spoonacular.RetryMax)
	assert.Equal(t, 15*time.Second, cfg.Spoonacular.Timeout)
	assert.Equal(t, "bolt", cfg.Store.Backend)
	assert.Equal(t, "/tmp/mc.db", cfg.Store.Path)
	assert.True(t, cfg.Mail.Enabled())
}

func TestLoadDotEnvAndYAML(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPOONACULAR_API_KEY=from-dotenv\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mealcart.yaml"), []byte("store:\n  backend: memory\nlogging:\n  level: debug\n"), 0644))
	// godotenv never overrides variables that are already present
	if old, ok := os.LookupEnv("SPOONACULAR_API_KEY"); ok {
		require.NoError(t, os.Unsetenv("SPOONACULAR_API_KEY"))
		t.Cleanup(func() { os.Setenv("SPOONACULAR_API_KEY", old) })
	} else {
		t.Cleanup(func() { os.Unsetenv("SPOONACULAR_API_KEY") })
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "from-dotenv", cfg.Spoonacular.APIKey)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	t.Run("missing api key", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Backend: "file"}}
		assert.ErrorContains(t, cfg.Validate(), "SPOONACULAR_API_KEY")
	})

	t.Run("mocks do not need a key", func(t *testing.T) {
		cfg := &Config{Store: StoreConfig{Backend: "memory"}, Mocks: MocksConfig{Enable: true}}
		assert.NoError(t, cfg.Validate())
	})

	t.Run("azure needs credentials", func(t *testing.T) {
		cfg := &Config{Spoonacular: SpoonacularConfig{APIKey: "k"}, Store: StoreConfig{Backend: "azure"}}
		assert.ErrorContains(t, cfg.Validate(), "AZURE_STORAGE_ACCOUNT_NAME")
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := &Config{Spoonacular: SpoonacularConfig{APIKey: "k"}, Store: StoreConfig{Backend: "redis"}}
		assert.ErrorContains(t, cfg.Validate(), "unknown store backend")
	})

	t.Run("negative retries", func(t *testing.T) {
		cfg := &Config{Spoonacular: SpoonacularConfig{APIKey: "k", RetryMax: -1}, Store: StoreConfig{Backend: "file"}}
		assert.ErrorContains(t, cfg.Validate(), "retry max")
	})
}
