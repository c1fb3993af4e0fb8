package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	os.Unsetenv("LEOPARDS_API_URL")
	os.Unsetenv("LEOPARDS_PROD_ENV")

	os.Setenv("LEOPARDS_API_KEY", "key_default")
	os.Setenv("LEOPARDS_API_SECRET", "secret_default")
	defer func() {
		os.Unsetenv("LEOPARDS_API_KEY")
		os.Unsetenv("LEOPARDS_API_SECRET")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "https://merchantapi.leopardscourier.com/api", cfg.Leopards.APIURL)
	assert.False(t, cfg.Leopards.Production)
	assert.True(t, cfg.Leopards.CODEnabled)
	assert.True(t, cfg.Leopards.TrustCancelHint)
	assert.Equal(t, "0", cfg.Leopards.FixedPrice)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 10*time.Minute, cfg.Redis.RateCacheTTL())
	assert.Equal(t, time.Hour, cfg.Jobs.RefreshInterval())
	assert.Equal(t, 30*24*time.Hour, cfg.Jobs.RefreshLookback())
	assert.Equal(t, 5*time.Minute, cfg.Jobs.CancelInterval())
	assert.Equal(t, 50, cfg.Jobs.RefreshBatch)
	assert.Equal(t, 10, cfg.Jobs.CancelBatch)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	os.Setenv("APP_ENV", "production")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("SERVER_PORT", "9090")
	os.Setenv("LEOPARDS_API_KEY", "key_123")
	os.Setenv("LEOPARDS_API_SECRET", "secret_123")
	os.Setenv("LEOPARDS_PROD_ENV", "true")
	os.Setenv("LEOPARDS_COD_ENABLED", "false")
	os.Setenv("REDIS_URL", "redis://localhost:6379/0")
	defer func() {
		os.Unsetenv("APP_ENV")
		os.Unsetenv("LOG_LEVEL")
		os.Unsetenv("SERVER_PORT")
		os.Unsetenv("LEOPARDS_API_KEY")
		os.Unsetenv("LEOPARDS_API_SECRET")
		os.Unsetenv("LEOPARDS_PROD_ENV")
		os.Unsetenv("LEOPARDS_COD_ENABLED")
		os.Unsetenv("REDIS_URL")
	}()

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "key_123", cfg.Leopards.APIKey)
	assert.Equal(t, "secret_123", cfg.Leopards.APISecret)
	assert.True(t, cfg.Leopards.Production)
	assert.False(t, cfg.Leopards.CODEnabled)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
LEOPARDS_API_KEY=key_staging
LEOPARDS_API_SECRET=secret_staging
TRACKING_REFRESH_BATCH=25
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
	assert.Equal(t, "key_staging", cfg.Leopards.APIKey)
	assert.Equal(t, 25, cfg.Jobs.RefreshBatch)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	os.Unsetenv("LEOPARDS_API_KEY")
	os.Unsetenv("LEOPARDS_API_SECRET")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

// TestLoad_ValidationListsAllMissing verifies every blank required key is named.
func TestLoad_ValidationListsAllMissing(t *testing.T) {
	os.Setenv("LEOPARDS_API_KEY", "   ")
	os.Unsetenv("LEOPARDS_API_SECRET")
	defer os.Unsetenv("LEOPARDS_API_KEY")

	_, err := Load(".")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEOPARDS_API_KEY, LEOPARDS_API_SECRET")
}
