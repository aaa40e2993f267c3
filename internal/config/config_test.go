package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albionflip/flipperd/internal/config"
)

func TestDefaultsAreValid(t *testing.T) {
	// Act
	cfg := config.Defaults()

	// Assert
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.Books.FlushThreshold)
	assert.Equal(t, int64(1000), cfg.Arbitrage.MinProfitSilver)
	assert.Equal(t, 10.0, cfg.Arbitrage.MinROIPercent)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	// Arrange
	cfg := config.Defaults()
	cfg.LogLevel = "loud"
	cfg.Sniffer.ExecutablePath = ""
	cfg.Books.FlushThreshold = 0
	cfg.Server.Port = 99999

	// Act
	err := cfg.Validate()

	// Assert - one error naming all four problems
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "executable_path")
	assert.Contains(t, err.Error(), "flush_threshold")
	assert.Contains(t, err.Error(), "port")
}

func TestValidate_DisabledSectionsSkipped(t *testing.T) {
	// Arrange - invalid redis/s3 settings, but both disabled
	cfg := config.Defaults()
	cfg.Redis.Enabled = false
	cfg.Redis.Addr = ""
	cfg.S3.Enabled = false
	cfg.S3.Bucket = ""

	// Act / Assert
	assert.NoError(t, cfg.Validate())

	cfg.Redis.Enabled = true
	assert.ErrorContains(t, cfg.Validate(), "redis")
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	// Act
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, config.Defaults().Books.FlushThreshold, cfg.Books.FlushThreshold)
}

func TestLoad_TOMLOverridesDefaults(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[sniffer]
executable_path = "/opt/albion/client"
read_backoff = "250ms"
stop_timeout = "9s"

[books]
flush_threshold = 10

[arbitrage]
min_profit_silver = 5000
min_roi_percent = 25.5
`), 0o644))

	// Act
	cfg, err := config.Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/opt/albion/client", cfg.Sniffer.ExecutablePath)
	assert.Equal(t, 250*time.Millisecond, cfg.Sniffer.ReadBackoff.Duration)
	assert.Equal(t, 9*time.Second, cfg.Sniffer.StopTimeout.Duration)
	assert.Equal(t, 10, cfg.Books.FlushThreshold)
	assert.Equal(t, int64(5000), cfg.Arbitrage.MinProfitSilver)
	assert.Equal(t, 25.5, cfg.Arbitrage.MinROIPercent)

	// Untouched sections keep their defaults.
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoad_EnvOverridesWin(t *testing.T) {
	// Arrange
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[books]
flush_threshold = 10
`), 0o644))

	t.Setenv("FLIPPER_BOOKS_FLUSH_THRESHOLD", "75")
	t.Setenv("FLIPPER_SNIFFER_READ_BACKOFF", "1s")
	t.Setenv("FLIPPER_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FLIPPER_REDIS_ENABLED", "true")

	// Act
	cfg, err := config.Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 75, cfg.Books.FlushThreshold)
	assert.Equal(t, time.Second, cfg.Sniffer.ReadBackoff.Duration)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.Redis.Enabled)
}

func TestLoad_InvalidEnvValueIgnored(t *testing.T) {
	// Arrange
	t.Setenv("FLIPPER_BOOKS_FLUSH_THRESHOLD", "lots")

	// Act
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))

	// Assert - unparseable override leaves the default in place
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Books.FlushThreshold)
}
