package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies FLIPPER_* environment variable overrides, and
// returns the final Config. A missing config file is not an error; the
// defaults plus environment are used instead. The returned Config has NOT
// been validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FLIPPER_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e.
// not empty). This lets operators inject settings at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Sniffer ──
	setStr(&cfg.Sniffer.ExecutablePath, "FLIPPER_SNIFFER_EXECUTABLE_PATH")
	setBool(&cfg.Sniffer.AutoStart, "FLIPPER_SNIFFER_AUTO_START")
	setDuration(&cfg.Sniffer.ReadBackoff, "FLIPPER_SNIFFER_READ_BACKOFF")
	setDuration(&cfg.Sniffer.StopTimeout, "FLIPPER_SNIFFER_STOP_TIMEOUT")

	// ── Books ──
	setInt(&cfg.Books.FlushThreshold, "FLIPPER_BOOKS_FLUSH_THRESHOLD")

	// ── Arbitrage ──
	setInt64(&cfg.Arbitrage.MinProfitSilver, "FLIPPER_ARBITRAGE_MIN_PROFIT_SILVER")
	setFloat64(&cfg.Arbitrage.MinROIPercent, "FLIPPER_ARBITRAGE_MIN_ROI_PERCENT")

	// ── Data ──
	setStr(&cfg.Data.Dir, "FLIPPER_DATA_DIR")
	setStr(&cfg.Data.ItemsFile, "FLIPPER_DATA_ITEMS_FILE")
	setStr(&cfg.Data.WorldsFile, "FLIPPER_DATA_WORLDS_FILE")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "FLIPPER_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "FLIPPER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FLIPPER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FLIPPER_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "FLIPPER_REDIS_POOL_SIZE")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "FLIPPER_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "FLIPPER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "FLIPPER_S3_REGION")
	setStr(&cfg.S3.Bucket, "FLIPPER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "FLIPPER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "FLIPPER_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "FLIPPER_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "FLIPPER_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setBool(&cfg.Server.Enabled, "FLIPPER_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FLIPPER_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FLIPPER_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setBool(&cfg.Notify.Enabled, "FLIPPER_NOTIFY_ENABLED")
	setStr(&cfg.Notify.TelegramToken, "FLIPPER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FLIPPER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FLIPPER_NOTIFY_DISCORD_WEBHOOK_URL")
	setDuration(&cfg.Notify.ScanInterval, "FLIPPER_NOTIFY_SCAN_INTERVAL")
	setDuration(&cfg.Notify.Cooldown, "FLIPPER_NOTIFY_COOLDOWN")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "FLIPPER_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
