// Package config defines the top-level configuration for the flipper daemon
// and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by FLIPPER_* environment
// variables.
type Config struct {
	Sniffer   SnifferConfig   `toml:"sniffer"`
	Books     BooksConfig     `toml:"books"`
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Data      DataConfig      `toml:"data"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Server    ServerConfig    `toml:"server"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// SnifferConfig holds parameters for the external capture process and the
// read loop that consumes its output.
type SnifferConfig struct {
	// ExecutablePath points at the albiondata-client binary.
	ExecutablePath string `toml:"executable_path"`
	// AutoStart starts ingestion at boot when the executable exists.
	AutoStart bool `toml:"auto_start"`
	// ReadBackoff is the sleep between retries when the stream is idle.
	ReadBackoff duration `toml:"read_backoff"`
	// StopTimeout bounds how long Stop waits before force-killing the
	// capture process.
	StopTimeout duration `toml:"stop_timeout"`
}

// BooksConfig holds order-book store parameters.
type BooksConfig struct {
	// FlushThreshold is the number of newly inserted orders per book that
	// triggers a snapshot flush to the persistence sink.
	FlushThreshold int `toml:"flush_threshold"`
}

// ArbitrageConfig holds the default matching thresholds. Callers of the
// arbitrage API may override both per request.
type ArbitrageConfig struct {
	MinProfitSilver int64   `toml:"min_profit_silver"`
	MinROIPercent   float64 `toml:"min_roi_percent"`
}

// DataConfig holds paths for lookup tables and snapshot files.
type DataConfig struct {
	Dir        string `toml:"dir"`
	ItemsFile  string `toml:"items_file"`
	WorldsFile string `toml:"worlds_file"`
}

// RedisConfig holds Redis connection parameters for the optional book cache.
type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	PoolSize int    `toml:"pool_size"`
}

// S3Config holds S3-compatible object storage parameters for the optional
// snapshot archiver.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Enabled     bool     `toml:"enabled"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds chat alert parameters. Senders without credentials are
// skipped, so leaving both channels blank disables alerting even when
// enabled.
type NotifyConfig struct {
	Enabled           bool   `toml:"enabled"`
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
	// ScanInterval is how often the order books are scanned for new
	// opportunities to alert on.
	ScanInterval duration `toml:"scan_interval"`
	// Cooldown suppresses repeat alerts for the same flip route.
	Cooldown duration `toml:"cooldown"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "100ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5s" or "100ms".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Sniffer: SnifferConfig{
			ExecutablePath: "./client/albiondata-client",
			AutoStart:      true,
			ReadBackoff:    duration{100 * time.Millisecond},
			StopTimeout:    duration{5 * time.Second},
		},
		Books: BooksConfig{
			FlushThreshold: 50,
		},
		Arbitrage: ArbitrageConfig{
			MinProfitSilver: 1000,
			MinROIPercent:   10.0,
		},
		Data: DataConfig{
			Dir:        "data",
			ItemsFile:  "data/items.json",
			WorldsFile: "data/worlds.json",
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			DB:       0,
			PoolSize: 10,
		},
		S3: S3Config{
			Enabled:        false,
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "flipper-books",
			UseSSL:         false,
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Enabled:     true,
			Port:        5000,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Enabled:      false,
			ScanInterval: duration{30 * time.Second},
			Cooldown:     duration{10 * time.Minute},
		},
		LogLevel: "info",
	}
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if c.Sniffer.ExecutablePath == "" {
		errs = append(errs, "sniffer: executable_path must not be empty")
	}
	if c.Sniffer.ReadBackoff.Duration <= 0 {
		errs = append(errs, "sniffer: read_backoff must be positive")
	}
	if c.Sniffer.StopTimeout.Duration <= 0 {
		errs = append(errs, "sniffer: stop_timeout must be positive")
	}

	if c.Books.FlushThreshold < 1 {
		errs = append(errs, "books: flush_threshold must be >= 1")
	}

	if c.Arbitrage.MinProfitSilver < 0 {
		errs = append(errs, "arbitrage: min_profit_silver must not be negative")
	}
	if c.Arbitrage.MinROIPercent < 0 {
		errs = append(errs, "arbitrage: min_roi_percent must not be negative")
	}

	if c.Data.Dir == "" {
		errs = append(errs, "data: dir must not be empty")
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty when enabled")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty when enabled")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty when enabled")
		}
	}

	if c.Notify.Enabled {
		if c.Notify.ScanInterval.Duration <= 0 {
			errs = append(errs, "notify: scan_interval must be positive")
		}
		if c.Notify.Cooldown.Duration < 0 {
			errs = append(errs, "notify: cooldown must not be negative")
		}
	}

	if c.Server.Enabled {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
