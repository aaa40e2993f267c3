package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/albionflip/flipperd/internal/arbitrage"
	s3blob "github.com/albionflip/flipperd/internal/blob/s3"
	"github.com/albionflip/flipperd/internal/book"
	"github.com/albionflip/flipperd/internal/cache/redis"
	"github.com/albionflip/flipperd/internal/config"
	"github.com/albionflip/flipperd/internal/domain"
	"github.com/albionflip/flipperd/internal/lookup"
	"github.com/albionflip/flipperd/internal/notify"
	"github.com/albionflip/flipperd/internal/persist"
	"github.com/albionflip/flipperd/internal/sniffer"
)

// Dependencies bundles every component the daemon needs to operate. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	Items  *lookup.Items
	Worlds *lookup.Worlds

	Books   *book.Store
	Sniffer *sniffer.Sniffer
	Engine  *arbitrage.Engine

	// Alerter is nil when chat alerts are disabled or unconfigured.
	Alerter *notify.Alerter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	logger := slog.Default()

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Lookup tables ---
	// A missing table is survivable; orders fall back to raw item ids and
	// numeric location labels.
	items, err := lookup.LoadItems(cfg.Data.ItemsFile)
	if err != nil {
		logger.Warn("items table unavailable, using raw item ids",
			slog.String("path", cfg.Data.ItemsFile),
			slog.String("error", err.Error()),
		)
		items = lookup.EmptyItems()
	}
	worlds, err := lookup.LoadWorlds(cfg.Data.WorldsFile)
	if err != nil {
		logger.Warn("worlds table unavailable, using numeric locations",
			slog.String("path", cfg.Data.WorldsFile),
			slog.String("error", err.Error()),
		)
		worlds = lookup.EmptyWorlds()
	}
	deps.Items = items
	deps.Worlds = worlds

	// --- Persistence sinks ---
	// Snapshots always land on disk; Redis and S3 are additive.
	sinks := persist.MultiSink{persist.NewFileSink(cfg.Data.Dir, logger)}

	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })
		sinks = append(sinks, redis.NewBookCache(redisClient))
	}

	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		sinks = append(sinks, s3blob.NewArchiver(s3Client))
	}

	var sink domain.BookSink = sinks

	// --- Order books ---
	deps.Books = book.NewStore(cfg.Books.FlushThreshold, sink, logger)

	// --- Ingestion pipeline ---
	reader := sniffer.NewProcessReader(sniffer.ReaderConfig{
		ExecutablePath: cfg.Sniffer.ExecutablePath,
		ReadBackoff:    cfg.Sniffer.ReadBackoff.Duration,
		StopTimeout:    cfg.Sniffer.StopTimeout.Duration,
	}, logger)
	parser := sniffer.NewParser(worlds, logger)
	deps.Sniffer = sniffer.New(reader, parser, deps.Books, items, logger)

	// --- Arbitrage ---
	deps.Engine = arbitrage.NewEngine(deps.Books, worlds, logger)

	// --- Chat alerts ---
	if cfg.Notify.Enabled {
		var senders []notify.Sender
		if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
			senders = append(senders, notify.NewTelegramSender(
				cfg.Notify.TelegramToken,
				cfg.Notify.TelegramChatID,
			))
		}
		if cfg.Notify.DiscordWebhookURL != "" {
			senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
		}
		if len(senders) > 0 {
			deps.Alerter = notify.NewAlerter(senders, cfg.Notify.Cooldown.Duration, logger)
		} else {
			logger.Warn("notify enabled but no channel configured, alerts disabled")
		}
	}

	return deps, cleanup, nil
}
