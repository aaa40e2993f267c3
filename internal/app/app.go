// Package app provides the top-level application lifecycle management for the
// flipper daemon. It wires together all dependencies (lookup tables, order
// books, persistence sinks, the capture pipeline, and the API server) and
// starts the appropriate goroutines.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albionflip/flipperd/internal/config"
	"github.com/albionflip/flipperd/internal/server"
	"github.com/albionflip/flipperd/internal/server/handler"
	"github.com/albionflip/flipperd/internal/server/ws"
)

// statusInterval is how often the live status frame is pushed to WebSocket
// clients.
const statusInterval = 2 * time.Second

// shutdownTimeout bounds the graceful HTTP shutdown on exit.
const shutdownTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the capture
// pipeline and the API server, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	if a.cfg.Sniffer.AutoStart {
		if err := deps.Sniffer.Start(); err != nil {
			// The daemon stays up so the operator can fix the capture
			// client and start it over the API.
			a.logger.Warn("auto-start failed, sniffer idle",
				slog.String("error", err.Error()),
			)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var hub *ws.Hub
	if a.cfg.Server.Enabled {
		hub = ws.NewHub(deps.Sniffer.Status, a.logger)
		g.Go(func() error {
			if err := hub.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})

		// Push status frames to connected dashboards.
		g.Go(func() error {
			ticker := time.NewTicker(statusInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					hub.BroadcastStatus(deps.Sniffer.Status())
				}
			}
		})

		srv := server.NewServer(server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
		}, server.Handlers{
			Health:  handler.NewHealthHandler(time.Now()),
			Status:  handler.NewStatusHandler(deps.Sniffer),
			Arb:     handler.NewArbHandler(deps.Engine, a.cfg.Arbitrage.MinProfitSilver, a.cfg.Arbitrage.MinROIPercent),
			Books:   handler.NewBookHandler(deps.Books),
			Sniffer: handler.NewSnifferHandler(deps.Sniffer, a.logger),
		}, hub, a.logger)

		g.Go(func() error {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if deps.Alerter != nil {
		// Scan for fresh opportunities and push chat alerts.
		g.Go(func() error {
			ticker := time.NewTicker(a.cfg.Notify.ScanInterval.Duration)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					opps := deps.Engine.Opportunities(
						a.cfg.Arbitrage.MinProfitSilver,
						a.cfg.Arbitrage.MinROIPercent,
					)
					if err := deps.Alerter.Alert(gctx, opps); err != nil {
						a.logger.Warn("alert dispatch failed",
							slog.String("error", err.Error()),
						)
					}
				}
			}
		})
	}

	// Stop ingestion once the group winds down.
	g.Go(func() error {
		<-gctx.Done()
		if err := deps.Sniffer.Stop(); err != nil {
			a.logger.Warn("sniffer stop on shutdown",
				slog.String("error", err.Error()),
			)
		}
		return nil
	})

	// The stop goroutine keeps the group alive until the context is
	// cancelled, so headless runs (server disabled) block here too.
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("app: %w", err)
	}
	return nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
