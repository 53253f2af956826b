package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/user/retro-tv-go/internal/config"
	"github.com/user/retro-tv-go/internal/feed"
	"github.com/user/retro-tv-go/internal/notify"
	"github.com/user/retro-tv-go/internal/planner"
	"github.com/user/retro-tv-go/internal/probe"
	"github.com/user/retro-tv-go/internal/relay"
	"github.com/user/retro-tv-go/internal/scheduler"
	"github.com/user/retro-tv-go/internal/server"
	"github.com/user/retro-tv-go/internal/store"
)

const (
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

func main() {
	// Initialize structured JSON logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create root context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Optional MySQL play history
	var history store.Store
	if cfg.DB.Enabled {
		mysqlStore, err := store.NewMySQLStore(&cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		history = mysqlStore
		log.Info().Msg("Database connection established")
	} else {
		log.Info().Msg("Play history disabled")
	}

	loader := feed.NewLoader(&cfg.Feed)
	plry := planner.New(&cfg.Player)

	// Every issued plan passes through the metrics recorder, which
	// forwards to MySQL only when history is enabled.
	recorder := server.NewMetricsRecorder(history)
	sched := scheduler.New(loader, plry, recorder, &cfg.Feed, &cfg.Player)
	sched.SetPoolObserver(server.SetCandidatePool)

	submitRelay := relay.New(&cfg.Relay)

	// Optional Telegram moderation notices, enriched with probed page
	// titles when the viewer left theirs blank
	var observer server.SubmissionObserver
	var probed *notify.ProbedNotifier
	if cfg.Notify.Token != "" {
		telegramClient, err := notify.NewClient(cfg.Notify.Token)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram client")
		}
		prober := probe.New(cfg.Relay.Timeout)
		probed = notify.NewProbed(notify.New(telegramClient, cfg.Notify.ChatID), prober)
		observer = probed
		log.Info().Msg("Moderation notices enabled")
	}

	httpServer := server.NewServer(sched, submitRelay, observer, history)

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(cfg.Server.Port); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	sched.Start(ctx)
	log.Info().Msg("Scheduler started")

	log.Info().Msg("Retro TV started successfully")

	// Wait for shutdown signal
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()

	log.Info().Msg("Starting graceful shutdown...")

	// 1. Stop the scheduler so no new plans are issued
	sched.Stop()

	// 2. Stop accepting HTTP requests
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping HTTP server")
	} else {
		log.Info().Msg("HTTP server stopped")
	}

	// 3. Flush queued submission dispatches and moderation notices
	submitRelay.Wait()
	if probed != nil {
		probed.Wait()
		log.Info().Msg("Moderation notices flushed")
	}

	// 4. Close database connection pool
	if history != nil {
		if err := history.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		} else {
			log.Info().Msg("Database connection closed")
		}
	}

	// Cancel root context
	cancel()

	select {
	case <-shutdownCtx.Done():
		if shutdownCtx.Err() == context.DeadlineExceeded {
			log.Warn().Msg("Shutdown timeout exceeded, forcing exit")
		}
	default:
		log.Info().Msg("Graceful shutdown completed")
	}
}
