package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/copilot-ledger/internal/api"
	"github.com/dvloznov/copilot-ledger/internal/config"
	"github.com/dvloznov/copilot-ledger/internal/decoder"
	"github.com/dvloznov/copilot-ledger/internal/jobs"
	"github.com/dvloznov/copilot-ledger/internal/jobs/inmemory"
	"github.com/dvloznov/copilot-ledger/internal/logger"
	"github.com/dvloznov/copilot-ledger/internal/store"
	"github.com/dvloznov/copilot-ledger/internal/tools"
	"github.com/dvloznov/copilot-ledger/internal/watch"
)

func main() {
	// Parse command-line flags
	var (
		configPath = flag.String("config", "", "YAML config file")
		dbPath     = flag.String("db-path", "", "LevelDB directory (or set COPILOT_DB_PATH)")
		addr       = flag.String("addr", "", "HTTP listen address (or set HTTP_ADDR)")
		watchDB    = flag.Bool("watch", false, "Refresh the cache when table files change")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *watchDB {
		cfg.Server.Watch = true
	}

	// Initialize logger
	log := logger.New(cfg.Logging)

	dec := decoder.New(decoder.WithLimits(cfg.Decoder), decoder.WithLogger(log))
	db := store.New(cfg.Database.Path, dec, log)
	if !db.IsAvailable() {
		log.Warn().Str("db_path", db.Path()).Msg("Database not found - queries will return 503 until it appears")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore, inmemory.WithWorkers(cfg.Server.RefreshWorkers))

	// Start refresh workers in background
	log.Info().Int("workers", cfg.Server.RefreshWorkers).Msg("Starting refresh worker")
	if err := jobQueue.Start(ctx, jobs.NewRefreshHandler(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start refresh worker")
	}

	// Decode once up front so the first request is served from memory.
	if err := jobQueue.PublishRefresh(ctx, &jobs.RefreshJob{Reason: jobs.ReasonManual}); err != nil {
		log.Error().Err(err).Msg("Failed to queue initial refresh")
	}

	if cfg.Server.Watch {
		w, err := watch.New(cfg.Database.Path, cfg.Server.WatchDebounce, log)
		if err != nil {
			log.Error().Err(err).Msg("Watcher disabled")
		} else {
			go func() {
				err := w.Run(ctx, func(ctx context.Context, events int) {
					if err := jobQueue.PublishRefresh(ctx, &jobs.RefreshJob{Reason: jobs.ReasonWatch}); err != nil {
						log.Error().Err(err).Msg("Failed to queue watch refresh")
					}
				})
				if err != nil {
					log.Error().Err(err).Msg("Watcher stopped with error")
				}
			}()
		}
	}

	handler := api.NewRouter(api.Deps{
		Tools:     tools.New(db),
		Publisher: jobQueue,
		Jobs:      jobStore,
		AuthToken: cfg.Server.AuthToken,
		Log:       log,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("db_path", db.Path()).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the watcher and workers
	cancel()

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight refreshes
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	log.Info().Msg("Server exited")
}
