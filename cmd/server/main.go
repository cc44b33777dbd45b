package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tweetrouter/internal/config"
	"tweetrouter/internal/db"
	"tweetrouter/internal/ingest"
	"tweetrouter/internal/jobs"
	"tweetrouter/internal/metrics"
	"tweetrouter/internal/middleware"
	"tweetrouter/internal/models"
	"tweetrouter/internal/router"
	"tweetrouter/internal/seed"
	"tweetrouter/internal/server"
	"tweetrouter/internal/store"
)

func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Starter rules: YAML file if present, built-in defaults otherwise
	seedFile, err := config.LoadSeedFile(cfg.SeedFile)
	if err != nil {
		logger.Error("failed to load seed file", "path", cfg.SeedFile, "error", err)
		os.Exit(1)
	}
	seedRules, err := seed.RulesFromFile(seedFile)
	if err != nil {
		logger.Error("invalid seed file", "path", cfg.SeedFile, "error", err)
		os.Exit(1)
	}
	if seedFile != nil {
		logger.Info("loaded starter rules", "path", cfg.SeedFile, "count", len(seedRules))
	}
	if cfg.SeedOnStart {
		seedOnStart(ctx, logger, st, seedRules)
	}

	// Initialize metrics
	metrics.Init(st)
	defer metrics.Flush()

	rt := router.New(st, logger)

	auth, err := middleware.NewAdminAuth(ctx, cfg)
	if err != nil {
		logger.Error("failed to initialize admin auth", "issuer", cfg.OIDCIssuer, "error", err)
		os.Exit(1)
	}

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Deps{
		Store:     st,
		Router:    rt,
		Auth:      auth,
		SeedRules: seedRules,
	})

	// Optional NATS ingestion
	if cfg.NATSURL != "" {
		nc, err := ingest.Connect(cfg.NATSURL)
		if err != nil {
			logger.Error("failed to connect to nats", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		defer nc.Close()

		sub := ingest.NewSubscriber(nc, cfg.NATSRouteSubject, rt, logger)
		if err := sub.Start(ctx); err != nil {
			logger.Error("failed to subscribe", "subject", cfg.NATSRouteSubject, "error", err)
			os.Exit(1)
		}
		defer sub.Stop()
	}

	// Optional pending-tweet sweep
	var sweepDone <-chan struct{}
	if cfg.SweepInterval > 0 {
		sweep := jobs.NewRouterSweep(rt, cfg.SweepInterval, cfg.SweepLimit, logger)
		sweepDone = sweep.StartAsync(ctx)
	}

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server error", "error", err)
			stop()
		}
	}()
	logger.Info("server started", "addr", cfg.ServerAddr, "store", cfg.StoreBackend)

	<-ctx.Done()

	logger.Info("shutting down server")
	if err := srv.Shutdown(); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	// the store closes on return; let an in-flight sweep finish first
	if sweepDone != nil {
		<-sweepDone
	}
	logger.Info("server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.UseMemoryStore() {
		slog.Warn("using in-memory store; data is lost on restart")
		return store.NewMemory(), nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		database.Close()
		return nil, err
	}
	slog.Info("migrations completed successfully")
	return database, nil
}

func seedOnStart(ctx context.Context, logger *slog.Logger, st store.RuleStore, rules []models.RoutingRule) {
	n, err := seed.New(st, rules).Run(ctx)
	switch {
	case errors.Is(err, store.ErrAlreadyInitialized):
		logger.Info("routing rules already initialized; skipping seed")
	case err != nil:
		logger.Error("failed to seed routing rules", "error", err)
	default:
		logger.Info("seeded starter routing rules", "count", n)
	}
}
