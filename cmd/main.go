package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/okian/crmpulse/internal/adapters/http/api"
	"github.com/okian/crmpulse/internal/adapters/http/swagger"
	"github.com/okian/crmpulse/internal/adapters/repository"
	app "github.com/okian/crmpulse/internal/app"
	"github.com/okian/crmpulse/internal/config"
	"github.com/okian/crmpulse/internal/demo"
	"github.com/okian/crmpulse/pkg/logger"
	"github.com/shopspring/decimal"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load()
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	src, closeSource, err := openSource(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSource(); err != nil {
			log.Warn(ctx, "closing source failed", logger.Error(err))
		}
	}()

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithSource(src),
		app.WithTier1Threshold(decimal.NewFromInt(cfg.Tier1Threshold)),
		app.WithFetchTimeout(cfg.FetchTimeout()),
	)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}

// openSource opens the SQLite store when a path is configured, otherwise an
// in-memory store, seeded with the demo snapshot when enabled.
func openSource(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Source, func() error, error) {
	if cfg.DBPath != "" {
		store, err := repository.OpenSQLite(ctx, cfg.DBPath, repository.WithLogger(log.Named("sqlite")))
		if err != nil {
			return nil, nil, err
		}
		log.Info(ctx, "using sqlite source", logger.String("path", cfg.DBPath))
		return store, store.Close, nil
	}

	store := repository.NewMemoryStore()
	if cfg.SeedDemo {
		snap := demo.NewGenerator().Generate(time.Now().UTC())
		store.Load(snap)
		log.Info(ctx, "seeded in-memory source",
			logger.Int("deals", len(snap.Deals)),
			logger.Int("mandates", len(snap.Mandates)),
			logger.Int("targets", len(snap.Targets)),
		)
	}
	return store, func() error { return nil }, nil
}

func newRouter(engine api.Engine, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	api.NewServer(engine, api.WithLogger(log.Named("http"))).Register(r)
	swagger.Register(r)
	return r
}
