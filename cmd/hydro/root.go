package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/hydro/internal/api"
	"github.com/hyperengineering/hydro/internal/config"
	"github.com/hyperengineering/hydro/internal/metrics"
	"github.com/hyperengineering/hydro/internal/service"
	"github.com/hyperengineering/hydro/internal/store"
	"github.com/hyperengineering/hydro/internal/worker"
)

// Version is set at build time via ldflags: -ldflags "-X main.Version=1.0.0"
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "hydro",
	Short:        "Hydro - hydroponic systems and water-quality measurements",
	SilenceUsage: true,
	RunE:         run,
}

func run(cmd *cobra.Command, args []string) error {
	// 1. Signal handling
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// 2. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("configuration loaded")

	// 3. Initialize logger
	logger := newLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)
	slog.Info("logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("no JWT secret configured, every bearer token will be rejected")
	}

	// 4. Initialize store (migrations, WAL mode)
	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	slog.Info("store initialized", "path", cfg.Database.Path)

	// 5. Metrics and service
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}
	svc := service.New(db, service.WithMetrics(m), service.WithLogger(logger))

	// 6. Initialize HTTP router
	router := newRouter(cfg, svc, m)
	slog.Info("router initialized", "metrics", cfg.Metrics.Enabled)

	// 7. Configure HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout),
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout),
	}

	// 8. Background workers
	var wg sync.WaitGroup
	if m != nil && cfg.Metrics.StatsInterval > 0 {
		reporter := worker.NewStatsReporter(svc, m, time.Duration(cfg.Metrics.StatsInterval))
		startWorker(ctx, &wg, "stats-reporter", reporter.Run)
	}

	// 9. Start HTTP server in goroutine
	go func() {
		slog.Info("server starting", "address", addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	// 10. Block until signal received
	<-ctx.Done()
	slog.Info("shutdown initiated")

	// 11. Graceful shutdown sequence
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout))
	defer shutdownCancel()

	// 11a. Stop HTTP server (drains in-flight requests)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// 11b. Wait for workers to complete
	wg.Wait()

	// 11c. Close store
	if err := db.Close(); err != nil {
		slog.Error("store close error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// newRouter assembles the HTTP stack for cfg. m may be nil.
func newRouter(cfg *config.Config, svc *service.Service, m *metrics.Metrics) http.Handler {
	handler := api.NewHandler(svc, m, Version,
		cfg.Pagination.DefaultPageSize, cfg.Pagination.MaxPageSize)
	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer,
		time.Duration(cfg.Auth.Leeway), m)

	opts := api.RouterOptions{}
	if m != nil {
		opts.Metrics = m
		opts.MetricsPath = cfg.Metrics.Path
	}
	return api.NewRouter(handler, auth, opts)
}

func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// startWorker launches a background worker goroutine that respects context cancellation.
// Workers are tracked via WaitGroup for graceful shutdown.
func startWorker(ctx context.Context, wg *sync.WaitGroup, name string, fn func(ctx context.Context)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("worker started", "worker", name)
		fn(ctx)
		slog.Info("worker stopped", "worker", name)
	}()
}
