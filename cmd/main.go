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

	"github.com/okian/wicket/internal/adapters/http/api"
	"github.com/okian/wicket/internal/adapters/http/swagger"
	app "github.com/okian/wicket/internal/app"
	"github.com/okian/wicket/internal/config"
	"github.com/okian/wicket/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyLogging(cfg); err != nil {
		return err
	}
	log := logger.Get()

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}

	srv := newHTTPServer(ctx, cfg, svc)
	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var failed error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			failed = fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service stop failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return failed
}

// applyLogging switches the global logger to the configured format and level.
func applyLogging(cfg *config.Config) error {
	if err := logger.SetFormat(cfg.LogFormat); err != nil {
		return fmt.Errorf("log_format: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithStrictBallOrder(cfg.StrictBallOrder),
		app.WithDataFile(cfg.DataFile),
		app.WithSnapshotInterval(cfg.SnapshotInterval()),
	)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc,
		api.WithMaxBoardLimit(cfg.MaxBoardLimit),
		api.WithLogger(logger.Get().Named("api")),
	).Register(ctx, mux)

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
