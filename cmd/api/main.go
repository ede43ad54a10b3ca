// Command api serves the Jirai HTTP API.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/internal/di"
	"jirai-backend/internal/infrastructure/observability"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const metricsFlushInterval = time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatalf("api: %v", err)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, loader, err := config.Load()
	if err != nil {
		return err
	}

	logger, level, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	container, cleanup, err := di.InitializeContainer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize container", zap.Error(err))
		return err
	}
	defer cleanup()

	watcher, err := config.NewWatcher(cfg, loader, logger.Named("config"))
	if err != nil {
		return err
	}
	defer watcher.Stop()
	watcher.OnChange(func(next *config.Config) {
		level.SetLevel(observability.ParseLevel(next.Logging.Level))
		container.ApplyRuntimeConfig(next)
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      container.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server",
			zap.String("address", srv.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.String("storage", cfg.Storage.Backend),
			zap.Strings("config_sources", cfg.LoadedFrom))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return container.RunMaintenance(gctx)
	})
	if container.CloudWatch != nil {
		g.Go(func() error {
			ticker := time.NewTicker(metricsFlushInterval)
			defer ticker.Stop()
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					container.FlushMetrics(gctx)
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		container.FlushMetrics(shutdownCtx)
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
