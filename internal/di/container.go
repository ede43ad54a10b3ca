// Package di wires the application together with google/wire.
package di

import (
	"context"
	"net/http"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/middleware"
	"jirai-backend/internal/service/session"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	evictionInterval = time.Minute
	limiterIdle      = 10 * time.Minute
)

// Container holds the assembled application.
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Router      http.Handler
	Sessions    *session.Manager
	Metrics     *observability.Collector
	RateLimiter *middleware.UserRateLimiter
	// CloudWatch is nil unless CloudWatch metrics are enabled.
	CloudWatch *observability.CloudWatchSink
	// Tracing is nil unless tracing is enabled.
	Tracing *observability.TracerProvider
}

// ApplyRuntimeConfig pushes the hot-reloadable settings of cfg into the
// running components.
func (c *Container) ApplyRuntimeConfig(cfg *config.Config) {
	c.Sessions.SetChatDelay(cfg.Chat.ResponseDelay)
	c.RateLimiter.SetLimit(cfg.Security.RateLimit, cfg.Security.RateBurst)
	c.Logger.Info("runtime configuration applied",
		zap.Duration("chat_delay", cfg.Chat.ResponseDelay),
		zap.Float64("rate_limit", cfg.Security.RateLimit),
		zap.Int("rate_burst", cfg.Security.RateBurst))
}

// RunMaintenance evicts idle sessions and forgets idle rate limiters until
// ctx is done.
func (c *Container) RunMaintenance(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Sessions.Run(ctx, evictionInterval)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(evictionInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if n := c.RateLimiter.Prune(limiterIdle); n > 0 {
					c.Logger.Debug("pruned idle rate limiters", zap.Int("count", n))
				}
			}
		}
	})
	return g.Wait()
}

// FlushMetrics pushes buffered CloudWatch datums, if any.
func (c *Container) FlushMetrics(ctx context.Context) {
	if c.CloudWatch != nil {
		c.CloudWatch.Flush(ctx)
	}
}
