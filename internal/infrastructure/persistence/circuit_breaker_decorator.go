// Package persistence assembles the configured workspace repository and
// snapshot store and layers the cross-cutting decorators over them.
package persistence

import (
	"context"
	"errors"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/repository"
	appErrors "jirai-backend/pkg/errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreakerWorkspaceRepository stops calling a failing backend for a
// while once too many calls have failed.
type CircuitBreakerWorkspaceRepository struct {
	inner repository.WorkspaceRepository
	cb    *gobreaker.CircuitBreaker
}

var _ repository.WorkspaceRepository = (*CircuitBreakerWorkspaceRepository)(nil)

// NewCircuitBreakerWorkspaceRepository wraps inner with a breaker named name.
func NewCircuitBreakerWorkspaceRepository(inner repository.WorkspaceRepository, name string, cfg config.CircuitBreaker, logger *zap.Logger) *CircuitBreakerWorkspaceRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	ratio := cfg.FailureRatio
	if ratio == 0 {
		ratio = 0.6
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: countsAsSuccess,
	})
	return &CircuitBreakerWorkspaceRepository{inner: inner, cb: cb}
}

// countsAsSuccess keeps caller mistakes and cancellations from tripping the
// breaker. Only backend faults count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	return appErrors.IsNotFound(err) || appErrors.IsConflict(err) ||
		appErrors.IsValidation(err) || appErrors.IsUnauthorized(err)
}

// State exposes the breaker state for health reporting.
func (r *CircuitBreakerWorkspaceRepository) State() gobreaker.State {
	return r.cb.State()
}

func (r *CircuitBreakerWorkspaceRepository) run(fn func() error) error {
	_, err := r.cb.Execute(func() (any, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return appErrors.NewUnavailable("storage temporarily unavailable", err)
	}
	return err
}

func (r *CircuitBreakerWorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	return r.run(func() error { return r.inner.Create(ctx, ws) })
}

func (r *CircuitBreakerWorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	var out []workspace.Summary
	err := r.run(func() error {
		var err error
		out, err = r.inner.List(ctx, ownerID)
		return err
	})
	return out, err
}

func (r *CircuitBreakerWorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	var out workspace.Workspace
	err := r.run(func() error {
		var err error
		out, err = r.inner.Get(ctx, ownerID, id)
		return err
	})
	return out, err
}

func (r *CircuitBreakerWorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	return r.run(func() error { return r.inner.Save(ctx, ownerID, ws) })
}

func (r *CircuitBreakerWorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	return r.run(func() error { return r.inner.Delete(ctx, ownerID, id) })
}

// TimeoutWorkspaceRepository bounds each call with a deadline.
type TimeoutWorkspaceRepository struct {
	inner   repository.WorkspaceRepository
	timeout time.Duration
}

var _ repository.WorkspaceRepository = (*TimeoutWorkspaceRepository)(nil)

func NewTimeoutWorkspaceRepository(inner repository.WorkspaceRepository, timeout time.Duration) *TimeoutWorkspaceRepository {
	return &TimeoutWorkspaceRepository{inner: inner, timeout: timeout}
}

func (r *TimeoutWorkspaceRepository) Create(ctx context.Context, ws workspace.Workspace) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Create(ctx, ws)
}

func (r *TimeoutWorkspaceRepository) List(ctx context.Context, ownerID string) ([]workspace.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.List(ctx, ownerID)
}

func (r *TimeoutWorkspaceRepository) Get(ctx context.Context, ownerID, id string) (workspace.Workspace, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Get(ctx, ownerID, id)
}

func (r *TimeoutWorkspaceRepository) Save(ctx context.Context, ownerID string, ws workspace.Workspace) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Save(ctx, ownerID, ws)
}

func (r *TimeoutWorkspaceRepository) Delete(ctx context.Context, ownerID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.inner.Delete(ctx, ownerID, id)
}
