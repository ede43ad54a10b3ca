package persistence

import (
	"jirai-backend/internal/config"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/repository"

	"go.uber.org/zap"
)

// DecoratorChain layers the cross-cutting decorators over a base repository.
type DecoratorChain struct {
	config   *config.Config
	logger   *zap.Logger
	recorder observability.Recorder
}

// NewDecoratorChain creates a chain builder. recorder may be nil.
func NewDecoratorChain(cfg *config.Config, logger *zap.Logger, recorder observability.Recorder) *DecoratorChain {
	return &DecoratorChain{config: cfg, logger: logger, recorder: recorder}
}

// Decorate wraps base, innermost first: timeout, circuit breaker, then
// instrumentation, so that metrics see breaker rejections too.
func (dc *DecoratorChain) Decorate(base repository.WorkspaceRepository, backend string) repository.WorkspaceRepository {
	decorated := base

	if t := dc.config.Storage.OperationTimeout; t > 0 {
		decorated = NewTimeoutWorkspaceRepository(decorated, t)
	}
	if dc.config.CircuitBreaker.Enabled && backend != config.BackendMemory {
		decorated = NewCircuitBreakerWorkspaceRepository(decorated, "workspaces-"+backend, dc.config.CircuitBreaker, dc.logger)
	}
	decorated = observability.NewInstrumentedWorkspaceRepository(decorated, backend, dc.recorder, dc.logger)

	return decorated
}
