package di

import (
	"github.com/google/wire"
)

// SuperSet combines all provider sets for the complete application.
var SuperSet = wire.NewSet(
	ObservabilityProviders,
	InfrastructureProviders,
	ServiceProviders,
	InterfaceProviders,
	wire.Struct(new(Container), "*"),
)

// ObservabilityProviders builds metrics and tracing.
var ObservabilityProviders = wire.NewSet(
	provideCollector,
	provideCloudWatchSink,
	provideRecorder,
	provideTracerProvider,
)

// InfrastructureProviders builds the storage, search, attachment and event
// backends selected by the configuration.
var InfrastructureProviders = wire.NewSet(
	provideStorageBackend,
	provideWorkspaceRepository,
	provideSnapshotStore,
	provideSearchBackend,
	provideAttachmentBackend,
	provideEventPublisher,
)

// ServiceProviders builds the session manager and application services.
var ServiceProviders = wire.NewSet(
	provideSessionManager,
	provideWorkspaceService,
	provideSearchService,
	provideAttachmentService,
	provideTimelineOptions,
)

// InterfaceProviders builds authentication, handlers and the router.
var InterfaceProviders = wire.NewSet(
	provideVerifier,
	provideRateLimiter,
	provideHandler,
	provideHealthHandler,
	provideRouter,
)
