package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"jirai-backend/internal/config"
	"jirai-backend/internal/domain/timeline"
	"jirai-backend/internal/infrastructure/attachments"
	"jirai-backend/internal/infrastructure/cloud"
	"jirai-backend/internal/infrastructure/messaging"
	"jirai-backend/internal/infrastructure/observability"
	"jirai-backend/internal/infrastructure/persistence"
	supabaseStore "jirai-backend/internal/infrastructure/persistence/supabase"
	"jirai-backend/internal/infrastructure/search"
	"jirai-backend/internal/interfaces/http/handlers"
	"jirai-backend/internal/middleware"
	"jirai-backend/internal/repository"
	attachmentService "jirai-backend/internal/service/attachment"
	searchService "jirai-backend/internal/service/search"
	"jirai-backend/internal/service/session"
	workspaceService "jirai-backend/internal/service/workspace"
	"jirai-backend/pkg/auth"

	"go.uber.org/zap"
)

// Version is reported by the health endpoints. Overridden at link time.
var Version = "dev"

// filesPrefix is where in-memory attachments are served from.
const filesPrefix = "/files"

// storageBackend is the undecorated workspace repository and its name.
type storageBackend struct {
	repo repository.WorkspaceRepository
	name string
}

// searchBackend keeps the Meilisearch client reachable for health checks
// behind the fallback index.
type searchBackend struct {
	index repository.NodeIndex
	meili *search.MeiliIndex
}

// attachmentBackend keeps the in-memory store reachable for serving.
type attachmentBackend struct {
	store  repository.AttachmentStore
	memory *attachments.MemoryStore
}

type pinger interface {
	Ping(ctx context.Context) error
}

func provideCollector() *observability.Collector {
	return observability.NewCollector("jirai")
}

func provideCloudWatchSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.CloudWatchSink, error) {
	if !cfg.Features.EnableCloudWatch {
		return nil, nil
	}
	awsCfg, err := cloud.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return observability.NewCloudWatchSink(cfg.AWS.MetricsNamespace, cloud.NewCloudWatchClient(awsCfg), logger.Named("cloudwatch")), nil
}

// provideRecorder fans backend timings out to Prometheus and, when
// enabled, CloudWatch.
func provideRecorder(collector *observability.Collector, sink *observability.CloudWatchSink) observability.Recorder {
	recorders := observability.MultiRecorder{collector}
	if sink != nil {
		recorders = append(recorders, sink)
	}
	return recorders
}

func provideTracerProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.Features.EnableTracing {
		return nil, func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: string(cfg.Environment),
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

func provideStorageBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storageBackend, func(), error) {
	repo, closer, err := persistence.NewWorkspaceRepository(ctx, cfg, logger.Named("storage"))
	if err != nil {
		return storageBackend{}, nil, fmt.Errorf("workspace repository: %w", err)
	}
	cleanup := func() {
		if err := closer(); err != nil {
			logger.Warn("closing workspace repository failed", zap.Error(err))
		}
	}
	name := cfg.Storage.Backend
	if name == "" {
		name = config.BackendMemory
	}
	return storageBackend{repo: repo, name: name}, cleanup, nil
}

// provideWorkspaceRepository layers timeouts, the breaker and
// instrumentation over the configured backend.
func provideWorkspaceRepository(cfg *config.Config, logger *zap.Logger, recorder observability.Recorder, backend storageBackend) repository.WorkspaceRepository {
	return persistence.NewDecoratorChain(cfg, logger, recorder).Decorate(backend.repo, backend.name)
}

func provideSnapshotStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.SnapshotStore, func(), error) {
	store, closer, err := persistence.NewSnapshotStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot store: %w", err)
	}
	cleanup := func() {
		if err := closer(); err != nil {
			logger.Warn("closing snapshot store failed", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

func provideSearchBackend(cfg *config.Config, logger *zap.Logger) (searchBackend, func()) {
	local := search.NewLocalIndex()
	if cfg.Search.Provider != "meilisearch" {
		return searchBackend{index: local}, func() {}
	}
	meili := search.NewMeiliIndex(cfg.Search.URL, cfg.Search.APIKey, cfg.Search.Index, logger.Named("search"))
	return searchBackend{
		index: search.NewFallbackIndex(meili, local, logger.Named("search")),
		meili: meili,
	}, meili.Close
}

func provideAttachmentBackend(ctx context.Context, cfg *config.Config) (attachmentBackend, error) {
	if !cfg.Attachments.Enabled || cfg.Attachments.Endpoint == "" {
		mem := attachments.NewMemoryStore(filesPrefix)
		return attachmentBackend{store: mem, memory: mem}, nil
	}
	store, err := attachments.NewStore(ctx, attachments.Options{
		Endpoint:  cfg.Attachments.Endpoint,
		AccessKey: cfg.Attachments.AccessKey,
		SecretKey: cfg.Attachments.SecretKey,
		Bucket:    cfg.Attachments.Bucket,
		UseSSL:    cfg.Attachments.UseSSL,
		URLExpiry: cfg.Attachments.URLExpiry,
	})
	if err != nil {
		return attachmentBackend{}, err
	}
	return attachmentBackend{store: store}, nil
}

// provideEventPublisher sends workspace events to EventBridge in the
// background when events are enabled and only logs them otherwise.
func provideEventPublisher(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.EventPublisher, func(), error) {
	logger = logger.Named("events")
	if !cfg.Features.EnableEvents {
		return messaging.NewLogPublisher(logger), func() {}, nil
	}
	awsCfg, err := cloud.LoadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	eb := messaging.NewEventBridgePublisher(cloud.NewEventBridgeClient(awsCfg), cfg.AWS.EventBusName, messaging.DefaultSource, logger)
	async := messaging.NewAsyncPublisher(eb, 0, 0, logger)
	return async, async.Close, nil
}

func provideVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.Security.Verifier {
	case config.VerifierSupabase:
		client, err := supabaseStore.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			return nil, err
		}
		return auth.NewSupabaseVerifier(client, cfg.Security.TokenCacheTTL), nil
	default:
		v, err := auth.NewJWTValidator(auth.JWTConfig{
			SigningMethod: "HS256",
			SecretKey:     cfg.Security.JWTSecret,
			Issuer:        cfg.Security.JWTIssuer,
			Audience:      cfg.Security.JWTAudience,
		})
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func provideRateLimiter(cfg *config.Config) *middleware.UserRateLimiter {
	return middleware.NewUserRateLimiter(cfg.Security.RateLimit, cfg.Security.RateBurst)
}

func provideSessionManager(cfg *config.Config, store repository.SnapshotStore, logger *zap.Logger, collector *observability.Collector) *session.Manager {
	return session.NewManager(store, logger.Named("sessions"), session.Options{
		SeedSample: cfg.Features.EnableSampleWorkspace,
		IdleTTL:    cfg.Storage.SessionIdleTTL,
		ChatDelay:  cfg.Chat.ResponseDelay,
		Metrics:    collector,
	})
}

func provideWorkspaceService(repo repository.WorkspaceRepository, backend searchBackend, publisher repository.EventPublisher, logger *zap.Logger) workspaceService.Service {
	return workspaceService.NewService(repo, backend.index, publisher, logger.Named("workspaces"))
}

func provideSearchService(backend searchBackend, collector *observability.Collector) searchService.Service {
	return searchService.NewService(backend.index, collector)
}

func provideAttachmentService(cfg *config.Config, backend attachmentBackend, logger *zap.Logger) attachmentService.Service {
	return attachmentService.NewService(backend.store, cfg.Attachments.MaxSize, logger.Named("attachments"))
}

func provideTimelineOptions(cfg *config.Config) (timeline.Options, error) {
	loc, err := cfg.Timeline.Loc()
	if err != nil {
		return timeline.Options{}, fmt.Errorf("timeline location: %w", err)
	}
	return timeline.Options{WeekStart: cfg.Timeline.Weekday(), Location: loc}, nil
}

func provideHandler(
	cfg *config.Config,
	sessions *session.Manager,
	workspaces workspaceService.Service,
	searches searchService.Service,
	files attachmentService.Service,
	opts timeline.Options,
	collector *observability.Collector,
	logger *zap.Logger,
) *handlers.Handler {
	return handlers.New(handlers.Dependencies{
		Sessions:      sessions,
		Workspaces:    workspaces,
		Search:        searches,
		Attachments:   files,
		Timeline:      opts,
		Metrics:       collector,
		Logger:        logger,
		MaxUploadSize: cfg.Attachments.MaxSize,
	})
}

// provideHealthHandler turns every backend that can report on itself into a
// readiness check. Storage is critical; search only degrades.
func provideHealthHandler(storage storageBackend, snapshots repository.SnapshotStore, backend searchBackend) *handlers.HealthHandler {
	var checks []handlers.Check
	if p, ok := storage.repo.(pinger); ok {
		checks = append(checks, handlers.Check{Name: storage.name, Critical: true, Probe: p.Ping})
	}
	if p, ok := snapshots.(pinger); ok {
		checks = append(checks, handlers.Check{Name: "snapshots", Critical: true, Probe: p.Ping})
	}
	if backend.meili != nil {
		meili := backend.meili
		checks = append(checks, handlers.Check{Name: "search", Probe: func(context.Context) error {
			if !meili.Healthy() {
				return errors.New("meilisearch unreachable")
			}
			return nil
		}})
	}
	return handlers.NewHealthHandler(Version, checks...)
}

func provideRouter(
	cfg *config.Config,
	logger *zap.Logger,
	h *handlers.Handler,
	health *handlers.HealthHandler,
	verifier auth.Verifier,
	limiter *middleware.UserRateLimiter,
	collector *observability.Collector,
	files attachmentBackend,
) http.Handler {
	deps := RouterDeps{
		Config:      cfg,
		Logger:      logger,
		Handler:     h,
		Health:      health,
		Verifier:    verifier,
		RateLimiter: limiter,
		Metrics:     collector,
	}
	if files.memory != nil {
		deps.Files = handlers.ServeObjects(files.memory, filesPrefix)
	}
	return SetupRouter(deps)
}
