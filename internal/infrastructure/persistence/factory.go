package persistence

import (
	"context"
	"errors"
	"fmt"

	"jirai-backend/internal/config"
	"jirai-backend/internal/infrastructure/cloud"
	"jirai-backend/internal/infrastructure/persistence/dynamodb"
	"jirai-backend/internal/infrastructure/persistence/memory"
	"jirai-backend/internal/infrastructure/persistence/postgres"
	"jirai-backend/internal/infrastructure/persistence/snapshot"
	"jirai-backend/internal/infrastructure/persistence/supabase"
	"jirai-backend/internal/repository"

	"go.uber.org/zap"
)

// Closer releases whatever a constructed store holds open.
type Closer func() error

func noopCloser() error { return nil }

// NewWorkspaceRepository builds the repository for cfg.Storage.Backend,
// undecorated.
func NewWorkspaceRepository(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.WorkspaceRepository, Closer, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory, "":
		return memory.NewWorkspaceRepository(), noopCloser, nil

	case config.BackendPostgres:
		db, err := postgres.Open(ctx, postgres.Options{
			DSN:             cfg.Postgres.DSN,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				return nil, nil, errors.Join(err, db.Close())
			}
		}
		return postgres.NewWorkspaceRepository(db), db.Close, nil

	case config.BackendSupabase:
		client, err := supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
		if err != nil {
			return nil, nil, err
		}
		return supabase.NewWorkspaceRepository(client), noopCloser, nil

	case config.BackendDynamoDB:
		awsCfg, err := cloud.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		client := dynamodb.NewClient(awsCfg, cfg.AWS.DynamoDBEndpoint)
		if cfg.AWS.DynamoDBEndpoint != "" {
			if err := dynamodb.EnsureTable(ctx, client, cfg.AWS.TableName); err != nil {
				return nil, nil, fmt.Errorf("failed to ensure table %s: %w", cfg.AWS.TableName, err)
			}
		}
		return dynamodb.NewWorkspaceRepository(client, cfg.AWS.TableName, logger), noopCloser, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
	}
}

// NewSnapshotStore builds the session snapshot store.
func NewSnapshotStore(ctx context.Context, cfg *config.Config) (repository.SnapshotStore, Closer, error) {
	switch cfg.Storage.SnapshotBackend {
	case config.BackendMemory, "":
		return snapshot.NewMemoryStore(cfg.Storage.SnapshotTTL), noopCloser, nil
	case config.BackendRedis:
		store, err := snapshot.NewRedisStore(ctx, snapshot.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Storage.SnapshotTTL,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported snapshot backend: %s", cfg.Storage.SnapshotBackend)
	}
}
