//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"jirai-backend/internal/config"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// InitializeContainer assembles the application for cfg. The returned
// cleanup releases backends in reverse construction order.
func InitializeContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
