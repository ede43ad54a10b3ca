// Command lambda serves the Jirai API behind API Gateway HTTP APIs.
package main

import (
	"context"
	"log"
	"time"

	"jirai-backend/internal/config"
	"jirai-backend/internal/di"
	"jirai-backend/internal/infrastructure/observability"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container
	coldStart = true
)

// init runs once per cold start.
func init() {
	started := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, _, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, _, err := observability.NewLogger(string(cfg.Environment), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	// Backends live as long as the execution environment, so the cleanup
	// is never run.
	container, _, err = di.InitializeContainer(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	mux, ok := container.Router.(*chi.Mux)
	if !ok {
		log.Fatal("router is not a chi mux")
	}
	chiLambda = chiadapter.NewV2(mux)

	logger.Info("cold start completed", zap.Duration("duration", time.Since(started)))
}

// Handler proxies one API Gateway request through the router. Sessions kept
// in memory survive only while the execution environment stays warm; their
// snapshots carry them across environments.
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	container.Logger.Debug("lambda request",
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Bool("cold_start", coldStart))
	coldStart = false

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)

	// Nothing runs between invocations, so push metrics before returning.
	container.FlushMetrics(ctx)
	container.Sessions.EvictIdle()
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
