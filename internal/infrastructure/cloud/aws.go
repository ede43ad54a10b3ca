// Package cloud loads the shared AWS configuration and builds the service
// clients from it.
package cloud

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"jirai-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
)

const loadTimeout = 30 * time.Second

// LoadAWSConfig resolves credentials and region the SDK's usual way, with the
// configured region taking precedence.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithHTTPClient(&http.Client{Timeout: clientTimeout(cfg)}),
	}
	if cfg.AWS.Region != "" {
		opts = append(opts, awsConfig.WithRegion(cfg.AWS.Region))
	}
	awsCfg, err := awsConfig.LoadDefaultConfig(loadCtx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return awsCfg, nil
}

func clientTimeout(cfg *config.Config) time.Duration {
	if cfg.Environment == config.Development {
		return 30 * time.Second
	}
	return 15 * time.Second
}

func NewEventBridgeClient(awsCfg aws.Config) *eventbridge.Client {
	return eventbridge.NewFromConfig(awsCfg)
}

func NewCloudWatchClient(awsCfg aws.Config) *cloudwatch.Client {
	return cloudwatch.NewFromConfig(awsCfg)
}
