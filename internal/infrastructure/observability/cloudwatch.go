package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerPut is the PutMetricData limit per call.
const maxDatumsPerPut = 1000

// CloudWatchAPI is the slice of the CloudWatch client the sink uses.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchSink buffers operation metrics and ships them with Flush. Under
// Lambda nothing scrapes /metrics, so the handler flushes after each
// invocation instead.
type CloudWatchSink struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger

	mu      sync.Mutex
	pending []types.MetricDatum
}

var _ Recorder = (*CloudWatchSink)(nil)

// NewCloudWatchSink creates a sink writing to namespace.
func NewCloudWatchSink(namespace string, client CloudWatchAPI, logger *zap.Logger) *CloudWatchSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CloudWatchSink{namespace: namespace, client: client, logger: logger}
}

// RecordOperation buffers a latency and a count datum.
func (s *CloudWatchSink) RecordOperation(_ context.Context, operation, backend string, d time.Duration, err error) {
	if s.client == nil {
		return
	}
	now := time.Now()
	dims := []types.Dimension{
		{Name: aws.String("Operation"), Value: aws.String(operation)},
		{Name: aws.String("Backend"), Value: aws.String(backend)},
		{Name: aws.String("Status"), Value: aws.String(statusLabel(err))},
	}

	s.mu.Lock()
	s.pending = append(s.pending,
		types.MetricDatum{
			MetricName: aws.String("OperationLatency"),
			Dimensions: dims,
			Value:      aws.Float64(float64(d.Milliseconds())),
			Unit:       types.StandardUnitMilliseconds,
			Timestamp:  aws.Time(now),
		},
		types.MetricDatum{
			MetricName: aws.String("OperationCount"),
			Dimensions: dims,
			Value:      aws.Float64(1),
			Unit:       types.StandardUnitCount,
			Timestamp:  aws.Time(now),
		},
	)
	s.mu.Unlock()
}

// Flush sends buffered datums. Failures are logged and dropped; metrics
// never fail a request.
func (s *CloudWatchSink) Flush(ctx context.Context) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for start := 0; start < len(pending); start += maxDatumsPerPut {
		end := min(start+maxDatumsPerPut, len(pending))
		_, err := s.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(s.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			s.logger.Warn("failed to send metrics", zap.Int("datums", end-start), zap.Error(err))
		}
	}
}

// Pending reports how many datums wait for Flush.
func (s *CloudWatchSink) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
