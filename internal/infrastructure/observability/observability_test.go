package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"jirai-backend/internal/domain/shared"
	"jirai-backend/internal/domain/workspace"
	"jirai-backend/internal/infrastructure/persistence/memory"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"warn", zap.WarnLevel},
		{"error", zap.ErrorLevel},
		{"info", zap.InfoLevel},
		{"verbose", zap.InfoLevel},
		{"", zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewLogger_AtomicLevel(t *testing.T) {
	logger, atom, err := NewLogger("development", "warn", "json")
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	atom.SetLevel(zap.DebugLevel)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("jirai")
	b := NewCollector("jirai")

	a.RecordOperation(context.Background(), "get", "memory", 10*time.Millisecond, nil)
	a.RecordOperation(context.Background(), "get", "memory", 10*time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.BackendOperations.WithLabelValues("get", "memory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.BackendOperations.WithLabelValues("get", "memory", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.BackendOperations.WithLabelValues("get", "memory", "success")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("jirai")
	c.NodesCreated.Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jirai_nodes_created_total 1")
}

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	c := NewCollector("jirai")
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(c))
	r.Use(TracingMiddleware("test"))
	r.Get("/api/workspaces/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/workspaces/"+id, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(
		c.HTTPRequests.WithLabelValues(http.MethodGet, "/api/workspaces/{id}", "404")))
}

type fakeCloudWatch struct {
	calls  int
	datums int
}

func (f *fakeCloudWatch) PutMetricData(_ context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.calls++
	f.datums += len(in.MetricData)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestCloudWatchSink_BuffersUntilFlush(t *testing.T) {
	cw := &fakeCloudWatch{}
	sink := NewCloudWatchSink("Jirai", cw, nil)

	sink.RecordOperation(context.Background(), "save", "dynamodb", 5*time.Millisecond, nil)
	sink.RecordOperation(context.Background(), "save", "dynamodb", 5*time.Millisecond, errors.New("x"))
	assert.Equal(t, 4, sink.Pending())
	assert.Equal(t, 0, cw.calls)

	sink.Flush(context.Background())
	assert.Equal(t, 1, cw.calls)
	assert.Equal(t, 4, cw.datums)
	assert.Equal(t, 0, sink.Pending())
}

func TestInstrumentedWorkspaceRepository(t *testing.T) {
	inner := memory.NewWorkspaceRepository()
	c := NewCollector("jirai")
	repo := NewInstrumentedWorkspaceRepository(inner, "memory", c, nil)
	ctx := context.Background()

	ws, err := workspace.New("alice", "Plans", "", shared.DashboardWorkflow, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, ws))

	got, err := repo.Get(ctx, "alice", ws.ID)
	require.NoError(t, err)
	assert.Equal(t, "Plans", got.Name)

	_, err = repo.Get(ctx, "bob", ws.ID)
	require.Error(t, err)

	inner.SetError("List", errors.New("backend down"))
	_, err = repo.List(ctx, "alice")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "backend down"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackendOperations.WithLabelValues("create", "memory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackendOperations.WithLabelValues("get", "memory", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackendOperations.WithLabelValues("get", "memory", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BackendOperations.WithLabelValues("list", "memory", "error")))
}
