// Package observability holds logging, metrics and tracing setup plus the
// instrumentation decorators built on them.
package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder receives timing and outcome of backend operations. The
// Prometheus Collector and the CloudWatch sink both implement it.
type Recorder interface {
	RecordOperation(ctx context.Context, operation, backend string, d time.Duration, err error)
}

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Graph metrics
	NodesCreated  prometheus.Counter
	NodesDeleted  prometheus.Counter
	EdgesCreated  prometheus.Counter
	ChangeBatches *prometheus.CounterVec

	// View and session metrics
	TimelineProjections *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
	ChatReplies         *prometheus.CounterVec
	SearchQueries       *prometheus.CounterVec

	// Backend metrics
	BackendOperations *prometheus.CounterVec
	BackendDuration   *prometheus.HistogramVec
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a collector with its own registry, so several can
// coexist in tests.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		NodesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_created_total",
			Help:      "Total number of nodes created",
		}),
		NodesDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_deleted_total",
			Help:      "Total number of nodes deleted",
		}),
		EdgesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edges_created_total",
			Help:      "Total number of edges created",
		}),
		ChangeBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_batches_total",
			Help:      "Change batches applied to the graph, by collection",
		}, []string{"collection"}),
		TimelineProjections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timeline_projections_total",
			Help:      "Timeline projections computed, by zoom level",
		}, []string{"zoom"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory",
		}),
		ChatReplies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_replies_total",
			Help:      "Assistant replies by topic",
		}, []string{"topic"}),
		SearchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_total",
			Help:      "Node searches by source",
		}, []string{"source"}),
		BackendOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_operations_total",
			Help:      "Total number of storage and service operations",
		}, []string{"operation", "backend", "status"}),
		BackendDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_operation_duration_seconds",
			Help:      "Storage and service operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "backend"}),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.NodesCreated,
		c.NodesDeleted,
		c.EdgesCreated,
		c.ChangeBatches,
		c.TimelineProjections,
		c.ActiveSessions,
		c.ChatReplies,
		c.SearchQueries,
		c.BackendOperations,
		c.BackendDuration,
	)
	return c
}

// RecordOperation counts an operation and observes its duration.
func (c *Collector) RecordOperation(_ context.Context, operation, backend string, d time.Duration, err error) {
	c.BackendOperations.WithLabelValues(operation, backend, statusLabel(err)).Inc()
	c.BackendDuration.WithLabelValues(operation, backend).Observe(d.Seconds())
}

// Registry returns the Prometheus registry for this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// MultiRecorder fans out to several recorders.
type MultiRecorder []Recorder

func (m MultiRecorder) RecordOperation(ctx context.Context, operation, backend string, d time.Duration, err error) {
	for _, r := range m {
		if r != nil {
			r.RecordOperation(ctx, operation, backend, d, err)
		}
	}
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
