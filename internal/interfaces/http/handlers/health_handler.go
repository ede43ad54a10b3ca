package handlers

import (
	"context"
	"net/http"
	"time"

	"jirai-backend/pkg/api"

	"golang.org/x/sync/errgroup"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

// Check probes one dependency. Critical checks make the service unready
// when they fail; the others only degrade it.
type Check struct {
	Name     string
	Critical bool
	Probe    func(ctx context.Context) error
}

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Uptime    string                 `json:"uptime,omitempty"`
	Checks    map[string]HealthCheck `json:"checks,omitempty"`
}

// HealthCheck is the outcome of one Check.
type HealthCheck struct {
	Status   string `json:"status"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

// HealthHandler serves liveness and readiness.
type HealthHandler struct {
	version string
	started time.Time
	timeout time.Duration
	checks  []Check
}

// NewHealthHandler creates the handler. Checks run concurrently on every
// readiness request.
func NewHealthHandler(version string, checks ...Check) *HealthHandler {
	return &HealthHandler{version: version, started: time.Now(), timeout: 5 * time.Second, checks: checks}
}

// Liveness answers 200 as long as the process can serve.
func (h *HealthHandler) Liveness(w http.ResponseWriter, _ *http.Request) {
	noCache(w)
	api.Success(w, http.StatusOK, HealthResponse{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	})
}

// Readiness answers 503 when a critical dependency fails.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make([]HealthCheck, len(h.checks))
	var g errgroup.Group
	for i, c := range h.checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Probe(ctx)
			results[i] = HealthCheck{Status: StatusHealthy, Duration: time.Since(start).String()}
			if err != nil {
				results[i].Status = StatusUnhealthy
				results[i].Error = err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	status := StatusHealthy
	checks := make(map[string]HealthCheck, len(results))
	for i, c := range h.checks {
		checks[c.Name] = results[i]
		if results[i].Status == StatusHealthy {
			continue
		}
		if c.Critical {
			status = StatusUnhealthy
		} else if status == StatusHealthy {
			status = StatusDegraded
		}
	}

	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	noCache(w)
	api.Success(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Version:   h.version,
		Checks:    checks,
	})
}

func noCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}
