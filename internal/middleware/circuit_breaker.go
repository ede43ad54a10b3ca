package middleware

import (
	"errors"
	"net/http"

	"jirai-backend/internal/config"
	"jirai-backend/pkg/api"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

var errServerFault = errors.New("handler returned a server error")

// CircuitBreaker sheds load with 503s while too many recent requests ended
// in a 5xx.
func CircuitBreaker(name string, cfg config.CircuitBreaker, logger *zap.Logger) func(http.Handler) http.Handler {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	ratio := cfg.FailureRatio
	if ratio == 0 {
		ratio = 0.8
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, err := cb.Execute(func() (any, error) {
				wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
				next.ServeHTTP(wrapper, r)
				if wrapper.statusCode >= http.StatusInternalServerError {
					return nil, errServerFault
				}
				return nil, nil
			})
			switch {
			case err == nil, errors.Is(err, errServerFault):
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				LoggerFrom(r.Context(), logger).Debug("circuit breaker rejected request",
					zap.String("breaker", name),
					zap.String("path", r.URL.Path),
					zap.Error(err))
				api.Error(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
			}
		})
	}
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
