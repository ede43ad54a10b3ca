package middleware

import (
	"net/http"
	"runtime/debug"

	"jirai-backend/pkg/api"

	"go.uber.org/zap"
)

// Recovery turns a handler panic into a 500 response and an error log with
// the stack.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				LoggerFrom(r.Context(), logger).Error("panic serving request",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.ByteString("stack", debug.Stack()))

				// Nothing can be done once the body has started.
				if w.Header().Get("Content-Type") == "" {
					api.Error(w, http.StatusInternalServerError, "Internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
