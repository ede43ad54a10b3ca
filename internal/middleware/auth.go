package middleware

import (
	"net/http"

	"jirai-backend/pkg/api"
	"jirai-backend/pkg/auth"

	"go.uber.org/zap"
)

// Authenticate requires a bearer token that verifier accepts and stores the
// resulting principal in the request context.
func Authenticate(verifier auth.Verifier, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.StripBearer(r.Header.Get("Authorization"))
			if token == "" {
				api.Error(w, http.StatusUnauthorized, "Authorization header required")
				return
			}
			principal, err := verifier.Verify(r.Context(), token)
			if err != nil {
				LoggerFrom(r.Context(), logger).Debug("token rejected", zap.Error(err))
				api.Error(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
