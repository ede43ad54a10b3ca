package middleware

import (
	"fmt"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"jirai-backend/pkg/api"
)

const (
	VersionHeader           = "X-API-Version"
	SupportedVersionsHeader = "X-API-Supported-Versions"
)

var (
	pathVersion   = regexp.MustCompile(`/api/v(\d+)(?:/|$)`)
	acceptVersion = regexp.MustCompile(`application/vnd\.[\w\-]+\.v(\d+)\+json`)
)

// Versioning stamps the served API version on every response and rejects
// requests that ask for a version this server does not speak. The URL path
// wins over the Accept header, which wins over X-API-Version.
func Versioning(supported ...string) func(http.Handler) http.Handler {
	if len(supported) == 0 {
		supported = []string{"1"}
	}
	list := strings.Join(supported, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			version := requestedVersion(r, supported[0])
			w.Header().Set(SupportedVersionsHeader, list)
			if !slices.Contains(supported, version) {
				api.Error(w, http.StatusBadRequest,
					fmt.Sprintf("unsupported API version %q, supported: %s", version, list))
				return
			}
			w.Header().Set(VersionHeader, version)
			next.ServeHTTP(w, r)
		})
	}
}

func requestedVersion(r *http.Request, fallback string) string {
	if m := pathVersion.FindStringSubmatch(r.URL.Path); m != nil {
		return m[1]
	}
	if m := acceptVersion.FindStringSubmatch(r.Header.Get("Accept")); m != nil {
		return m[1]
	}
	if v := strings.TrimSpace(r.Header.Get(VersionHeader)); v != "" {
		return v
	}
	return fallback
}
