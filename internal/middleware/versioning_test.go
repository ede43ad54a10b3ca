package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersioning(t *testing.T) {
	h := Versioning("1")(http.HandlerFunc(okHandler))

	tests := []struct {
		name    string
		path    string
		header  map[string]string
		code    int
		version string
	}{
		{"path version", "/api/v1/workspaces", nil, http.StatusOK, "1"},
		{"unsupported path version", "/api/v2/workspaces", nil, http.StatusBadRequest, ""},
		{"accept header", "/other", map[string]string{"Accept": "application/vnd.jirai.v1+json"}, http.StatusOK, "1"},
		{"version header", "/other", map[string]string{VersionHeader: "3"}, http.StatusBadRequest, ""},
		{"default", "/other", nil, http.StatusOK, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.version, w.Header().Get(VersionHeader))
			assert.Equal(t, "1", w.Header().Get(SupportedVersionsHeader))
		})
	}
}
