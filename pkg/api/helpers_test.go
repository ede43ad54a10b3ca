package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appErrors "jirai-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_WritesJSONBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "workspace not found")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "workspace not found", body["error"])
}

func TestDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Roadmap"}`))
	require.NoError(t, Decode(r, &v))
	assert.Equal(t, "Roadmap", v.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	assert.True(t, appErrors.IsValidation(Decode(r, &v)))

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	assert.True(t, appErrors.IsValidation(Decode(r, &v)))
}

func TestSwaggerHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/swagger", nil)
	req.Header.Set("Accept", "application/json")
	SwaggerHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	rec = httptest.NewRecorder()
	SwaggerHandler()(rec, httptest.NewRequest(http.MethodGet, "/swagger", nil))
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
}
