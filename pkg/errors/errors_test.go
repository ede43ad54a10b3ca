package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidation("bad"), http.StatusBadRequest},
		{"not found", NewNotFound("missing"), http.StatusNotFound},
		{"conflict", NewConflict("stale"), http.StatusConflict},
		{"unauthorized", NewUnauthorized("no token"), http.StatusUnauthorized},
		{"external", NewExternal("supabase", stderrors.New("boom")), http.StatusBadGateway},
		{"unavailable", NewUnavailable("breaker open", nil), http.StatusServiceUnavailable},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
		{"wrapped with fmt", fmt.Errorf("ctx: %w", NewNotFound("x")), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "noop"))

	wrapped := Wrap(NewValidation("label required"), "create node")
	assert.True(t, IsValidation(wrapped))
	assert.Equal(t, "create node: label required", MessageOf(wrapped))

	cause := stderrors.New("dial tcp")
	internal := Wrap(cause, "load workspace")
	assert.True(t, IsInternal(internal))
	assert.ErrorIs(t, internal, cause)
}

func TestMessageOf_HidesPlainErrors(t *testing.T) {
	assert.Equal(t, "internal server error", MessageOf(stderrors.New("secret detail")))
}
