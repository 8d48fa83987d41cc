package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"greendrake/estates/internal/api/handlers"
)

func TestHealthHandler(t *testing.T) {
	var pingErr error
	h := handlers.NewHealthHandler(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		return pingErr
	}, testLogger())
	r := newEngine()
	r.GET("/api/health", h.Health)

	w := doJSON(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, string(decode(t, w).Data))

	pingErr = errors.New("server selection timeout")
	w = doJSON(r, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, decode(t, w).Success)
}
