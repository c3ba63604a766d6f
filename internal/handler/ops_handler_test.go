package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/symbohub-api/internal/service"
)

type pingStub struct{ err error }

func (p pingStub) PingContext(ctx context.Context) error { return p.err }

func TestOpsHandlerReady(t *testing.T) {
	handler := NewOpsHandler(service.NewMetricsService(), pingStub{})
	c, w := newContext(http.MethodGet, "/ready", nil, nil)
	handler.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	handler = NewOpsHandler(service.NewMetricsService(), pingStub{err: errors.New("connection refused")})
	c, w = newContext(http.MethodGet, "/ready", nil, nil)
	handler.Ready(c)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"down"`)
}

func TestOpsHandlerPrometheus(t *testing.T) {
	metrics := service.NewMetricsService()
	handler := NewOpsHandler(metrics, nil)
	c, w := newContext(http.MethodGet, "/metrics", nil, nil)

	handler.Prometheus(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "goroutines_total")
}
