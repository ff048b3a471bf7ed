package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aep/videolib/bus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMarksFailedRequests(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	b, err := bus.NewSolo()
	require.NoError(t, err)
	defer b.Close()

	s := newServer(brokenStore{}, b, DefaultConfig())
	s.tracer = tp.Tracer("test")
	e, err := s.newEcho()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode[any](t, rec).Error)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	failed := spans[0]
	assert.Equal(t, "GET /api/videos", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)

	healthy := spans[1]
	assert.Equal(t, "GET /api/health", healthy.Name())
	assert.Equal(t, codes.Unset, healthy.Status().Code)
	assert.Empty(t, healthy.Events())
}

func TestPrometheusMiddlewareReturnsError(t *testing.T) {
	b, err := bus.NewSolo()
	require.NoError(t, err)
	defer b.Close()

	s := newServer(brokenStore{}, b, DefaultConfig())
	e, err := s.newEcho()
	require.NoError(t, err)

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/videos", nil), httptest.NewRecorder())
	err = PrometheusMiddleware(s.handleListVideos)(c)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, c.Response().Status)
	assert.True(t, c.Response().Committed)
}
