package server

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/aep/videolib/api"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Version is reported by the health and info endpoints.
var Version = "1.0.0"

// Global registry so it can be accessed from middleware
var promRegistry *prometheus.Registry

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	storeOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Duration of store load and save operations",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 0.2, 0.5, 1, 1.5, 2},
		},
		[]string{"operation", "status"},
	)

	videoMutationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_mutations_total",
			Help: "Total number of successful video mutations",
		},
		[]string{"operation"},
	)
)

func init() {
	promRegistry = prometheus.NewRegistry()
	promRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	promRegistry.MustRegister(collectors.NewGoCollector())

	promRegistry.MustRegister(httpRequestsTotal)
	promRegistry.MustRegister(httpRequestDuration)
	promRegistry.MustRegister(storeOperationDuration)
	promRegistry.MustRegister(videoMutationsTotal)
}

// statsd serves /healthz and /metrics on a separate listener.
func (s *server) statsd(addr string) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		err := s.store.Ping()
		if err != nil {
			w.WriteHeader(503)
			return
		}

		w.Write([]byte("OK"))
	})

	mux.Handle("/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// PrometheusMiddleware records HTTP request metrics
func PrometheusMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			// render now so the status label is the one the client sees
			c.Error(err)
		}

		duration := time.Since(start).Seconds()
		status := fmt.Sprintf("%d", c.Response().Status)
		method := c.Request().Method

		// route template, so ids don't explode the label set
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)

		// already rendered, outer middleware still sees it for spans and logs
		return err
	}
}

func (s *server) health() api.Health {
	return api.Health{
		Status:      "healthy",
		Timestamp:   s.now().UTC(),
		Uptime:      time.Since(s.started).Seconds(),
		Environment: s.config.Env,
		Version:     Version,
	}
}

func (s *server) handleHealth(c echo.Context) error {
	h := s.health()
	return c.JSON(http.StatusOK, api.Response[api.Health]{
		Success: true,
		Data:    &h,
		Message: "Service is running",
	})
}

func (s *server) handleHealthDetailed(c echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	d := api.DetailedHealth{
		Health: s.health(),
		Memory: api.MemoryStats{
			Alloc:      mem.Alloc,
			TotalAlloc: mem.TotalAlloc,
			Sys:        mem.Sys,
			HeapInuse:  mem.HeapInuse,
			NumGC:      mem.NumGC,
		},
		Goroutines: runtime.NumGoroutine(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion:  runtime.Version(),
		Store:      "ok",
	}
	if err := s.store.Ping(); err != nil {
		d.Status = "degraded"
		d.Store = err.Error()
	}

	return c.JSON(http.StatusOK, api.Response[api.DetailedHealth]{
		Success: true,
		Data:    &d,
		Message: "Detailed service health",
	})
}

func (s *server) handleRootHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"status":    "healthy",
		"timestamp": s.now().UTC(),
	})
}

func (s *server) handleApiInfo(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Video Library Dashboard API",
		"version": Version,
		"endpoints": echo.Map{
			"videos": "/api/videos",
			"tags":   "/api/tags",
			"health": "/api/health",
		},
	})
}

func (s *server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Video Library Dashboard API Server",
		"version":   Version,
		"status":    "running",
		"timestamp": s.now().UTC(),
	})
}
