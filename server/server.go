package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/aep/videolib/bus"
	"github.com/aep/videolib/kv"
	"github.com/aep/videolib/webhook"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/otel/trace"
)

type server struct {
	store  kv.Store
	bus    bus.Bus
	config Config

	// all mutations are read-modify-write of the whole set
	writeLock sync.Mutex

	now     func() time.Time
	started time.Time

	tracer trace.Tracer
}

func newServer(store kv.Store, b bus.Bus, config Config) *server {
	return &server{
		store:   store,
		bus:     b,
		config:  config,
		now:     time.Now,
		started: time.Now(),
		tracer:  tracer,
	}
}

func (s *server) newEcho() (*echo.Echo, error) {
	val, err := newValidator()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Binder = &Binder{defaultBinder: &echo.DefaultBinder{}, validator: val}
	e.HTTPErrorHandler = errorHandler(s.config.Development())

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger())
	e.Use(TracingMiddleware(s.tracer))
	e.Use(PrometheusMiddleware)
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{s.config.FrontendURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit("10M"))

	if s.config.RateLimit > 0 {
		e.Use(echo.WrapMiddleware(rateLimit(s.config.RateLimit)))
	}

	e.GET("/", s.handleRoot)
	e.GET("/health", s.handleRootHealth)

	g := e.Group("/api")
	g.GET("", s.handleApiInfo)
	g.GET("/health", s.handleHealth)
	g.GET("/health/detailed", s.handleHealthDetailed)

	g.GET("/videos", s.handleListVideos)
	g.GET("/videos/stats", s.handleVideoStats)
	g.GET("/videos/:id", s.handleGetVideo)
	g.POST("/videos", s.handleCreateVideo)
	g.PUT("/videos/:id", s.handleUpdateVideo)
	g.DELETE("/videos/:id", s.handleDeleteVideo)

	g.GET("/tags", s.handleTags)

	return e, nil
}

// NewHandler returns the api without starting listeners, for embedding and tests.
func NewHandler(store kv.Store, b bus.Bus, cfg Config) (http.Handler, error) {
	return newServer(store, b, cfg).newEcho()
}

func rateLimit(perMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		perMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "60")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"success":false,"error":"Too many requests","message":"Rate limit exceeded, try again later"}`))
		}),
	)
}

func tlsConfig(c Config) (*tls.Config, error) {
	if c.ServerCert == "" {
		return nil, nil
	}

	cfg := &tls.Config{MinVersion: tls.VersionTLS12}

	if c.CACert != "" {
		caCert, err := os.ReadFile(c.CACert)
		if err != nil {
			return nil, fmt.Errorf("read ca cert: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("no certificates in %s", c.CACert)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return cfg, nil
}

// Run serves the api until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config) error {
	level, err := cfg.level()
	if err != nil {
		return err
	}
	logLevel.Set(level)
	slog.SetDefault(log)

	shutdownTracing, err := InitTracing(ctx, cfg.OtelEndpoint, cfg.Env)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	store, err := kv.Open(cfg.Store, cfg.StorePath())
	if err != nil {
		return err
	}
	defer store.Close()

	b, err := bus.Open(cfg.Bus)
	if err != nil {
		return err
	}
	defer b.Close()

	if cfg.Webhook != "" {
		fw := webhook.New(b, cfg.Webhook)
		go fw.Run(ctx)
	}

	s := newServer(store, b, cfg)

	e, err := s.newEcho()
	if err != nil {
		return err
	}

	tc, err := tlsConfig(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           e,
		TLSConfig:         tc,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 2)

	go func() {
		log.Info("listening", "addr", cfg.Addr, "tls", tc != nil, "mtls", cfg.CACert != "", "store", cfg.Store, "env", cfg.Env)
		if tc != nil {
			errc <- httpServer.ListenAndServeTLS(cfg.ServerCert, cfg.ServerKey)
		} else {
			errc <- httpServer.ListenAndServe()
		}
	}()

	var side *http.Server
	if cfg.MetricsAddr != "" {
		side = s.statsd(cfg.MetricsAddr)
		go func() {
			errc <- side.ListenAndServe()
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if side != nil {
		if err := side.Shutdown(shutdownCtx); err != nil {
			log.Warn("metrics server shutdown", "addr", cfg.MetricsAddr, "err", err)
		}
	}
	return httpServer.Shutdown(shutdownCtx)
}
