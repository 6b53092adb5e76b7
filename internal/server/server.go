package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/SuperApp/backend/internal/api/http"
	"github.com/GriffinCanCode/SuperApp/backend/internal/api/middleware"
	"github.com/GriffinCanCode/SuperApp/backend/internal/api/ws"
	"github.com/GriffinCanCode/SuperApp/backend/internal/fetch"
	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/SuperApp/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/SuperApp/backend/internal/loader"
	"github.com/GriffinCanCode/SuperApp/backend/internal/logging"
	"github.com/GriffinCanCode/SuperApp/backend/internal/manifest"
	"github.com/GriffinCanCode/SuperApp/backend/internal/registry"
	"github.com/GriffinCanCode/SuperApp/backend/internal/sandbox"
)

const (
	streamPath      = "/stream"
	shutdownTimeout = 10 * time.Second
)

// Server holds the wired components
type Server struct {
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	registry *registry.Manager
	router   *gin.Engine
	handler  http.Handler
}

// NewServer creates a server and its logger from configuration
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return New(cfg, logger, monitoring.NewMetrics(nil))
}

// New wires a server around an existing logger and metrics collector
func New(cfg *config.Config, logger *logging.Logger, metrics *monitoring.Metrics) (*Server, error) {
	preferred, ok := manifest.ParseBase(cfg.Manifest.Preferred)
	if !ok {
		return nil, fmt.Errorf("invalid preferred manifest base %q", cfg.Manifest.Preferred)
	}

	logger.Info("Initializing shell server",
		zap.String("port", cfg.Server.Port),
		zap.String("primary", cfg.Manifest.PrimaryBaseURL),
		zap.String("fallback", cfg.Manifest.FallbackBaseURL),
		zap.String("preferred", string(preferred)),
	)

	client := fetch.NewClient(fetch.Options{
		Timeout:           cfg.Fetch.Timeout,
		RetryCount:        cfg.Fetch.RetryCount,
		RequestsPerSecond: cfg.Fetch.RequestsPerSecond,
		UserAgent:         cfg.Fetch.UserAgent,
		Logger:            logger.Component("fetch"),
	})

	manifests := manifest.NewFetcher(client, manifest.Options{
		PrimaryBaseURL:  cfg.Manifest.PrimaryBaseURL,
		FallbackBaseURL: cfg.Manifest.FallbackBaseURL,
		Preferred:       preferred,
		FullPath:        cfg.Manifest.FullPath,
		PublicPath:      cfg.Manifest.PublicPath,
		VerifyPartition: cfg.Manifest.VerifyPartition,
		Logger:          logger.Component("manifest"),
	})

	apps := loader.New(client, loader.Options{
		Extensions:    cfg.Loader.Extensions,
		AllowPatterns: cfg.Loader.AllowPatterns,
		Timeout:       cfg.Loader.Timeout,
		Sandbox: sandbox.Config{
			Timeout:          cfg.Sandbox.Timeout,
			MaxCallStackSize: cfg.Sandbox.MaxCallStackSize,
			MaxRenderDepth:   cfg.Sandbox.MaxRenderDepth,
			EnableConsole:    cfg.Sandbox.EnableConsole,
			Logger:           logger.Component("sandbox"),
		},
		Logger:  logger.Component("loader"),
		Metrics: metrics,
	})

	reg := registry.NewManager(manifests, apps, registry.Options{
		RefreshInterval: cfg.Manifest.RefreshInterval,
		Logger:          logger.Component("registry"),
	}).WithMetrics(metrics)

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger.Component("http")))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		limits.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	apihttp.NewHandlers(reg, logger.Component("api"), metrics).WithBreakers(client).Register(router)
	router.GET(streamPath, ws.NewHandler(reg, logger.Component("stream"), metrics).HandleConnection)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	s := &Server{
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		registry: reg,
		router:   router,
		handler:  router,
	}
	if cfg.Server.Gzip {
		s.handler = compressed(router)
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

// compressed gzips API responses. The event stream is left alone because
// the upgrade needs the raw connection.
func compressed(next http.Handler) http.Handler {
	gz := gzhttp.GzipHandler(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == streamPath {
			next.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Registry returns the registry manager
func (s *Server) Registry() *registry.Manager {
	return s.registry
}

// Run starts the refresher and serves HTTP until ctx ends, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		// Streams watch their request context; hijacked connections are
		// not closed by Shutdown.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	refreshCtx, stopRefresh := context.WithCancel(ctx)
	defer stopRefresh()
	refreshDone := make(chan struct{})
	go func() {
		defer close(refreshDone)
		s.registry.Run(refreshCtx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Starting shell server", zap.String("addr", ln.Addr().String()))
		serveErr <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down gracefully...")
	case err := <-serveErr:
		stopRefresh()
		<-refreshDone
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	}

	stopRefresh()
	<-refreshDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases loaded runtimes and flushes the logger
func (s *Server) Close() error {
	s.registry.Close()
	_ = s.logger.Sync()
	return nil
}
