// Package server serves the revision dashboard and its JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/wikirevs/pkg/charts"
	"github.com/Sumatoshi-tech/wikirevs/pkg/config"
	"github.com/Sumatoshi-tech/wikirevs/pkg/observability"
	"github.com/Sumatoshi-tech/wikirevs/pkg/session"
)

const (
	shutdownTimeout = 10 * time.Second
	corsMaxAge      = 12 * time.Hour
	wildcardOrigin  = "*"
)

var ginModeOnce sync.Once

// Options configures a Server.
type Options struct {
	Session     *session.Session
	Charts      charts.Config
	CORSOrigins []string
	Logger      *slog.Logger
	Tracer      trace.Tracer
	// RED, when set, records rate, errors and duration per route.
	RED *observability.REDMetrics
	// MetricsHandler, when set, is mounted at /metrics.
	MetricsHandler http.Handler
	ReadyChecks    []observability.ReadyCheck
}

// Server is the HTTP dashboard.
type Server struct {
	session *session.Session
	charts  charts.Config
	logger  *slog.Logger
	engine  *gin.Engine
	handler http.Handler
}

// New builds the router. The dashboard form submits back to "/".
func New(opts Options) *Server {
	ginModeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })

	tracer := opts.Tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer("server")
	}

	chartsCfg := opts.Charts
	chartsCfg.FormAction = "/"

	s := &Server{
		session: opts.Session,
		charts:  chartsCfg,
		logger:  observability.LoggerOrDefault(opts.Logger),
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery(), requestLogger(s.logger), cors.New(corsConfig(opts.CORSOrigins)))

	if opts.RED != nil {
		s.engine.Use(redMetrics(opts.RED))
	}

	s.routes(opts)
	s.handler = observability.HTTPMiddleware(tracer, s.engine)

	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", observability.RequestIDHeader}
	cfg.ExposeHeaders = []string{observability.RequestIDHeader}
	cfg.MaxAge = corsMaxAge

	if len(origins) == 0 || slices.Contains(origins, wildcardOrigin) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}

	return cfg
}

func (s *Server) routes(opts Options) {
	s.engine.GET("/", s.handleDashboard)

	api := s.engine.Group("/api")
	{
		api.POST("/load", s.handleLoad)
		api.GET("/tables", s.handleTables)
		api.GET("/status", s.handleStatus)
	}

	s.engine.GET("/healthz", gin.WrapH(observability.HealthHandler()))
	s.engine.GET("/readyz", gin.WrapH(observability.ReadyHandler(opts.ReadyChecks...)))

	if opts.MetricsHandler != nil {
		s.engine.GET("/metrics", gin.WrapH(opts.MetricsHandler))
	}
}

// Handler returns the traced root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on cfg.Addr() and serves until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context, cfg config.ServerConfig) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}

	return s.Serve(ctx, ln, cfg)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, cfg config.ServerConfig) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.InfoContext(ctx, "dashboard listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	<-errCh
	s.logger.InfoContext(ctx, "dashboard stopped")

	return nil
}
