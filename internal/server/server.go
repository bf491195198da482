// Package server exposes the simulation over HTTP: JSON endpoints for the
// ephemeris and clock, a WebSocket frame stream and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/metrics"
	"github.com/litescript/ls-orrery/internal/tick"
)

// Config configures the HTTP service.
type Config struct {
	Addr        string
	CORSOrigins []string
	RateLimit   float64 // Requests per second per client
	RateBurst   int
	StreamHz    float64
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		CORSOrigins: []string{"*"},
		RateLimit:   20,
		RateBurst:   40,
		StreamHz:    10,
	}
}

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Server serves the HTTP API for one tick driver.
type Server struct {
	cfg      Config
	driver   *tick.Driver
	metrics  *metrics.Collector
	logger   *logging.Logger
	limiter  *ipRateLimiter
	upgrader websocket.Upgrader
	engine   *gin.Engine
	now      func() time.Time
}

// New builds the router. m may be nil, in which case /metrics is absent.
func New(driver *tick.Driver, m *metrics.Collector, logger *logging.Logger, cfg Config) *Server {
	def := DefaultConfig()
	if cfg.RateLimit <= 0 || cfg.RateBurst < 1 {
		cfg.RateLimit, cfg.RateBurst = def.RateLimit, def.RateBurst
	}
	if cfg.StreamHz <= 0 {
		cfg.StreamHz = def.StreamHz
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = def.CORSOrigins
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		cfg:     cfg,
		driver:  driver,
		metrics: m,
		logger:  logger.With("component", "server"),
		limiter: newIPRateLimiter(cfg.RateLimit, cfg.RateBurst),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		now: time.Now,
	}
	s.engine = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.observe())

	corsCfg := cors.Config{
		AllowMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 1 && s.cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api", s.rateLimit())
	{
		api.GET("/ephemeris", s.getEphemeris)
		api.GET("/frame", s.getFrame)
		api.GET("/events", s.getEvents)
		api.GET("/eclipses", s.getEclipses)
		api.GET("/check", s.getCheck)
		api.GET("/sky", s.getSky)

		api.GET("/clock", s.getClock)
		api.PUT("/clock/speed", s.putSpeed)
		api.PUT("/clock/current", s.putCurrent)
		api.POST("/clock/sync", s.postSync)
		api.POST("/clock/jump", s.postJump)

		api.GET("/stream", s.stream)
	}
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
