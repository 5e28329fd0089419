// Package httpapi exposes the pull engine as a JSON API over gin.
//
// Every /api route that touches a session runs under that session's lock, so
// a browser firing requests in parallel still sees them applied one at a time.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xtding233/gacha-simulator/internal/service"
	"github.com/xtding233/gacha-simulator/internal/session"
)

// Options configures the HTTP API.
type Options struct {
	Mode         string // gin mode
	CookieName   string
	CookieSecure bool
	CookieMaxAge int // seconds

	AutoReset        bool // default of auto_reset when switching pools
	MaxSinglePull    int
	MaxReturnResults int
	MaxHistory       int
	MaxTrials        int

	Locker    *session.Locker       // shared with other transports, optional
	Snapshots session.SnapshotStore // optional
	Gatherer  prometheus.Gatherer   // optional, serves /metrics
	Logger    *zap.Logger
}

func (o *Options) setDefaults() {
	if o.Mode == "" {
		o.Mode = gin.ReleaseMode
	}
	if o.CookieName == "" {
		o.CookieName = "gacha_session_id"
	}
	if o.MaxSinglePull <= 0 {
		o.MaxSinglePull = 100000
	}
	if o.MaxReturnResults <= 0 {
		o.MaxReturnResults = 100
	}
	if o.MaxTrials <= 0 {
		o.MaxTrials = 20000
	}
	if o.Locker == nil {
		o.Locker = session.NewLocker()
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

type Server struct {
	svc    *service.Service
	opts   Options
	locker *session.Locker
	engine *gin.Engine
	logger *zap.Logger
	server *http.Server
}

// New builds the gin engine and registers every route.
func New(svc *service.Service, opts Options) *Server {
	opts.setDefaults()
	gin.SetMode(opts.Mode)

	s := &Server{
		svc:    svc,
		opts:   opts,
		locker: opts.Locker,
		engine: gin.New(),
		logger: opts.Logger.Named("http"),
	}
	s.engine.Use(requestLogger(s.logger), recovery(s.logger))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.GET("/healthz", s.health)
	if s.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/pools", s.listPools)
	api.GET("/simulate", s.simulate)
	api.GET("/shop/plan", s.shopPlan)
	api.GET("/shop/budget", s.shopBudget)

	sess := api.Group("", s.withSession)
	sess.POST("/pools/:id", s.setPool)
	sess.GET("/current_pool", s.currentPool)
	sess.POST("/pull/single", s.pullSingle)
	sess.POST("/pull/multi", s.pullMulti)
	sess.GET("/stats", s.stats)
	sess.GET("/history", s.history)
	sess.GET("/export", s.export)
	sess.POST("/reset", s.reset)
}

// Handler returns the gin engine as an http.Handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", zap.String("addr", addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return errors.Wrap(err, "http server")
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "http server forced to shutdown")
	}
	s.logger.Info("http server exited")
	return nil
}
