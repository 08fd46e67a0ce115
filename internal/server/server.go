// Package server exposes the storefront over HTTP: an HTML page, a JSON
// API, a websocket notification stream and Prometheus metrics.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/catalog"
	"github.com/mrz1836/skillmint/internal/metrics"
	"github.com/mrz1836/skillmint/internal/notify"
	"github.com/mrz1836/skillmint/internal/storefront"
	"github.com/mrz1836/skillmint/internal/view"
)

// shutdownTimeout bounds graceful shutdown of open connections.
const shutdownTimeout = 5 * time.Second

// Store is the storefront as seen by HTTP handlers.
type Store interface {
	Snapshot() storefront.Snapshot
	Connect(ctx context.Context) error
	Refresh(ctx context.Context) error
	StartPurchase(item catalog.ItemID) error
	SelectAccount(ctx context.Context, index int) error
	LockWallet() error
	Notifications(buffer int) (<-chan notify.Notification, func())
}

// Server serves a Store over HTTP.
type Server struct {
	store   Store
	metrics *metrics.Metrics
	logger  *zap.Logger
	engine  *gin.Engine
}

// New builds the router. m may be nil, in which case /metrics is not served.
func New(store Store, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	tmpl, err := view.Templates()
	if err != nil {
		return nil, err
	}

	s := &Server{store: store, metrics: m, logger: logger, engine: gin.New()}
	s.engine.SetHTMLTemplate(tmpl)
	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("storefront listening", zap.String("addr", addr))
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
	return nil
}

func (s *Server) setupRoutes() {
	r := s.engine
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.logger))

	r.GET("/", s.page)
	r.GET("/health", s.health)
	r.GET("/ws", s.notifications)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := r.Group("/api", sameOrigin(s.logger))
	{
		api.GET("/state", s.state)
		api.POST("/connect", s.connect)
		api.POST("/refresh", s.refresh)
		api.POST("/purchase/:id", s.purchase)
		api.POST("/wallet/select", s.selectAccount)
		api.POST("/wallet/lock", s.lock)
	}
}

// requestLogger logs one line per request.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
