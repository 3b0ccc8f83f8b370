package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quantserve/valuation-engine/config"
	"github.com/quantserve/valuation-engine/internal/cache"
	"github.com/quantserve/valuation-engine/internal/engine"
	"github.com/quantserve/valuation-engine/internal/store"
	"github.com/quantserve/valuation-engine/internal/stream"
	"github.com/quantserve/valuation-engine/internal/tasks"
	"github.com/quantserve/valuation-engine/pkg/metrics"
	"github.com/quantserve/valuation-engine/pkg/utils/logger"
)

// Server exposes the valuation engine over HTTP
type Server struct {
	cfg        config.APIConfig
	router     *gin.Engine
	httpServer *http.Server
	eng        *engine.Engine
	dispatcher *tasks.Dispatcher
	taskStore  *store.TaskStore
	hub        *stream.Hub
	results    *cache.Cache
	rec        *metrics.Recorder
	log        *logger.Logger
}

// NewServer creates an API server. The dispatcher and hub may be nil when the
// deployment runs without Kafka; the synchronous endpoints still work.
func NewServer(
	cfg config.APIConfig,
	metricsCfg config.MetricsConfig,
	eng *engine.Engine,
	dispatcher *tasks.Dispatcher,
	taskStore *store.TaskStore,
	hub *stream.Hub,
	results *cache.Cache,
	rec *metrics.Recorder,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:        cfg,
		router:     gin.New(),
		eng:        eng,
		dispatcher: dispatcher,
		taskStore:  taskStore,
		hub:        hub,
		results:    results,
		rec:        rec,
		log:        logger.GetLogger("api.server"),
	}
	s.setupRoutes(metricsCfg)
	return s
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes(metricsCfg config.MetricsConfig) {
	s.router.Use(s.loggingMiddleware(), s.metricsMiddleware(), s.recoveryMiddleware())

	s.router.GET("/health", s.handleHealth)
	if metricsCfg.Prometheus.Enabled {
		s.router.GET(metricsCfg.Prometheus.Path, gin.WrapH(promhttp.Handler()))
	}

	v1 := s.router.Group("/api/v1")

	options := v1.Group("/options")
	options.POST("/price", s.handleBlackScholes)
	options.POST("/binomial", s.handleBinomialTree)
	options.POST("/montecarlo", s.handleMonteCarlo)
	options.POST("/exotic", s.handleExotic)
	options.POST("/impliedvol", s.handleImpliedVol)
	options.GET("/chain", s.handleOptionChain)
	options.GET("/surface", s.handleVolSurface)

	bonds := v1.Group("/bonds")
	bonds.POST("/price", s.handleBond)

	v1.POST("/npv", s.handleNPV)
	v1.POST("/portfolio/simulate", s.handlePortfolio)

	if s.dispatcher != nil {
		taskGroup := v1.Group("/tasks")
		taskGroup.POST("", s.handleSubmitTask)
		taskGroup.GET("/:id", s.handleGetTask)
	}
	if s.hub != nil {
		s.router.GET("/ws", func(c *gin.Context) {
			s.hub.HandleWebSocket(c.Writer, c.Request)
		})
	}
}

// Start starts the API server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	s.log.Infof("Starting API server on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the API server gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer != nil {
		s.log.Info("Stopping API server")
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Router exposes the underlying handler for tests
func (s *Server) Router() http.Handler {
	return s.router
}
