package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"investment-dashboard/src/client"
	"investment-dashboard/src/logger"
	"investment-dashboard/src/models"
	"investment-dashboard/src/views"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// DashboardServer
// -----------------------------------------------------------------------------

type DashboardServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	Views  *views.Registry
	API    *client.EndpointClient

	engine     *gin.Engine
	httpServer *http.Server

	// WebSocket clients, owned by the hub goroutine
	clients     map[*Client]struct{}
	connections atomic.Int64
	broadcast   chan models.MViewState
	register    chan *Client
	unregister  chan *Client
	resync      chan *Client
	done        chan struct{}
	hubRunning  atomic.Bool
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewDashboardServer(cfg *models.MConfig, log *logger.Logger, registry *views.Registry, api *client.EndpointClient) *DashboardServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &DashboardServer{
		Config:  cfg,
		Logger:  log,
		Views:   registry,
		API:     api,
		engine:  gin.New(),
		clients: make(map[*Client]struct{}),
		// Buffered so controllers never wait on slow websocket clients
		broadcast:  make(chan models.MViewState, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		resync:     make(chan *Client),
		done:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.corsMiddleware())
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Every view transition is pushed to websocket clients
	registry.OnChange(s.Broadcast)

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		for _, allowed := range s.Config.Origins {
			if allowed == "*" || allowed == origin {
				c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
				c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *DashboardServer) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.getHealth)

		api.GET("/views", s.listViews)
		api.GET("/views/:view", s.getView)
		api.POST("/views/:view/refresh", s.refreshView)
		api.POST("/views/:view/filter", s.applyFilter)
		api.DELETE("/views/:view/filter", s.clearFilter)

		api.GET("/properties/:id", s.getProperty)
		api.POST("/properties/:id/analyze", s.queueAnalysis)

		api.POST("/discovery/start", s.startDiscovery)
		api.GET("/discovery/:job/status", s.discoveryStatus)
		api.GET("/discovery/:job/results", s.discoveryResults)

		api.POST("/valuation/analyze", s.analyzeProperty)
		api.GET("/valuation/:job/status", s.analysisStatus)
		api.GET("/valuation/:job/results", s.analysisResults)

		api.POST("/system/sync", s.triggerSync)
	}

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the routes without starting a listener.
func (s *DashboardServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// RunHub starts the websocket hub loop once.
func (s *DashboardServer) RunHub() {
	if s.hubRunning.CompareAndSwap(false, true) {
		go s.handleWebsockets()
	}
}

func (s *DashboardServer) Start() error {
	s.Logger.Info("Starting server on %s", s.httpServer.Addr)

	s.RunHub()

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *DashboardServer) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	return err
}
