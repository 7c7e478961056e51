package server

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"benchmark-server/src/config"
	"benchmark-server/src/helpers"
	"benchmark-server/src/history"
	"benchmark-server/src/interfaces"
	"benchmark-server/src/logger"
	"benchmark-server/src/models"
	"benchmark-server/src/stream"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config     *config.Config
	Logger     *logger.Logger
	Quotes     *stream.QuoteStore
	Status     *stream.StatusTracker
	Registry   *stream.SubscriptionRegistry
	Supervisor *stream.StreamSupervisor
	Resolver   *history.HistoryResolver
	Provider   interfaces.IProviderClient

	engine    *gin.Engine
	startedAt time.Time

	// WebSocket clients. The map is owned by the hub goroutine; handlers
	// read the count through clientCount.
	clients     map[*Client]struct{}
	clientCount atomic.Int64
	broadcast   chan models.MTick // Strongly typed and buffered queue
	register    chan *Client
	unregister  chan *Client
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *config.Config, log *logger.Logger, quotes *stream.QuoteStore,
	status *stream.StatusTracker, registry *stream.SubscriptionRegistry,
	supervisor *stream.StreamSupervisor, resolver *history.HistoryResolver,
	provider interfaces.IProviderClient) *APIServer {

	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:     cfg,
		Logger:     log,
		Quotes:     quotes,
		Status:     status,
		Registry:   registry,
		Supervisor: supervisor,
		Resolver:   resolver,
		Provider:   provider,
		engine:     gin.Default(),
		startedAt:  time.Now(),
		clients:    make(map[*Client]struct{}),
		// Buffered channel so a burst of ticks never blocks the supervisor
		broadcast:  make(chan models.MTick, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/data", s.getData)
	s.engine.GET("/api/status", s.getStatus)
	s.engine.GET("/api/benchmarks", s.getBenchmarks)
	s.engine.GET("/api/history/:symbol", s.getHistory)
	s.engine.GET("/api/intraday/:symbol", s.getIntraday)
	s.engine.GET("/api/compare", s.getCompare)
	s.engine.GET("/api/quote/:symbol", s.getQuote)
	s.engine.GET("/api/health", s.getHealth)
	s.engine.POST("/api/subscribe/:symbol", s.postSubscribe)
	s.engine.GET("/api/subscriptions", s.getSubscriptions)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.runHub()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Handler exposes the gin engine, used by httptest in unit tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getData(c *gin.Context) {
	c.JSON(200, gin.H{
		"data":      s.Quotes.GetAll(),
		"status":    s.Status.String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getStatus(c *gin.Context) {
	c.JSON(200, gin.H{
		"stream_status": s.Status.String(),
		"subscriptions": len(s.Registry.Snapshot()),
		"uptime":        time.Since(s.startedAt).Round(time.Second).String(),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getBenchmarks(c *gin.Context) {
	c.JSON(200, gin.H{"benchmarks": s.Config.Benchmarks})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHistory(c *gin.Context) {
	symbol := c.Param("symbol")
	period := c.DefaultQuery("period", "1mo")
	interval := c.DefaultQuery("interval", "1d")

	points, cached, err := s.Resolver.Resolve(c.Request.Context(), symbol, period, interval)
	if err != nil {
		s.renderError(c, err)
		return
	}
	if len(points) == 0 {
		c.JSON(404, gin.H{
			"symbol":  strings.ToUpper(symbol),
			"period":  period,
			"message": "no_data",
		})
		return
	}

	c.JSON(200, gin.H{
		"symbol":   strings.ToUpper(symbol),
		"period":   period,
		"interval": interval,
		"data":     points,
		"cached":   cached,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getIntraday(c *gin.Context) {
	symbol := c.Param("symbol")
	period := c.DefaultQuery("period", "1d")
	interval := c.DefaultQuery("interval", "5m")

	// Daily intervals belong on the history endpoint; reject them here so
	// they cannot fall through to the daily path.
	if err := history.ValidateIntraday(period, interval); err != nil {
		s.renderError(c, err)
		return
	}

	points, _, err := s.Resolver.Resolve(c.Request.Context(), symbol, period, interval)
	if err != nil {
		s.renderError(c, err)
		return
	}

	resp := gin.H{
		"symbol":   strings.ToUpper(symbol),
		"period":   period,
		"interval": interval,
		"data":     points,
	}
	if len(points) == 0 {
		resp["message"] = "no_data"
	}
	c.JSON(200, resp)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getCompare(c *gin.Context) {
	raw := c.Query("symbols")
	period := c.DefaultQuery("period", "1y")

	symbols := strings.Split(raw, ",")
	if raw == "" {
		symbols = s.Config.BenchmarkSymbols()
	}

	result, err := s.Resolver.Compare(c.Request.Context(), symbols, period)
	if err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(200, gin.H{
		"period": period,
		"data":   result,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getQuote(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))

	// Serve from the live stream when we have a fresh tick, otherwise fall
	// back to a one-shot provider fetch.
	if tick, ok := s.Quotes.Get(symbol); ok {
		c.JSON(200, gin.H{"symbol": symbol, "live": true, "quote": tick})
		return
	}

	quote, err := s.Provider.FetchQuote(symbol)
	if err != nil {
		// A subscribed symbol that simply has not ticked yet is not an
		// error condition.
		if s.Registry.Contains(symbol) {
			c.JSON(200, gin.H{"symbol": symbol, "live": false, "subscribed": true, "message": "no_data"})
			return
		}
		s.renderError(c, err)
		return
	}
	c.JSON(200, gin.H{"symbol": symbol, "live": false, "quote": quote})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":        "ok",
		"stream":        s.Status.String(),
		"connections":   s.clientCount.Load(),
		"subscriptions": len(s.Registry.Snapshot()),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) postSubscribe(c *gin.Context) {
	symbol := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	if symbol == "" {
		c.JSON(400, gin.H{"error": "symbol required"})
		return
	}

	added := s.Supervisor.EnsureSubscribed(symbol)
	c.JSON(200, gin.H{
		"symbol":     symbol,
		"subscribed": true,
		"new":        added,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSubscriptions(c *gin.Context) {
	c.JSON(200, gin.H{"symbols": s.Registry.Snapshot()})
}

// -----------------------------------------------------------------------------

func (s *APIServer) renderError(c *gin.Context, err error) {
	switch {
	case helpers.IsValidationError(err):
		c.JSON(400, gin.H{"error": err.Error()})
	case helpers.IsFetchError(err) || helpers.IsConnectionError(err):
		c.JSON(502, gin.H{"error": err.Error()})
	default:
		c.JSON(500, gin.H{"error": err.Error()})
	}
}
