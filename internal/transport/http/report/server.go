// Package reporthttp serves stored backtest reports over a read-only JSON API.
package reporthttp

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tradescope/internal/backtest"
	"tradescope/internal/executor"
	"tradescope/internal/logger"
	"tradescope/internal/store/candles"
	"tradescope/internal/store/reportstore"

	"github.com/gin-gonic/gin"
)

// RunReader is the part of the report store the API needs.
type RunReader interface {
	ListRuns(ctx context.Context, opts reportstore.ListOptions) ([]reportstore.Run, error)
	GetRun(ctx context.Context, id string) (reportstore.Run, error)
	Trades(ctx context.Context, id string) ([]executor.TradeResult, error)
	Equity(ctx context.Context, id string) ([]backtest.EquityPoint, error)
}

// DatasetLister lists cached candle datasets.
type DatasetLister interface {
	Manifests(ctx context.Context) ([]candles.Manifest, error)
}

type Config struct {
	Addr     string
	Runs     RunReader
	Datasets DatasetLister
}

type Server struct {
	addr     string
	runs     RunReader
	datasets DatasetLister
	router   *gin.Engine
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.Runs == nil {
		return nil, errors.New("report http server requires a run reader")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9991"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	s := &Server{
		addr:     cfg.Addr,
		runs:     cfg.Runs,
		datasets: cfg.Datasets,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.router.Group("/api")
	api.GET("/runs", s.handleRunList)
	api.GET("/runs/:id", s.handleRunDetail)
	api.GET("/runs/:id/trades", s.handleRunTrades)
	api.GET("/runs/:id/equity", s.handleRunEquity)
	if s.datasets != nil {
		api.GET("/datasets", s.handleDatasets)
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Addr() string { return s.addr }

func (s *Server) handleRunList(c *gin.Context) {
	opts := reportstore.ListOptions{Symbol: c.Query("symbol")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		opts.Limit = limit
	}
	runs, err := s.runs.ListRuns(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	run, err := s.runs.GetRun(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (s *Server) handleRunTrades(c *gin.Context) {
	trades, err := s.runs.Trades(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleRunEquity(c *gin.Context) {
	points, err := s.runs.Equity(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"equity": points})
}

func (s *Server) handleDatasets(c *gin.Context) {
	list, err := s.datasets.Manifests(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasets": list})
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, reportstore.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	logger.Warnf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s status=%d ip=%s dur=%s",
			c.Request.Method, c.Request.URL.RequestURI(), c.Writer.Status(), c.ClientIP(), time.Since(start))
	}
}

// Start serves until ctx is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	logger.Infof("[http] report api listening on %s", s.addr)

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
