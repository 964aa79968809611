// Package web serves the viewer to a browser. It implements
// display.Surface: annotated frames are published as JPEG and clicks and key
// presses posted by the page are queued for the control loop.
package web

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"image"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"

	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/logger"
	"github.com/PAMF2/irrad-IA/internal/service"
)

//go:embed static/index.html
var staticFiles embed.FS

// Config contains browser surface configuration
type Config struct {
	Host        string
	Port        int
	Title       string
	EventQueue  int // pending input events kept before the oldest is dropped
	JPEGQuality int
}

// Server represents the browser display surface
type Server struct {
	*service.ServiceBase
	config     Config
	router     *gin.Engine
	httpServer *http.Server
	listener   net.Listener

	events  chan display.Event
	dropped atomic.Uint64

	mu        sync.RWMutex
	frame     []byte
	frameSize image.Point
	frames    uint64
	selection string
}

var _ display.Surface = (*Server)(nil)

// NewServer creates a new browser surface
func NewServer(cfg Config, log *logger.Logger) *Server {
	if cfg.EventQueue <= 0 {
		cfg.EventQueue = 16
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 90
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	return &Server{
		ServiceBase: service.NewServiceBase("web-surface", log),
		config:      cfg,
		router:      router,
		events:      make(chan display.Event, cfg.EventQueue),
		selection:   "No item selected",
	}
}

// Start starts the web server
func (s *Server) Start(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.LogError("Web server error", err, "address", addr)
		}
	}()

	s.LogInfo("Web surface started", "address", listener.Addr().String())
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop stops the web server
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	s.LogInfo("Stopping web surface")
	return s.httpServer.Shutdown(ctx)
}

// Show publishes img as the latest frame.
func (s *Server) Show(img image.Image) error {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(s.config.JPEGQuality)); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	s.mu.Lock()
	s.frame = buf.Bytes()
	s.frameSize = img.Bounds().Size()
	s.frames++
	s.mu.Unlock()
	return nil
}

// ReportSelection updates the readout served at /api/selection.
func (s *Server) ReportSelection(description string) {
	s.mu.Lock()
	s.selection = description
	s.mu.Unlock()
}

// PollEvent returns the next queued input event, waiting at most timeout.
func (s *Server) PollEvent(ctx context.Context, timeout time.Duration) (display.Event, bool) {
	select {
	case ev := <-s.events:
		return ev, true
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-s.events:
		return ev, true
	case <-timer.C:
		return display.Event{}, false
	case <-ctx.Done():
		return display.Event{}, false
	}
}

// Close shuts the server down.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Stop(ctx)
}

// enqueue adds ev to the event queue, discarding the oldest pending event
// when the queue is full.
func (s *Server) enqueue(ev display.Event) {
	for {
		select {
		case s.events <- ev:
			return
		default:
		}

		select {
		case <-s.events:
			s.dropped.Add(1)
			s.LogDebug("Event queue full, dropped oldest event")
		default:
		}
	}
}

// setupRoutes sets up all routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)
		api.GET("/frame", s.handleFrame)
		api.GET("/selection", s.handleSelection)
		api.POST("/pointer", s.handlePointer)
		api.POST("/key", s.handleKey)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}

// ginLogger creates a Gin middleware for logging
func ginLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware creates a CORS middleware for local network access
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
