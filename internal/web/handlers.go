package web

import (
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/PAMF2/irrad-IA/internal/display"
)

// PointerRequest is a primary-button press in frame pixel coordinates
type PointerRequest struct {
	X *int `json:"x" binding:"required"`
	Y *int `json:"y" binding:"required"`
}

// KeyRequest is a key press; Key is a single character or esc, enter,
// space or tab
type KeyRequest struct {
	Key string `json:"key" binding:"required"`
}

func (s *Server) handleIndex(c *gin.Context) {
	page, err := staticFiles.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "viewer page missing"})
		return
	}
	html := strings.ReplaceAll(string(page), "{{TITLE}}", html.EscapeString(s.config.Title))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) handleHealth(c *gin.Context) {
	s.mu.RLock()
	frames := s.frames
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"service":        s.Name(),
		"frames":         frames,
		"pending_events": len(s.events),
		"dropped_events": s.dropped.Load(),
	})
}

func (s *Server) handleFrame(c *gin.Context) {
	s.mu.RLock()
	frame := s.frame
	s.mu.RUnlock()

	if frame == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no frame available yet"})
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/jpeg", frame)
}

func (s *Server) handleSelection(c *gin.Context) {
	s.mu.RLock()
	selection := s.selection
	size := s.frameSize
	s.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"selection": selection,
		"width":     size.X,
		"height":    size.Y,
	})
}

func (s *Server) handlePointer(c *gin.Context) {
	var req PointerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.enqueue(display.Event{Kind: display.PointerEvent, X: *req.X, Y: *req.Y})
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}

func (s *Server) handleKey(c *gin.Context) {
	var req KeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, err := display.ParseKey(req.Key)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.enqueue(display.Event{Kind: display.KeyEvent, Key: code})
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}
