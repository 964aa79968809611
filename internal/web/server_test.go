package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/logger"
)

func setupTestServer(t *testing.T, queue int) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := NewServer(Config{
		Host:       "127.0.0.1",
		Port:       0,
		Title:      "Viewer <test>",
		EventQueue: queue,
	}, logger.NewNopLogger())
	server.setupRoutes()
	return server
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestHandleIndex(t *testing.T) {
	s := setupTestServer(t, 4)

	w := doRequest(s, http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Viewer &lt;test&gt;")
	assert.NotContains(t, w.Body.String(), "{{TITLE}}")
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t, 4)

	w := doRequest(s, http.MethodGet, "/api/health", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "web-surface", body["service"])
}

func TestHandleFrame(t *testing.T) {
	s := setupTestServer(t, 4)

	w := doRequest(s, http.MethodGet, "/api/frame", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	require.NoError(t, s.Show(image.NewRGBA(image.Rect(0, 0, 40, 30))))

	w = doRequest(s, http.MethodGet, "/api/frame", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Width)
	assert.Equal(t, 30, cfg.Height)
}

func TestHandleSelection(t *testing.T) {
	s := setupTestServer(t, 4)
	require.NoError(t, s.Show(image.NewRGBA(image.Rect(0, 0, 40, 30))))
	s.ReportSelection("Selected #0: person (0.87) [1 2 3 4]")

	w := doRequest(s, http.MethodGet, "/api/selection", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Selection string `json:"selection"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Selected #0: person (0.87) [1 2 3 4]", body.Selection)
	assert.Equal(t, 40, body.Width)
	assert.Equal(t, 30, body.Height)
}

func TestHandlePointer_EnqueuesEvent(t *testing.T) {
	s := setupTestServer(t, 4)

	w := doRequest(s, http.MethodPost, "/api/pointer", `{"x":0,"y":17}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	ev, ok := s.PollEvent(context.Background(), time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, display.Event{Kind: display.PointerEvent, X: 0, Y: 17}, ev)
}

func TestHandlePointer_Invalid(t *testing.T) {
	s := setupTestServer(t, 4)

	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/api/pointer", `{"x":5}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/api/pointer", `not json`).Code)

	_, ok := s.PollEvent(context.Background(), time.Millisecond)
	assert.False(t, ok)
}

func TestHandleKey(t *testing.T) {
	s := setupTestServer(t, 4)

	require.Equal(t, http.StatusAccepted, doRequest(s, http.MethodPost, "/api/key", `{"key":"n"}`).Code)
	require.Equal(t, http.StatusAccepted, doRequest(s, http.MethodPost, "/api/key", `{"key":"esc"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/api/key", `{"key":"next"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(s, http.MethodPost, "/api/key", `{}`).Code)

	ev, ok := s.PollEvent(context.Background(), time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, display.Event{Kind: display.KeyEvent, Key: 'n'}, ev)

	ev, ok = s.PollEvent(context.Background(), time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, display.KeyEvent, ev.Kind)
	assert.Equal(t, display.KeyEsc, ev.Key)
}

func TestEnqueue_DropsOldestWhenFull(t *testing.T) {
	s := setupTestServer(t, 2)

	for i := 0; i < 5; i++ {
		body := fmt.Sprintf(`{"x":%d,"y":0}`, i)
		require.Equal(t, http.StatusAccepted, doRequest(s, http.MethodPost, "/api/pointer", body).Code)
	}

	ev, ok := s.PollEvent(context.Background(), time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 3, ev.X)
	ev, ok = s.PollEvent(context.Background(), time.Millisecond)
	require.True(t, ok)
	assert.Equal(t, 4, ev.X)
	_, ok = s.PollEvent(context.Background(), time.Millisecond)
	assert.False(t, ok)
	assert.Equal(t, uint64(3), s.dropped.Load())
}

func TestPollEvent_RespectsContext(t *testing.T) {
	s := setupTestServer(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, ok := s.PollEvent(ctx, time.Minute)
	assert.False(t, ok)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNotFound(t *testing.T) {
	s := setupTestServer(t, 2)
	assert.Equal(t, http.StatusNotFound, doRequest(s, http.MethodGet, "/api/unknown", "").Code)
}

func TestServer_StartStop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(Config{Host: "127.0.0.1", Port: 0}, logger.NewNopLogger())

	require.NoError(t, s.Start(context.Background()))
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/api/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.NoError(t, s.Close())
}
