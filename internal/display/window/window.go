// Package window shows frames in an OpenCV highgui window and delivers key
// presses and left-button clicks made on it.
package window

import (
	"context"
	"fmt"
	"image"
	"time"

	"gocv.io/x/gocv"

	"github.com/PAMF2/irrad-IA/internal/display"
)

// highgui mouse event code for a left-button press (cv::EVENT_LBUTTONDOWN).
const eventLButtonDown = 1

const clickQueueSize = 16

// Surface is a display.Surface over a gocv.Window. highgui is not thread
// safe, so every method must be called from the control loop.
type Surface struct {
	win    *gocv.Window
	clicks *display.Queue
}

// Open creates the window and registers its mouse handler.
func Open(title string) *Surface {
	s := &Surface{
		win:    gocv.NewWindow(title),
		clicks: display.NewQueue(clickQueueSize),
	}
	s.win.SetMouseHandler(s.onMouse, nil)
	return s
}

// onMouse runs inside WaitKey on the control loop goroutine.
func (s *Surface) onMouse(event, x, y, _ int, _ interface{}) {
	if event != eventLButtonDown {
		return
	}
	s.clicks.Push(display.Event{Kind: display.PointerEvent, X: x, Y: y})
}

// Show displays img.
func (s *Surface) Show(img image.Image) error {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("failed to convert frame: %w", err)
	}
	defer mat.Close()

	if err := s.win.IMShow(mat); err != nil {
		return fmt.Errorf("failed to show frame: %w", err)
	}
	return nil
}

// PollEvent returns a pending click, or pumps the window event loop for up
// to timeout and reports the key press or click that arrived.
func (s *Surface) PollEvent(ctx context.Context, timeout time.Duration) (display.Event, bool) {
	if ctx.Err() != nil {
		return display.Event{}, false
	}
	if ev, ok := s.clicks.Pop(); ok {
		return ev, true
	}

	ms := int(timeout / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	key := s.win.WaitKey(ms)
	if key >= 0 {
		return display.Event{Kind: display.KeyEvent, Key: key & 0xFF}, true
	}
	return s.clicks.Pop()
}

// Close destroys the window.
func (s *Surface) Close() error {
	return s.win.Close()
}
