// Package controller turns pointer and key input into selection changes and
// redraws of the current frame.
package controller

import (
	"fmt"
	"image"

	"github.com/PAMF2/irrad-IA/internal/detection"
	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/logger"
	"github.com/PAMF2/irrad-IA/internal/render"
)

// Sink receives annotated frames.
type Sink interface {
	Show(img image.Image) error
}

// Snapshotter saves an annotated frame and returns where it went.
type Snapshotter interface {
	Save(img image.Image) (string, error)
}

// Controller owns the selection state for the current frame. Every redraw
// starts from the clean base frame passed in, so annotations never
// accumulate. It is not safe for concurrent use; the control loop is its
// only caller.
type Controller struct {
	state     *detection.FrameState
	renderer  *render.Renderer
	sink      Sink
	keymap    Keymap
	snapshots Snapshotter
	logger    *logger.Logger

	fps  float64
	quit bool
	last *image.RGBA
}

// New creates a controller. A nil keymap uses DefaultKeymap.
func New(renderer *render.Renderer, sink Sink, keymap Keymap, log *logger.Logger) *Controller {
	if keymap == nil {
		keymap = DefaultKeymap()
	}
	return &Controller{
		state:    detection.NewFrameState(),
		renderer: renderer,
		sink:     sink,
		keymap:   keymap,
		logger:   log.Named("controller"),
	}
}

// SetSnapshotter enables the snapshot action.
func (c *Controller) SetSnapshotter(s Snapshotter) {
	c.snapshots = s
}

// SetFrameRate sets the rate shown in the corner; zero hides it.
func (c *Controller) SetFrameRate(fps float64) {
	c.fps = fps
}

// OnFrameReady installs a new frame's detections, clearing the selection,
// and draws it.
func (c *Controller) OnFrameReady(frame image.Image, detections []detection.Detection) {
	c.state.Replace(detections)
	c.redraw(frame)
}

// OnPointerDown selects the detection under the click, or clears the
// selection on a miss, and redraws from base.
func (c *Controller) OnPointerDown(x, y int, base image.Image) {
	if c.quit {
		return
	}
	c.state.SelectAt(float64(x), float64(y))
	c.logger.Debug("Pointer down", "x", x, "y", y, "index", c.state.SelectedIndex())
	c.logSelection()
	c.redraw(base)
}

// OnKey applies the action bound to key. It returns true once quit has been
// requested.
func (c *Controller) OnKey(key int, base image.Image) bool {
	if c.quit {
		return true
	}

	switch action := c.keymap.Lookup(key); action {
	case ActionNext:
		if c.state.Len() == 0 {
			return false
		}
		c.state.SelectNext()
		c.logSelection()
		c.redraw(base)
	case ActionPrevious:
		if c.state.Len() == 0 {
			return false
		}
		c.state.SelectPrevious()
		c.logSelection()
		c.redraw(base)
	case ActionQuit:
		c.logger.Info("Quit requested", "key", display.KeyName(key))
		c.quit = true
	case ActionSnapshot:
		c.snapshot(base)
	}
	return c.quit
}

// QuitRequested reports whether the quit action has fired.
func (c *Controller) QuitRequested() bool {
	return c.quit
}

// Render returns an annotated copy of base for the current state.
func (c *Controller) Render(base image.Image) *image.RGBA {
	return c.renderer.Render(base, render.Scene{
		Detections: c.state.Detections(),
		Selected:   c.state.SelectedIndex(),
		Info:       c.infoLines(),
		FPS:        c.fps,
	})
}

// LastFrame returns the most recently shown annotated frame, or nil.
func (c *Controller) LastFrame() *image.RGBA {
	return c.last
}

// SelectedIndex returns the selected index or detection.NoSelection.
func (c *Controller) SelectedIndex() int {
	return c.state.SelectedIndex()
}

// Selection returns the selected detection.
func (c *Controller) Selection() (detection.Detection, bool) {
	return c.state.Current()
}

// Describe formats the current selection.
func (c *Controller) Describe() string {
	return c.state.Describe()
}

func (c *Controller) infoLines() []string {
	d, ok := c.state.Current()
	if !ok {
		return []string{"No item selected"}
	}
	return []string{
		fmt.Sprintf("Selected: %s", d.Label),
		fmt.Sprintf("Confidence: %.2f", d.Confidence),
		fmt.Sprintf("Coords (xyxy): %v", d.Box),
	}
}

func (c *Controller) redraw(base image.Image) {
	if base == nil {
		return
	}
	c.last = c.Render(base)
	if err := c.sink.Show(c.last); err != nil {
		c.logger.Warn("Failed to show frame", "error", err)
	}
	if r, ok := c.sink.(display.SelectionReporter); ok {
		r.ReportSelection(c.state.Describe())
	}
}

func (c *Controller) logSelection() {
	d, ok := c.state.Current()
	if !ok {
		c.logger.Info("No item selected")
		return
	}
	c.logger.Info("Item selected",
		"index", c.state.SelectedIndex(),
		"label", d.Label,
		"confidence", fmt.Sprintf("%.2f", d.Confidence),
		"box", d.Box.String(),
	)
}

func (c *Controller) snapshot(base image.Image) {
	if c.snapshots == nil {
		c.logger.Warn("Snapshot requested but no snapshot writer is configured")
		return
	}
	if base == nil {
		return
	}
	path, err := c.snapshots.Save(c.Render(base))
	if err != nil {
		c.logger.Error("Failed to save snapshot", "error", err)
		return
	}
	c.logger.Info("Snapshot saved", "path", path)
}
