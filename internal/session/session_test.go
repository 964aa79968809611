package session

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PAMF2/irrad-IA/internal/config"
	"github.com/PAMF2/irrad-IA/internal/controller"
	"github.com/PAMF2/irrad-IA/internal/detection"
	"github.com/PAMF2/irrad-IA/internal/detector"
	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/logger"
	"github.com/PAMF2/irrad-IA/internal/render"
)

type fakeSource struct {
	frames int
	read   int
	err    error
}

func (f *fakeSource) NextFrame(ctx context.Context) (image.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.read >= f.frames {
		return nil, io.EOF
	}
	f.read++
	return image.NewRGBA(image.Rect(0, 0, 120, 90)), nil
}

func (f *fakeSource) Close() error { return nil }

type fakeSurface struct {
	events []display.Event
	shown  int
	polls  int
}

func (f *fakeSurface) Show(img image.Image) error {
	f.shown++
	return nil
}

func (f *fakeSurface) PollEvent(ctx context.Context, timeout time.Duration) (display.Event, bool) {
	f.polls++
	if len(f.events) == 0 {
		return display.Event{}, false
	}
	ev := f.events[0]
	f.events = f.events[1:]
	return ev, true
}

func (f *fakeSurface) Close() error { return nil }

type fakeOutput struct {
	path string
	img  image.Image
}

func (f *fakeOutput) SaveAs(img image.Image, path string) error {
	f.path, f.img = path, img
	return nil
}

func twoBoxes() []detection.Detection {
	return []detection.Detection{
		{Box: detection.Box{XMin: 0, YMin: 0, XMax: 10, YMax: 10}, Label: "a", Confidence: 0.9},
		{Box: detection.Box{XMin: 40, YMin: 40, XMax: 80, YMax: 80}, Label: "b", Confidence: 0.8},
	}
}

func countingDetector(calls *int, dets []detection.Detection, err error) detector.Detector {
	return detector.Func(func(ctx context.Context, frame image.Image, threshold float64) ([]detection.Detection, error) {
		*calls++
		return dets, err
	})
}

func newSession(cfg Config, src *fakeSource, det detector.Detector, surface *fakeSurface) (*Session, *controller.Controller) {
	log := logger.NewNopLogger()
	ctrl := controller.New(render.New(render.Style{}), surface, nil, log)
	return New(cfg, src, det, surface, ctrl, log), ctrl
}

func key(k int) display.Event { return display.Event{Kind: display.KeyEvent, Key: k} }

func TestRun_VideoUntilEndOfStream(t *testing.T) {
	src := &fakeSource{frames: 3}
	surface := &fakeSurface{}
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeVideo, Threshold: 0.4}, src, countingDetector(&calls, twoBoxes(), nil), surface)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, surface.shown)
	assert.Equal(t, 3, surface.polls, "one poll per frame")
	assert.False(t, ctrl.QuitRequested())
}

func TestRun_VideoQuitKey(t *testing.T) {
	src := &fakeSource{frames: 10}
	surface := &fakeSurface{events: []display.Event{key('n'), key('q')}}
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeVideo}, src, countingDetector(&calls, twoBoxes(), nil), surface)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, src.read)
	assert.True(t, ctrl.QuitRequested())
	assert.Equal(t, detection.NoSelection, ctrl.SelectedIndex(), "selection resets on the second frame")
}

func TestRun_VideoDetectorErrorIsNotFatal(t *testing.T) {
	src := &fakeSource{frames: 2}
	surface := &fakeSurface{events: []display.Event{key('n')}}
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeVideo}, src, countingDetector(&calls, nil, errors.New("model crashed")), surface)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 2, surface.shown)
	assert.Equal(t, detection.NoSelection, ctrl.SelectedIndex())
}

func TestRun_VideoReadError(t *testing.T) {
	src := &fakeSource{err: errors.New("device unplugged")}
	calls := 0
	s, _ := newSession(Config{Mode: config.SourceModeVideo}, src, countingDetector(&calls, nil, nil), &fakeSurface{})

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device unplugged")
}

func TestRun_VideoCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	s, _ := newSession(Config{Mode: config.SourceModeVideo}, &fakeSource{frames: 5}, countingDetector(&calls, nil, nil), &fakeSurface{})

	assert.NoError(t, s.Run(ctx))
	assert.Zero(t, calls)
}

func TestRun_VideoFrameRate(t *testing.T) {
	src := &fakeSource{frames: 2}
	surface := &fakeSurface{}
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeVideo, ShowFPS: true}, src, countingDetector(&calls, nil, nil), surface)
	clock := time.Unix(0, 0)
	s.now = func() time.Time {
		clock = clock.Add(100 * time.Millisecond)
		return clock
	}

	require.NoError(t, s.Run(context.Background()))

	withFPS := ctrl.Render(image.NewRGBA(image.Rect(0, 0, 120, 90)))
	ctrl.SetFrameRate(0)
	withoutFPS := ctrl.Render(image.NewRGBA(image.Rect(0, 0, 120, 90)))
	assert.NotEqual(t, withFPS.Pix, withoutFPS.Pix)
}

func TestRun_ImageInteraction(t *testing.T) {
	src := &fakeSource{frames: 1}
	surface := &fakeSurface{events: []display.Event{
		{Kind: display.PointerEvent, X: 5, Y: 5},
		key('n'),
		key('x'),
		key(display.KeyEsc),
		key('p'),
	}}
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeImage}, src, countingDetector(&calls, twoBoxes(), nil), surface)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 1, calls, "image is detected once")
	assert.True(t, ctrl.QuitRequested())
	assert.Equal(t, 1, ctrl.SelectedIndex())
	assert.Len(t, surface.events, 1, "events after quit are not consumed")
	assert.Equal(t, 3, surface.shown)
}

func TestRun_ImageCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeImage}, &fakeSource{frames: 1}, countingDetector(&calls, nil, nil), &fakeSurface{})

	assert.NoError(t, s.Run(ctx))
	assert.False(t, ctrl.QuitRequested())
}

func TestRun_ImageMissing(t *testing.T) {
	calls := 0
	s, _ := newSession(Config{Mode: config.SourceModeImage}, &fakeSource{frames: 0}, countingDetector(&calls, nil, nil), &fakeSurface{})

	assert.Error(t, s.Run(context.Background()))
}

func TestRun_WritesOutput(t *testing.T) {
	surface := &fakeSurface{events: []display.Event{key('q')}}
	calls := 0
	s, ctrl := newSession(Config{Mode: config.SourceModeImage, OutputPath: "result.jpg"}, &fakeSource{frames: 1}, countingDetector(&calls, twoBoxes(), nil), surface)
	out := &fakeOutput{}
	s.SetOutputWriter(out)

	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, "result.jpg", out.path)
	assert.Same(t, ctrl.LastFrame(), out.img)
}

func TestRun_OutputWithoutWriter(t *testing.T) {
	surface := &fakeSurface{events: []display.Event{key('q')}}
	calls := 0
	s, _ := newSession(Config{Mode: config.SourceModeImage, OutputPath: "result.jpg"}, &fakeSource{frames: 1}, countingDetector(&calls, nil, nil), surface)

	assert.Error(t, s.Run(context.Background()))
}

func TestRun_UnknownMode(t *testing.T) {
	calls := 0
	s, _ := newSession(Config{Mode: "stream"}, &fakeSource{}, countingDetector(&calls, nil, nil), &fakeSurface{})

	assert.Error(t, s.Run(context.Background()))
}
