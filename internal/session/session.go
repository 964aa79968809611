// Package session runs the viewer's control loop: capture a frame, detect,
// draw, poll one input event, dispatch it, repeat.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/PAMF2/irrad-IA/internal/capture"
	"github.com/PAMF2/irrad-IA/internal/config"
	"github.com/PAMF2/irrad-IA/internal/controller"
	"github.com/PAMF2/irrad-IA/internal/detection"
	"github.com/PAMF2/irrad-IA/internal/detector"
	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/logger"
)

// Config controls one viewing session
type Config struct {
	Mode         string // config.SourceModeVideo or config.SourceModeImage
	Threshold    float64
	PollInterval time.Duration
	ShowFPS      bool
	OutputPath   string // last annotated frame is written here on exit
}

// OutputWriter writes an image to an explicit path
type OutputWriter interface {
	SaveAs(img image.Image, path string) error
}

// Session wires a frame source, a detector, a surface and a controller.
// The caller owns and closes the source, detector and surface.
type Session struct {
	cfg      Config
	source   capture.Source
	detector detector.Detector
	surface  display.Surface
	ctrl     *controller.Controller
	output   OutputWriter
	logger   *logger.Logger
	now      func() time.Time
}

// New creates a session.
func New(cfg Config, source capture.Source, det detector.Detector, surface display.Surface, ctrl *controller.Controller, log *logger.Logger) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Millisecond
	}
	return &Session{
		cfg:      cfg,
		source:   source,
		detector: det,
		surface:  surface,
		ctrl:     ctrl,
		logger:   log.Named("session"),
		now:      time.Now,
	}
}

// SetOutputWriter sets the writer used for Config.OutputPath.
func (s *Session) SetOutputWriter(w OutputWriter) {
	s.output = w
}

// Run blocks until the user quits, the stream ends or ctx is cancelled.
// Those are all normal exits; errors are returned only for failures that
// prevent the session from running.
func (s *Session) Run(ctx context.Context) error {
	var err error
	switch s.cfg.Mode {
	case config.SourceModeImage:
		err = s.runImage(ctx)
	case config.SourceModeVideo, "":
		err = s.runVideo(ctx)
	default:
		return fmt.Errorf("unknown source mode: %s", s.cfg.Mode)
	}
	if err != nil {
		return err
	}
	return s.writeOutput()
}

func (s *Session) runVideo(ctx context.Context) error {
	s.logger.Info("Starting video session", "threshold", s.cfg.Threshold)
	prev := s.now()
	frames := 0

	for {
		if ctx.Err() != nil {
			s.logger.Info("Session cancelled", "frames", frames)
			return nil
		}

		frame, err := s.source.NextFrame(ctx)
		if errors.Is(err, io.EOF) {
			s.logger.Info("End of stream", "frames", frames)
			return nil
		}
		if ctx.Err() != nil {
			s.logger.Info("Session cancelled", "frames", frames)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read frame: %w", err)
		}
		frames++

		detections := s.detect(ctx, frame)

		if s.cfg.ShowFPS {
			now := s.now()
			if elapsed := now.Sub(prev); elapsed > 0 {
				s.ctrl.SetFrameRate(1 / elapsed.Seconds())
			}
			prev = now
		}

		s.ctrl.OnFrameReady(frame, detections)
		if s.pollAndDispatch(ctx, frame) {
			s.logger.Info("Session ended by user", "frames", frames)
			return nil
		}
	}
}

func (s *Session) runImage(ctx context.Context) error {
	frame, err := s.source.NextFrame(ctx)
	if errors.Is(err, io.EOF) {
		return errors.New("image source produced no image")
	}
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	s.logger.Info("Processing image", "threshold", s.cfg.Threshold)
	detections := s.detect(ctx, frame)
	if len(detections) == 0 {
		s.logger.Info("No objects detected")
	} else {
		s.logger.Info("Objects detected", "count", len(detections))
	}

	s.ctrl.OnFrameReady(frame, detections)
	for {
		if ctx.Err() != nil {
			s.logger.Info("Session cancelled")
			return nil
		}
		if s.pollAndDispatch(ctx, frame) {
			s.logger.Info("Session ended by user")
			return nil
		}
	}
}

// detect runs the detector; a failure is logged and the frame is treated
// as having no detections.
func (s *Session) detect(ctx context.Context, frame image.Image) []detection.Detection {
	detections, err := s.detector.Detect(ctx, frame, s.cfg.Threshold)
	if err != nil {
		s.logger.Warn("Detection failed, showing frame without detections", "error", err)
		return nil
	}
	return detections
}

// pollAndDispatch waits for at most one input event and hands it to the
// controller. It reports whether quit has been requested.
func (s *Session) pollAndDispatch(ctx context.Context, frame image.Image) bool {
	ev, ok := s.surface.PollEvent(ctx, s.cfg.PollInterval)
	if !ok {
		return s.ctrl.QuitRequested()
	}

	switch ev.Kind {
	case display.KeyEvent:
		return s.ctrl.OnKey(ev.Key, frame)
	case display.PointerEvent:
		s.ctrl.OnPointerDown(ev.X, ev.Y, frame)
	}
	return s.ctrl.QuitRequested()
}

func (s *Session) writeOutput() error {
	if s.cfg.OutputPath == "" {
		return nil
	}
	last := s.ctrl.LastFrame()
	if last == nil {
		s.logger.Warn("No frame to write", "path", s.cfg.OutputPath)
		return nil
	}
	if s.output == nil {
		return errors.New("output path set but no output writer configured")
	}
	if err := s.output.SaveAs(last, s.cfg.OutputPath); err != nil {
		return fmt.Errorf("failed to write output image: %w", err)
	}
	return nil
}
