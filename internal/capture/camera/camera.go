// Package camera reads frames from a video device, file or stream URL
// through OpenCV.
package camera

import (
	"context"
	"fmt"
	"image"
	"io"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/PAMF2/irrad-IA/internal/logger"
)

// Source is a capture.Source over a gocv.VideoCapture.
// It must only be used from one goroutine.
type Source struct {
	name   string
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	logger *logger.Logger
}

// Open opens a device index ("0"), a video file or a stream URL.
func Open(source string, log *logger.Logger) (*Source, error) {
	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open video source %s: %w", source, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("video source %s could not be opened", source)
	}

	log = log.Named("camera")
	log.Info("Video source opened",
		"source", source,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS),
	)

	return &Source{
		name:   source,
		cap:    vc,
		mat:    gocv.NewMat(),
		logger: log,
	}, nil
}

// NextFrame reads the next frame. A failed read is the end of the stream.
func (s *Source) NextFrame(ctx context.Context) (image.Image, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ok := s.cap.Read(&s.mat); !ok {
			s.logger.Info("Video source closed", "source", s.name)
			return nil, io.EOF
		}
		if s.mat.Empty() {
			continue
		}

		img, err := s.mat.ToImage()
		if err != nil {
			return nil, fmt.Errorf("failed to convert frame: %w", err)
		}
		return img, nil
	}
}

// Close releases the capture device and frame buffer.
func (s *Source) Close() error {
	return multierr.Combine(s.mat.Close(), s.cap.Close())
}
