// Package detector defines the object detector contract and the backends
// that do not need OpenCV: SSD output decoding and the remote inference
// client.
package detector

import (
	"context"
	"image"

	"github.com/PAMF2/irrad-IA/internal/detection"
)

// Detector finds objects in a frame. Detections below threshold are not
// returned. Output order is the order the backend produced them in.
type Detector interface {
	Detect(ctx context.Context, frame image.Image, threshold float64) ([]detection.Detection, error)
}

// Func adapts an ordinary function to the Detector interface.
type Func func(ctx context.Context, frame image.Image, threshold float64) ([]detection.Detection, error)

// Detect calls f.
func (f Func) Detect(ctx context.Context, frame image.Image, threshold float64) ([]detection.Detection, error) {
	return f(ctx, frame, threshold)
}
