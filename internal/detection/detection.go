// Package detection holds per-frame detection results and the selection
// state the viewer keeps over them.
package detection

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// Box is an axis-aligned bounding box in source-frame pixel coordinates.
type Box struct {
	XMin float64 `json:"x1"`
	YMin float64 `json:"y1"`
	XMax float64 `json:"x2"`
	YMax float64 `json:"y2"`
}

// Contains reports whether the point lies strictly inside the box.
// Points on an edge are outside.
func (b Box) Contains(x, y float64) bool {
	return b.XMin < x && x < b.XMax && b.YMin < y && y < b.YMax
}

// Rect rounds the box to an image.Rectangle for drawing.
func (b Box) Rect() image.Rectangle {
	return image.Rect(
		int(math.Round(b.XMin)), int(math.Round(b.YMin)),
		int(math.Round(b.XMax)), int(math.Round(b.YMax)),
	)
}

// Valid reports whether the box has positive width and height.
func (b Box) Valid() bool {
	return b.XMin < b.XMax && b.YMin < b.YMax
}

func (b Box) String() string {
	return fmt.Sprintf("[%d %d %d %d]", int(b.XMin), int(b.YMin), int(b.XMax), int(b.YMax))
}

// Detection is one object found by a detector in a single frame.
type Detection struct {
	Box        Box     `json:"box"`
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Validation errors returned by NewDetection.
var (
	ErrInvalidBox        = errors.New("bounding box must have xmin < xmax and ymin < ymax")
	ErrEmptyLabel        = errors.New("label must not be empty")
	ErrInvalidConfidence = errors.New("confidence must be within [0, 1]")
)

// NewDetection builds a Detection, rejecting inverted boxes, empty labels and
// confidences outside [0, 1].
func NewDetection(box Box, label string, confidence float64) (Detection, error) {
	if !box.Valid() {
		return Detection{}, fmt.Errorf("%w: %v", ErrInvalidBox, box)
	}
	if label == "" {
		return Detection{}, ErrEmptyLabel
	}
	if confidence < 0 || confidence > 1 || math.IsNaN(confidence) {
		return Detection{}, fmt.Errorf("%w: %v", ErrInvalidConfidence, confidence)
	}
	return Detection{Box: box, Label: label, Confidence: confidence}, nil
}

// Caption is the short text drawn above a box.
func (d Detection) Caption() string {
	return fmt.Sprintf("%s: %.2f", d.Label, d.Confidence)
}

// Postprocessor filters or modifies a frame's detections.
type Postprocessor func([]Detection) []Detection

// ScoreFilter returns a postprocessor dropping detections whose confidence is
// below threshold. Order is preserved.
func ScoreFilter(threshold float64) Postprocessor {
	return func(in []Detection) []Detection {
		out := make([]Detection, 0, len(in))
		for _, d := range in {
			if d.Confidence >= threshold {
				out = append(out, d)
			}
		}
		return out
	}
}
