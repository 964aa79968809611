package detector

import (
	"math"

	"github.com/PAMF2/irrad-IA/internal/detection"
)

// ssdStride is the number of values per SSD detection row:
// [batchId, classId, confidence, left, top, right, bottom].
const ssdStride = 7

// DecodeSSD decodes a flattened 1x1xNx7 SSD output blob. Coordinates are
// normalised to [0, 1] and are scaled to the frame size and clamped to it.
// Rows below threshold and boxes that collapse after clamping are dropped.
func DecodeSSD(values []float32, frameW, frameH int, threshold float64, labels Labels) []detection.Detection {
	w, h := float64(frameW), float64(frameH)
	var out []detection.Detection

	for i := 0; i+ssdStride <= len(values); i += ssdStride {
		row := values[i : i+ssdStride]
		confidence := float64(row[2])
		if math.IsNaN(confidence) || confidence < threshold {
			continue
		}

		box := detection.Box{
			XMin: clamp(float64(row[3])*w, 0, w),
			YMin: clamp(float64(row[4])*h, 0, h),
			XMax: clamp(float64(row[5])*w, 0, w),
			YMax: clamp(float64(row[6])*h, 0, h),
		}
		d, err := detection.NewDetection(box, labels.Name(int(row[1])), math.Min(confidence, 1))
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
