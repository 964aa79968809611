package detector

// InferenceRequest is the body posted to the inference service
type InferenceRequest struct {
	Image               string   `json:"image"`                          // Base64-encoded JPEG image
	ConfidenceThreshold *float64 `json:"confidence_threshold,omitempty"` // Optional override
}

// BoundingBox is one detected object as reported by the inference service
type BoundingBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
}

// InferenceResponse is the inference service's reply
type InferenceResponse struct {
	BoundingBoxes   []BoundingBox `json:"bounding_boxes"`
	InferenceTimeMs float64       `json:"inference_time_ms"`
	FrameShape      []int         `json:"frame_shape"` // [height, width]
	DetectionCount  int           `json:"detection_count"`
}
