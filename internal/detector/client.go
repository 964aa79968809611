package detector

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/PAMF2/irrad-IA/internal/detection"
	"github.com/PAMF2/irrad-IA/internal/logger"
)

// Client is a Detector backed by a remote HTTP inference service
type Client struct {
	serviceURL  string
	httpClient  *http.Client
	logger      *logger.Logger
	labels      Labels
	jpegQuality int
}

// ClientConfig contains configuration for the inference client
type ClientConfig struct {
	ServiceURL  string
	Timeout     time.Duration
	JPEGQuality int
	Labels      Labels // names classes the service reports without class_name
}

// NewClient creates a new inference service client
func NewClient(config ClientConfig, log *logger.Logger) *Client {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.JPEGQuality == 0 {
		config.JPEGQuality = 90
	}
	if config.Labels == nil {
		config.Labels = COCOLabels()
	}

	return &Client{
		serviceURL: config.ServiceURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      log.Named("detector.http"),
		labels:      config.Labels,
		jpegQuality: config.JPEGQuality,
	}
}

// Detect encodes the frame as JPEG, sends it to the service and converts the
// returned boxes.
func (c *Client) Detect(ctx context.Context, frame image.Image, threshold float64) ([]detection.Detection, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, frame, imaging.JPEG, imaging.JPEGQuality(c.jpegQuality)); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}

	resp, err := c.infer(ctx, InferenceRequest{
		Image:               base64.StdEncoding.EncodeToString(buf.Bytes()),
		ConfidenceThreshold: &threshold,
	})
	if err != nil {
		return nil, err
	}

	detections := make([]detection.Detection, 0, len(resp.BoundingBoxes))
	for _, bb := range resp.BoundingBoxes {
		label := bb.ClassName
		if label == "" {
			label = c.labels.Name(bb.ClassID)
		}
		d, err := detection.NewDetection(detection.Box{XMin: bb.X1, YMin: bb.Y1, XMax: bb.X2, YMax: bb.Y2}, label, bb.Confidence)
		if err != nil {
			c.logger.Debug("Dropping invalid bounding box", "error", err)
			continue
		}
		detections = append(detections, d)
	}

	return detection.ScoreFilter(threshold)(detections), nil
}

func (c *Client) infer(ctx context.Context, req InferenceRequest) (*InferenceResponse, error) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/inference", c.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Sending inference request", "url", url)
	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Inference service returned error", "status", resp.StatusCode, "response", string(body))
		return nil, fmt.Errorf("inference service returned status %d: %s", resp.StatusCode, string(body))
	}

	var inferenceResp InferenceResponse
	if err := json.Unmarshal(body, &inferenceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug(
		"Inference completed",
		"detection_count", len(inferenceResp.BoundingBoxes),
		"inference_time_ms", inferenceResp.InferenceTimeMs,
		"request_duration_ms", time.Since(startTime).Milliseconds(),
	)

	return &inferenceResp, nil
}

// HealthCheck checks if the inference service is ready
func (c *Client) HealthCheck(ctx context.Context) error {
	url := fmt.Sprintf("%s/health/ready", c.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service health check failed: status %d", resp.StatusCode)
	}

	return nil
}
