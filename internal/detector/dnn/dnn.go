// Package dnn runs SSD-style detection models through OpenCV's DNN module.
package dnn

import (
	"context"
	"fmt"
	"image"

	"go.uber.org/multierr"
	"gocv.io/x/gocv"

	"github.com/PAMF2/irrad-IA/internal/detection"
	"github.com/PAMF2/irrad-IA/internal/detector"
	"github.com/PAMF2/irrad-IA/internal/logger"
)

// Config describes the network and its input preprocessing.
type Config struct {
	Model     string // weights, e.g. frozen_inference_graph.pb
	Config    string // optional network description, e.g. .pbtxt
	InputSize int
	Scale     float64
	Mean      []float64
	KeepBGR   bool // feed BGR to the network instead of swapping to RGB
	Labels    detector.Labels
}

// Detector is a detector.Detector backed by a gocv.Net.
// It must only be used from one goroutine.
type Detector struct {
	net    gocv.Net
	cfg    Config
	mean   gocv.Scalar
	logger *logger.Logger
}

// New loads the network. Close must be called to release it.
func New(cfg Config, log *logger.Logger) (*Detector, error) {
	if cfg.InputSize <= 0 {
		return nil, fmt.Errorf("invalid input size: %d", cfg.InputSize)
	}
	if len(cfg.Mean) != 3 {
		return nil, fmt.Errorf("mean must have 3 values, got %d", len(cfg.Mean))
	}
	if cfg.Labels == nil {
		cfg.Labels = detector.COCOLabels()
	}

	net := gocv.ReadNet(cfg.Model, cfg.Config)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("failed to read network model from %s %s", cfg.Model, cfg.Config)
	}
	if err := multierr.Combine(
		net.SetPreferableBackend(gocv.NetBackendDefault),
		net.SetPreferableTarget(gocv.NetTargetCPU),
	); err != nil {
		net.Close()
		return nil, fmt.Errorf("failed to configure network: %w", err)
	}

	log = log.Named("detector.dnn")
	log.Info("Network loaded", "model", cfg.Model, "config", cfg.Config, "input_size", cfg.InputSize)

	return &Detector{
		net:    net,
		cfg:    cfg,
		mean:   gocv.NewScalar(cfg.Mean[0], cfg.Mean[1], cfg.Mean[2], 0),
		logger: log,
	}, nil
}

// Detect runs one forward pass over frame.
func (d *Detector) Detect(ctx context.Context, frame image.Image, threshold float64) ([]detection.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return nil, fmt.Errorf("failed to convert frame: %w", err)
	}
	defer img.Close()

	size := image.Pt(d.cfg.InputSize, d.cfg.InputSize)
	blob := gocv.BlobFromImage(img, d.cfg.Scale, size, d.mean, !d.cfg.KeepBGR, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	prob := d.net.Forward("")
	defer prob.Close()

	values := make([]float32, prob.Total())
	for i := range values {
		values[i] = prob.GetFloatAt(0, i)
	}

	b := frame.Bounds()
	detections := detector.DecodeSSD(values, b.Dx(), b.Dy(), threshold, d.cfg.Labels)
	d.logger.Debug("Frame processed", "detection_count", len(detections))
	return detections, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	return d.net.Close()
}
