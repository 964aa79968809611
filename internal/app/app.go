// Package app builds the viewer's collaborators from configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PAMF2/irrad-IA/internal/capture"
	"github.com/PAMF2/irrad-IA/internal/capture/camera"
	"github.com/PAMF2/irrad-IA/internal/config"
	"github.com/PAMF2/irrad-IA/internal/detector"
	"github.com/PAMF2/irrad-IA/internal/detector/dnn"
	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/display/window"
	"github.com/PAMF2/irrad-IA/internal/logger"
	"github.com/PAMF2/irrad-IA/internal/web"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewDetector builds the configured detector backend. The returned closer
// releases it and is never nil.
func NewDetector(ctx context.Context, cfg config.DetectorConfig, jpegQuality int, log *logger.Logger) (detector.Detector, io.Closer, error) {
	labels, err := detector.LabelsOrDefault(cfg.Labels)
	if err != nil {
		return nil, nopCloser{}, err
	}

	switch cfg.Backend {
	case config.DetectorBackendDNN:
		d, err := dnn.New(dnn.Config{
			Model:     cfg.Model,
			Config:    cfg.Config,
			InputSize: cfg.InputSize,
			Scale:     cfg.Scale,
			Mean:      cfg.Mean,
			KeepBGR:   cfg.KeepBGR,
			Labels:    labels,
		}, log)
		if err != nil {
			return nil, nopCloser{}, fmt.Errorf("failed to load detector: %w", err)
		}
		return d, d, nil

	case config.DetectorBackendHTTP:
		client := detector.NewClient(detector.ClientConfig{
			ServiceURL:  cfg.ServiceURL,
			Timeout:     cfg.Timeout,
			JPEGQuality: jpegQuality,
			Labels:      labels,
		}, log)

		hctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.HealthCheck(hctx); err != nil {
			log.Warn("Inference service is not ready", "url", cfg.ServiceURL, "error", err)
		}
		return client, nopCloser{}, nil

	default:
		return nil, nopCloser{}, fmt.Errorf("unknown detector backend: %s", cfg.Backend)
	}
}

// NewSource opens the configured frame source.
func NewSource(cfg config.SourceConfig, log *logger.Logger) (capture.Source, error) {
	switch cfg.Mode {
	case config.SourceModeImage:
		src, err := capture.OpenImage(cfg.Image)
		if err != nil {
			return nil, err
		}
		log.Info("Image loaded", "path", cfg.Image, "size", src.Image().Bounds().Size().String())
		return src, nil
	case config.SourceModeVideo:
		src, err := camera.Open(cfg.Video, log)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unknown source mode: %s", cfg.Mode)
	}
}

// NewSurface opens the configured display surface. Web surfaces are started
// before they are returned.
func NewSurface(ctx context.Context, cfg *config.Config, log *logger.Logger) (display.Surface, error) {
	switch cfg.Display.Backend {
	case config.DisplayBackendWindow:
		return window.Open(cfg.Display.Title), nil
	case config.DisplayBackendWeb:
		srv := web.NewServer(web.Config{
			Host:        cfg.Display.Web.Host,
			Port:        cfg.Display.Web.Port,
			Title:       cfg.Display.Title,
			EventQueue:  cfg.Display.Web.EventQueue,
			JPEGQuality: cfg.Output.JPEGQuality,
		}, log)
		if err := srv.Start(ctx); err != nil {
			return nil, err
		}
		return srv, nil
	default:
		return nil, fmt.Errorf("unknown display backend: %s", cfg.Display.Backend)
	}
}
