package config

import (
	"fmt"
	"strings"

	"github.com/PAMF2/irrad-IA/internal/display"
)

// Validate validates the configuration with detailed error messages
func (c *Config) Validate() error {
	var errors []string

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true,
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errors = append(errors, fmt.Sprintf("invalid log.level: %s (must be: debug, info, warn, error, fatal)", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errors = append(errors, fmt.Sprintf("invalid log.format: %s (must be: text or json)", c.Log.Format))
	}

	switch c.Source.Mode {
	case SourceModeVideo:
		if c.Source.Video == "" {
			errors = append(errors, "source.video is required in video mode")
		}
	case SourceModeImage:
		if c.Source.Image == "" {
			errors = append(errors, "source.image is required in image mode")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid source.mode: %s (must be: video or image)", c.Source.Mode))
	}

	if c.Detector.ConfidenceThreshold < 0 || c.Detector.ConfidenceThreshold > 1 {
		errors = append(errors, fmt.Sprintf("detector.confidence_threshold must be between 0 and 1, got: %.2f", c.Detector.ConfidenceThreshold))
	}
	switch c.Detector.Backend {
	case DetectorBackendDNN:
		if c.Detector.Model == "" {
			errors = append(errors, "detector.model is required for the dnn backend")
		}
		if c.Detector.InputSize <= 0 {
			errors = append(errors, fmt.Sprintf("detector.input_size must be > 0, got: %d", c.Detector.InputSize))
		}
		if len(c.Detector.Mean) != 3 {
			errors = append(errors, fmt.Sprintf("detector.mean must have 3 values, got: %d", len(c.Detector.Mean)))
		}
	case DetectorBackendHTTP:
		if c.Detector.ServiceURL == "" {
			errors = append(errors, "detector.service_url is required for the http backend")
		}
		if c.Detector.Timeout <= 0 {
			errors = append(errors, fmt.Sprintf("detector.timeout must be > 0, got: %v", c.Detector.Timeout))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid detector.backend: %s (must be: dnn or http)", c.Detector.Backend))
	}

	switch c.Display.Backend {
	case DisplayBackendWindow:
	case DisplayBackendWeb:
		if c.Display.Web.Port < 0 || c.Display.Web.Port > 65535 {
			errors = append(errors, fmt.Sprintf("display.web.port out of range: %d", c.Display.Web.Port))
		}
		if c.Display.Web.EventQueue <= 0 {
			errors = append(errors, fmt.Sprintf("display.web.event_queue must be > 0, got: %d", c.Display.Web.EventQueue))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid display.backend: %s (must be: window or web)", c.Display.Backend))
	}
	if c.Display.PollInterval <= 0 {
		errors = append(errors, fmt.Sprintf("display.poll_interval must be > 0, got: %v", c.Display.PollInterval))
	}

	if c.Render.FontSize <= 0 {
		errors = append(errors, fmt.Sprintf("render.font_size must be > 0, got: %.1f", c.Render.FontSize))
	}
	if c.Render.LineWidth <= 0 {
		errors = append(errors, fmt.Sprintf("render.line_width must be > 0, got: %.1f", c.Render.LineWidth))
	}

	errors = append(errors, c.Keys.validate()...)

	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		errors = append(errors, fmt.Sprintf("output.jpeg_quality must be between 1 and 100, got: %d", c.Output.JPEGQuality))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func (k KeysConfig) validate() []string {
	var errors []string
	seen := make(map[int]string)
	check := func(action string, keys []string) {
		for _, key := range keys {
			code, err := display.ParseKey(key)
			if err != nil {
				errors = append(errors, fmt.Sprintf("keys.%s: %v", action, err))
				continue
			}
			if prev, dup := seen[code]; dup && prev != action {
				errors = append(errors, fmt.Sprintf("keys.%s: key %q already bound to %s", action, key, prev))
				continue
			}
			seen[code] = action
		}
	}
	check("next", k.Next)
	check("previous", k.Previous)
	check("quit", k.Quit)
	check("snapshot", k.Snapshot)
	return errors
}
