package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Source modes
const (
	SourceModeVideo = "video"
	SourceModeImage = "image"
)

// Detector backends
const (
	DetectorBackendDNN  = "dnn"
	DetectorBackendHTTP = "http"
)

// Display backends
const (
	DisplayBackendWindow = "window"
	DisplayBackendWeb    = "web"
)

// Config represents the viewer configuration
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	Detector DetectorConfig `yaml:"detector"`
	Display  DisplayConfig  `yaml:"display"`
	Render   RenderConfig   `yaml:"render"`
	Keys     KeysConfig     `yaml:"keys"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log,omitempty"`
}

// SourceConfig selects where frames come from
type SourceConfig struct {
	Mode  string `yaml:"mode"`  // video or image
	Video string `yaml:"video"` // device index ("0"), file path or stream URL
	Image string `yaml:"image"` // image path used in image mode
}

// DetectorConfig contains object detector configuration
type DetectorConfig struct {
	Backend             string  `yaml:"backend"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	Labels              string  `yaml:"labels"` // optional label file, one class per line

	// OpenCV DNN backend
	Model     string    `yaml:"model"`
	Config    string    `yaml:"config"`
	InputSize int       `yaml:"input_size"`
	Scale     float64   `yaml:"scale"`
	Mean      []float64 `yaml:"mean"`
	KeepBGR   bool      `yaml:"keep_bgr"`

	// Remote inference backend
	ServiceURL string        `yaml:"service_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// DisplayConfig contains display/input surface configuration
type DisplayConfig struct {
	Backend      string        `yaml:"backend"`
	Title        string        `yaml:"title"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Web          WebConfig     `yaml:"web"`
}

// WebConfig contains browser surface configuration
type WebConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	EventQueue int    `yaml:"event_queue"`
}

// RenderConfig contains overlay drawing settings
type RenderConfig struct {
	FontSize  float64 `yaml:"font_size"`
	LineWidth float64 `yaml:"line_width"`
	HideFPS   bool    `yaml:"hide_fps"`
}

// KeysConfig maps keys to viewer actions. Entries are single characters or
// one of the names esc, enter, space, tab.
type KeysConfig struct {
	Next     []string `yaml:"next"`
	Previous []string `yaml:"previous"`
	Quit     []string `yaml:"quit"`
	Snapshot []string `yaml:"snapshot"`
}

// OutputConfig controls writing annotated frames to disk
type OutputConfig struct {
	Path        string `yaml:"path"`         // last annotated frame written here on exit
	SnapshotDir string `yaml:"snapshot_dir"` // snapshot key writes here
	JPEGQuality int    `yaml:"jpeg_quality"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns a configuration populated with defaults only.
func Default() *Config {
	cfg := &Config{}
	cfg.Detector.ConfidenceThreshold = 0.4
	cfg.setDefaults()
	return cfg
}

// Load reads and parses the configuration file. An empty path searches the
// usual locations and falls back to defaults when none exists.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = findDefaultConfigPath()
		if configPath == "" {
			return Default(), nil
		}
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	// Decode over the defaults so keys absent from the file keep them and
	// explicit zero values survive.
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg.setDefaults()

	return cfg, nil
}

// findDefaultConfigPath returns the first existing default location, or "".
func findDefaultConfigPath() string {
	paths := []string{
		"./config/config.yaml",
		"./config.yaml",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// setDefaults sets default values for configuration
func (c *Config) setDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}

	if c.Source.Mode == "" {
		c.Source.Mode = SourceModeVideo
	}
	if c.Source.Video == "" {
		c.Source.Video = "0"
	}

	if c.Detector.Backend == "" {
		c.Detector.Backend = DetectorBackendDNN
	}
	if c.Detector.InputSize == 0 {
		c.Detector.InputSize = 300
	}
	if c.Detector.Scale == 0 {
		c.Detector.Scale = 1.0 / 127.5
	}
	if len(c.Detector.Mean) == 0 {
		c.Detector.Mean = []float64{127.5, 127.5, 127.5}
	}
	if c.Detector.ServiceURL == "" {
		c.Detector.ServiceURL = "http://localhost:8000"
	}
	if c.Detector.Timeout == 0 {
		c.Detector.Timeout = 10 * time.Second
	}

	if c.Display.Backend == "" {
		c.Display.Backend = DisplayBackendWindow
	}
	if c.Display.Title == "" {
		c.Display.Title = "Detections - Interactive"
	}
	if c.Display.PollInterval == 0 {
		c.Display.PollInterval = time.Millisecond
	}
	if c.Display.Web.Host == "" {
		c.Display.Web.Host = "127.0.0.1"
	}
	if c.Display.Web.Port == 0 {
		c.Display.Web.Port = 8090
	}
	if c.Display.Web.EventQueue == 0 {
		c.Display.Web.EventQueue = 16
	}

	if c.Render.FontSize == 0 {
		c.Render.FontSize = 14
	}
	if c.Render.LineWidth == 0 {
		c.Render.LineWidth = 2
	}

	if len(c.Keys.Next) == 0 {
		c.Keys.Next = []string{"n"}
	}
	if len(c.Keys.Previous) == 0 {
		c.Keys.Previous = []string{"p"}
	}
	if len(c.Keys.Quit) == 0 {
		c.Keys.Quit = []string{"q", "esc"}
	}
	if len(c.Keys.Snapshot) == 0 {
		c.Keys.Snapshot = []string{"s"}
	}

	if c.Output.SnapshotDir == "" {
		c.Output.SnapshotDir = "./snapshots"
	}
	if c.Output.JPEGQuality == 0 {
		c.Output.JPEGQuality = 90
	}
}
