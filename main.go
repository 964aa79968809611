package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/PAMF2/irrad-IA/internal/app"
	"github.com/PAMF2/irrad-IA/internal/config"
	"github.com/PAMF2/irrad-IA/internal/controller"
	"github.com/PAMF2/irrad-IA/internal/display"
	"github.com/PAMF2/irrad-IA/internal/logger"
	"github.com/PAMF2/irrad-IA/internal/render"
	"github.com/PAMF2/irrad-IA/internal/session"
	"github.com/PAMF2/irrad-IA/internal/snapshot"
)

var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath string
		video      string
		imagePath  string
		output     string
		backend    string
	)
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&configPath, "c", "", "Path to configuration file (short)")
	flag.StringVar(&video, "video", "", "Video source: device index, file or stream URL")
	flag.StringVar(&imagePath, "image", "", "Static image to open instead of a video source")
	flag.StringVar(&output, "output", "", "Write the last annotated frame to this path on exit")
	flag.StringVar(&backend, "display", "", "Display backend: window or web")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if video != "" {
		cfg.Source.Mode = config.SourceModeVideo
		cfg.Source.Video = video
	}
	if imagePath != "" {
		cfg.Source.Mode = config.SourceModeImage
		cfg.Source.Image = imagePath
	}
	if output != "" {
		cfg.Output.Path = output
	}
	if backend != "" {
		cfg.Display.Backend = backend
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	// Initialize logger
	log, err := logger.New(logger.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	log.Info("Starting detection viewer",
		"version", version,
		"build_time", buildTime,
		"git_commit", gitCommit,
		"mode", cfg.Source.Mode,
		"detector", cfg.Detector.Backend,
		"display", cfg.Display.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	keymap, err := controller.NewKeymap(cfg.Keys)
	if err != nil {
		log.Error("Invalid key bindings", "error", err)
		return 1
	}

	det, detCloser, err := app.NewDetector(ctx, cfg.Detector, cfg.Output.JPEGQuality, log)
	if err != nil {
		log.Error("Failed to create detector", "error", err)
		return 1
	}
	defer detCloser.Close()

	source, err := app.NewSource(cfg.Source, log)
	if err != nil {
		log.Error("Failed to open source", "error", err)
		return 1
	}
	defer source.Close()

	surface, err := app.NewSurface(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to open display", "error", err)
		return 1
	}
	defer surface.Close()

	writer := snapshot.NewWriter(snapshot.Config{
		Dir:     cfg.Output.SnapshotDir,
		Quality: cfg.Output.JPEGQuality,
	}, log)

	renderer := render.New(render.Style{
		FontSize:  cfg.Render.FontSize,
		LineWidth: cfg.Render.LineWidth,
	})
	ctrl := controller.New(renderer, surface, keymap, log)
	ctrl.SetSnapshotter(writer)

	sess := session.New(session.Config{
		Mode:         cfg.Source.Mode,
		Threshold:    cfg.Detector.ConfidenceThreshold,
		PollInterval: cfg.Display.PollInterval,
		ShowFPS:      cfg.Source.Mode == config.SourceModeVideo && !cfg.Render.HideFPS,
		OutputPath:   cfg.Output.Path,
	}, source, det, surface, ctrl, log)
	sess.SetOutputWriter(writer)

	log.Info("Controls",
		"next", keyList(cfg.Keys.Next),
		"previous", keyList(cfg.Keys.Previous),
		"quit", keyList(cfg.Keys.Quit),
		"snapshot", keyList(cfg.Keys.Snapshot),
		"select", "click a box",
	)

	if err := sess.Run(ctx); err != nil {
		log.Error("Session failed", "error", err)
		return 1
	}

	log.Info("Viewer stopped")
	return 0
}

func keyList(names []string) string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if code, err := display.ParseKey(name); err == nil {
			name = display.KeyName(code)
		}
		out = append(out, name)
	}
	return strings.Join(out, ", ")
}
