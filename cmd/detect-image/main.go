// Command detect-image runs the detector once over a single image, prints
// every detection and optionally writes the annotated result.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/PAMF2/irrad-IA/internal/app"
	"github.com/PAMF2/irrad-IA/internal/capture"
	"github.com/PAMF2/irrad-IA/internal/config"
	"github.com/PAMF2/irrad-IA/internal/detection"
	"github.com/PAMF2/irrad-IA/internal/logger"
	"github.com/PAMF2/irrad-IA/internal/render"
	"github.com/PAMF2/irrad-IA/internal/snapshot"
)

func main() {
	os.Exit(run())
}

func run() int {
	var configPath, output string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.StringVar(&output, "output", "", "Write the annotated image to this path")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: detect-image [-config file] [-output file] image\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}
	imagePath := flag.Arg(0)

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	cfg.Source.Mode = config.SourceModeImage
	cfg.Source.Image = imagePath
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	log, err := logger.New(logger.LogConfig{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stderr"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	ctx := context.Background()
	det, closer, err := app.NewDetector(ctx, cfg.Detector, cfg.Output.JPEGQuality, log)
	if err != nil {
		log.Error("Failed to create detector", "error", err)
		return 1
	}
	defer closer.Close()

	img, err := capture.LoadImage(imagePath)
	if err != nil {
		log.Error("Failed to load image", "error", err)
		return 1
	}

	detections, err := det.Detect(ctx, img, cfg.Detector.ConfidenceThreshold)
	if err != nil {
		log.Error("Detection failed", "error", err)
		return 1
	}
	printReport(detections)

	if output != "" {
		annotated := render.New(render.Style{
			FontSize:  cfg.Render.FontSize,
			LineWidth: cfg.Render.LineWidth,
		}).Render(img, render.Scene{Detections: detections, Selected: detection.NoSelection})

		writer := snapshot.NewWriter(snapshot.Config{Quality: cfg.Output.JPEGQuality}, log)
		if err := writer.SaveAs(annotated, output); err != nil {
			log.Error("Failed to write annotated image", "error", err)
			return 1
		}
		fmt.Printf("Annotated image saved to %s\n", output)
	}
	return 0
}

func printReport(detections []detection.Detection) {
	fmt.Printf("Number of objects detected: %d\n", len(detections))
	for i, d := range detections {
		fmt.Printf("  Object %d:\n", i+1)
		fmt.Printf("    Class: %s\n", d.Label)
		fmt.Printf("    Confidence: %.2f\n", d.Confidence)
		fmt.Printf("    Coords (xyxy): %v\n", d.Box)
		fmt.Println(strings.Repeat("-", 20))
	}
}
