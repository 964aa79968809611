// Package snapshot writes annotated frames to disk.
package snapshot

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/PAMF2/irrad-IA/internal/logger"
)

// Config contains snapshot writer configuration
type Config struct {
	Dir     string
	Quality int // JPEG quality (1-100, default 90)
}

// Writer saves frames as JPEG files
type Writer struct {
	dir     string
	quality int
	logger  *logger.Logger
	now     func() time.Time
}

// NewWriter creates a snapshot writer. The directory is created on first save.
func NewWriter(config Config, log *logger.Logger) *Writer {
	quality := config.Quality
	if quality < 1 || quality > 100 {
		quality = 90
	}
	dir := config.Dir
	if dir == "" {
		dir = "."
	}

	return &Writer{
		dir:     dir,
		quality: quality,
		logger:  log.Named("snapshot"),
		now:     time.Now,
	}
}

// Save writes img to a new timestamped file in the snapshot directory and
// returns its path.
func (w *Writer) Save(img image.Image) (string, error) {
	name := fmt.Sprintf("snapshot_%s_%s.jpg",
		w.now().Format("20060102_150405"),
		uuid.New().String()[:8],
	)
	path := filepath.Join(w.dir, name)
	if err := w.SaveAs(img, path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveAs writes img to path. The format follows the file extension.
func (w *Writer) SaveAs(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(w.quality)); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	w.logger.Info("Saved frame", "path", path)
	return nil
}
