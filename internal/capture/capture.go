// Package capture provides frame sources for the viewer.
package capture

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"

	"github.com/disintegration/imaging"
)

// Source yields frames in order. NextFrame returns io.EOF once the stream is
// exhausted.
type Source interface {
	NextFrame(ctx context.Context) (image.Image, error)
	Close() error
}

// LoadImage decodes the image at path, applying its EXIF orientation.
func LoadImage(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return img, nil
}

// StaticSource yields a single image once.
type StaticSource struct {
	mu   sync.Mutex
	img  image.Image
	done bool
}

// NewStaticSource wraps an already decoded image.
func NewStaticSource(img image.Image) *StaticSource {
	return &StaticSource{img: img}
}

// OpenImage loads path into a StaticSource.
func OpenImage(path string) (*StaticSource, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}
	return NewStaticSource(img), nil
}

// NextFrame returns the image on the first call and io.EOF afterwards.
func (s *StaticSource) NextFrame(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done || s.img == nil {
		return nil, io.EOF
	}
	s.done = true
	return s.img, nil
}

// Image returns the wrapped image.
func (s *StaticSource) Image() image.Image {
	return s.img
}

// Close releases the image.
func (s *StaticSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = nil
	return nil
}
