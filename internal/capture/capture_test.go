package capture

import (
	"context"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadImage(t *testing.T) {
	src := imaging.New(32, 24, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	path := filepath.Join(t.TempDir(), "frame.png")
	require.NoError(t, imaging.Save(src, path))

	img, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())

	r, g, b, _ := img.At(5, 5).RGBA()
	assert.Equal(t, uint32(10), r>>8)
	assert.Equal(t, uint32(200), g>>8)
	assert.Equal(t, uint32(30), b>>8)
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadImage(filepath.Join(dir, "missing.jpg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.jpg")

	garbage := filepath.Join(dir, "garbage.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not an image"), 0644))
	_, err = LoadImage(garbage)
	assert.Error(t, err)
}

func TestStaticSource(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src := NewStaticSource(img)
	ctx := context.Background()

	frame, err := src.NextFrame(ctx)
	require.NoError(t, err)
	assert.Same(t, img, frame)

	_, err = src.NextFrame(ctx)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, src.Close())
	assert.Nil(t, src.Image())
}

func TestStaticSource_Cancelled(t *testing.T) {
	src := NewStaticSource(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := src.NextFrame(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "still.jpg")
	require.NoError(t, imaging.Save(imaging.New(8, 6, color.White), path))

	src, err := OpenImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 8, 6), src.Image().Bounds())
}
