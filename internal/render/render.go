// Package render draws detection overlays onto a copy of a frame.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/PAMF2/irrad-IA/internal/detection"
)

// Overlay colours.
var (
	DefaultBoxColor  = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	SelectedBoxColor = color.RGBA{R: 255, G: 0, B: 0, A: 255}
	CaptionTextColor = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	InfoPanelColor   = color.NRGBA{R: 200, G: 200, B: 200, A: 180}
	InfoTextColor    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	FPSColor         = color.RGBA{R: 255, G: 0, B: 0, A: 255}
)

const (
	panelOrigin   = 5.0
	panelPadding  = 5.0
	panelMinWidth = 250.0
	captionPad    = 4.0
)

var ttf *truetype.Font

func init() {
	var err error
	ttf, err = truetype.Parse(goregular.TTF)
	if err != nil {
		panic(err)
	}
}

// Style controls text size and stroke width.
type Style struct {
	FontSize  float64
	LineWidth float64
}

// Scene is everything drawn on top of one frame.
type Scene struct {
	Detections []detection.Detection
	Selected   int      // detection.NoSelection when nothing is highlighted
	Info       []string // info panel lines, top-left
	FPS        float64  // drawn top-right when > 0
}

// Renderer draws scenes. It is not safe for concurrent use.
type Renderer struct {
	style Style
	face  font.Face
}

// New creates a renderer. Non-positive style values fall back to 14pt text
// and 2px lines.
func New(style Style) *Renderer {
	if style.FontSize <= 0 {
		style.FontSize = 14
	}
	if style.LineWidth <= 0 {
		style.LineWidth = 2
	}
	return &Renderer{
		style: style,
		face:  truetype.NewFace(ttf, &truetype.Options{Size: style.FontSize}),
	}
}

// Render returns an annotated copy of base with the same bounds. base itself
// is never written.
func (r *Renderer) Render(base image.Image, scene Scene) *image.RGBA {
	origin := base.Bounds().Min
	dc := gg.NewContextForImage(base)
	dc.SetFontFace(r.face)

	for i, d := range scene.Detections {
		c := DefaultBoxColor
		if i == scene.Selected {
			c = SelectedBoxColor
		}
		r.drawBox(dc, d.Box.Rect().Sub(origin), d.Caption(), c)
	}

	if len(scene.Info) > 0 {
		r.drawInfoPanel(dc, scene.Info)
	}
	if scene.FPS > 0 {
		r.drawFPS(dc, scene.FPS)
	}

	// gg draws on a zero-origin canvas; relabel it in frame coordinates.
	out := dc.Image().(*image.RGBA)
	out.Rect = out.Rect.Add(origin)
	return out
}

func (r *Renderer) drawBox(dc *gg.Context, rect image.Rectangle, caption string, c color.Color) {
	x, y := float64(rect.Min.X), float64(rect.Min.Y)

	dc.SetColor(c)
	dc.SetLineWidth(r.style.LineWidth)
	dc.DrawRectangle(x, y, float64(rect.Dx()), float64(rect.Dy()))
	dc.Stroke()

	w, h := dc.MeasureString(caption)
	top := math.Max(0, y-h-captionPad)
	dc.SetColor(c)
	dc.DrawRectangle(x, top, w+captionPad, h+captionPad)
	dc.Fill()

	dc.SetColor(CaptionTextColor)
	dc.DrawStringAnchored(caption, x+captionPad/2, top+captionPad/2, 0, 1)
}

func (r *Renderer) drawInfoPanel(dc *gg.Context, lines []string) {
	lineHeight := r.style.FontSize * 1.6

	width := panelMinWidth
	for _, line := range lines {
		w, _ := dc.MeasureString(line)
		width = math.Max(width, w+2*panelPadding)
	}
	height := float64(len(lines))*lineHeight + 2*panelPadding

	dc.SetColor(InfoPanelColor)
	dc.DrawRectangle(panelOrigin, panelOrigin, width, height)
	dc.Fill()

	dc.SetColor(InfoTextColor)
	for i, line := range lines {
		y := panelOrigin + panelPadding + float64(i)*lineHeight + lineHeight/2
		dc.DrawStringAnchored(line, panelOrigin+panelPadding, y, 0, 0.5)
	}
}

func (r *Renderer) drawFPS(dc *gg.Context, fps float64) {
	text := fmt.Sprintf("FPS: %.1f", fps)
	w, h := dc.MeasureString(text)
	dc.SetColor(FPSColor)
	dc.DrawStringAnchored(text, float64(dc.Width())-w-10, 10+h, 0, 0)
}
