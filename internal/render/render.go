// Package render draws a line of text onto an image at a named anchor.
package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog"
	"golang.org/x/image/font"
)

const (
	shadowOffset = 2
	strokeWidth  = 2
)

var shadowColor = color.RGBA{A: 128}

// Spec describes how the watermark text looks and where it goes.
type Spec struct {
	// FontSize is the text height in pixels (points at 72 DPI).
	FontSize float64
	Color    color.RGBA
	Position Position
	// FontPath is a font file, or a bare file name looked up in the
	// system font directories. Empty selects the built-in face.
	FontPath string
	// MarginPercent is the gap to the nearest edges, as a percentage of
	// the image's shorter side.
	MarginPercent float64
	Shadow        bool
	// Stroke outlines the text in black, strokeWidth pixels wide.
	Stroke bool
}

// DefaultSpec is white 36px text in the bottom-right corner.
func DefaultSpec() Spec {
	return Spec{
		FontSize:      36,
		Color:         color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Position:      BottomRight,
		MarginPercent: 3,
	}
}

// Validate reports values no renderer can work with.
func (s Spec) Validate() error {
	if s.FontSize <= 0 || math.IsNaN(s.FontSize) || math.IsInf(s.FontSize, 0) {
		return fmt.Errorf("font size must be positive, got %v", s.FontSize)
	}
	if s.MarginPercent < 0 || s.MarginPercent > 50 {
		return fmt.Errorf("margin must be between 0 and 50 percent, got %v", s.MarginPercent)
	}
	if _, ok := positionNames[s.Position]; !ok {
		return fmt.Errorf("unknown position %v", s.Position)
	}
	return nil
}

// Renderer holds a loaded font face. It is not safe for concurrent use.
type Renderer struct {
	spec Spec
	face font.Face
}

// New validates spec and loads its font face. A font that cannot be loaded
// is logged and replaced by the built-in face.
func New(spec Spec, log zerolog.Logger) (*Renderer, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{spec: spec, face: loadFace(spec.FontPath, spec.FontSize, log)}, nil
}

// Close releases the font face.
func (r *Renderer) Close() error {
	if c, ok := r.face.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Margin is the edge gap in pixels for an image of the given bounds.
func (r *Renderer) Margin(b image.Rectangle) int {
	if r.spec.MarginPercent <= 0 {
		return 0
	}
	short := min(b.Dx(), b.Dy())
	m := int(math.Round(float64(short) * r.spec.MarginPercent / 100))
	return max(m, 1)
}

// Layout returns the rectangle the text's ink will cover when rendered onto
// an image with bounds b.
func (r *Renderer) Layout(b image.Rectangle, text string) image.Rectangle {
	return place(r.spec.Position, b, r.inkBounds(text).Size(), r.Margin(b))
}

// Render returns a copy of img with text drawn on it. img is not modified.
func (r *Renderer) Render(img image.Image, text string) image.Image {
	dc := gg.NewContextForImage(img)
	if text == "" {
		return dc.Image()
	}

	ink := r.inkBounds(text)
	box := place(r.spec.Position, img.Bounds(), ink.Size(), r.Margin(img.Bounds()))
	// The face draws relative to the baseline origin, ink.Min is relative to it too.
	dot := box.Min.Sub(ink.Min)

	dc.SetFontFace(r.face)
	if r.spec.Shadow {
		dc.SetColor(shadowColor)
		dc.DrawString(text, float64(dot.X+shadowOffset), float64(dot.Y+shadowOffset))
	}
	if r.spec.Stroke {
		dc.SetColor(color.RGBA{A: r.spec.Color.A})
		for dy := -strokeWidth; dy <= strokeWidth; dy += strokeWidth {
			for dx := -strokeWidth; dx <= strokeWidth; dx += strokeWidth {
				if dx == 0 && dy == 0 {
					continue
				}
				dc.DrawString(text, float64(dot.X+dx), float64(dot.Y+dy))
			}
		}
	}
	dc.SetColor(r.spec.Color)
	dc.DrawString(text, float64(dot.X), float64(dot.Y))
	return dc.Image()
}

// inkBounds is the pixel box of text drawn with its baseline origin at (0, 0).
func (r *Renderer) inkBounds(text string) image.Rectangle {
	bb, _ := font.BoundString(r.face, text)
	return image.Rect(bb.Min.X.Floor(), bb.Min.Y.Floor(), bb.Max.X.Ceil(), bb.Max.Y.Ceil())
}

// place positions a box of the given size inside b, margin pixels from the
// anchor's edges. The box never starts outside b.
func place(pos Position, b image.Rectangle, size image.Point, margin int) image.Rectangle {
	var x, y int
	switch pos {
	case TopLeft:
		x, y = b.Min.X+margin, b.Min.Y+margin
	case TopRight:
		x, y = b.Max.X-margin-size.X, b.Min.Y+margin
	case BottomLeft:
		x, y = b.Min.X+margin, b.Max.Y-margin-size.Y
	case Center:
		x, y = b.Min.X+(b.Dx()-size.X)/2, b.Min.Y+(b.Dy()-size.Y)/2
	default:
		x, y = b.Max.X-margin-size.X, b.Max.Y-margin-size.Y
	}
	x = max(x, b.Min.X)
	y = max(y, b.Min.Y)
	return image.Rectangle{Min: image.Pt(x, y), Max: image.Pt(x+size.X, y+size.Y)}
}
