package render

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"

	"boxflow/pkg/layout"
)

// Canvas is a surface that can outline rectangles.
type Canvas interface {
	StrokeRect(r layout.Rect, c color.Color, width float64)
}

// GGCanvas is a Canvas backed by a gg context.
type GGCanvas struct {
	context *gg.Context
}

// NewGGCanvas returns a white canvas of the given size.
func NewGGCanvas(width, height int) *GGCanvas {
	c := &GGCanvas{context: gg.NewContext(width, height)}
	c.context.SetRGB(1, 1, 1)
	c.context.Clear()
	return c
}

// StrokeRect strokes r inside its bounds.
func (c *GGCanvas) StrokeRect(r layout.Rect, col color.Color, width float64) {
	c.context.SetColor(col)
	c.context.SetLineWidth(width)
	c.context.DrawRectangle(r.X+width/2, r.Y+width/2, max(0, r.W-width), max(0, r.H-width))
	c.context.Stroke()
}

func (c *GGCanvas) Image() image.Image { return c.context.Image() }

func (c *GGCanvas) SavePNG(path string) error { return c.context.SavePNG(path) }

func (c *GGCanvas) EncodePNG(w io.Writer) error { return c.context.EncodePNG(w) }

// palette cycles by tree depth.
var palette = []color.NRGBA{
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
}

// DepthColor is the wireframe colour of fragments at depth.
func DepthColor(depth int) color.NRGBA {
	return palette[depth%len(palette)]
}

// Wireframe strokes the border box of every fragment under root, coloured
// by depth. It returns the number of rectangles drawn.
func Wireframe(root *layout.Frag, canvas Canvas) int {
	if root == nil {
		return 0
	}
	n := 0
	root.Walk(func(f *layout.Frag, depth int) bool {
		b := f.BorderBox()
		if f.Box == nil || b.W <= 0 && b.H <= 0 {
			return true
		}
		canvas.StrokeRect(b, DepthColor(depth), 1)
		n++
		return true
	})
	return n
}
