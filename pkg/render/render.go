package render

import (
	"image"
	"image/color"
	"io"
	"math"
	"sort"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"boxflow/pkg/css"
	"boxflow/pkg/layout"
)

// Renderer paints a committed fragment tree onto a gg context.
type Renderer struct {
	context *gg.Context
}

func NewRenderer(width, height int) *Renderer {
	return &Renderer{context: gg.NewContext(width, height)}
}

// Canvas returns a canvas drawing on the same context, for overlays.
func (r *Renderer) Canvas() *GGCanvas { return &GGCanvas{context: r.context} }

func (r *Renderer) Image() image.Image { return r.context.Image() }

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}

func (r *Renderer) EncodePNG(w io.Writer) error {
	return r.context.EncodePNG(w)
}

// Render clears the context and paints every fragment in stacking order.
func (r *Renderer) Render(root *layout.Frag) {
	r.context.SetRGB(1, 1, 1)
	r.context.Clear()
	if root == nil {
		return
	}

	all := collectFrags(root)
	sortByZIndex(all)
	for _, f := range all {
		r.drawFrag(f)
	}
}

func collectFrags(root *layout.Frag) []*layout.Frag {
	var res []*layout.Frag
	root.Walk(func(f *layout.Frag, _ int) bool {
		if f.Box != nil {
			res = append(res, f)
		}
		return true
	})
	return res
}

func zIndex(f *layout.Frag) int {
	s := f.Box.Style
	if s.ZIndexAuto || !s.Position.IsPositioned() {
		return 0
	}
	return s.ZIndex
}

// paintLevel orders fragments with the same z-index:
// 0 = in-flow boxes, 1 = positioned boxes, 2 = text (CSS 2.1 Appendix E)
func paintLevel(f *layout.Frag) int {
	switch {
	case f.Box.IsText():
		return 2
	case f.Box.Style.Position.IsPositioned():
		return 1
	}
	return 0
}

func sortByZIndex(frags []*layout.Frag) {
	sort.SliceStable(frags, func(i, j int) bool {
		zi, zj := zIndex(frags[i]), zIndex(frags[j])
		if zi != zj {
			return zi < zj
		}
		return paintLevel(frags[i]) < paintLevel(frags[j])
	})
}

func toColor(c css.Color) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(c.A * 255))}
}

func (r *Renderer) setColor(c css.Color) {
	r.context.SetColor(toColor(c))
}

func (r *Renderer) drawFrag(f *layout.Frag) {
	if f.Box.Style.Visibility != css.Visible {
		return
	}
	r.drawBackground(f)
	r.drawBorder(f)
	r.drawOutline(f)
	r.drawImage(f)
	r.drawText(f)
}

func largestRadius(rd layout.Radii) float64 {
	return max(rd.A, rd.B, rd.C, rd.D, rd.E, rd.F, rd.G, rd.H)
}

// drawBackground fills the border box, the initial background-clip, with
// the background color and then the gradient.
func (r *Renderer) drawBackground(f *layout.Frag) {
	style := f.Box.Style
	b := f.BorderBox()
	if b.W <= 0 || b.H <= 0 {
		return
	}
	if style.Background.A > 0 {
		r.setColor(style.Background)
		r.backgroundPath(f, b)
		r.context.Fill()
	}
	if g := style.BackgroundImage; g != nil {
		x0, y0, x1, y1, length := g.Line(b.W, b.H)
		grad := gg.NewLinearGradient(b.X+x0, b.Y+y0, b.X+x1, b.Y+y1)
		for i, off := range g.Offsets(length) {
			grad.AddColorStop(off, toColor(g.Stops[i].Color))
		}
		r.context.SetFillStyle(grad)
		r.backgroundPath(f, b)
		r.context.Fill()
	}
}

func (r *Renderer) backgroundPath(f *layout.Frag, b layout.Rect) {
	if radius := largestRadius(f.Metrics.Radii); radius > 0 {
		r.context.DrawRoundedRectangle(b.X, b.Y, b.W, b.H, radius)
	} else {
		r.context.DrawRectangle(b.X, b.Y, b.W, b.H)
	}
}

// drawBorder paints each side as a trapezoid between the border and padding
// edges, so corners are mitered. Dashed and dotted sides are stroked along
// the middle of the trapezoid.
func (r *Renderer) drawBorder(f *layout.Frag) {
	bw := f.Metrics.Borders
	if bw == (layout.Insets{}) {
		return
	}
	outer := f.BorderBox()
	inner := f.PaddingBox()
	ol, ot, or, ob := outer.X, outer.Y, outer.X+outer.W, outer.Y+outer.H
	il, it, ir, ib := inner.X, inner.Y, inner.X+inner.W, inner.Y+inner.H

	sides := []struct {
		width float64
		quad  [4][2]float64
		line  [2][2]float64
	}{
		{bw.Top, [4][2]float64{{ol, ot}, {or, ot}, {ir, it}, {il, it}}, [2][2]float64{{ol, ot + bw.Top/2}, {or, ot + bw.Top/2}}},
		{bw.End, [4][2]float64{{or, ot}, {or, ob}, {ir, ib}, {ir, it}}, [2][2]float64{{or - bw.End/2, ot}, {or - bw.End/2, ob}}},
		{bw.Bottom, [4][2]float64{{ol, ob}, {or, ob}, {ir, ib}, {il, ib}}, [2][2]float64{{ol, ob - bw.Bottom/2}, {or, ob - bw.Bottom/2}}},
		{bw.Start, [4][2]float64{{ol, ot}, {ol, ob}, {il, ib}, {il, it}}, [2][2]float64{{ol + bw.Start/2, ot}, {ol + bw.Start/2, ob}}},
	}
	for i, s := range sides {
		border := f.Box.Style.Borders.Side(i)
		if s.width <= 0 || border.Color.A <= 0 {
			continue
		}
		r.setColor(border.Color)
		switch border.Style {
		case css.BorderNone, css.BorderHidden:
			continue
		case css.BorderDashed, css.BorderDotted:
			r.context.SetLineWidth(s.width)
			if border.Style == css.BorderDashed {
				r.context.SetDash(3*s.width, 2*s.width)
			} else {
				r.context.SetDash(s.width, s.width)
			}
			r.context.DrawLine(s.line[0][0], s.line[0][1], s.line[1][0], s.line[1][1])
			r.context.Stroke()
			r.context.SetDash()
		default:
			r.context.MoveTo(s.quad[0][0], s.quad[0][1])
			for _, p := range s.quad[1:] {
				r.context.LineTo(p[0], p[1])
			}
			r.context.ClosePath()
			r.context.Fill()
		}
	}
}

func (r *Renderer) drawOutline(f *layout.Frag) {
	m := f.Metrics
	outline := f.Box.Style.Outline
	if m.OutlineWidth <= 0 || outline.Color.A <= 0 {
		return
	}
	b := f.BorderBox().Grow(layout.AllInsets(m.OutlineOffset + m.OutlineWidth/2))
	r.setColor(outline.Color)
	r.context.SetLineWidth(m.OutlineWidth)
	r.context.DrawRectangle(b.X, b.Y, b.W, b.H)
	r.context.Stroke()
}

// drawImage scales the decoded pixels to the content box. Images without
// pixels get a crossed placeholder.
func (r *Renderer) drawImage(f *layout.Frag) {
	img := f.Box.Image
	if img == nil {
		return
	}
	c := f.ContentBox()
	if img.Pixels == nil {
		r.context.SetRGB(0.9, 0.9, 0.9)
		r.context.DrawRectangle(c.X, c.Y, c.W, c.H)
		r.context.Fill()
		r.context.SetRGB(0.5, 0.5, 0.5)
		r.context.SetLineWidth(2)
		r.context.DrawLine(c.X, c.Y, c.X+c.W, c.Y+c.H)
		r.context.DrawLine(c.X+c.W, c.Y, c.X, c.Y+c.H)
		r.context.Stroke()
		return
	}
	w, h := int(math.Round(c.W)), int(math.Round(c.H))
	if w <= 0 || h <= 0 {
		return
	}
	scaled := imaging.Resize(img.Pixels, w, h, imaging.Linear)
	r.context.DrawImage(scaled, int(math.Round(c.X)), int(math.Round(c.Y)))
}

func (r *Renderer) drawText(f *layout.Frag) {
	lines := f.TextLines()
	if len(lines) == 0 {
		return
	}
	font := f.Box.Font()
	if face := font.FontFace(); face != nil {
		r.context.SetFontFace(face)
	}
	m := font.Metrics()
	c := f.ContentBox()
	r.setColor(f.Box.Style.Color)
	for i, l := range lines {
		baseline := c.Y + float64(i)*m.LineHeight() + m.Ascend
		r.context.DrawString(l.Text, c.X, baseline)
	}
}
