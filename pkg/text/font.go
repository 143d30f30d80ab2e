package text

import (
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Metrics are the vertical and reference metrics of a font at one size, in px.
type Metrics struct {
	Ascend      float64
	Descend     float64
	LineGap     float64
	XHeight     float64
	CapHeight   float64
	ZeroAdvance float64
}

func (m Metrics) LineHeight() float64 {
	return m.Ascend + m.Descend + m.LineGap
}

// Face is a loaded font face. A Face without an underlying TrueType font uses
// synthetic proportions, used when no font file is available.
type Face struct {
	Name   string
	Weight int
	Italic bool

	ttf *truetype.Font

	mu    sync.Mutex
	sized map[float64]font.Face
}

func newSyntheticFace(name string) *Face {
	return &Face{Name: name, Weight: 400}
}

func newFace(name string, ttf *truetype.Font, weight int, italic bool) *Face {
	return &Face{Name: name, ttf: ttf, Weight: weight, Italic: italic, sized: make(map[float64]font.Face)}
}

func (f *Face) IsSynthetic() bool { return f.ttf == nil }

// sizedLocked returns the cached face at size. f.mu must be held: truetype
// faces share glyph buffers between calls.
func (f *Face) sizedLocked(size float64) font.Face {
	if face, ok := f.sized[size]; ok {
		return face
	}
	face := f.newSized(size)
	f.sized[size] = face
	return face
}

func (f *Face) newSized(size float64) font.Face {
	return truetype.NewFace(f.ttf, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func toPx(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Metrics returns the face metrics at the given size.
func (f *Face) Metrics(size float64) Metrics {
	if f.IsSynthetic() {
		return Metrics{
			Ascend:      size * 0.8,
			Descend:     size * 0.2,
			LineGap:     size * 0.2,
			XHeight:     size * 0.5,
			CapHeight:   size * 0.7,
			ZeroAdvance: size * 0.6,
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	face := f.sizedLocked(size)
	m := face.Metrics()
	res := Metrics{
		Ascend:  toPx(m.Ascent),
		Descend: toPx(m.Descent),
		LineGap: toPx(m.Height) - toPx(m.Ascent) - toPx(m.Descent),
	}
	if res.LineGap < 0 {
		res.LineGap = 0
	}
	if b, _, ok := face.GlyphBounds('x'); ok {
		res.XHeight = -toPx(b.Min.Y)
	}
	if b, _, ok := face.GlyphBounds('H'); ok {
		res.CapHeight = -toPx(b.Min.Y)
	}
	if adv, ok := face.GlyphAdvance('0'); ok {
		res.ZeroAdvance = toPx(adv)
	}
	return res
}

// Advance measures the horizontal advance of s on a single line.
func (f *Face) Advance(s string, size float64) float64 {
	if f.IsSynthetic() {
		n := 0
		for range s {
			n++
		}
		return float64(n) * size * 0.6
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return toPx(font.MeasureString(f.sizedLocked(size), s))
}

// Font is a face at a given size.
type Font struct {
	Face *Face
	Size float64
}

func (f Font) Metrics() Metrics { return f.Face.Metrics(f.Size) }

func (f Font) Advance(s string) float64 { return f.Face.Advance(s, f.Size) }

func (f Font) LineHeight() float64 { return f.Metrics().LineHeight() }

// FontFace returns a new rasterizable face at f.Size owned by the caller, or
// nil for synthetic faces.
func (f Font) FontFace() font.Face {
	if f.Face == nil || f.Face.IsSynthetic() {
		return nil
	}
	return f.Face.newSized(f.Size)
}
