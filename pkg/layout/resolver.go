package layout

import (
	"fmt"
	"math"

	"boxflow/pkg/css"
	"boxflow/pkg/text"
)

const userFontSize = 16

// Resolver turns computed CSS values into device px for one box.
type Resolver struct {
	viewport Viewport
	boxFont  text.Font
	rootFont text.Font
}

func newResolver(t *Tree, b *Box) Resolver {
	r := Resolver{viewport: t.Viewport, boxFont: fontOrDefault(t, b)}
	r.rootFont = r.boxFont
	if t.Root != nil {
		r.rootFont = fontOrDefault(t, t.Root)
	}
	return r
}

// NewResolver returns a resolver for b in t.
func NewResolver(t *Tree, b *Box) Resolver { return newResolver(t, b) }

func fontOrDefault(t *Tree, b *Box) text.Font {
	f := b.Font()
	if f.Face == nil {
		f.Face = t.Fonts.Fallback()
	}
	if f.Size == 0 {
		f.Size = userFontSize
	}
	return f
}

// nearest rounds to 1/64 px, the precision of device units.
func nearest(v float64) float64 {
	return math.Round(v*64) / 64
}

func (r Resolver) Resolve(l css.Length) float64 {
	if l.Unit.IsFontRelative() {
		return r.resolveFontRelative(l)
	}
	v := l.Val
	vp := r.viewport
	switch l.Unit {
	case css.UnitVw, css.UnitLvw, css.UnitVi, css.UnitLvi:
		return nearest(v * vp.Large.W / 100)
	case css.UnitSvw, css.UnitSvi:
		return nearest(v * vp.Small.W / 100)
	case css.UnitDvw, css.UnitDvi:
		return nearest(v * vp.Dynamic.W / 100)

	case css.UnitVh, css.UnitLvh, css.UnitVb, css.UnitLvb:
		return nearest(v * vp.Large.H / 100)
	case css.UnitSvh, css.UnitSvb:
		return nearest(v * vp.Small.H / 100)
	case css.UnitDvh, css.UnitDvb:
		return nearest(v * vp.Dynamic.H / 100)

	case css.UnitVmin, css.UnitLvmin:
		return min(r.Resolve(css.Length{Val: v, Unit: css.UnitVw}), r.Resolve(css.Length{Val: v, Unit: css.UnitVh}))
	case css.UnitSvmin:
		return min(r.Resolve(css.Length{Val: v, Unit: css.UnitSvw}), r.Resolve(css.Length{Val: v, Unit: css.UnitSvh}))
	case css.UnitDvmin:
		return min(r.Resolve(css.Length{Val: v, Unit: css.UnitDvw}), r.Resolve(css.Length{Val: v, Unit: css.UnitDvh}))
	case css.UnitVmax, css.UnitLvmax:
		return max(r.Resolve(css.Length{Val: v, Unit: css.UnitVw}), r.Resolve(css.Length{Val: v, Unit: css.UnitVh}))
	case css.UnitSvmax:
		return max(r.Resolve(css.Length{Val: v, Unit: css.UnitSvw}), r.Resolve(css.Length{Val: v, Unit: css.UnitSvh}))
	case css.UnitDvmax:
		return max(r.Resolve(css.Length{Val: v, Unit: css.UnitDvw}), r.Resolve(css.Length{Val: v, Unit: css.UnitDvh}))

	case css.UnitCm:
		return nearest(v * vp.DPI / 2.54)
	case css.UnitMm:
		return nearest(v * vp.DPI / 25.4)
	case css.UnitQ:
		return nearest(v * vp.DPI / 101.6)
	case css.UnitIn:
		return nearest(v * vp.DPI)
	case css.UnitPt:
		return nearest(v * vp.DPI / 72)
	case css.UnitPc:
		return nearest(v * vp.DPI / 6)
	case css.UnitPx:
		return nearest(v)
	}
	panic(fmt.Sprintf("layout: invalid length unit %s", l.Unit))
}

func (r Resolver) resolveFontRelative(l css.Length) float64 {
	box, root := r.boxFont, r.rootFont
	switch l.Unit {
	case css.UnitEm:
		return nearest(l.Val * box.Size)
	case css.UnitRem:
		return nearest(l.Val * root.Size)
	case css.UnitEx:
		return nearest(l.Val * box.Metrics().XHeight)
	case css.UnitRex:
		return nearest(l.Val * root.Metrics().XHeight)
	case css.UnitCap:
		return nearest(l.Val * box.Metrics().CapHeight)
	case css.UnitRcap:
		return nearest(l.Val * root.Metrics().CapHeight)
	case css.UnitCh, css.UnitIc:
		return nearest(l.Val * box.Metrics().ZeroAdvance)
	case css.UnitRch, css.UnitRic:
		return nearest(l.Val * root.Metrics().ZeroAdvance)
	case css.UnitLh:
		return nearest(l.Val * box.LineHeight())
	case css.UnitRlh:
		return nearest(l.Val * root.LineHeight())
	}
	panic(fmt.Sprintf("layout: expected font-relative unit, got %s", l.Unit))
}

// ResolvePercent resolves a length-percentage against relative.
func (r Resolver) ResolvePercent(d css.Dimension, relative float64) float64 {
	if d.Percent {
		return relative * d.Pct / 100
	}
	return r.Resolve(d.Length)
}

// ResolveCalc evaluates an expression. Numbers are dimensionless factors.
func (r Resolver) ResolveCalc(e css.Expr, relative float64) float64 {
	switch e := e.(type) {
	case nil:
		return 0
	case css.Value:
		return r.ResolvePercent(e.Dim, relative)
	case css.Number:
		return float64(e)
	case css.Binary:
		lhs, rhs := r.ResolveCalc(e.LHS, relative), r.ResolveCalc(e.RHS, relative)
		switch e.Op {
		case css.OpAdd:
			return lhs + rhs
		case css.OpSub:
			return lhs - rhs
		case css.OpMul:
			return lhs * rhs
		case css.OpDiv:
			return lhs / rhs
		}
		panic(fmt.Sprintf("layout: unknown calc operator %s", e.Op))
	case css.Unary:
		panic(fmt.Sprintf("layout: calc function %s is not implemented", e.Op))
	}
	panic(fmt.Sprintf("layout: unexpected calc node %T", e))
}

// ResolveWidth resolves a margin or offset; auto resolves to zero.
func (r Resolver) ResolveWidth(w css.Width, relative float64) float64 {
	if w.Auto {
		return 0
	}
	return r.ResolveCalc(w.Value, relative)
}

// ResolveFontSize resolves font-size against the parent's used size.
func (r Resolver) ResolveFontSize(fs css.FontSize, parent float64) float64 {
	switch fs.Kind {
	case css.FontSizeXXSmall:
		return nearest(userFontSize * 0.5)
	case css.FontSizeXSmall:
		return nearest(userFontSize * 0.75)
	case css.FontSizeSmall:
		return nearest(userFontSize * 0.875)
	case css.FontSizeMedium:
		return nearest(userFontSize)
	case css.FontSizeLarge:
		return nearest(userFontSize * 1.125)
	case css.FontSizeXLarge:
		return nearest(userFontSize * 1.25)
	case css.FontSizeXXLarge:
		return nearest(userFontSize * 1.5)
	case css.FontSizeLarger:
		return nearest(parent * 1.25)
	case css.FontSizeSmaller:
		return nearest(parent * 0.875)
	case css.FontSizeLength:
		// em and percentages in font-size refer to the parent's font.
		pr := r
		pr.boxFont.Size = parent
		return pr.ResolveCalc(fs.Value, parent)
	}
	panic(fmt.Sprintf("layout: unknown font-size kind %d", fs.Kind))
}

// ResolveBorderWidth resolves a border or outline width, snapping it to whole
// device px: widths under one px round up, others round down.
func (r Resolver) ResolveBorderWidth(l css.Length) float64 {
	v := r.Resolve(l)
	if v < 1 {
		return math.Ceil(v)
	}
	return math.Floor(v)
}
