package layout

import "fmt"

// Vec2 is a point or a size in device px.
type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) String() string { return fmt.Sprintf("(%g, %g)", v.X, v.Y) }

// Opt is an optional length. The zero value is unset.
type Opt struct {
	Val float64
	Set bool
}

func Some(v float64) Opt { return Opt{Val: v, Set: true} }

var None = Opt{}

// Or returns the value, or def when unset.
func (o Opt) Or(def float64) float64 {
	if o.Set {
		return o.Val
	}
	return def
}

// Map applies f to a set value.
func (o Opt) Map(f func(float64) float64) Opt {
	if !o.Set {
		return o
	}
	return Some(f(o.Val))
}

func (o Opt) String() string {
	if !o.Set {
		return "none"
	}
	return fmt.Sprintf("%g", o.Val)
}

// OptVec2 is a size with each axis optionally known.
type OptVec2 struct {
	X, Y Opt
}

func (v OptVec2) Or(def Vec2) Vec2 { return Vec2{v.X.Or(def.X), v.Y.Or(def.Y)} }

// Insets are per-side lengths in logical order for horizontal-tb ltr.
type Insets struct {
	Top, End, Bottom, Start float64
}

func AllInsets(v float64) Insets { return Insets{v, v, v, v} }

func (i Insets) Horizontal() float64 { return i.Start + i.End }
func (i Insets) Vertical() float64   { return i.Top + i.Bottom }

// All is the total extent on both axes.
func (i Insets) All() Vec2 { return Vec2{i.Horizontal(), i.Vertical()} }

// TopStart is the offset of the inner edge from the outer one.
func (i Insets) TopStart() Vec2 { return Vec2{i.Start, i.Top} }

func (i Insets) Add(o Insets) Insets {
	return Insets{i.Top + o.Top, i.End + o.End, i.Bottom + o.Bottom, i.Start + o.Start}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

func RectOf(pos, size Vec2) Rect { return Rect{pos.X, pos.Y, size.X, size.Y} }

func (r Rect) Pos() Vec2  { return Vec2{r.X, r.Y} }
func (r Rect) Size() Vec2 { return Vec2{r.W, r.H} }

func (r Rect) Shrink(i Insets) Rect {
	return Rect{r.X + i.Start, r.Y + i.Top, r.W - i.Horizontal(), r.H - i.Vertical()}
}

func (r Rect) Grow(i Insets) Rect {
	return Rect{r.X - i.Start, r.Y - i.Top, r.W + i.Horizontal(), r.H + i.Vertical()}
}

// Radii are the eight corner radii, clockwise from the top-left corner.
// See css.BordersProps for the component order.
type Radii struct {
	A, B, C, D, E, F, G, H float64
}

func (r Radii) Zero() bool { return r == Radii{} }
