package layout

// Metrics is the committed geometry of one box. Position is the border-box
// origin in the coordinate space of the root fragment.
type Metrics struct {
	Padding       Insets
	Borders       Insets
	OutlineOffset float64
	OutlineWidth  float64
	Position      Vec2
	BorderSize    Vec2
	Margin        Insets
	Radii         Radii
}

func (m Metrics) BorderBox() Rect  { return RectOf(m.Position, m.BorderSize) }
func (m Metrics) PaddingBox() Rect { return m.BorderBox().Shrink(m.Borders) }
func (m Metrics) ContentBox() Rect { return m.PaddingBox().Shrink(m.Padding) }
func (m Metrics) MarginBox() Rect  { return m.BorderBox().Grow(m.Margin) }

// Frag is the committed result for one box. A Frag is written only by the
// layout call that created it; ancestors may translate it with Offset.
type Frag struct {
	Box      *Box
	Metrics  Metrics
	Children []*Frag
}

func NewFrag(box *Box) *Frag { return &Frag{Box: box} }

func (f *Frag) Add(c *Frag) { f.Children = append(f.Children, c) }

func (f *Frag) BorderBox() Rect  { return f.Metrics.BorderBox() }
func (f *Frag) PaddingBox() Rect { return f.Metrics.PaddingBox() }
func (f *Frag) ContentBox() Rect { return f.Metrics.ContentBox() }
func (f *Frag) MarginBox() Rect  { return f.Metrics.MarginBox() }

// Offset translates the whole subtree.
func (f *Frag) Offset(d Vec2) {
	f.Metrics.Position = f.Metrics.Position.Add(d)
	for _, c := range f.Children {
		c.Offset(d)
	}
}

// Walk visits the subtree depth-first, parents first. Returning false from
// fn skips the children of that fragment.
func (f *Frag) Walk(fn func(f *Frag, depth int) bool) {
	f.walk(fn, 0)
}

func (f *Frag) walk(fn func(f *Frag, depth int) bool, depth int) {
	if !fn(f, depth) {
		return
	}
	for _, c := range f.Children {
		c.walk(fn, depth+1)
	}
}
