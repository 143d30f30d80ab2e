package layout

import (
	"boxflow/pkg/css"
	"boxflow/pkg/images"
	"boxflow/pkg/text"
)

// Attrs are the table span attributes of a box. RowSpan 0 marks a
// downward-growing cell.
type Attrs struct {
	RowSpan int
	ColSpan int
	Span    int
}

func DefaultAttrs() Attrs { return Attrs{RowSpan: 1, ColSpan: 1, Span: 1} }

// Box is a node of the styled content tree. Layout never mutates a box
// except for the table grid cached on its first table layout.
type Box struct {
	Style    *css.Computed
	Face     *text.Face
	FontSize float64

	Children []*Box
	Text     string
	Image    *images.Image

	Attrs Attrs
	Name  string

	table *tableGrid
}

// NewBox returns a box with the given style (Initial when nil) and children.
func NewBox(style *css.Computed, children ...*Box) *Box {
	if style == nil {
		style = css.Initial()
	}
	return &Box{Style: style, Children: children, Attrs: DefaultAttrs()}
}

func NewTextBox(style *css.Computed, s string) *Box {
	b := NewBox(style)
	b.Text = s
	return b
}

func NewImageBox(style *css.Computed, img *images.Image) *Box {
	b := NewBox(style)
	b.Image = img
	return b
}

func (b *Box) IsText() bool  { return b.Text != "" && len(b.Children) == 0 }
func (b *Box) IsImage() bool { return b.Image != nil }

// IsReplaced reports content that cannot be split across fragmentainers.
func (b *Box) IsReplaced() bool { return b.Image != nil }

func (b *Box) Font() text.Font { return text.Font{Face: b.Face, Size: b.FontSize} }

func (b *Box) String() string {
	if b.Name != "" {
		return b.Name
	}
	return b.Style.Display.String()
}

// Viewport holds the three viewport snapshots used by viewport-relative units.
type Viewport struct {
	DPI     float64
	Small   Rect
	Large   Rect
	Dynamic Rect
}

const DefaultDPI = 96

func NewViewport(w, h float64) Viewport {
	r := Rect{W: w, H: h}
	return Viewport{DPI: DefaultDPI, Small: r, Large: r, Dynamic: r}
}

// Tree is a box tree plus everything layout needs to resolve it.
type Tree struct {
	Root     *Box
	Viewport Viewport
	FC       Fragmentainer
	Fonts    *text.FontStore

	// Frag is the root fragment of the last committed layout.
	Frag *Frag
}

// NewTree builds a tree and resolves the font of every box.
func NewTree(root *Box, vp Viewport, fonts *text.FontStore) *Tree {
	if fonts == nil {
		fonts = text.NewFontStore()
	}
	if vp.DPI == 0 {
		vp.DPI = DefaultDPI
	}
	t := &Tree{Root: root, Viewport: vp, Fonts: fonts}
	t.ResolveFonts()
	return t
}

// ResolveFonts assigns Face and FontSize top-down. Font sizes are resolved
// before any layout because em units depend on them.
func (t *Tree) ResolveFonts() {
	var visit func(b *Box, parentSize float64)
	visit = func(b *Box, parentSize float64) {
		b.Face = t.Fonts.Lookup(b.Style.Font.Families, b.Style.Font.Weight, b.Style.Font.Italic)
		b.FontSize = newResolver(t, b).ResolveFontSize(b.Style.Font.Size, parentSize)
		for _, c := range b.Children {
			visit(c, b.FontSize)
		}
	}
	if t.Root != nil {
		visit(t.Root, userFontSize)
	}
}
