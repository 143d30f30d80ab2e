package css

// Edges holds one value per physical side, in logical order for a
// horizontal-tb, ltr writing mode.
type Edges[T any] struct {
	Top, End, Bottom, Start T
}

func AllEdges[T any](v T) Edges[T] {
	return Edges[T]{Top: v, End: v, Bottom: v, Start: v}
}

type Border struct {
	Width Length
	Style BorderStyle
	Color Color
}

// BordersProps holds the four borders and the eight corner radii.
// Radii go clockwise from the top-left corner, vertical component first:
// a (top-left y), b (top-left x), c (top-right x), d (top-right y),
// e (bottom-right y), f (bottom-right x), g (bottom-left x), h (bottom-left y).
type BordersProps struct {
	Top, End, Bottom, Start Border
	Radii                   [8]Expr
}

func (b *BordersProps) Side(i int) *Border {
	switch i {
	case 0:
		return &b.Top
	case 1:
		return &b.End
	case 2:
		return &b.Bottom
	}
	return &b.Start
}

type SizingProps struct {
	Width, Height       Size
	MinWidth, MinHeight Size
	MaxWidth, MaxHeight Size
}

func (s SizingProps) Size(a Axis) Size {
	if a == Horizontal {
		return s.Width
	}
	return s.Height
}

func (s SizingProps) MinSize(a Axis) Size {
	if a == Horizontal {
		return s.MinWidth
	}
	return s.MinHeight
}

func (s SizingProps) MaxSize(a Axis) Size {
	if a == Horizontal {
		return s.MaxWidth
	}
	return s.MaxHeight
}

type FlexProps struct {
	Direction FlexDirection
	Wrap      FlexWrap
	Basis     FlexBasis
	Grow      float64
	Shrink    float64
}

type OutlineProps struct {
	Width  Length
	Offset Length
	Style  BorderStyle
	Color  Color
}

// Computed is the cascade-resolved style of one box. Layout only reads it.
type Computed struct {
	Display         Display
	BoxSizing       BoxSizing
	Sizing          SizingProps
	Margin          Edges[Width]
	Padding         Edges[Expr]
	Borders         BordersProps
	Outline         OutlineProps
	Flex            FlexProps
	Aligns          Aligns
	Position        Position
	Offsets         Edges[Width]
	Table           TableProps
	Break           BreakProps
	Visibility      Visibility
	Font            FontProps
	Color           Color
	Background      Color
	// BackgroundImage is painted over Background; nil for none.
	BackgroundImage *LinearGradient
	ZIndex          int
	ZIndexAuto      bool
}

var zeroExpr = PxExpr(0)

// Initial returns the initial values of every property.
func Initial() *Computed {
	c := &Computed{
		Display:   DisplayInline,
		BoxSizing: ContentBox,
		Sizing: SizingProps{
			Width: SizeAutoValue, Height: SizeAutoValue,
			MinWidth: SizeAutoValue, MinHeight: SizeAutoValue,
			MaxWidth: SizeNoneValue, MaxHeight: SizeNoneValue,
		},
		Margin:  AllEdges(WidthPx(0)),
		Padding: AllEdges(zeroExpr),
		Outline: OutlineProps{Width: Px(3)},
		Flex: FlexProps{
			Basis:  FlexBasis{Width: WidthAuto},
			Shrink: 1,
		},
		Aligns: Aligns{
			AlignContent:   AlignNormal,
			JustifyContent: AlignFlexStart,
			JustifySelf:    AlignAuto,
			AlignSelf:      AlignAuto,
			JustifyItems:   AlignNormal,
			AlignItems:     AlignStretch,
		},
		Offsets:    AllEdges(WidthAuto),
		Font:       FontProps{Weight: 400},
		Color:      Black,
		ZIndexAuto: true,
	}
	for i := 0; i < 4; i++ {
		c.Borders.Side(i).Width = Px(3)
		c.Borders.Side(i).Color = Black
	}
	for i := range c.Borders.Radii {
		c.Borders.Radii[i] = zeroExpr
	}
	return c
}

// Inherit returns the initial style carrying the inherited properties of c.
func (c *Computed) Inherit() *Computed {
	out := Initial()
	out.Font = c.Font
	// the used size is inherited, not the declared one
	out.Font.Size = FontSize{Kind: FontSizeLength, Value: Percent(100)}
	out.Color = c.Color
	out.Visibility = c.Visibility
	out.Table.Collapse = c.Table.Collapse
	out.Table.Spacing = c.Table.Spacing
	out.Table.CaptionSide = c.Table.CaptionSide
	return out
}

// Clone returns a shallow copy; all fields are values or immutable expressions.
func (c *Computed) Clone() *Computed {
	cp := *c
	cp.Font.Families = append([]string(nil), c.Font.Families...)
	return &cp
}
