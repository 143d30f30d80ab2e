package css

import "fmt"

// SizeKind tells which alternative of a sizing property is in use.
type SizeKind uint8

const (
	SizeAuto SizeKind = iota
	SizeLength
	SizeMinContent
	SizeMaxContent
	SizeFitContent
	SizeNone // only valid for max-width / max-height
)

// Size is the value of width, height and their min/max variants.
// Value is set for SizeLength, and holds the argument of fit-content().
type Size struct {
	Kind  SizeKind
	Value Expr
}

var (
	SizeAutoValue = Size{Kind: SizeAuto}
	SizeNoneValue = Size{Kind: SizeNone}
)

func SizeOf(e Expr) Size { return Size{Kind: SizeLength, Value: e} }

func SizePx(v float64) Size { return SizeOf(PxExpr(v)) }

func (s Size) IsAuto() bool   { return s.Kind == SizeAuto }
func (s Size) IsLength() bool { return s.Kind == SizeLength }

func (s Size) String() string {
	switch s.Kind {
	case SizeAuto:
		return "auto"
	case SizeLength:
		return s.Value.String()
	case SizeMinContent:
		return "min-content"
	case SizeMaxContent:
		return "max-content"
	case SizeFitContent:
		if s.Value != nil {
			return "fit-content(" + s.Value.String() + ")"
		}
		return "fit-content"
	case SizeNone:
		return "none"
	}
	return fmt.Sprintf("size(%d)", s.Kind)
}

// Width is a length-percentage or auto: margins and inset offsets.
type Width struct {
	Auto  bool
	Value Expr
}

var WidthAuto = Width{Auto: true}

func WidthOf(e Expr) Width { return Width{Value: e} }

func WidthPx(v float64) Width { return WidthOf(PxExpr(v)) }

func (w Width) String() string {
	if w.Auto {
		return "auto"
	}
	if w.Value == nil {
		return "0"
	}
	return w.Value.String()
}

// FlexBasis is either the content keyword or a Width.
type FlexBasis struct {
	Content bool
	Width   Width
}

// Axis is a layout axis.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

type BoxSizing uint8

const (
	ContentBox BoxSizing = iota
	BorderBox
)

type Position uint8

const (
	PositionStatic Position = iota
	PositionRelative
	PositionAbsolute
	PositionFixed
	PositionSticky
)

// RemovesFromFlow reports whether a box with this position skips the normal flow.
func (p Position) RemovesFromFlow() bool {
	return p == PositionAbsolute || p == PositionFixed
}

func (p Position) IsPositioned() bool { return p != PositionStatic }

type BorderStyle uint8

const (
	BorderNone BorderStyle = iota
	BorderHidden
	BorderDotted
	BorderDashed
	BorderSolid
	BorderDouble
	BorderGroove
	BorderRidge
	BorderInset
	BorderOutset
)

var borderStyleNames = map[string]BorderStyle{
	"none":   BorderNone,
	"hidden": BorderHidden,
	"dotted": BorderDotted,
	"dashed": BorderDashed,
	"solid":  BorderSolid,
	"double": BorderDouble,
	"groove": BorderGroove,
	"ridge":  BorderRidge,
	"inset":  BorderInset,
	"outset": BorderOutset,
}

func (b BorderStyle) String() string {
	for name, v := range borderStyleNames {
		if v == b {
			return name
		}
	}
	return "none"
}

type FlexDirection uint8

const (
	FlexRow FlexDirection = iota
	FlexRowReverse
	FlexColumn
	FlexColumnReverse
)

func (d FlexDirection) IsRow() bool { return d == FlexRow || d == FlexRowReverse }

func (d FlexDirection) IsReverse() bool { return d == FlexRowReverse || d == FlexColumnReverse }

type FlexWrap uint8

const (
	NoWrap FlexWrap = iota
	Wrap
	WrapReverse
)

// Align covers align-*, justify-* keywords.
type Align uint8

const (
	AlignAuto Align = iota
	AlignNormal
	AlignStretch
	AlignStart
	AlignEnd
	AlignFlexStart
	AlignFlexEnd
	AlignCenter
	AlignBaseline
	AlignFirstBaseline
	AlignLastBaseline
	AlignSpaceBetween
	AlignSpaceAround
	AlignSpaceEvenly
	AlignLeft
	AlignRight
)

var alignNames = map[string]Align{
	"auto":           AlignAuto,
	"normal":         AlignNormal,
	"stretch":        AlignStretch,
	"start":          AlignStart,
	"end":            AlignEnd,
	"flex-start":     AlignFlexStart,
	"flex-end":       AlignFlexEnd,
	"center":         AlignCenter,
	"baseline":       AlignBaseline,
	"first baseline": AlignFirstBaseline,
	"last baseline":  AlignLastBaseline,
	"space-between":  AlignSpaceBetween,
	"space-around":   AlignSpaceAround,
	"space-evenly":   AlignSpaceEvenly,
	"left":           AlignLeft,
	"right":          AlignRight,
	"self-start":     AlignStart,
	"self-end":       AlignEnd,
}

func (a Align) IsBaseline() bool {
	return a == AlignBaseline || a == AlignFirstBaseline || a == AlignLastBaseline
}

func (a Align) String() string {
	for name, v := range alignNames {
		if v == a && name != "self-start" && name != "self-end" {
			return name
		}
	}
	return fmt.Sprintf("align(%d)", a)
}

type Aligns struct {
	AlignContent   Align
	JustifyContent Align
	JustifySelf    Align
	AlignSelf      Align
	JustifyItems   Align
	AlignItems     Align
}

type TableLayout uint8

const (
	TableLayoutAuto TableLayout = iota
	TableLayoutFixed
)

type CaptionSide uint8

const (
	CaptionTop CaptionSide = iota
	CaptionBottom
)

type BorderCollapse uint8

const (
	BorderSeparate BorderCollapse = iota
	BorderCollapsed
)

type BorderSpacing struct {
	Horizontal, Vertical Length
}

type TableProps struct {
	Layout      TableLayout
	CaptionSide CaptionSide
	Spacing     BorderSpacing
	Collapse    BorderCollapse
}

// BreakBetween is the value of break-before and break-after.
type BreakBetween uint8

const (
	BreakAuto BreakBetween = iota
	BreakAvoid
	BreakAvoidPage
	BreakPage
	BreakLeft
	BreakRight
	BreakColumn
)

type BreakInside uint8

const (
	BreakInsideAuto BreakInside = iota
	BreakInsideAvoid
	BreakInsideAvoidPage
	BreakInsideAvoidColumn
)

type BreakProps struct {
	Before BreakBetween
	After  BreakBetween
	Inside BreakInside
}

type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
	Collapse
)

// FontSizeKind selects the alternative of font-size.
type FontSizeKind uint8

const (
	FontSizeMedium FontSizeKind = iota
	FontSizeXXSmall
	FontSizeXSmall
	FontSizeSmall
	FontSizeLarge
	FontSizeXLarge
	FontSizeXXLarge
	FontSizeLarger
	FontSizeSmaller
	FontSizeLength
)

var fontSizeNames = map[string]FontSizeKind{
	"xx-small": FontSizeXXSmall,
	"x-small":  FontSizeXSmall,
	"small":    FontSizeSmall,
	"medium":   FontSizeMedium,
	"large":    FontSizeLarge,
	"x-large":  FontSizeXLarge,
	"xx-large": FontSizeXXLarge,
	"larger":   FontSizeLarger,
	"smaller":  FontSizeSmaller,
}

type FontSize struct {
	Kind  FontSizeKind
	Value Expr
}

type FontProps struct {
	Families []string
	Size     FontSize
	Weight   int
	Italic   bool
}
