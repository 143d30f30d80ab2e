package css

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidValue    = errors.New("invalid value")
	ErrUnknownProperty = errors.New("unknown property")
)

type propertyHandler func(c *Computed, value string) error

var properties map[string]propertyHandler

func init() {
	properties = map[string]propertyHandler{
		"display":    parseInto(ParseDisplay, func(c *Computed) *Display { return &c.Display }),
		"box-sizing": keyword(map[string]BoxSizing{"content-box": ContentBox, "border-box": BorderBox}, func(c *Computed) *BoxSizing { return &c.BoxSizing }),

		"width":      sizeProp(func(c *Computed) *Size { return &c.Sizing.Width }, false),
		"height":     sizeProp(func(c *Computed) *Size { return &c.Sizing.Height }, false),
		"min-width":  sizeProp(func(c *Computed) *Size { return &c.Sizing.MinWidth }, false),
		"min-height": sizeProp(func(c *Computed) *Size { return &c.Sizing.MinHeight }, false),
		"max-width":  sizeProp(func(c *Computed) *Size { return &c.Sizing.MaxWidth }, true),
		"max-height": sizeProp(func(c *Computed) *Size { return &c.Sizing.MaxHeight }, true),

		"margin-top":    widthProp(func(c *Computed) *Width { return &c.Margin.Top }),
		"margin-right":  widthProp(func(c *Computed) *Width { return &c.Margin.End }),
		"margin-bottom": widthProp(func(c *Computed) *Width { return &c.Margin.Bottom }),
		"margin-left":   widthProp(func(c *Computed) *Width { return &c.Margin.Start }),

		"padding-top":    exprProp(func(c *Computed) *Expr { return &c.Padding.Top }),
		"padding-right":  exprProp(func(c *Computed) *Expr { return &c.Padding.End }),
		"padding-bottom": exprProp(func(c *Computed) *Expr { return &c.Padding.Bottom }),
		"padding-left":   exprProp(func(c *Computed) *Expr { return &c.Padding.Start }),

		"top":    widthProp(func(c *Computed) *Width { return &c.Offsets.Top }),
		"right":  widthProp(func(c *Computed) *Width { return &c.Offsets.End }),
		"bottom": widthProp(func(c *Computed) *Width { return &c.Offsets.Bottom }),
		"left":   widthProp(func(c *Computed) *Width { return &c.Offsets.Start }),

		"position": keyword(map[string]Position{
			"static": PositionStatic, "relative": PositionRelative, "absolute": PositionAbsolute,
			"fixed": PositionFixed, "sticky": PositionSticky,
		}, func(c *Computed) *Position { return &c.Position }),

		"outline-width":  lineWidthProp(func(c *Computed) *Length { return &c.Outline.Width }),
		"outline-offset": lineWidthProp(func(c *Computed) *Length { return &c.Outline.Offset }),
		"outline-style":  keyword(borderStyleNames, func(c *Computed) *BorderStyle { return &c.Outline.Style }),
		"outline-color":  colorProp(func(c *Computed) *Color { return &c.Outline.Color }),

		"flex-direction": keyword(map[string]FlexDirection{
			"row": FlexRow, "row-reverse": FlexRowReverse, "column": FlexColumn, "column-reverse": FlexColumnReverse,
		}, func(c *Computed) *FlexDirection { return &c.Flex.Direction }),
		"flex-wrap": keyword(map[string]FlexWrap{
			"nowrap": NoWrap, "wrap": Wrap, "wrap-reverse": WrapReverse,
		}, func(c *Computed) *FlexWrap { return &c.Flex.Wrap }),
		"flex-grow":   numberProp(func(c *Computed) *float64 { return &c.Flex.Grow }),
		"flex-shrink": numberProp(func(c *Computed) *float64 { return &c.Flex.Shrink }),
		"flex-basis":  parseFlexBasis,

		"align-content":   keyword(alignNames, func(c *Computed) *Align { return &c.Aligns.AlignContent }),
		"justify-content": keyword(alignNames, func(c *Computed) *Align { return &c.Aligns.JustifyContent }),
		"justify-self":    keyword(alignNames, func(c *Computed) *Align { return &c.Aligns.JustifySelf }),
		"align-self":      keyword(alignNames, func(c *Computed) *Align { return &c.Aligns.AlignSelf }),
		"justify-items":   keyword(alignNames, func(c *Computed) *Align { return &c.Aligns.JustifyItems }),
		"align-items":     keyword(alignNames, func(c *Computed) *Align { return &c.Aligns.AlignItems }),

		"table-layout": keyword(map[string]TableLayout{"auto": TableLayoutAuto, "fixed": TableLayoutFixed},
			func(c *Computed) *TableLayout { return &c.Table.Layout }),
		"caption-side": keyword(map[string]CaptionSide{"top": CaptionTop, "bottom": CaptionBottom},
			func(c *Computed) *CaptionSide { return &c.Table.CaptionSide }),
		"border-collapse": keyword(map[string]BorderCollapse{"separate": BorderSeparate, "collapse": BorderCollapsed},
			func(c *Computed) *BorderCollapse { return &c.Table.Collapse }),
		"border-spacing": parseBorderSpacing,

		"break-before": keyword(breakBetweenNames, func(c *Computed) *BreakBetween { return &c.Break.Before }),
		"break-after":  keyword(breakBetweenNames, func(c *Computed) *BreakBetween { return &c.Break.After }),
		"break-inside": keyword(map[string]BreakInside{
			"auto": BreakInsideAuto, "avoid": BreakInsideAvoid,
			"avoid-page": BreakInsideAvoidPage, "avoid-column": BreakInsideAvoidColumn,
		}, func(c *Computed) *BreakInside { return &c.Break.Inside }),

		"visibility": keyword(map[string]Visibility{"visible": Visible, "hidden": Hidden, "collapse": Collapse},
			func(c *Computed) *Visibility { return &c.Visibility }),

		"font-size":   parseFontSize,
		"font-family": parseFontFamily,
		"font-weight": parseFontWeight,
		"font-style": func(c *Computed, v string) error {
			c.Font.Italic = v == "italic" || v == "oblique"
			return nil
		},

		"color":            colorProp(func(c *Computed) *Color { return &c.Color }),
		"background-color": colorProp(func(c *Computed) *Color { return &c.Background }),
		"background":       parseBackground,
		"background-image": parseBackgroundImage,
		"z-index":          parseZIndex,
	}

	for i, side := range sides {
		i := i
		properties["border-"+side+"-width"] = lineWidthProp(func(c *Computed) *Length { return &c.Borders.Side(i).Width })
		properties["border-"+side+"-style"] = keyword(borderStyleNames, func(c *Computed) *BorderStyle { return &c.Borders.Side(i).Style })
		properties["border-"+side+"-color"] = colorProp(func(c *Computed) *Color { return &c.Borders.Side(i).Color })
	}
	for i, corner := range radiusCorners {
		i := i
		properties["border-"+corner+"-radius"] = func(c *Computed, v string) error {
			return parseRadius(c, i, v)
		}
	}
}

var breakBetweenNames = map[string]BreakBetween{
	"auto": BreakAuto, "avoid": BreakAvoid, "avoid-page": BreakAvoidPage, "page": BreakPage,
	"left": BreakLeft, "right": BreakRight, "column": BreakColumn,
}

// Compute turns specified declarations into a computed style. Inherited
// properties come from parent when it is not nil. Invalid declarations are
// skipped, the way a CSS parser recovers; their errors are joined and returned
// next to the usable result.
func Compute(style *Style, parent *Computed) (*Computed, error) {
	var c *Computed
	if parent != nil {
		c = parent.Inherit()
	} else {
		c = Initial()
	}
	if style == nil {
		return c, nil
	}
	var errs []error
	names := style.Names()
	// currentcolor in other properties refers to the color declared alongside them
	for i, name := range names {
		if name == "color" {
			copy(names[1:i+1], names[:i])
			names[0] = name
			break
		}
	}
	for _, name := range names {
		value, _ := style.Get(name)
		handler, ok := properties[name]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownProperty, name))
			continue
		}
		if err := handler(c, strings.TrimSpace(value)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return c, errors.Join(errs...)
}

// ComputeInline is Compute(ParseInlineStyle(decls), parent).
func ComputeInline(decls string, parent *Computed) (*Computed, error) {
	return Compute(ParseInlineStyle(decls), parent)
}

// MustCompute panics on any invalid declaration. Meant for fixtures.
func MustCompute(decls string) *Computed {
	c, err := ComputeInline(decls, nil)
	if err != nil {
		panic(err)
	}
	return c
}

func invalid(v string) error {
	return fmt.Errorf("%w: %q", ErrInvalidValue, v)
}

func parseInto[T any](parse func(string) (T, bool), field func(*Computed) *T) propertyHandler {
	return func(c *Computed, v string) error {
		val, ok := parse(strings.ToLower(v))
		if !ok {
			return invalid(v)
		}
		*field(c) = val
		return nil
	}
}

func keyword[T any](names map[string]T, field func(*Computed) *T) propertyHandler {
	return parseInto(func(s string) (T, bool) {
		val, ok := names[s]
		return val, ok
	}, field)
}

// ParseSize parses a sizing value. allowNone is set for max-width and max-height.
func ParseSize(v string, allowNone bool) (Size, error) {
	switch strings.ToLower(v) {
	case "auto":
		if allowNone {
			return Size{}, invalid(v)
		}
		return SizeAutoValue, nil
	case "none":
		if !allowNone {
			return Size{}, invalid(v)
		}
		return SizeNoneValue, nil
	case "min-content":
		return Size{Kind: SizeMinContent}, nil
	case "max-content":
		return Size{Kind: SizeMaxContent}, nil
	case "fit-content":
		return Size{Kind: SizeFitContent}, nil
	}
	if inner, ok := strings.CutPrefix(strings.ToLower(v), "fit-content("); ok {
		e, err := ParseExpr(strings.TrimSuffix(inner, ")"))
		if err != nil {
			return Size{}, err
		}
		return Size{Kind: SizeFitContent, Value: e}, nil
	}
	e, err := ParseExpr(v)
	if err != nil {
		return Size{}, err
	}
	return SizeOf(e), nil
}

func sizeProp(field func(*Computed) *Size, allowNone bool) propertyHandler {
	return func(c *Computed, v string) error {
		s, err := ParseSize(v, allowNone)
		if err != nil {
			return err
		}
		*field(c) = s
		return nil
	}
}

// ParseWidth parses auto or a length-percentage.
func ParseWidth(v string) (Width, error) {
	if strings.EqualFold(v, "auto") {
		return WidthAuto, nil
	}
	e, err := ParseExpr(v)
	if err != nil {
		return Width{}, err
	}
	return WidthOf(e), nil
}

func widthProp(field func(*Computed) *Width) propertyHandler {
	return func(c *Computed, v string) error {
		w, err := ParseWidth(v)
		if err != nil {
			return err
		}
		*field(c) = w
		return nil
	}
}

func exprProp(field func(*Computed) *Expr) propertyHandler {
	return func(c *Computed, v string) error {
		e, err := ParseExpr(v)
		if err != nil {
			return err
		}
		*field(c) = e
		return nil
	}
}

// ParseLineWidth parses a border or outline width, keywords included.
func ParseLineWidth(v string) (Length, error) {
	switch strings.ToLower(v) {
	case "thin":
		return Px(1), nil
	case "medium":
		return Px(3), nil
	case "thick":
		return Px(5), nil
	}
	l, ok := ParseLength(v)
	if !ok {
		return Length{}, invalid(v)
	}
	return l, nil
}

func lineWidthProp(field func(*Computed) *Length) propertyHandler {
	return func(c *Computed, v string) error {
		l, err := ParseLineWidth(v)
		if err != nil {
			return err
		}
		*field(c) = l
		return nil
	}
}

// parseBackground accepts a color or a gradient, not the full shorthand.
func parseBackground(c *Computed, v string) error {
	if strings.Contains(strings.ToLower(v), "gradient(") {
		return parseBackgroundImage(c, v)
	}
	return colorProp(func(c *Computed) *Color { return &c.Background })(c, v)
}

func parseBackgroundImage(c *Computed, v string) error {
	if strings.EqualFold(v, "none") {
		c.BackgroundImage = nil
		return nil
	}
	g, err := ParseLinearGradient(v)
	if err != nil {
		return err
	}
	c.BackgroundImage = g
	return nil
}

func colorProp(field func(*Computed) *Color) propertyHandler {
	return func(c *Computed, v string) error {
		if strings.EqualFold(v, "currentcolor") {
			*field(c) = c.Color
			return nil
		}
		col, ok := ParseColor(v)
		if !ok {
			return invalid(v)
		}
		*field(c) = col
		return nil
	}
}

func numberProp(field func(*Computed) *float64) propertyHandler {
	return func(c *Computed, v string) error {
		n, err := strconv.ParseFloat(v, 64)
		if err != nil || n < 0 {
			return invalid(v)
		}
		*field(c) = n
		return nil
	}
}

func parseFlexBasis(c *Computed, v string) error {
	if strings.EqualFold(v, "content") {
		c.Flex.Basis = FlexBasis{Content: true}
		return nil
	}
	w, err := ParseWidth(v)
	if err != nil {
		return err
	}
	c.Flex.Basis = FlexBasis{Width: w}
	return nil
}

func parseBorderSpacing(c *Computed, v string) error {
	parts := strings.Fields(v)
	if len(parts) == 0 || len(parts) > 2 {
		return invalid(v)
	}
	h, ok := ParseLength(parts[0])
	if !ok {
		return invalid(v)
	}
	vert := h
	if len(parts) == 2 {
		if vert, ok = ParseLength(parts[1]); !ok {
			return invalid(v)
		}
	}
	c.Table.Spacing = BorderSpacing{Horizontal: h, Vertical: vert}
	return nil
}

func parseRadius(c *Computed, corner int, v string) error {
	parts := strings.Fields(v)
	if len(parts) == 0 || len(parts) > 2 {
		return invalid(v)
	}
	x, err := ParseExpr(parts[0])
	if err != nil {
		return err
	}
	y := x
	if len(parts) == 2 {
		if y, err = ParseExpr(parts[1]); err != nil {
			return err
		}
	}
	// vertical component first for the top-left and bottom-right corners,
	// horizontal first for the two others
	switch corner {
	case 0:
		c.Borders.Radii[0], c.Borders.Radii[1] = y, x
	case 1:
		c.Borders.Radii[2], c.Borders.Radii[3] = x, y
	case 2:
		c.Borders.Radii[4], c.Borders.Radii[5] = y, x
	case 3:
		c.Borders.Radii[6], c.Borders.Radii[7] = x, y
	}
	return nil
}

func parseFontSize(c *Computed, v string) error {
	if kind, ok := fontSizeNames[strings.ToLower(v)]; ok {
		c.Font.Size = FontSize{Kind: kind}
		return nil
	}
	e, err := ParseExpr(v)
	if err != nil {
		return err
	}
	c.Font.Size = FontSize{Kind: FontSizeLength, Value: e}
	return nil
}

func parseFontFamily(c *Computed, v string) error {
	var families []string
	for _, f := range strings.Split(v, ",") {
		f = strings.Trim(strings.TrimSpace(f), `"'`)
		if f != "" {
			families = append(families, f)
		}
	}
	if len(families) == 0 {
		return invalid(v)
	}
	c.Font.Families = families
	return nil
}

func parseFontWeight(c *Computed, v string) error {
	switch strings.ToLower(v) {
	case "normal":
		c.Font.Weight = 400
		return nil
	case "bold":
		c.Font.Weight = 700
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 || n > 1000 {
		return invalid(v)
	}
	c.Font.Weight = n
	return nil
}

func parseZIndex(c *Computed, v string) error {
	if strings.EqualFold(v, "auto") {
		c.ZIndexAuto = true
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return invalid(v)
	}
	c.ZIndex, c.ZIndexAuto = n, false
	return nil
}
