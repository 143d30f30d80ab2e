package layout

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"boxflow/pkg/css"
)

// noStop lets a formatting context run to its last child.
const noStop = -1

type usedSpacings struct {
	padding Insets
	borders Insets
	margin  Insets
}

func (s usedSpacings) spacing() Insets { return s.borders.Add(s.padding) }

func computeMargins(r Resolver, box *Box, input Input) Insets {
	d := box.Style.Display
	if d.IsTableInternal() || d == css.DisplayNone {
		return Insets{}
	}
	m := box.Style.Margin
	cb := input.ContainingBlock
	return Insets{
		Top:    r.ResolveWidth(m.Top, cb.Y),
		End:    r.ResolveWidth(m.End, cb.X),
		Bottom: r.ResolveWidth(m.Bottom, cb.Y),
		Start:  r.ResolveWidth(m.Start, cb.X),
	}
}

func computeBorders(r Resolver, box *Box) Insets {
	s := box.Style
	// Collapsed borders belong to the cells; the table draws them.
	if s.Display == css.DisplayTableBox && s.Table.Collapse == css.BorderCollapsed {
		return Insets{}
	}
	var res [4]float64
	for i := range res {
		side := s.Borders.Side(i)
		if side.Style == css.BorderNone || side.Style == css.BorderHidden {
			continue
		}
		res[i] = r.ResolveBorderWidth(side.Width)
	}
	return Insets{Top: res[0], End: res[1], Bottom: res[2], Start: res[3]}
}

func computePaddings(r Resolver, box *Box, cb Vec2) Insets {
	d := box.Style.Display
	if d.IsTableInternal() && d != css.DisplayTableCell {
		return Insets{}
	}
	p := box.Style.Padding
	return Insets{
		Top:    r.ResolveCalc(p.Top, cb.X),
		End:    r.ResolveCalc(p.End, cb.X),
		Bottom: r.ResolveCalc(p.Bottom, cb.X),
		Start:  r.ResolveCalc(p.Start, cb.X),
	}
}

func computeRadii(r Resolver, box *Box, size Vec2) Radii {
	rad := box.Style.Borders.Radii
	return Radii{
		A: r.ResolveCalc(rad[0], size.Y),
		B: r.ResolveCalc(rad[1], size.X),
		C: r.ResolveCalc(rad[2], size.X),
		D: r.ResolveCalc(rad[3], size.Y),
		E: r.ResolveCalc(rad[4], size.Y),
		F: r.ResolveCalc(rad[5], size.X),
		G: r.ResolveCalc(rad[6], size.X),
		H: r.ResolveCalc(rad[7], size.Y),
	}
}

// ComputeIntrinsicSize measures the border box of box under a min-content,
// max-content or stretch-to-fit probe. Probes never break.
func ComputeIntrinsicSize(t *Tree, box *Box, intrinsic IntrinsicSize, cb Vec2) Vec2 {
	if intrinsic == IntrinsicAuto {
		panic("layout: intrinsic size probe needs a non-auto mode")
	}
	r := newResolver(t, box)
	borders := computeBorders(r, box)
	padding := computePaddings(r, box, cb)
	return computeIntrinsicContentSize(t, box, intrinsic, cb).Add(padding.All()).Add(borders.All())
}

// computeIntrinsicContentSize is ComputeIntrinsicSize without the box's own
// borders and padding.
func computeIntrinsicContentSize(t *Tree, box *Box, intrinsic IntrinsicSize, cb Vec2) Vec2 {
	t.FC.EnterMonolithicBox()
	defer t.FC.LeaveMonolithicBox()
	return contentLayout(t, box, Input{Intrinsic: intrinsic, ContainingBlock: cb}, 0, noStop).Size
}

// specifiedWidth resolves a sizing value of the horizontal axis into a
// border-box width.
func specifiedWidth(t *Tree, box *Box, r Resolver, size css.Size, cb Vec2, spacing Insets) Opt {
	switch size.Kind {
	case css.SizeMinContent:
		return Some(ComputeIntrinsicSize(t, box, IntrinsicMinContent, cb).X)
	case css.SizeMaxContent:
		return Some(ComputeIntrinsicSize(t, box, IntrinsicMaxContent, cb).X)
	case css.SizeFitContent:
		lo := ComputeIntrinsicSize(t, box, IntrinsicMinContent, cb).X
		hi := ComputeIntrinsicSize(t, box, IntrinsicMaxContent, cb).X
		stretch := ComputeIntrinsicSize(t, box, IntrinsicStretchToFit, cb).X
		return Some(clamp(stretch, lo, hi))
	case css.SizeAuto, css.SizeNone:
		return None
	case css.SizeLength:
		v := r.ResolveCalc(size.Value, cb.X)
		if box.Style.BoxSizing == css.ContentBox {
			v += spacing.Horizontal()
		}
		return Some(v)
	}
	logger.Warn("unknown specified size", zap.Stringer("size", size))
	return Some(0)
}

// specifiedHeight only knows lengths: intrinsic block sizes are the automatic size.
func specifiedHeight(box *Box, r Resolver, size css.Size, cb Vec2, spacing Insets) Opt {
	switch size.Kind {
	case css.SizeMinContent, css.SizeMaxContent, css.SizeFitContent, css.SizeAuto, css.SizeNone:
		return None
	case css.SizeLength:
		v := r.ResolveCalc(size.Value, cb.Y)
		if box.Style.BoxSizing == css.ContentBox {
			v += spacing.Vertical()
		}
		return Some(v)
	}
	logger.Warn("unknown specified size", zap.Stringer("size", size))
	return Some(0)
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// clampKnownSize applies min/max-width and min/max-height to known sizes.
func clampKnownSize(box *Box, r Resolver, known OptVec2, cb Vec2, spacing Insets) OptVec2 {
	sizing := box.Style.Sizing
	bound := func(s css.Size, rel, extra float64) (float64, bool) {
		if !s.IsLength() {
			return 0, false
		}
		v := r.ResolveCalc(s.Value, rel)
		if box.Style.BoxSizing == css.ContentBox {
			v += extra
		}
		return v, true
	}
	apply := func(o Opt, lo, hi css.Size, rel, extra float64) Opt {
		if !o.Set {
			return o
		}
		v := o.Val
		if m, ok := bound(hi, rel, extra); ok {
			v = min(v, m)
		}
		if m, ok := bound(lo, rel, extra); ok {
			v = max(v, m)
		}
		return Some(v)
	}
	known.X = apply(known.X, sizing.MinWidth, sizing.MaxWidth, cb.X, spacing.Horizontal())
	known.Y = apply(known.Y, sizing.MinHeight, sizing.MaxHeight, cb.Y, spacing.Vertical())
	return known
}

// Layout lays out box and, when input carries a fragment, commits it.
// input.KnownSize is a border-box size; the returned size is the border box.
func Layout(t *Tree, box *Box, input Input) Output {
	if box.Style.Display == css.DisplayNone {
		return OutputFromSize(Vec2{})
	}
	r := newResolver(t, box)
	sp := usedSpacings{
		padding: computePaddings(r, box, input.ContainingBlock),
		borders: computeBorders(r, box),
		margin:  computeMargins(r, box, input),
	}
	spacing := sp.spacing()
	sizing := box.Style.Sizing

	if !input.KnownSize.X.Set {
		input.KnownSize.X = specifiedWidth(t, box, r, sizing.Width, input.ContainingBlock, spacing)
	}
	if !input.KnownSize.Y.Set {
		input.KnownSize.Y = specifiedHeight(box, r, sizing.Height, input.ContainingBlock, spacing)
	}
	input.KnownSize = clampKnownSize(box, r, input.KnownSize, input.ContainingBlock, spacing)

	if input.Intrinsic.IsMinMax() {
		switch sizing.Width.Kind {
		case css.SizeMinContent:
			input.Intrinsic = IntrinsicMinContent
		case css.SizeMaxContent:
			input.Intrinsic = IntrinsicMaxContent
		}
	}

	if input.Committing() {
		return layoutAndCommitBorderBox(t, box, input, sp)
	}
	return layoutBorderBox(t, box, input, sp)
}

func adaptToContentBox(input Input, sp usedSpacings) Input {
	b, p := sp.borders, sp.padding
	input.KnownSize.X = input.KnownSize.X.Map(func(v float64) float64 {
		return max(0, v-b.Horizontal()-p.Horizontal())
	})
	input.KnownSize.Y = input.KnownSize.Y.Map(func(v float64) float64 {
		return max(0, v-b.Vertical()-p.Vertical())
	})
	input.Position = input.Position.Add(b.TopStart()).Add(p.TopStart())
	input.PendingVerticalSizes += b.Bottom + p.Bottom
	return input
}

func layoutBorderBox(t *Tree, box *Box, input Input, sp usedSpacings) Output {
	input = adaptToContentBox(input, sp)
	out := layoutContentBox(t, box, input)
	out.Size = out.Size.Add(sp.spacing().All())
	return out
}

func layoutAndCommitBorderBox(t *Tree, box *Box, input Input, sp usedSpacings) Output {
	parent := input.Fragment
	input = adaptToContentBox(input, sp)

	frag := NewFrag(box)
	out := layoutContentBox(t, box, input.WithFragment(frag))

	r := newResolver(t, box)
	borderSize := out.Size.Add(sp.spacing().All())
	frag.Metrics = Metrics{
		Padding:       sp.padding,
		Borders:       sp.borders,
		OutlineOffset: r.Resolve(box.Style.Outline.Offset),
		OutlineWidth:  r.ResolveBorderWidth(box.Style.Outline.Width),
		Position:      input.Position.Sub(sp.borders.TopStart()).Sub(sp.padding.TopStart()),
		BorderSize:    borderSize,
		Margin:        sp.margin,
		Radii:         computeRadii(r, box, borderSize),
	}
	if box.Style.Outline.Style == css.BorderNone {
		frag.Metrics.OutlineWidth = 0
	}
	parent.Add(frag)

	out.Size = borderSize
	return out
}

func isMonolithicDisplay(box *Box) bool {
	switch box.Style.Display.Inside() {
	case css.InsideFlex, css.InsideGrid:
		return true
	}
	return false
}

func layoutContentBox(t *Tree, box *Box, input Input) Output {
	fc := &t.FC
	monolithic := isMonolithicDisplay(box)

	startAt := 0
	if fc.AllowBreak() {
		startAt, _ = input.Breakpoints.Start()
	}

	if fc.IsDiscoveryMode() {
		if !fc.AcceptsFit(input.Position.Y, 0, input.PendingVerticalSizes) {
			return Output{CompletelyLaidOut: false, Breakpoint: Overflow()}
		}
		if monolithic {
			fc.EnterMonolithicBox()
		}
		out := contentLayout(t, box, input, startAt, noStop)
		if !out.CompletelyLaidOut && out.Breakpoint == nil {
			panic("layout: a box that was not completely laid out must report a breakpoint")
		}
		if monolithic {
			fc.LeaveMonolithicBox()
			// bottom of content of the outermost monolithic box
			if fc.IsMonolithicBox() {
				if !out.CompletelyLaidOut {
					panic("layout: monolithic boxes are always completely laid out")
				}
				out.Breakpoint = &Breakpoint{
					EndIdx:  len(box.Children),
					Appeal:  AppealClassB,
					Advance: AdvanceWithoutChildren,
				}
			}
		}
		out = finishContentOutput(fc, input, out)
		return out
	}

	stopAt := noStop
	if fc.AllowBreak() {
		if end, ok := input.Breakpoints.End(); ok {
			stopAt = end
		}
	}
	if monolithic {
		fc.EnterMonolithicBox()
	}
	out := contentLayout(t, box, input, startAt, stopAt)
	if monolithic {
		fc.LeaveMonolithicBox()
	}
	out.Breakpoint = nil
	return finishContentOutput(fc, input, out)
}

// finishContentOutput applies the known content size. The block size is only
// fixed when the box was not cut by a break.
func finishContentOutput(fc *Fragmentainer, input Input, out Output) Output {
	out.Size.X = input.KnownSize.X.Or(out.Size.X)
	if !fc.AllowBreak() || out.CompletelyLaidOut {
		out.Size.Y = input.KnownSize.Y.Or(out.Size.Y)
	}
	return out
}

var gridOnce sync.Once

// contentLayout runs the formatting context of box over children
// [startAt, stopAt).
func contentLayout(t *Tree, box *Box, input Input, startAt, stopAt int) Output {
	switch {
	case box.IsReplaced():
		return imageLayout(t, box, input)
	case box.IsText():
		return textLayout(t, box, input)
	}
	switch d := box.Style.Display; d {
	case css.DisplayTableBox:
		return tableLayout(t, box, input, startAt, stopAt)
	case css.DisplayFlex, css.DisplayInlineFlex:
		return flexLayout(t, box, input)
	case css.DisplayGrid, css.DisplayInlineGrid:
		gridOnce.Do(func() {
			logger.Debug("grid layout is not implemented, using block flow", zap.Stringer("display", d))
		})
		return blockLayout(t, box, input, startAt, stopAt)
	case css.DisplayTableRowGroup, css.DisplayTableHeaderGroup, css.DisplayTableFooterGroup,
		css.DisplayTableRow, css.DisplayTableColumnGroup, css.DisplayTableColumn:
		// laid out by their table
		return Output{}
	default:
		return blockLayout(t, box, input, startAt, stopAt)
	}
}

// LayoutRoot measures the root box.
func LayoutRoot(t *Tree, input Input) Output {
	return Layout(t, t.Root, input.WithFragment(nil))
}

// LayoutAndCommitRoot lays out the root box and stores the resulting fragment
// in t.Frag.
func LayoutAndCommitRoot(t *Tree, input Input) (Output, *Frag) {
	parent := NewFrag(nil)
	out := Layout(t, t.Root, input.WithFragment(parent))
	if len(parent.Children) != 1 {
		panic(fmt.Sprintf("layout: root committed %d fragments", len(parent.Children)))
	}
	t.Frag = parent.Children[0]
	return out, t.Frag
}

// Commit lays out the root against the small viewport in an unfragmented
// context and returns the committed fragment.
func (t *Tree) Commit() *Frag {
	size := Vec2{t.Viewport.Small.W, t.Viewport.Small.H}
	_, frag := LayoutAndCommitRoot(t, Input{
		KnownSize:       OptVec2{X: Some(size.X)},
		AvailableSpace:  size,
		ContainingBlock: size,
	})
	return frag
}
