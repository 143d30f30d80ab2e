package layout

import (
	"math"
	"slices"

	"go.uber.org/zap"

	"boxflow/pkg/css"
)

// Indexes into Insets-like arrays, in css.BordersProps.Side order.
const (
	sideTop = iota
	sideEnd
	sideBottom
	sideStart
)

func (i Insets) side(s int) float64 {
	switch s {
	case sideTop:
		return i.Top
	case sideEnd:
		return i.End
	case sideBottom:
		return i.Bottom
	}
	return i.Start
}

func edge[T any](e css.Edges[T], s int) T {
	switch s {
	case sideTop:
		return e.Top
	case sideEnd:
		return e.End
	case sideBottom:
		return e.Bottom
	}
	return e.Start
}

// optInsets are margins that may still be unresolved.
type optInsets [4]Opt

// flexAxis maps main/cross accessors onto physical axes.
type flexAxis struct {
	row bool
}

func (fa flexAxis) mainAxis() css.Axis {
	if fa.row {
		return css.Horizontal
	}
	return css.Vertical
}

func (fa flexAxis) crossAxis() css.Axis { return fa.mainAxis().Cross() }

func (fa flexAxis) main(v Vec2) float64 {
	if fa.row {
		return v.X
	}
	return v.Y
}

func (fa flexAxis) cross(v Vec2) float64 {
	if fa.row {
		return v.Y
	}
	return v.X
}

func (fa flexAxis) setMain(v *Vec2, x float64) {
	if fa.row {
		v.X = x
	} else {
		v.Y = x
	}
}

func (fa flexAxis) setCross(v *Vec2, x float64) {
	if fa.row {
		v.Y = x
	} else {
		v.X = x
	}
}

func (fa flexAxis) crossOpt(v OptVec2) Opt {
	if fa.row {
		return v.Y
	}
	return v.X
}

func (fa flexAxis) pair(main, cross float64) Vec2 {
	if fa.row {
		return Vec2{main, cross}
	}
	return Vec2{cross, main}
}

// mainAndOther keeps the main axis of base and fills the cross axis with other.
func (fa flexAxis) mainAndOther(base Vec2, other Opt) OptVec2 {
	if fa.row {
		return OptVec2{Some(base.X), other}
	}
	return OptVec2{other, Some(base.Y)}
}

func (fa flexAxis) startMain() int {
	if fa.row {
		return sideStart
	}
	return sideTop
}

func (fa flexAxis) endMain() int {
	if fa.row {
		return sideEnd
	}
	return sideBottom
}

func (fa flexAxis) startCross() int {
	if fa.row {
		return sideTop
	}
	return sideStart
}

func (fa flexAxis) endCross() int {
	if fa.row {
		return sideBottom
	}
	return sideEnd
}

func (fa flexAxis) mainInsets(i Insets) float64 {
	if fa.row {
		return i.Horizontal()
	}
	return i.Vertical()
}

func (fa flexAxis) mainSize(s css.SizingProps) css.Size  { return s.Size(fa.mainAxis()) }
func (fa flexAxis) crossSize(s css.SizingProps) css.Size { return s.Size(fa.crossAxis()) }

type marginPosition uint8

const (
	startCross marginPosition = iota
	startMain
	endMain
	endCross
	bothMain
	bothCross
)

// flexItem is one child of a flex container. Sizes are border-box sizes and
// do not include margins.
type flexItem struct {
	t     *Tree
	r     Resolver
	box   *Box
	props css.FlexProps
	fa    flexAxis

	spacing Insets

	usedSize Vec2
	margin   optInsets

	// position relative to the flex line
	position Vec2

	flexBaseSize, hypoMainSize float64

	speculativeSize   Vec2
	speculativeMargin Insets

	minContentSize, maxContentSize Vec2
}

func newFlexItem(t *Tree, box *Box, fa flexAxis, cb Vec2) *flexItem {
	r := newResolver(t, box)
	i := &flexItem{
		t:       t,
		r:       r,
		box:     box,
		props:   box.Style.Flex,
		fa:      fa,
		spacing: computeBorders(r, box).Add(computePaddings(r, box, cb)),
	}
	i.speculateValues(Input{})
	i.minContentSize = ComputeIntrinsicSize(t, box, IntrinsicMinContent, cb)
	i.maxContentSize = ComputeIntrinsicSize(t, box, IntrinsicMaxContent, cb)
	return i
}

func (i *flexItem) speculateValues(input Input) {
	i.speculativeSize = Layout(i.t, i.box, input.WithFragment(nil)).Size
	i.speculativeMargin = computeMargins(i.r, i.box, Input{ContainingBlock: input.AvailableSpace})
}

func (i *flexItem) marginSide(s int) float64 {
	return i.margin[s].Or(i.speculativeMargin.side(s))
}

func (i *flexItem) getMargin(p marginPosition) float64 {
	fa := i.fa
	switch p {
	case startCross:
		return i.marginSide(fa.startCross())
	case startMain:
		return i.marginSide(fa.startMain())
	case endMain:
		return i.marginSide(fa.endMain())
	case endCross:
		return i.marginSide(fa.endCross())
	case bothMain:
		return i.marginSide(fa.startMain()) + i.marginSide(fa.endMain())
	}
	return i.marginSide(fa.startCross()) + i.marginSide(fa.endCross())
}

// usedMargins are the margins committed into the fragment.
func (i *flexItem) usedMargins() Insets {
	return Insets{
		Top:    i.marginSide(sideTop),
		End:    i.marginSide(sideEnd),
		Bottom: i.marginSide(sideBottom),
		Start:  i.marginSide(sideStart),
	}
}

func (i *flexItem) styleMarginAuto(s int) bool { return edge(i.box.Style.Margin, s).Auto }

func (i *flexItem) hasAnyCrossMarginAuto() bool {
	return i.styleMarginAuto(i.fa.startCross()) || i.styleMarginAuto(i.fa.endCross())
}

func (i *flexItem) scaledFlexShrinkFactor() float64 {
	return i.flexBaseSize * i.props.Shrink
}

// resolveBorderBox resolves a sizing length on axis into a border-box length.
func (i *flexItem) resolveBorderBox(e css.Expr, axis css.Axis, rel float64) float64 {
	v := i.r.ResolveCalc(e, rel)
	if i.box.Style.BoxSizing == css.ContentBox {
		if axis == css.Horizontal {
			v += i.spacing.Horizontal()
		} else {
			v += i.spacing.Vertical()
		}
	}
	return v
}

func axisOf(v Vec2, a css.Axis) float64 {
	if a == css.Horizontal {
		return v.X
	}
	return v.Y
}

// computeFlexBaseSize
//
// See CSS Flexbox §9.2.3.
func (i *flexItem) computeFlexBaseSize(mainContainerSize float64, containerSizing IntrinsicSize) {
	axis := i.fa.mainAxis()
	basis := i.props.Basis
	if !basis.Content {
		if !basis.Width.Auto {
			i.flexBaseSize = i.resolveBorderBox(basis.Width.Value, axis, mainContainerSize)
			return
		}
		if s := i.fa.mainSize(i.box.Style.Sizing); s.IsLength() {
			i.flexBaseSize = i.resolveBorderBox(s.Value, axis, mainContainerSize)
			return
		}
	}

	if containerSizing.IsMinMax() {
		if containerSizing == IntrinsicMinContent {
			i.flexBaseSize = i.fa.main(i.minContentSize)
		} else {
			i.flexBaseSize = i.fa.main(i.maxContentSize)
		}
		return
	}

	// TODO: aspect-ratio based flex base size (CSS Flexbox §9.2.3 B).
	i.flexBaseSize = i.fa.main(i.maxContentSize)
}

func (i *flexItem) computeHypotheticalMainSize(containerSize Vec2) {
	i.hypoMainSize = clamp(
		i.flexBaseSize,
		i.minMaxPreferredSize(i.fa.row, true, containerSize),
		i.minMaxPreferredSize(i.fa.row, false, containerSize),
	)
}

// minAutoPrefMainSize is the automatic minimum size on the main axis.
//
// See CSS Flexbox §4.5.
func (i *flexItem) minAutoPrefMainSize(containerSize Vec2) float64 {
	axis := i.fa.mainAxis()
	rel := i.fa.main(containerSize)

	definiteMax := None
	if maxSize := i.box.Style.Sizing.MaxSize(axis); maxSize.IsLength() {
		definiteMax = Some(i.resolveBorderBox(maxSize.Value, axis, rel))
	}

	contentSuggestion := i.fa.main(i.minContentSize)
	if definiteMax.Set {
		contentSuggestion = min(contentSuggestion, definiteMax.Val)
	}

	if s := i.fa.mainSize(i.box.Style.Sizing); s.IsLength() {
		specifiedSuggestion := i.resolveBorderBox(s.Value, axis, rel)
		if definiteMax.Set {
			specifiedSuggestion = min(specifiedSuggestion, definiteMax.Val)
		}
		return min(contentSuggestion, specifiedSuggestion)
	}
	return contentSuggestion
}

func (i *flexItem) minMaxPreferredSize(isWidth, isMin bool, containerSize Vec2) float64 {
	sizing := i.box.Style.Sizing
	axis := css.Vertical
	if isWidth {
		axis = css.Horizontal
	}
	size := sizing.MaxSize(axis)
	if isMin {
		size = sizing.MinSize(axis)
	}

	switch size.Kind {
	case css.SizeLength:
		return i.resolveBorderBox(size.Value, axis, axisOf(containerSize, axis))
	case css.SizeMinContent:
		return axisOf(i.minContentSize, axis)
	case css.SizeMaxContent:
		return axisOf(i.maxContentSize, axis)
	case css.SizeFitContent:
		logger.Warn("fit-content is not implemented for flex items, treating it as none",
			zap.String("property", "min/max size"))
		if !isMin {
			return math.Inf(1)
		}
		return i.autoMinSize(isWidth, containerSize)
	case css.SizeAuto:
		if !isMin {
			panic("layout: auto is an invalid value for a max size")
		}
		return i.autoMinSize(isWidth, containerSize)
	case css.SizeNone:
		if isMin {
			panic("layout: none is an invalid value for a min size")
		}
		return math.Inf(1)
	}
	panic("layout: unknown size kind")
}

// autoMinSize resolves min-width/height: auto. Cross sizes resolve to zero.
func (i *flexItem) autoMinSize(isWidth bool, containerSize Vec2) float64 {
	if isWidth == i.fa.row {
		return i.minAutoPrefMainSize(containerSize)
	}
	return 0
}

func (i *flexItem) mainLimits(containerSize Vec2) (float64, float64) {
	return i.minMaxPreferredSize(i.fa.row, true, containerSize),
		i.minMaxPreferredSize(i.fa.row, false, containerSize)
}

func (i *flexItem) crossLimits(containerSize Vec2) (float64, float64) {
	return i.minMaxPreferredSize(!i.fa.row, true, containerSize),
		i.minMaxPreferredSize(!i.fa.row, false, containerSize)
}

func (i *flexItem) outerFlexBaseSize() float64 {
	return i.flexBaseSize + i.getMargin(bothMain)
}

// mainContentContribution
//
// See CSS Flexbox §9.9.3.
func (i *flexItem) mainContentContribution(isMin bool, containerSize Vec2) float64 {
	content := i.maxContentSize
	if isMin {
		content = i.minContentSize
	}
	contribution := i.fa.main(content) + i.getMargin(bothMain)

	switch s := i.fa.mainSize(i.box.Style.Sizing); {
	case s.IsLength():
		v := i.resolveBorderBox(s.Value, i.fa.mainAxis(), i.fa.main(containerSize))
		contribution = max(contribution, v+i.getMargin(bothMain))
	case s.Kind == css.SizeMinContent:
		contribution = max(contribution, i.fa.main(i.minContentSize)+i.getMargin(bothMain))
	case s.IsAuto() && !isMin:
		contribution = max(contribution, i.fa.main(i.speculativeSize))
	}

	outerBase := i.outerFlexBaseSize()
	if i.props.Grow == 0 {
		contribution = min(contribution, outerBase)
	}
	if i.props.Shrink == 0 {
		contribution = max(contribution, outerBase)
	}

	lo, hi := i.mainLimits(containerSize)
	return clamp(contribution, lo, hi)
}

func (i *flexItem) crossContentContribution(isMin bool, containerSize Vec2) float64 {
	content := i.maxContentSize
	if isMin {
		content = i.minContentSize
	}
	contribution := i.getMargin(bothCross) + i.fa.cross(content)

	if s := i.fa.crossSize(i.box.Style.Sizing); s.IsLength() {
		v := i.resolveBorderBox(s.Value, i.fa.crossAxis(), i.fa.cross(containerSize))
		contribution = max(contribution, v+i.getMargin(bothCross))
	}

	lo, hi := i.crossLimits(containerSize)
	return clamp(contribution, lo, hi)
}

func (i *flexItem) alignCrossFlexStart() {
	if !i.hasAnyCrossMarginAuto() {
		i.fa.setCross(&i.position, i.getMargin(startCross))
	}
}

func (i *flexItem) alignCrossFlexEnd(lineCrossSize float64) {
	if !i.hasAnyCrossMarginAuto() {
		i.fa.setCross(&i.position, lineCrossSize-i.fa.cross(i.usedSize)-i.getMargin(endCross))
	}
}

func (i *flexItem) alignCrossCenter(lineCrossSize float64) {
	if !i.hasAnyCrossMarginAuto() {
		start := (lineCrossSize - i.fa.cross(i.usedSize) - i.getMargin(bothCross)) / 2
		i.fa.setCross(&i.position, start+i.getMargin(startCross))
	}
}

func (i *flexItem) alignCrossStretch(lineCrossSize float64) {
	if i.fa.crossSize(i.box.Style.Sizing).IsAuto() && !i.hasAnyCrossMarginAuto() {
		cross := lineCrossSize - i.getMargin(bothCross)
		i.speculateValues(Input{KnownSize: i.fa.mainAndOther(i.usedSize, Some(cross))})
	}
	i.fa.setCross(&i.position, i.getMargin(startCross))
}

// resolvedAlign is align-self with auto replaced by the container's align-items.
func (i *flexItem) resolvedAlign(parentAlignItems css.Align) css.Align {
	align := i.box.Style.Aligns.AlignSelf
	if align == css.AlignAuto {
		align = parentAlignItems
	}
	switch align {
	case css.AlignNormal:
		return css.AlignStretch
	case css.AlignStart, css.AlignLeft:
		return css.AlignFlexStart
	case css.AlignEnd, css.AlignRight:
		return css.AlignFlexEnd
	}
	return align
}

func (i *flexItem) alignItem(lineCrossSize float64, parentAlignItems css.Align) {
	switch align := i.resolvedAlign(parentAlignItems); {
	case align == css.AlignFlexEnd:
		i.alignCrossFlexEnd(lineCrossSize)
	case align == css.AlignCenter:
		i.alignCrossCenter(lineCrossSize)
	case align.IsBaseline():
		logger.Warn("baseline alignment is not implemented, using flex-start", zap.Stringer("align", align))
		i.alignCrossFlexStart()
	case align == css.AlignStretch:
		i.alignCrossStretch(lineCrossSize)
	default:
		i.alignCrossFlexStart()
	}
}

type flexLine struct {
	items     []*flexItem
	crossSize float64
	position  Vec2
	fa        flexAxis
}

func (l *flexLine) placeMain(start, gap float64) {
	pos := start
	for _, item := range l.items {
		l.fa.setMain(&item.position, pos+item.getMargin(startMain))
		pos += l.fa.main(item.usedSize) + item.getMargin(bothMain) + gap
	}
}

// justifyContent positions items on the main axis. It never changes sizes.
//
// See CSS Box Alignment §5.1.
func (l *flexLine) justifyContent(justify css.Align, mainSize, occupiedSize float64) {
	free := mainSize - occupiedSize
	n := float64(len(l.items))
	switch justify {
	case css.AlignSpaceAround:
		if occupiedSize > mainSize || len(l.items) == 1 {
			l.placeMain(free/2, 0)
		} else {
			gap := free / n
			l.placeMain(gap/2, gap)
		}
	case css.AlignSpaceBetween:
		if len(l.items) <= 1 {
			l.placeMain(0, 0)
		} else {
			l.placeMain(0, free/(n-1))
		}
	case css.AlignSpaceEvenly:
		if occupiedSize > mainSize {
			l.placeMain(free/2, 0)
		} else {
			gap := free / (n + 1)
			l.placeMain(gap, gap)
		}
	case css.AlignCenter:
		l.placeMain(free/2, 0)
	case css.AlignFlexEnd, css.AlignEnd, css.AlignRight:
		l.placeMain(free, 0)
	default:
		l.placeMain(0, 0)
	}
}

// flexContext runs the flex layout algorithm over one container.
//
// See CSS Flexbox §9.
type flexContext struct {
	t    *Tree
	box  *Box
	flex css.FlexProps
	fa   flexAxis

	items []*flexItem
	lines []*flexLine

	availableSpace Vec2

	usedMainSize         float64
	usedCrossSizeByLines float64
	usedCrossSize        float64
}

// 1. Generate anonymous flex items
func (f *flexContext) generateItems(cb Vec2) {
	f.items = make([]*flexItem, 0, len(f.box.Children))
	for _, c := range f.box.Children {
		if c.Style.Display == css.DisplayNone || c.Style.Position.RemovesFromFlow() {
			continue
		}
		f.items = append(f.items, newFlexItem(f.t, c, f.fa, cb))
	}
}

// 2. Determine the available main and cross space
func (f *flexContext) determineAvailableSpace(input Input) {
	f.availableSpace = input.KnownSize.Or(input.AvailableSpace)

	// See CSS Flexbox §9.9.2.
	if input.Intrinsic.IsMinMax() && !f.fa.row && f.flex.Wrap == css.Wrap {
		cross := math.Inf(-1)
		for _, item := range f.items {
			cross = max(cross, item.crossContentContribution(input.Intrinsic == IntrinsicMinContent, f.availableSpace))
		}
		if len(f.items) > 0 {
			f.fa.setCross(&f.availableSpace, cross)
		}
	}
}

// 3. Determine the flex base size and hypothetical main size of each item
func (f *flexContext) determineFlexBaseSizes(containerSizing IntrinsicSize) {
	for _, item := range f.items {
		item.computeFlexBaseSize(f.fa.main(f.availableSpace), containerSizing)
		item.computeHypotheticalMainSize(f.availableSpace)

		// speculate margins before the following steps
		item.speculateValues(Input{
			KnownSize:      f.fa.mainAndOther(f.fa.pair(item.flexBaseSize, 0), None),
			AvailableSpace: f.availableSpace,
		})
	}
}

func (f *flexContext) flexFractions(input Input) []float64 {
	fractions := make([]float64, 0, len(f.items))
	for _, item := range f.items {
		contribution := item.mainContentContribution(input.Intrinsic == IntrinsicMinContent, f.availableSpace)
		fraction := contribution - item.outerFlexBaseSize()
		if fraction > 0 {
			fraction /= max(1, item.props.Grow)
		} else if fraction < 0 {
			fraction /= max(1, item.props.Shrink)
		}
		fractions = append(fractions, fraction)
	}
	return fractions
}

// computeIntrinsicMainSize
//
// See CSS Flexbox §9.9.1.
func (f *flexContext) computeIntrinsicMainSize(fractions []float64) {
	largest := math.Inf(-1)
	for _, fr := range fractions {
		largest = max(largest, fr)
	}

	sum := 0.0
	for _, item := range f.items {
		product := item.flexBaseSize
		if largest < 0 {
			product += largest / item.scaledFlexShrinkFactor()
		} else {
			product += largest * item.props.Grow
		}
		lo, hi := item.mainLimits(f.availableSpace)
		sum += clamp(product, lo, hi) + item.getMargin(bothMain)
	}
	f.usedMainSize = max(f.usedMainSize, sum)
}

// computeIntrinsicMainSizeRowNoWrap sums the items' contributions, keeping the
// flex base size of items that cannot grow or shrink towards it.
// See https://github.com/w3c/csswg-drafts/issues/8884.
func (f *flexContext) computeIntrinsicMainSizeRowNoWrap(isMin bool) {
	f.usedMainSize = 0
	for _, item := range f.items {
		contrib := item.mainContentContribution(isMin, f.availableSpace)
		outerBase := item.outerFlexBaseSize()
		cantMove := item.props.Grow == 0 && outerBase > contrib
		cantMove = cantMove || (item.props.Shrink == 0 && outerBase < contrib)
		if cantMove {
			f.usedMainSize += outerBase
		} else {
			f.usedMainSize += contrib
		}
	}
}

func (f *flexContext) computeIntrinsicMainSizeMinMultiline() {
	largest := math.Inf(-1)
	for _, item := range f.items {
		largest = max(largest, item.mainContentContribution(true, f.availableSpace))
	}
	f.usedMainSize = max(f.usedMainSize, largest)
}

// 4. Determine the main size of the flex container
func (f *flexContext) determineMainSize(input Input) {
	if f.fa.row {
		f.usedMainSize = input.KnownSize.X.Or(0)
	} else {
		f.usedMainSize = input.KnownSize.Y.Or(0)
	}

	switch input.Intrinsic {
	case IntrinsicMaxContent:
		if f.fa.row {
			// Chrome measures wrapping rows like non-wrapping ones.
			f.computeIntrinsicMainSizeRowNoWrap(false)
		} else {
			f.computeIntrinsicMainSize(f.flexFractions(input))
		}
	case IntrinsicMinContent:
		switch {
		case f.fa.row && f.flex.Wrap == css.NoWrap:
			f.computeIntrinsicMainSizeRowNoWrap(true)
		case f.fa.row:
			f.computeIntrinsicMainSizeMinMultiline()
		default:
			// Chrome keeps every item of a wrapping column on one line here.
			f.computeIntrinsicMainSize(f.flexFractions(input))
		}
	default:
		if !f.fa.row {
			switch f.box.Style.Sizing.Height.Kind {
			case css.SizeMaxContent, css.SizeMinContent, css.SizeAuto:
				f.computeIntrinsicMainSize(f.flexFractions(input))
			}
		}
	}
}

// 5. Collect flex items into flex lines
func (f *flexContext) collectLines() {
	f.lines = f.lines[:0]
	if f.flex.Wrap == css.NoWrap {
		f.lines = append(f.lines, &flexLine{items: f.items, fa: f.fa})
	} else {
		for si := 0; si < len(f.items); {
			ei := si
			lineSize := 0.0
			for ei < len(f.items) {
				contribution := f.items[ei].hypoMainSize + f.items[ei].getMargin(bothMain)
				if lineSize+contribution <= f.usedMainSize+0.01 || ei == si {
					lineSize += contribution
					ei++
					continue
				}
				break
			}
			f.lines = append(f.lines, &flexLine{items: f.items[si:ei], fa: f.fa})
			si = ei
		}
	}

	if f.flex.Direction.IsReverse() {
		for _, l := range f.lines {
			slices.Reverse(l.items)
		}
	}
}

// 6. Resolve the flexible lengths
func (f *flexContext) resolveFlexibleLengths() {
	for _, line := range f.lines {
		f.resolveLine(line)
	}
}

func (f *flexContext) resolveLine(line *flexLine) {
	fa := f.fa
	sumHypo := 0.0
	for _, item := range line.items {
		sumHypo += item.hypoMainSize + item.getMargin(bothMain)
	}
	matched := sumHypo == f.usedMainSize
	growing := sumHypo < f.usedMainSize

	var frozen, unfrozen []*flexItem
	sumFrozenOuter := 0.0
	for _, item := range line.items {
		if matched ||
			(growing && item.flexBaseSize > item.hypoMainSize) ||
			(!growing && item.flexBaseSize < item.hypoMainSize) ||
			(growing && item.props.Grow == 0) ||
			(!growing && item.props.Shrink == 0) {
			fa.setMain(&item.usedSize, item.hypoMainSize)
			frozen = append(frozen, item)
			sumFrozenOuter += fa.main(item.usedSize) + item.getMargin(bothMain)
		} else {
			fa.setMain(&item.usedSize, item.flexBaseSize)
			unfrozen = append(unfrozen, item)
		}
	}

	stats := func() (sumOuter, sumFactors float64) {
		for _, item := range unfrozen {
			sumOuter += item.flexBaseSize + item.getMargin(bothMain)
			if growing {
				sumFactors += item.props.Grow
			} else {
				sumFactors += item.props.Shrink
			}
		}
		return
	}

	clampItem := func(item *flexItem) float64 {
		lo, hi := item.mainLimits(f.availableSpace)
		return max(clamp(fa.main(item.usedSize), lo, hi), 0)
	}

	sumUnfrozenOuter, _ := stats()
	initialFreeSpace := f.usedMainSize - (sumUnfrozenOuter + sumFrozenOuter)

	for len(unfrozen) > 0 {
		sumUnfrozenOuter, sumFactors := stats()
		freeSpace := f.usedMainSize - (sumUnfrozenOuter + sumFrozenOuter)
		if sumFactors < 1 && math.Abs(initialFreeSpace*sumFactors) < math.Abs(freeSpace) {
			freeSpace = initialFreeSpace * sumFactors
		}

		if growing {
			for _, item := range unfrozen {
				fa.setMain(&item.usedSize, item.flexBaseSize+freeSpace*item.props.Grow/sumFactors)
			}
		} else {
			sumScaled := 0.0
			for _, item := range unfrozen {
				sumScaled += item.scaledFlexShrinkFactor()
			}
			// Zero base sizes leave nothing to shrink.
			for _, item := range unfrozen {
				ratio := 0.0
				if sumScaled > 0 {
					ratio = item.scaledFlexShrinkFactor() / sumScaled
				}
				fa.setMain(&item.usedSize, item.flexBaseSize-ratio*math.Abs(freeSpace))
			}
		}

		totalViolation := 0.0
		for _, item := range unfrozen {
			totalViolation += clampItem(item) - fa.main(item.usedSize)
		}
		for _, item := range frozen {
			totalViolation += clampItem(item) - fa.main(item.usedSize)
		}

		if totalViolation == 0 {
			for _, item := range unfrozen {
				fa.setMain(&item.usedSize, clampItem(item))
			}
			frozen = append(frozen, unfrozen...)
			unfrozen = nil
			break
		}

		var toFreeze []int
		for idx, item := range unfrozen {
			clamped := clampItem(item)
			if (totalViolation < 0 && clamped < fa.main(item.usedSize)) ||
				(totalViolation > 0 && clamped > fa.main(item.usedSize)) {
				toFreeze = append(toFreeze, idx)
			}
		}
		for _, item := range unfrozen {
			fa.setMain(&item.usedSize, clampItem(item))
		}
		if len(toFreeze) == 0 {
			// the violation comes from frozen items only
			frozen = append(frozen, unfrozen...)
			unfrozen = nil
			break
		}

		for j := len(toFreeze) - 1; j >= 0; j-- {
			idx := toFreeze[j]
			item := unfrozen[idx]
			sumFrozenOuter += fa.main(item.usedSize) + item.getMargin(bothMain)
			frozen = append(frozen, item)
			unfrozen = slices.Delete(unfrozen, idx, idx+1)
		}
	}
}

// 7. Determine the hypothetical cross size of each item
func (f *flexContext) determineHypotheticalCrossSizes() {
	for _, item := range f.items {
		availableCross := f.fa.cross(f.availableSpace) - item.getMargin(bothCross)
		intrinsic := IntrinsicAuto
		sizing := item.box.Style.Sizing
		if f.fa.mainSize(sizing).IsAuto() || f.fa.crossSize(sizing).IsAuto() {
			intrinsic = IntrinsicStretchToFit
		}
		item.speculateValues(Input{
			Intrinsic:      intrinsic,
			KnownSize:      f.fa.mainAndOther(item.usedSize, None),
			AvailableSpace: f.fa.pair(f.fa.main(item.usedSize), availableCross),
		})
	}
}

// 8. Calculate the cross size of each flex line
func (f *flexContext) calculateLineCrossSizes(input Input) {
	if input.Intrinsic.IsMinMax() {
		isMin := input.Intrinsic == IntrinsicMinContent
		for _, line := range f.lines {
			for _, item := range line.items {
				line.crossSize = max(line.crossSize, item.crossContentContribution(isMin, f.availableSpace))
			}
		}
		return
	}

	if cross := f.fa.crossOpt(input.KnownSize); len(f.lines) == 1 && cross.Set {
		f.lines[0].crossSize = cross.Val
		return
	}

	for _, line := range f.lines {
		maxOuterHypoCross := 0.0
		// TODO: baseline distances once items report baselines (CSS Flexbox §9.4.8.1).
		maxBaselineToStart, maxBaselineToEnd := 0.0, 0.0
		for _, item := range line.items {
			if item.resolvedAlign(f.box.Style.Aligns.AlignItems).IsBaseline() && !item.hasAnyCrossMarginAuto() {
				continue
			}
			maxOuterHypoCross = max(maxOuterHypoCross, f.fa.cross(item.speculativeSize)+item.getMargin(bothCross))
		}
		line.crossSize = max(maxOuterHypoCross, maxBaselineToStart+maxBaselineToEnd)
	}
}

// 9. Handle 'align-content: stretch'
func (f *flexContext) handleAlignContentStretch(input Input) {
	align := f.box.Style.Aligns.AlignContent
	if input.Intrinsic == IntrinsicMinContent || (align != css.AlignStretch && align != css.AlignNormal) {
		return
	}
	if f.fa.crossSize(f.box.Style.Sizing).IsAuto() && !f.fa.crossOpt(input.KnownSize).Set {
		return
	}
	sum := 0.0
	for _, line := range f.lines {
		sum += line.crossSize
	}
	if avail := f.fa.cross(f.availableSpace); avail > sum && len(f.lines) > 0 {
		extra := (avail - sum) / float64(len(f.lines))
		for _, line := range f.lines {
			line.crossSize += extra
		}
	}
}

// 10. Collapse visibility:collapse items
func (f *flexContext) collapseVisibilityCollapseItems() {
	for _, item := range f.items {
		if item.box.Style.Visibility == css.Collapse {
			logger.Warn("visibility: collapse is not implemented for flex items",
				zap.String("property", "visibility"))
		}
	}
}

// 11. Determine the used cross size of each flex item
func (f *flexContext) determineUsedCrossSizes(input Input) {
	for _, line := range f.lines {
		for _, item := range line.items {
			switch {
			case item.resolvedAlign(f.box.Style.Aligns.AlignItems) == css.AlignStretch &&
				f.fa.crossSize(item.box.Style.Sizing).IsAuto() &&
				!item.hasAnyCrossMarginAuto():
				lo, hi := item.crossLimits(f.availableSpace)
				f.fa.setCross(&item.usedSize, clamp(line.crossSize-item.getMargin(bothCross), lo, hi))
			case input.Intrinsic == IntrinsicMinContent:
				f.fa.setCross(&item.usedSize, item.crossContentContribution(true, f.availableSpace))
			case input.Intrinsic == IntrinsicMaxContent:
				f.fa.setCross(&item.usedSize, item.crossContentContribution(false, f.availableSpace))
			default:
				f.fa.setCross(&item.usedSize, f.fa.cross(item.speculativeSize))
			}
		}
	}
}

// 12. Distribute any remaining free space
func (f *flexContext) distributeRemainingFreeSpace(input Input) {
	fa := f.fa
	for _, line := range f.lines {
		occupied := 0.0
		for _, item := range line.items {
			occupied += fa.main(item.usedSize) + item.getMargin(bothMain)
		}

		usedAutoMargins := false
		if f.usedMainSize > occupied {
			autos := 0
			for _, item := range line.items {
				if item.styleMarginAuto(fa.startMain()) {
					autos++
				}
				if item.styleMarginAuto(fa.endMain()) {
					autos++
				}
			}
			if autos > 0 {
				size := (f.usedMainSize - occupied) / float64(autos)
				for _, item := range line.items {
					if item.styleMarginAuto(fa.startMain()) {
						item.margin[fa.startMain()] = Some(size)
					}
					if item.styleMarginAuto(fa.endMain()) {
						item.margin[fa.endMain()] = Some(size)
					}
				}
				usedAutoMargins = true
				occupied = f.usedMainSize
			}
		}

		if !usedAutoMargins {
			for _, item := range line.items {
				if item.styleMarginAuto(fa.startMain()) {
					item.margin[fa.startMain()] = Some(0)
				}
				if item.styleMarginAuto(fa.endMain()) {
					item.margin[fa.endMain()] = Some(0)
				}
			}
		}

		// Justification only moves items, so it only runs on commit.
		if input.Committing() {
			justify := f.box.Style.Aligns.JustifyContent
			if f.flex.Direction.IsReverse() {
				switch justify {
				case css.AlignFlexStart, css.AlignNormal:
					justify = css.AlignFlexEnd
				case css.AlignFlexEnd:
					justify = css.AlignFlexStart
				}
			}
			line.justifyContent(justify, f.usedMainSize, occupied)
		}
	}
}

// 13. Resolve cross-axis auto margins
func (f *flexContext) resolveCrossAxisAutoMargins() {
	fa := f.fa
	for _, line := range f.lines {
		for _, item := range line.items {
			startAuto := item.styleMarginAuto(fa.startCross())
			endAuto := item.styleMarginAuto(fa.endCross())
			if !startAuto && !endAuto {
				continue
			}
			if fa.cross(item.usedSize)+item.getMargin(bothCross) < line.crossSize {
				switch {
				case !startAuto && endAuto:
					item.margin[fa.endCross()] = Some(line.crossSize - fa.cross(item.usedSize) - item.getMargin(startCross))
				case startAuto && !endAuto:
					item.margin[fa.startCross()] = Some(line.crossSize - fa.cross(item.usedSize) - item.getMargin(endCross))
				default:
					free := (line.crossSize - fa.cross(item.usedSize)) / 2
					item.margin[fa.startCross()] = Some(free)
					item.margin[fa.endCross()] = Some(free)
				}
				fa.setCross(&item.position, item.getMargin(startCross))
				continue
			}
			if startAuto {
				item.margin[fa.startCross()] = Some(0)
			}
			if line.crossSize > fa.cross(item.usedSize) {
				item.margin[fa.endCross()] = Some(line.crossSize - fa.cross(item.usedSize))
			}
		}
	}
}

// 14. Align all flex items along the cross-axis
func (f *flexContext) alignAllItems() {
	for _, line := range f.lines {
		for _, item := range line.items {
			item.alignItem(line.crossSize, f.box.Style.Aligns.AlignItems)
		}
	}
}

// 15. Determine the flex container's used cross size
func (f *flexContext) determineUsedCrossSize(input Input) {
	f.usedCrossSizeByLines = 0
	for _, line := range f.lines {
		f.usedCrossSizeByLines += line.crossSize
	}
	known := f.fa.crossOpt(input.KnownSize)
	switch {
	case input.Intrinsic.IsMinMax(), f.fa.crossSize(f.box.Style.Sizing).IsAuto() && !known.Set:
		f.usedCrossSize = f.usedCrossSizeByLines
	case known.Set:
		f.usedCrossSize = known.Val
	default:
		f.usedCrossSize = f.usedCrossSizeByLines
	}
}

// 16. Align all flex lines
func (f *flexContext) alignAllLines() {
	free := f.usedCrossSize - f.usedCrossSizeByLines
	place := func(start, gap float64) {
		pos := start
		for _, line := range f.lines {
			f.fa.setCross(&line.position, pos)
			pos += line.crossSize + gap
		}
	}
	n := float64(len(f.lines))

	switch f.box.Style.Aligns.AlignContent {
	case css.AlignFlexEnd, css.AlignEnd:
		place(free, 0)
	case css.AlignCenter:
		place(free/2, 0)
	case css.AlignSpaceAround:
		if free < 0 {
			place(free/2, 0)
		} else {
			gap := free / n
			place(gap/2, gap)
		}
	case css.AlignSpaceBetween:
		if free < 0 || len(f.lines) == 1 {
			place(0, 0)
		} else {
			place(0, free/(n-1))
		}
	default:
		place(0, 0)
	}
}

func (f *flexContext) commit(input Input) {
	for _, line := range f.lines {
		for _, item := range line.items {
			item.position = item.position.Add(line.position).Add(input.Position)
			Layout(f.t, item.box, Input{
				Fragment:        input.Fragment,
				KnownSize:       OptVec2{Some(item.usedSize.X), Some(item.usedSize.Y)},
				Position:        item.position,
				AvailableSpace:  item.usedSize,
				ContainingBlock: f.availableSpace,
			})
			children := input.Fragment.Children
			children[len(children)-1].Metrics.Margin = item.usedMargins()
		}
	}
}

func (f *flexContext) run(input Input) Output {
	f.generateItems(input.ContainingBlock)
	f.determineAvailableSpace(input)
	f.determineFlexBaseSizes(input.Intrinsic)
	f.determineMainSize(input)
	f.collectLines()
	f.resolveFlexibleLengths()
	f.determineHypotheticalCrossSizes()
	f.calculateLineCrossSizes(input)
	f.handleAlignContentStretch(input)
	f.collapseVisibilityCollapseItems()
	f.determineUsedCrossSizes(input)
	f.distributeRemainingFreeSpace(input)
	f.resolveCrossAxisAutoMargins()
	f.alignAllItems()
	f.determineUsedCrossSize(input)
	f.alignAllLines()

	if input.Committing() {
		f.commit(input)
	}
	return OutputFromSize(f.fa.pair(f.usedMainSize, f.usedCrossSize))
}

func flexLayout(t *Tree, box *Box, input Input) Output {
	f := &flexContext{
		t:    t,
		box:  box,
		flex: box.Style.Flex,
		fa:   flexAxis{row: box.Style.Flex.Direction.IsRow()},
	}
	return f.run(input)
}
