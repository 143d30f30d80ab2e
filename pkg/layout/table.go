package layout

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"boxflow/pkg/css"
)

// tableCell is one cell placed in the grid. Every slot it covers points to it.
type tableCell struct {
	box              *Box
	x, y             int
	rowSpan, colSpan int
}

func (c *tableCell) isAnchor(x, y int) bool { return c != nil && c.x == x && c.y == y }

// tableAxis is an inclusive range of grid columns or rows owned by a box.
type tableAxis struct {
	start, end int
	box        *Box
}

// axisAndGroup maps a grid row (or column) to its axis and group, or -1.
type axisAndGroup struct {
	group, axis int
}

func buildAxisAndGroups(axes, groups []tableAxis, n int) []axisAndGroup {
	res := make([]axisAndGroup, n)
	for i := range res {
		res[i] = axisAndGroup{group: -1, axis: -1}
	}
	for gi, g := range groups {
		for i := g.start; i <= g.end; i++ {
			res[i].group = gi
		}
	}
	for ai, a := range axes {
		for i := a.start; i <= a.end; i++ {
			res[i].axis = ai
		}
	}
	return res
}

type downwardGrowingCell struct {
	cell        *tableCell
	xpos, width int
}

// tableGrid is the slot grid of one table box, built once by the HTML
// table forming algorithm and cached on the box.
type tableGrid struct {
	slots [][]*tableCell // [y][x]
	w, h  int

	cols, rows           []tableAxis
	colGroups, rowGroups []tableAxis

	headerRows, footerRows int

	rowIdxs, colIdxs []axisAndGroup

	// forming state
	curX, curY   int
	downward     []downwardGrowingCell
	pendingFoots []int
}

// At returns the cell at column x, row y.
func (g *tableGrid) At(x, y int) *tableCell {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		panic(fmt.Sprintf("layout: bad coordinates for table slot (%d, %d) in %dx%d grid", x, y, g.w, g.h))
	}
	return g.slots[y][x]
}

func (g *tableGrid) set(x, y int, c *tableCell) {
	g.At(x, y)
	g.slots[y][x] = c
}

func (g *tableGrid) increaseWidth(span int) {
	for y := range g.slots {
		g.slots[y] = append(g.slots[y], make([]*tableCell, span)...)
	}
	g.w += span
}

func (g *tableGrid) increaseHeight(span int) {
	for i := 0; i < span; i++ {
		g.slots = append(g.slots, make([]*tableCell, g.w))
	}
	g.h += span
}

func spanOf(v int) int { return max(v, 1) }

// https://html.spec.whatwg.org/multipage/tables.html#algorithm-for-growing-downward-growing-cells
func (g *tableGrid) growDownwardGrowingCells() {
	for _, d := range g.downward {
		for x := d.xpos; x < d.xpos+d.width; x++ {
			g.set(x, g.curY, d.cell)
		}
		d.cell.rowSpan = g.curY - d.cell.y + 1
	}
}

// https://html.spec.whatwg.org/multipage/tables.html#algorithm-for-processing-rows
func (g *tableGrid) processRow(row *Box) {
	if g.h == g.curY {
		g.increaseHeight(1)
	}
	g.curX = 0
	g.growDownwardGrowingCells()

	for _, c := range row.Children {
		if c.Style.Display != css.DisplayTableCell {
			continue
		}
		for g.curX < g.w && g.At(g.curX, g.curY) != nil {
			g.curX++
		}
		if g.curX == g.w {
			g.increaseWidth(1)
		}

		rowSpan := c.Attrs.RowSpan
		colSpan := spanOf(c.Attrs.ColSpan)
		growsDownward := rowSpan == 0
		if growsDownward {
			rowSpan = 1
		}
		rowSpan = spanOf(rowSpan)
		colSpan, rowSpan = g.fitSpans(colSpan, rowSpan)

		if g.w < g.curX+colSpan {
			g.increaseWidth(g.curX + colSpan - g.w)
		}
		if g.h < g.curY+rowSpan {
			g.increaseHeight(g.curY + rowSpan - g.h)
		}

		cell := &tableCell{box: c, x: g.curX, y: g.curY, rowSpan: rowSpan, colSpan: colSpan}
		for x := g.curX; x < g.curX+colSpan; x++ {
			for y := g.curY; y < g.curY+rowSpan; y++ {
				g.set(x, y, cell)
			}
		}
		if growsDownward {
			g.downward = append(g.downward, downwardGrowingCell{cell: cell, xpos: g.curX, width: colSpan})
		}
		g.curX += colSpan
	}
	g.curY++
}

func (g *tableGrid) occupied(x, y int) bool {
	return x < g.w && y < g.h && g.slots[y][x] != nil
}

// fitSpans cuts the spans of a cell placed at the cursor back to free slots.
// Overlapping spans are a table model error; no two cells may share a slot.
func (g *tableGrid) fitSpans(colSpan, rowSpan int) (int, int) {
	for k := 1; k < colSpan; k++ {
		if g.occupied(g.curX+k, g.curY) {
			colSpan = k
			break
		}
	}
	for r := 1; r < rowSpan; r++ {
		for x := g.curX; x < g.curX+colSpan; x++ {
			if g.occupied(x, g.curY+r) {
				return colSpan, r
			}
		}
	}
	return colSpan, rowSpan
}

// https://html.spec.whatwg.org/multipage/tables.html#algorithm-for-ending-a-row-group
func (g *tableGrid) endRowGroup() {
	for g.curY < g.h {
		g.growDownwardGrowingCells()
		g.curY++
	}
	g.downward = g.downward[:0]
}

// https://html.spec.whatwg.org/multipage/tables.html#algorithm-for-processing-row-groups
func (g *tableGrid) processRowGroup(group *Box) {
	start := g.h
	for _, r := range group.Children {
		if r.Style.Display != css.DisplayTableRow {
			continue
		}
		y := g.curY
		g.processRow(r)
		g.rows = append(g.rows, tableAxis{start: y, end: y, box: r})
	}
	if g.h > start {
		g.rowGroups = append(g.rowGroups, tableAxis{start: start, end: g.h - 1, box: group})
	}
	g.endRowGroup()
}

func isHeadBodyFootRowOrColGroup(d css.Display) bool {
	return d.IsTableRowGroup() || d == css.DisplayTableRow || d == css.DisplayTableColumnGroup
}

// buildTableGrid runs the HTML table forming algorithm over a table box.
//
// https://html.spec.whatwg.org/multipage/tables.html#forming-a-table
func buildTableGrid(box *Box) *tableGrid {
	g := &tableGrid{}
	children := box.Children

	header := slices.IndexFunc(children, func(c *Box) bool {
		return c.Style.Display == css.DisplayTableHeaderGroup
	})

	i := 0
	advance := func() {
		for i < len(children) && !isHeadBodyFootRowOrColGroup(children[i].Style.Display) {
			i++
		}
	}
	advance()

	for ; i < len(children) && children[i].Style.Display == css.DisplayTableColumnGroup; advance() {
		group := children[i]
		start := g.w
		hasCols := false
		for _, col := range group.Children {
			if col.Style.Display != css.DisplayTableColumn {
				continue
			}
			hasCols = true
			span := spanOf(col.Attrs.Span)
			g.increaseWidth(span)
			g.cols = append(g.cols, tableAxis{start: g.w - span, end: g.w - 1, box: col})
		}
		if !hasCols {
			g.increaseWidth(spanOf(group.Attrs.Span))
		}
		g.colGroups = append(g.colGroups, tableAxis{start: start, end: g.w - 1, box: group})
		i++
	}

	g.curY = 0
	if header >= 0 {
		g.processRowGroup(children[header])
		g.headerRows = g.h
	}

	for ; i < len(children); i++ {
		c := children[i]
		switch d := c.Style.Display; {
		case d == css.DisplayTableRow:
			y := g.curY
			g.processRow(c)
			g.rows = append(g.rows, tableAxis{start: y, end: y, box: c})
		case d == css.DisplayTableFooterGroup:
			g.endRowGroup()
			g.pendingFoots = append(g.pendingFoots, i)
		case d == css.DisplayTableHeaderGroup, d == css.DisplayTableRowGroup:
			g.endRowGroup()
			if i != header {
				g.processRowGroup(c)
			}
		}
	}

	footStart := g.h
	for _, fi := range g.pendingFoots {
		g.processRowGroup(children[fi])
	}
	g.footerRows = g.h - footStart
	g.pendingFoots = nil

	g.rowIdxs = buildAxisAndGroups(g.rows, g.rowGroups, g.h)
	g.colIdxs = buildAxisAndGroups(g.cols, g.colGroups, g.w)
	return g
}

func (b *Box) grid() *tableGrid {
	if b.table == nil {
		b.table = buildTableGrid(b)
	}
	return b.table
}

// usedBorder is a border side after width resolution.
type usedBorder struct {
	width float64
	style css.BorderStyle
	color css.Color
}

func resolveUsedBorder(t *Tree, box *Box, side int) usedBorder {
	b := box.Style.Borders.Side(side)
	w := 0.0
	if b.Style != css.BorderNone {
		w = newResolver(t, box).Resolve(b.Width)
	}
	return usedBorder{width: w, style: b.Style, color: b.Color}
}

var orderedBorderStyles = []css.BorderStyle{
	css.BorderDouble,
	css.BorderSolid,
	css.BorderDashed,
	css.BorderDotted,
	css.BorderRidge,
	css.BorderOutset,
	css.BorderGroove,
	css.BorderInset,
	css.BorderNone,
}

func borderStyleRank(s css.BorderStyle) int {
	if i := slices.Index(orderedBorderStyles, s); i >= 0 {
		return i
	}
	return len(orderedBorderStyles)
}

// harmonizeBorders picks the winning border among conflicting candidates.
// Earlier candidates win ties.
//
// https://www.w3.org/TR/css-tables-3/#border-style-harmonization-algorithm
func harmonizeBorders(borders []usedBorder) usedBorder {
	best := usedBorder{style: css.BorderNone, color: css.Black}
	for _, c := range borders {
		bestHidden := best.style == css.BorderHidden
		candHidden := c.style == css.BorderHidden
		if bestHidden != candHidden {
			if candHidden {
				best = c
			}
			continue
		}
		if bestHidden {
			continue
		}
		if best.width > c.width {
			continue
		}
		if c.width > best.width {
			best = c
			continue
		}
		if borderStyleRank(c.style) < borderStyleRank(best.style) {
			best = c
		}
	}
	return best
}

// tableContext holds the sizing state of one table layout run.
type tableContext struct {
	t   *Tree
	box *Box
	g   *tableGrid

	collapse bool
	spacing  Vec2

	// per slot [y][x]
	borderWidths [][]Insets

	colWidth       []float64
	rowHeight      []float64
	tableUsedWidth float64

	colPref, rowPref prefixSum

	tableBoxSize, headerSize, footerSize Vec2

	dataFirst, dataLast int
	startPositionOfRow  []float64

	intrinsic *[2][]float64

	// committed row spans in this fragment, in grid rows
	rowTop, rowBottom []float64
	rowDone           []bool
}

type prefixSum []float64

func newPrefixSum(v []float64) prefixSum {
	p := slices.Clone(v)
	for i := 1; i < len(p); i++ {
		p[i] += p[i-1]
	}
	return p
}

// query sums the inclusive range [l, r].
func (p prefixSum) query(l, r int) float64 {
	if r < l {
		return 0
	}
	if l == 0 {
		return p[r]
	}
	return p[r] - p[l-1]
}

func sum(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x
	}
	return s
}

func newTableContext(t *Tree, box *Box) *tableContext {
	g := box.grid()
	c := &tableContext{
		t:        t,
		box:      box,
		g:        g,
		collapse: box.Style.Table.Collapse == css.BorderCollapsed,
	}
	if !c.collapse {
		r := newResolver(t, box)
		c.spacing = Vec2{r.Resolve(box.Style.Table.Spacing.Horizontal), r.Resolve(box.Style.Table.Spacing.Vertical)}
	}
	c.borderWidths = make([][]Insets, g.h)
	for y := range c.borderWidths {
		c.borderWidths[y] = make([]Insets, g.w)
	}
	if c.collapse {
		c.computeCollapsedBorders()
	} else {
		c.computeSeparateBorders()
	}
	c.startPositionOfRow = make([]float64, g.h)
	c.dataFirst, c.dataLast = g.headerRows, g.h-g.footerRows-1
	return c
}

func (c *tableContext) addAxisAndGroupBorder(borders []usedBorder, idx axisAndGroup, side int, axes, groups []tableAxis) []usedBorder {
	if idx.axis >= 0 {
		borders = append(borders, resolveUsedBorder(c.t, axes[idx.axis].box, side))
	}
	if idx.group >= 0 {
		borders = append(borders, resolveUsedBorder(c.t, groups[idx.group].box, side))
	}
	return borders
}

// computeCollapsedBorders resolves the border conflicts between every pair
// of adjacent slots, then against the table edges.
//
// https://www.w3.org/TR/css-tables-3/#border-conflict-resolution-algorithm
func (c *tableContext) computeCollapsedBorders() {
	g, t := c.g, c.t
	bw := c.borderWidths

	for y := 0; y+1 < g.h; y++ {
		for x := 0; x < g.w; x++ {
			above, below := g.At(x, y), g.At(x, y+1)
			if above == below || above == nil || below == nil {
				continue
			}
			borders := []usedBorder{
				resolveUsedBorder(t, above.box, sideBottom),
				resolveUsedBorder(t, below.box, sideTop),
			}
			borders = c.addAxisAndGroupBorder(borders, g.rowIdxs[y], sideBottom, g.rows, g.rowGroups)
			borders = c.addAxisAndGroupBorder(borders, g.rowIdxs[y+1], sideTop, g.rows, g.rowGroups)
			win := harmonizeBorders(borders)
			bw[y][x].Bottom = win.width
			bw[y+1][x].Top = win.width
		}
	}

	for x := 0; x+1 < g.w; x++ {
		for y := 0; y < g.h; y++ {
			left, right := g.At(x, y), g.At(x+1, y)
			if left == right || left == nil || right == nil {
				continue
			}
			borders := []usedBorder{
				resolveUsedBorder(t, left.box, sideEnd),
				resolveUsedBorder(t, right.box, sideStart),
			}
			borders = c.addAxisAndGroupBorder(borders, g.colIdxs[x], sideEnd, g.cols, g.colGroups)
			borders = c.addAxisAndGroupBorder(borders, g.colIdxs[x+1], sideStart, g.cols, g.colGroups)
			win := harmonizeBorders(borders)
			bw[y][x].End = win.width
			bw[y][x+1].Start = win.width
		}
	}

	// inner borders are shared by the two cells
	for y := range bw {
		for x := range bw[y] {
			b := &bw[y][x]
			b.Top, b.End, b.Bottom, b.Start = b.Top/2, b.End/2, b.Bottom/2, b.Start/2
		}
	}

	if g.w == 0 || g.h == 0 {
		return
	}
	for _, side := range []int{sideTop, sideBottom} {
		tableBorder := resolveUsedBorder(t, c.box, side)
		y := 0
		if side == sideBottom {
			y = g.h - 1
		}
		for x := 0; x < g.w; x++ {
			cell := g.At(x, y)
			if cell == nil {
				continue
			}
			borders := []usedBorder{resolveUsedBorder(t, cell.box, side), tableBorder}
			borders = c.addAxisAndGroupBorder(borders, g.rowIdxs[y], side, g.rows, g.rowGroups)
			borders = c.addAxisAndGroupBorder(borders, g.colIdxs[x], side, g.cols, g.colGroups)
			w := harmonizeBorders(borders).width
			if side == sideTop {
				bw[y][x].Top = w
			} else {
				bw[y][x].Bottom = w
			}
		}
	}
	for _, side := range []int{sideStart, sideEnd} {
		tableBorder := resolveUsedBorder(t, c.box, side)
		x := 0
		if side == sideEnd {
			x = g.w - 1
		}
		for y := 0; y < g.h; y++ {
			cell := g.At(x, y)
			if cell == nil {
				continue
			}
			borders := []usedBorder{resolveUsedBorder(t, cell.box, side), tableBorder}
			borders = c.addAxisAndGroupBorder(borders, g.rowIdxs[y], side, g.rows, g.rowGroups)
			borders = c.addAxisAndGroupBorder(borders, g.colIdxs[x], side, g.cols, g.colGroups)
			w := harmonizeBorders(borders).width
			if side == sideStart {
				bw[y][x].Start = w
			} else {
				bw[y][x].End = w
			}
		}
	}
}

func (c *tableContext) computeSeparateBorders() {
	g := c.g
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			cell := g.At(x, y)
			if !cell.isAnchor(x, y) {
				continue
			}
			b := computeBorders(newResolver(c.t, cell.box), cell.box)
			for k := 0; k < cell.colSpan; k++ {
				c.borderWidths[y][x+k].Top = b.Top
				c.borderWidths[y+cell.rowSpan-1][x+k].Bottom = b.Bottom
			}
			for k := 0; k < cell.rowSpan; k++ {
				c.borderWidths[y+k][x].Start = b.Start
				c.borderWidths[y+k][x+cell.colSpan-1].End = b.End
			}
		}
	}
}

// cellBorders are the border widths of the cell anchored at (x, y).
func (c *tableContext) cellBorders(cell *tableCell) Insets {
	tl := c.borderWidths[cell.y][cell.x]
	br := c.borderWidths[cell.y+cell.rowSpan-1][cell.x+cell.colSpan-1]
	return Insets{Top: tl.Top, End: br.End, Bottom: br.Bottom, Start: tl.Start}
}

func (c *tableContext) cellSpacings(cell *tableCell, cb Vec2) usedSpacings {
	r := newResolver(c.t, cell.box)
	sp := usedSpacings{padding: computePaddings(r, cell.box, cb)}
	if c.collapse {
		sp.borders = c.cellBorders(cell)
	} else {
		sp.borders = computeBorders(r, cell.box)
	}
	return sp
}

// columnBorders is the widest horizontal border of each column.
//
// https://www.w3.org/TR/CSS22/tables.html#borders
func (c *tableContext) columnBorders() ([]float64, float64) {
	borders := make([]float64, c.g.w)
	total := 0.0
	for x := range borders {
		for y := 0; y < c.g.h; y++ {
			borders[x] = max(borders[x], c.borderWidths[y][x].Horizontal())
		}
		total += borders[x]
	}
	return borders, total
}

// sizeLength returns the length of a table width or height, warning for
// keywords other than auto.
func sizeLength(s css.Size, property string) (css.Expr, bool) {
	switch s.Kind {
	case css.SizeLength:
		return s.Value, true
	case css.SizeAuto:
	default:
		logger.Warn("only auto and lengths are supported in a table context",
			zap.String("property", property), zap.Stringer("size", s))
	}
	return nil, false
}

func (c *tableContext) resolveOn(box *Box, e css.Expr, rel float64) float64 {
	return newResolver(c.t, box).ResolveCalc(e, rel)
}

// computeFixedColWidths
//
// https://www.w3.org/TR/CSS22/tables.html#fixed-table-layout
func (c *tableContext) computeFixedColWidths(knownX float64) {
	g := c.g
	sizeLength(c.box.Style.Sizing.Width, "width")
	c.tableUsedWidth = knownX

	_, sumBorders := c.columnBorders()
	fixedWidthToAccount := c.gaps()

	widths := make([]Opt, g.w)
	for _, col := range g.cols {
		if e, ok := sizeLength(col.box.Style.Sizing.Width, "width"); ok {
			w := c.resolveOn(col.box, e, c.tableUsedWidth)
			for x := col.start; x <= col.end; x++ {
				widths[x] = Some(w)
			}
		}
	}

	// cells of the first row define the remaining columns
	for x := 0; x < g.w && g.h > 0; {
		cell := g.At(x, 0)
		if cell == nil || !cell.isAnchor(x, 0) {
			x++
			continue
		}
		e, ok := sizeLength(cell.box.Style.Sizing.Width, "width")
		if !ok {
			x += cell.colSpan
			continue
		}
		w := c.resolveOn(cell.box, e, c.tableUsedWidth)
		for k := 0; k < cell.colSpan; k, x = k+1, x+1 {
			if !widths[x].Set {
				widths[x] = Some(w / float64(cell.colSpan))
			}
		}
	}

	sumWidths := 0.0
	empty := 0
	for _, w := range widths {
		if w.Set {
			sumWidths += w.Val
		} else {
			empty++
		}
	}

	available := c.tableUsedWidth - fixedWidthToAccount - sumBorders
	switch {
	case empty > 0 && sumWidths < available:
		share := (available - sumWidths) / float64(empty)
		for i := range widths {
			if !widths[i].Set {
				widths[i] = Some(share)
			}
		}
	case empty == 0 && sumWidths < available:
		extra := available - sumWidths
		for i := range widths {
			if sumWidths == 0 {
				widths[i] = Some(extra / float64(len(widths)))
			} else {
				widths[i] = Some(widths[i].Val + extra*widths[i].Val/sumWidths)
			}
		}
	}

	c.colWidth = make([]float64, g.w)
	for i, w := range widths {
		c.colWidth[i] = w.Or(0)
	}
}

// cellMinMaxWidth is the min/max-content width of a cell including its used
// spacing, floored by its preferred width.
func (c *tableContext) cellMinMaxWidth(cell *tableCell, tableWidth float64) (float64, float64) {
	sp := c.cellSpacings(cell, Vec2{c.tableUsedWidth, 0})
	outer := sp.padding.Horizontal() + sp.borders.Horizontal()

	lo := computeIntrinsicContentSize(c.t, cell.box, IntrinsicMinContent, Vec2{}).X + outer
	hi := computeIntrinsicContentSize(c.t, cell.box, IntrinsicMaxContent, Vec2{}).X + outer

	if e, ok := sizeLength(cell.box.Style.Sizing.Width, "width"); ok {
		pref := c.resolveOn(cell.box, e, tableWidth)
		lo = max(lo, pref)
		hi = max(hi, pref)
	}
	return lo, hi
}

// computeMinMaxAutoWidths returns the min and max width of each column.
// Cells spanning several columns share their width evenly over them.
func (c *tableContext) computeMinMaxAutoWidths(tableWidth float64) ([]float64, []float64) {
	g := c.g
	minW := make([]float64, g.w)
	maxW := make([]float64, g.w)

	eachAnchor := func(fn func(cell *tableCell)) {
		for y := 0; y < g.h; y++ {
			for x := 0; x < g.w; x++ {
				if cell := g.At(x, y); cell.isAnchor(x, y) {
					fn(cell)
				}
			}
		}
	}

	eachAnchor(func(cell *tableCell) {
		if cell.colSpan > 1 {
			return
		}
		lo, hi := c.cellMinMaxWidth(cell, tableWidth)
		minW[cell.x] = max(minW[cell.x], lo)
		maxW[cell.x] = max(maxW[cell.x], hi)
	})

	for _, col := range g.cols {
		e, ok := sizeLength(col.box.Style.Sizing.Width, "width")
		if !ok {
			continue
		}
		w := c.resolveOn(col.box, e, tableWidth)
		for x := col.start; x <= col.end; x++ {
			minW[x] = max(minW[x], w)
			maxW[x] = max(maxW[x], w)
		}
	}

	eachAnchor(func(cell *tableCell) {
		if cell.colSpan <= 1 {
			return
		}
		lo, hi := c.cellMinMaxWidth(cell, tableWidth)
		n := float64(cell.colSpan)
		for k := 0; k < cell.colSpan; k++ {
			minW[cell.x+k] = max(minW[cell.x+k], lo/n)
			maxW[cell.x+k] = max(maxW[cell.x+k], hi/n)
		}
	})

	for _, group := range g.colGroups {
		e, ok := sizeLength(group.box.Style.Sizing.Width, "width")
		if !ok {
			continue
		}
		current := sum(minW[group.start : group.end+1])
		w := c.resolveOn(group.box, e, tableWidth)
		if current >= w {
			continue
		}
		share := (w - current) / float64(group.end-group.start+1)
		for x := group.start; x <= group.end; x++ {
			minW[x] += share
		}
	}
	return minW, maxW
}

func (c *tableContext) intrinsicMinMaxWidths() ([]float64, []float64) {
	if c.intrinsic == nil {
		lo, hi := c.computeMinMaxAutoWidths(0)
		c.intrinsic = &[2][]float64{lo, hi}
	}
	return slices.Clone(c.intrinsic[0]), slices.Clone(c.intrinsic[1])
}

// computeAutoColWidths
//
// https://www.w3.org/TR/CSS22/tables.html#auto-table-layout
func (c *tableContext) computeAutoColWidths(knownX Opt, capmin, cbX float64) {
	n := c.g.w
	gaps := c.gaps()
	if !knownX.Set {
		lo, hi := c.intrinsicMinMaxWidths()
		sumMax, sumMin := sum(hi)+gaps, sum(lo)+gaps
		if max(sumMax, capmin) <= cbX {
			c.colWidth = hi
			c.tableUsedWidth = max(sumMax, capmin)
		} else {
			c.colWidth = lo
			c.tableUsedWidth = max(sumMin, capmin)
		}
		return
	}

	minWithout, maxWithout := c.intrinsicMinMaxWidths()
	c.tableUsedWidth = max(capmin, knownX.Val)
	avail := max(0, c.tableUsedWidth-gaps)

	if s := sum(minWithout); s > avail {
		c.tableUsedWidth = s + gaps
		c.colWidth = minWithout
		return
	}

	minWith, maxWith := c.computeMinMaxAutoWidths(knownX.Val)
	without, with := minWithout, minWith
	if sum(maxWithout) < avail {
		without, with = maxWithout, maxWith
	}

	sumWith, sumWithout := sum(with), sum(without)
	if sumWith > avail {
		totalDiff := sumWith - sumWithout
		allowed := avail - sumWithout
		for j := range without {
			if with[j] != without[j] {
				without[j] += (with[j] - without[j]) * allowed / totalDiff
			}
		}
		c.colWidth = without
		return
	}

	if sumWith == 0 {
		for j := range with {
			with[j] = avail / float64(n)
		}
	} else {
		extra := avail - sumWith
		for j := range with {
			with[j] += extra * with[j] / sumWith
		}
	}
	c.colWidth = with
}

// gaps is the horizontal border spacing around and between the columns.
func (c *tableContext) gaps() float64 { return float64(c.g.w+1) * c.spacing.X }

// computeRowHeights
//
// https://www.w3.org/TR/CSS22/tables.html#height-layout
func (c *tableContext) computeRowHeights() {
	g := c.g
	c.rowHeight = make([]float64, g.h)

	for _, row := range g.rows {
		e, ok := sizeLength(row.box.Style.Sizing.Height, "height")
		if !ok {
			continue
		}
		// percentages resolve against zero
		h := c.resolveOn(row.box, e, 0)
		for y := row.start; y <= row.end; y++ {
			c.rowHeight[y] = h
		}
	}

	c.t.FC.EnterMonolithicBox()
	defer c.t.FC.LeaveMonolithicBox()

	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			cell := g.At(x, y)
			if !cell.isAnchor(x, y) {
				continue
			}
			n := float64(cell.rowSpan)
			if e, ok := sizeLength(cell.box.Style.Sizing.Height, "height"); ok {
				h := c.resolveOn(cell.box, e, 0)
				for k := 0; k < cell.rowSpan; k++ {
					c.rowHeight[y+k] = max(c.rowHeight[y+k], h/n)
				}
			}

			out := layoutBorderBox(c.t, cell.box, Input{
				KnownSize:       OptVec2{X: Some(c.spannedWidth(cell)), Y: None},
				ContainingBlock: Vec2{c.tableUsedWidth, 0},
			}, c.cellSpacings(cell, Vec2{c.tableUsedWidth, 0}))
			for k := 0; k < cell.rowSpan; k++ {
				c.rowHeight[y+k] = max(c.rowHeight[y+k], out.Size.Y/n)
			}
		}
	}
}

func (c *tableContext) spannedWidth(cell *tableCell) float64 {
	w := c.spacing.X * float64(cell.colSpan-1)
	for k := 0; k < cell.colSpan; k++ {
		w += c.colWidth[cell.x+k]
	}
	return w
}

func (c *tableContext) computeWidthAndHeight(input Input) {
	// Like Chrome, a fixed table with an auto width still uses the auto algorithm.
	runAuto := c.box.Style.Table.Layout == css.TableLayoutAuto || !input.KnownSize.X.Set

	switch {
	case !runAuto:
		c.computeFixedColWidths(input.KnownSize.X.Val)
	case input.Intrinsic == IntrinsicMinContent:
		c.colWidth, _ = c.intrinsicMinMaxWidths()
		c.tableUsedWidth = sum(c.colWidth) + c.gaps()
	case input.Intrinsic == IntrinsicMaxContent:
		_, c.colWidth = c.intrinsicMinMaxWidths()
		c.tableUsedWidth = sum(c.colWidth) + c.gaps()
	default:
		c.computeAutoColWidths(input.KnownSize.X, input.Capmin.Or(0), input.ContainingBlock.X)
	}

	c.computeRowHeights()

	c.colPref = newPrefixSum(c.colWidth)
	c.rowPref = newPrefixSum(c.rowHeight)
	g := c.g

	c.tableBoxSize = Vec2{
		sum(c.colWidth) + c.spacing.X*float64(g.w+1),
		sum(c.rowHeight) + c.spacing.Y*float64(g.h+1),
	}
	if g.headerRows > 0 {
		c.headerSize = Vec2{
			c.tableBoxSize.X,
			c.rowPref.query(0, g.headerRows-1) + c.spacing.Y*float64(g.headerRows+1),
		}
	}
	if g.footerRows > 0 {
		c.footerSize = Vec2{
			c.tableBoxSize.X,
			c.rowPref.query(g.h-g.footerRows, g.h-1) + c.spacing.Y*float64(g.footerRows+1),
		}
	}
}

// layoutCell lays out the cell anchored in column j for grid row i and
// returns its output and the height it reaches below the top of row i.
func (c *tableContext) layoutCell(input Input, cell *tableCell, startFrag, i, j int, x float64, offset int) (Output, float64) {
	fc := &c.t.FC

	// A cell that started in the previous fragment resumes from the
	// breakpoint it left in the first row of this fragment.
	var bps BreakpointTraverser
	if !input.Breakpoints.IsDeactivated() {
		if startFrag < cell.y {
			bps = input.Breakpoints.TraverseInsideUsingIthChildToJthParallelFlow(i-offset, j)
		} else {
			bps = BreakpointTraverser{
				Prev: input.Breakpoints.TraversePrev(startFrag-offset, j),
				Curr: input.Breakpoints.TraverseCurr(i-offset, j),
			}
		}
	}

	startedInPrev := fc.AllowBreak() && bps.Prev != nil
	startRow := cell.y
	if startedInPrev {
		startRow = startFrag
	}
	startY := c.startPositionOfRow[startRow]

	vertical := None
	if !startedInPrev {
		vertical = Some(c.rowPref.query(cell.y, cell.y+cell.rowSpan-1) + c.spacing.Y*float64(cell.rowSpan-1))
	}

	childInput := Input{
		KnownSize:            OptVec2{X: Some(c.spannedWidth(cell)), Y: vertical},
		Position:             Vec2{x, startY},
		ContainingBlock:      c.tableBoxSize,
		Breakpoints:          bps,
		PendingVerticalSizes: input.PendingVerticalSizes,
	}
	sp := c.cellSpacings(cell, c.tableBoxSize)

	var out Output
	if input.Committing() {
		out = layoutAndCommitBorderBox(c.t, cell.box, childInput.WithFragment(input.Fragment), sp)
	} else {
		out = layoutBorderBox(c.t, cell.box, childInput, sp)
	}

	if fc.IsDiscoveryMode() && cell.box.Style.Break.Inside == css.BreakInsideAvoid && out.Breakpoint != nil {
		out.Breakpoint = out.Breakpoint.WithAppeal(AppealAvoid)
	}
	return out, startY + out.Size.Y - c.startPositionOfRow[i]
}

type rowOutput struct {
	sizeY float64

	allBottomsComplete    bool
	someBottomsIncomplete bool

	breakpoints []*Breakpoint
	isBottom    []bool
}

func (c *tableContext) layoutRow(input Input, startFrag, i int, pos Vec2, isBreakpointedRow bool, offset int) rowOutput {
	fc := &c.t.FC
	g := c.g
	c.startPositionOfRow[i] = pos.Y

	out := rowOutput{allBottomsComplete: true}
	if fc.IsDiscoveryMode() {
		out.breakpoints = make([]*Breakpoint, g.w)
		out.isBottom = make([]bool, g.w)
	}
	if !fc.AllowBreak() {
		out.sizeY = c.rowHeight[i]
	}

	x := pos.X + c.spacing.X
	for j := 0; j < g.w; x, j = x+c.colWidth[j]+c.spacing.X, j+1 {
		cell := g.At(j, i)
		if cell == nil || cell.x != j {
			continue
		}
		isBottom := cell.y+cell.rowSpan-1 == i
		if !fc.IsDiscoveryMode() && !isBottom && !isBreakpointedRow {
			continue
		}

		cellOut, cellHeight := c.layoutCell(input, cell, startFrag, i, j, x, offset)

		if fc.IsDiscoveryMode() {
			if isBottom {
				out.sizeY = max(out.sizeY, cellHeight)
			}
			out.breakpoints[j] = cellOut.Breakpoint
			out.isBottom[j] = isBottom
			out.allBottomsComplete = out.allBottomsComplete && isBottom && cellOut.CompletelyLaidOut
		} else {
			out.sizeY = max(out.sizeY, cellHeight)
		}
		out.someBottomsIncomplete = out.someBottomsIncomplete || (isBottom && !cellOut.CompletelyLaidOut)
	}
	return out
}

// isFreelyFragmentableRow
//
// https://www.w3.org/TR/css-tables-3/#freely-fragmentable
func (c *tableContext) isFreelyFragmentableRow(i int, fcSize Vec2) bool {
	selfContained := true
	for j := 0; j < c.g.w; j++ {
		cell := c.g.At(j, i)
		if !cell.isAnchor(j, i) || cell.rowSpan != 1 {
			selfContained = false
			break
		}
	}
	return !selfContained || c.rowHeight[i]*2 > min(fcSize.X, fcSize.Y)
}

func (c *tableContext) rowBox(i int) *Box {
	if a := c.g.rowIdxs[i].axis; a >= 0 {
		return c.g.rows[a].box
	}
	return nil
}

func (c *tableContext) rowGroupBox(i int) *Box {
	if gi := c.g.rowIdxs[i].group; gi >= 0 {
		return c.g.rowGroups[gi].box
	}
	return nil
}

func breakOf(b *Box, pick func(css.BreakProps) bool) bool {
	return b != nil && pick(b.Style.Break)
}

// forcedBreakAfterRow reports a forced break between row i and the next
// data row.
func (c *tableContext) forcedBreakAfterRow(i int) bool {
	after := func(p css.BreakProps) bool { return p.After == css.BreakPage }
	before := func(p css.BreakProps) bool { return p.Before == css.BreakPage }

	hasNext := i+1 <= c.dataLast
	if breakOf(c.rowBox(i), after) {
		return true
	}
	if hasNext && breakOf(c.rowBox(i+1), before) {
		return true
	}
	groupLimit := hasNext && c.g.rowIdxs[i].group != c.g.rowIdxs[i+1].group
	if groupLimit && breakOf(c.rowGroupBox(i), after) {
		return true
	}
	return groupLimit && breakOf(c.rowGroupBox(i+1), before)
}

func anyBreakpoint(bps []*Breakpoint) bool {
	return slices.ContainsFunc(bps, func(b *Breakpoint) bool { return b != nil })
}

// handleUnforcedBreakpoints updates best with the breakpoints inside and
// after row i. It returns false when the layout must stop at this row.
func (c *tableContext) handleUnforcedBreakpoints(best **Breakpoint, row rowOutput, i int, fcSize Vec2) bool {
	inside := func(p css.BreakProps) bool { return p.Inside == css.BreakInsideAvoid }
	avoidTable := breakOf(c.box, inside)
	avoid := avoidTable || breakOf(c.rowBox(i), inside) || breakOf(c.rowGroupBox(i), inside)

	if c.isFreelyFragmentableRow(i, fcSize) && anyBreakpoint(row.breakpoints) {
		// the next fragment resumes inside this row
		*best = (*best).OverrideIfBetter(FromChildren(row.breakpoints, i+1, avoid, false))
	}

	// cells that cannot finish on their last row abort the layout
	if row.someBottomsIncomplete {
		return false
	}

	if !row.allBottomsComplete {
		// only cells that continue below this row keep their breakpoints
		bps := slices.Clone(row.breakpoints)
		for j := range bps {
			if row.isBottom[j] {
				bps[j] = nil
			}
		}
		if anyBreakpoint(bps) {
			*best = (*best).OverrideIfBetter(FromChildren(bps, i+1, avoid, true))
		}
		return true
	}

	*best = (*best).OverrideIfBetter(ClassB(i+1, avoidTable))
	return true
}

func (c *tableContext) layoutRows(input Input, startAt, stopAt int, x float64, y *float64, repeat bool) (bool, *Breakpoint) {
	fc := &c.t.FC
	complete := false
	var best *Breakpoint

	if fc.IsDiscoveryMode() {
		complete = true
		best = &Breakpoint{}
		if repeat {
			input = input.AddPendingVerticalSize(c.footerSize.Y)
		}
	}

	offset, last := 0, c.g.h-1
	if repeat {
		offset, last = c.dataFirst, c.dataLast
	}

	for i := startAt; i < stopAt; i++ {
		row := c.layoutRow(input, startAt, i, Vec2{x, *y}, i+1 == stopAt, offset)

		if fc.IsDiscoveryMode() {
			if !c.handleUnforcedBreakpoints(&best, row, i, fc.Size()) {
				complete = false
				break
			}
			if row.allBottomsComplete && i+1 != stopAt && c.forcedBreakAfterRow(i) {
				best = Forced(i + 1)
				complete = false
				break
			}
		} else if i == last {
			complete = !row.someBottomsIncomplete
		}

		c.markRow(i, *y, row.sizeY)
		*y += row.sizeY + c.spacing.Y
	}
	return complete, best
}

func (c *tableContext) layoutHeaderFooterRows(input Input, startFrag int, x float64, y *float64, start, n int) {
	for k := 0; k < n; k++ {
		i := start + k
		c.layoutRow(input.WithBreakpointTraverser(BreakpointTraverser{}), startFrag, i, Vec2{x, *y}, false, 0)
		c.markRow(i, *y, c.rowHeight[i])
		*y += c.rowHeight[i] + c.spacing.Y
	}
}

func (c *tableContext) markRow(i int, y, h float64) {
	if c.rowDone == nil {
		return
	}
	c.rowDone[i] = true
	c.rowTop[i] = y
	c.rowBottom[i] = y + h
}

func (c *tableContext) layoutIntervals(repeat bool, startAtTable, stopAtTable int) (int, int) {
	startAt := startAtTable
	if repeat {
		startAt += c.dataFirst
	}
	if c.t.FC.IsDiscoveryMode() {
		if repeat {
			return startAt, c.dataLast + 1
		}
		return startAt, c.g.h
	}
	if repeat {
		if stopAtTable == noStop {
			return startAt, c.dataLast + 1
		}
		return startAt, c.dataFirst + stopAtTable
	}
	if stopAtTable == noStop {
		return startAt, c.g.h
	}
	return startAt, min(stopAtTable, c.g.h)
}

// commitAxes adds the fragments of column groups, columns, row groups and
// rows that intersect the rows laid out in this fragment.
func (c *tableContext) commitAxes(parent *Frag, x float64) {
	first, last := -1, -1
	for i, done := range c.rowDone {
		if done {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return
	}
	top, bottom := c.rowTop[first], c.rowBottom[last]

	colRect := func(a tableAxis) (Vec2, Vec2) {
		left := x + c.spacing.X*float64(a.start+1) + c.colPref.query(0, a.start-1)
		w := c.colPref.query(a.start, a.end) + c.spacing.X*float64(a.end-a.start)
		return Vec2{left, top}, Vec2{w, bottom - top}
	}
	rowRect := func(a tableAxis) (Vec2, Vec2, bool) {
		s, e := -1, -1
		for i := a.start; i <= a.end; i++ {
			if c.rowDone[i] {
				if s < 0 {
					s = i
				}
				e = i
			}
		}
		if s < 0 {
			return Vec2{}, Vec2{}, false
		}
		w := c.colPref.query(0, c.g.w-1) + c.spacing.X*float64(max(c.g.w-1, 0))
		return Vec2{x + c.spacing.X, c.rowTop[s]}, Vec2{w, c.rowBottom[e] - c.rowTop[s]}, true
	}
	add := func(b *Box, pos, size Vec2) {
		f := NewFrag(b)
		f.Metrics.Position = pos
		f.Metrics.BorderSize = size
		parent.Add(f)
	}

	for _, a := range c.g.colGroups {
		pos, size := colRect(a)
		add(a.box, pos, size)
	}
	for _, a := range c.g.cols {
		pos, size := colRect(a)
		add(a.box, pos, size)
	}
	for _, a := range c.g.rowGroups {
		if pos, size, ok := rowRect(a); ok {
			add(a.box, pos, size)
		}
	}
	for _, a := range c.g.rows {
		if pos, size, ok := rowRect(a); ok {
			add(a.box, pos, size)
		}
	}
}

func (c *tableContext) run(input Input, startAtTable, stopAtTable int) Output {
	fc := &c.t.FC
	c.computeWidthAndHeight(input)

	// Repeated headers and footers never sit alone in a fragment and never
	// break. Otherwise they appear once and fragment like other rows.
	fcH := fc.Size().Y
	repeat := fc.AllowBreak() &&
		max(c.headerSize.Y, c.footerSize.Y)*4 <= fcH &&
		c.headerSize.Y+c.footerSize.Y*2 <= fcH

	x := input.Position.X
	y := input.Position.Y
	startY := y
	y += c.spacing.Y

	// cells are committed after the axes they belong to
	commitInput := input
	var cells *Frag
	if input.Committing() {
		cells = NewFrag(nil)
		commitInput = input.WithFragment(cells)
		c.rowDone = make([]bool, c.g.h)
		c.rowTop = make([]float64, c.g.h)
		c.rowBottom = make([]float64, c.g.h)
	}

	startAt, stopAt := c.layoutIntervals(repeat, startAtTable, stopAtTable)

	if repeat {
		c.layoutHeaderFooterRows(commitInput, startAt, x, &y, 0, c.g.headerRows)
	}

	complete, best := c.layoutRows(commitInput, startAt, stopAt, x, &y, repeat)

	if fc.IsDiscoveryMode() && repeat && best != nil {
		adjusted := *best
		adjusted.EndIdx -= c.dataFirst
		best = &adjusted
	}

	if repeat {
		c.layoutHeaderFooterRows(commitInput, startAt, x, &y, c.g.h-c.g.footerRows, c.g.footerRows)
	}

	if input.Committing() {
		c.commitAxes(input.Fragment, x)
		for _, f := range cells.Children {
			input.Fragment.Add(f)
		}
	}

	if c.g.h == 0 || !fc.AllowBreak() {
		complete = true
	}

	out := Output{
		Size:              Vec2{c.tableUsedWidth, y - startY},
		CompletelyLaidOut: complete,
	}
	if fc.IsDiscoveryMode() {
		out.Breakpoint = best
	}
	return out
}

// tableLayout lays out the rows [startAt, stopAt) of a table box.
func tableLayout(t *Tree, box *Box, input Input, startAt, stopAt int) Output {
	return newTableContext(t, box).run(input, startAt, stopAt)
}

// WrapTable builds the wrapper of a display: table box the way a tree builder
// does. The wrapper keeps the outer properties and the captions; an inner
// table box takes the borders, paddings, sizes and every other child.
func WrapTable(table *Box) *Box {
	initial := css.Initial()

	outer := table.Style.Clone()
	outer.Borders = initial.Borders
	outer.Padding = initial.Padding
	outer.Background = initial.Background
	outer.Sizing = initial.Sizing

	inner := table.Style.Clone()
	inner.Display = css.DisplayTableBox
	inner.Margin = initial.Margin
	inner.Position = initial.Position
	inner.Offsets = initial.Offsets
	inner.Break.Before = css.BreakAuto
	inner.Break.After = css.BreakAuto

	tableBox := NewBox(inner)
	tableBox.Name = table.Name
	var top, bottom []*Box
	for _, c := range table.Children {
		if c.Style.Display != css.DisplayTableCaption {
			tableBox.Children = append(tableBox.Children, c)
			continue
		}
		if c.Style.Table.CaptionSide == css.CaptionBottom {
			bottom = append(bottom, c)
		} else {
			top = append(top, c)
		}
	}

	wrapper := NewBox(outer)
	wrapper.Name = table.Name
	wrapper.Children = append(append(top, tableBox), bottom...)
	return wrapper
}
