package layout

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func flexBox(decls string, children ...*Box) *Box {
	return block("display: flex; "+decls, children...)
}

// commitFlex commits flex inside a block of width w and returns its fragment.
func commitFlex(t *testing.T, flex *Box, w float64) *Frag {
	t.Helper()
	_, frag := commitTree(t, block("", flex), w)
	require.Len(t, frag.Children, 1)
	return frag.Children[0]
}

func borderBoxes(f *Frag) []Rect {
	res := make([]Rect, len(f.Children))
	for i, c := range f.Children {
		res[i] = c.BorderBox()
	}
	return res
}

func TestFlex_EqualGrow(t *testing.T) {
	root := flexBox("width: 300px",
		block("flex: 1 1 0; height: 10px"),
		block("flex: 1 1 0; height: 10px"),
		block("flex: 1 1 0; height: 10px"),
	)
	frag := commitFlex(t, root, 500)

	assert.Equal(t, []Rect{
		{0, 0, 100, 10},
		{100, 0, 100, 10},
		{200, 0, 100, 10},
	}, borderBoxes(frag))
	assert.Equal(t, Vec2{300, 10}, frag.BorderBox().Size())
}

func TestFlex_GrowFactors(t *testing.T) {
	root := flexBox("",
		block("flex: 1 1 0; height: 10px"),
		block("flex: 3 1 0; height: 10px"),
	)
	frag := commitFlex(t, root, 400)

	boxes := borderBoxes(frag)
	assert.Equal(t, 100.0, boxes[0].W)
	assert.Equal(t, 300.0, boxes[1].W)
}

func TestFlex_ShrinkProportionalToBase(t *testing.T) {
	root := flexBox("width: 100px",
		block("width: 100px; height: 10px"),
		block("width: 50px; height: 10px"),
	)
	frag := commitFlex(t, root, 500)

	// 50px of overflow shared by flex-basis times flex-shrink
	boxes := borderBoxes(frag)
	assert.InDelta(t, 66.666, boxes[0].W, 0.01)
	assert.InDelta(t, 33.333, boxes[1].W, 0.01)
}

func TestFlex_MaxWidthFreezesItem(t *testing.T) {
	root := flexBox("width: 300px",
		block("flex: 1 1 0; max-width: 50px; height: 10px"),
		block("flex: 1 1 0; height: 10px"),
	)
	frag := commitFlex(t, root, 300)

	boxes := borderBoxes(frag)
	assert.Equal(t, 50.0, boxes[0].W)
	assert.Equal(t, 250.0, boxes[1].W)
}

func TestFlex_JustifyContent(t *testing.T) {
	items := func() []*Box {
		return []*Box{block("width: 50px; height: 10px"), block("width: 50px; height: 10px")}
	}
	tests := []struct {
		justify  string
		expected []float64
	}{
		{"flex-start", []float64{0, 50}},
		{"flex-end", []float64{200, 250}},
		{"center", []float64{100, 150}},
		{"space-between", []float64{0, 250}},
		{"space-around", []float64{50, 200}},
		{"space-evenly", []float64{200 / 3.0, 200/3.0*2 + 50}},
	}
	for _, tt := range tests {
		t.Run(tt.justify, func(t *testing.T) {
			frag := commitFlex(t, flexBox("width: 300px; justify-content: "+tt.justify, items()...), 300)
			boxes := borderBoxes(frag)
			require.Len(t, boxes, 2)
			assert.InDelta(t, tt.expected[0], boxes[0].X, 1e-9)
			assert.InDelta(t, tt.expected[1], boxes[1].X, 1e-9)
		})
	}
}

func TestFlex_RowReverse(t *testing.T) {
	a := block("width: 50px; height: 10px")
	b := block("width: 70px; height: 10px")
	frag := commitFlex(t, flexBox("width: 300px; flex-direction: row-reverse", a, b), 300)

	require.Len(t, frag.Children, 2)
	// items are committed in visual order
	assert.Same(t, b, frag.Children[0].Box)
	assert.Equal(t, 180.0, frag.Children[0].BorderBox().X)
	assert.Equal(t, 250.0, frag.Children[1].BorderBox().X)
}

func TestFlex_AlignItems(t *testing.T) {
	tall := func() *Box { return block("width: 10px; height: 40px") }
	short := func() *Box { return block("width: 10px; height: 10px") }
	auto := func() *Box { return block("width: 10px") }

	tests := []struct {
		align    string
		child    func() *Box
		expected Rect
	}{
		{"flex-start", short, Rect{10, 0, 10, 10}},
		{"flex-end", short, Rect{10, 30, 10, 10}},
		{"center", short, Rect{10, 15, 10, 10}},
		{"stretch", auto, Rect{10, 0, 10, 40}},
		{"normal", auto, Rect{10, 0, 10, 40}},
	}
	for _, tt := range tests {
		t.Run(tt.align, func(t *testing.T) {
			frag := commitFlex(t, flexBox("align-items: "+tt.align, tall(), tt.child()), 200)
			require.Len(t, frag.Children, 2)
			assert.Equal(t, tt.expected, frag.Children[1].BorderBox())
			assert.Equal(t, 40.0, frag.BorderBox().H)
		})
	}
}

func TestFlex_Column(t *testing.T) {
	root := flexBox("flex-direction: column",
		block("height: 20px"),
		block("height: 30px"),
	)
	frag := commitFlex(t, root, 200)

	assert.Equal(t, []Rect{
		{0, 0, 200, 20},
		{0, 20, 200, 30},
	}, borderBoxes(frag))
	assert.Equal(t, Vec2{200, 50}, frag.BorderBox().Size())
}

func TestFlex_Wrap(t *testing.T) {
	root := flexBox("width: 250px; flex-wrap: wrap",
		block("width: 100px; height: 10px"),
		block("width: 100px; height: 10px"),
		block("width: 100px; height: 10px"),
	)
	frag := commitFlex(t, root, 250)

	assert.Equal(t, []Rect{
		{0, 0, 100, 10},
		{100, 0, 100, 10},
		{0, 10, 100, 10},
	}, borderBoxes(frag))
	assert.Equal(t, Vec2{250, 20}, frag.BorderBox().Size())
}

func TestFlex_CollectLines(t *testing.T) {
	var items []*Box
	for _, w := range []string{"120px", "120px", "50px", "300px", "10px"} {
		items = append(items, block("height: 10px; width: "+w))
	}
	root := flexBox("width: 250px; flex-wrap: wrap", items...)
	tree := NewTree(root, NewViewport(250, 100), nil)

	f := collectFlexLines(tree, root, 250)

	var sizes []int
	for _, l := range f.lines {
		sizes = append(sizes, len(l.items))
	}
	// an item wider than the line gets a line of its own
	assert.Equal(t, []int{2, 1, 1, 1}, sizes)
}

// collectFlexLines runs the flex algorithm on root up to line collection.
func collectFlexLines(tree *Tree, root *Box, w float64) *flexContext {
	f := &flexContext{t: tree, box: root, flex: root.Style.Flex, fa: flexAxis{row: root.Style.Flex.Direction.IsRow()}}
	in := Input{KnownSize: OptVec2{X: Some(w)}, AvailableSpace: Vec2{w, 100}, ContainingBlock: Vec2{w, 100}}
	f.generateItems(in.ContainingBlock)
	f.determineAvailableSpace(in)
	f.determineFlexBaseSizes(in.Intrinsic)
	f.determineMainSize(in)
	f.collectLines()
	return f
}

func TestFlex_CollectLines_ZeroWidthFirstItem(t *testing.T) {
	root := flexBox("width: 100px; flex-wrap: wrap",
		block("width: 0px; height: 10px"),
		block("width: 150px; height: 10px"),
		block("width: 50px; height: 10px"),
	)
	f := collectFlexLines(NewTree(root, NewViewport(100, 100), nil), root, 100)

	var sizes []int
	for _, l := range f.lines {
		sizes = append(sizes, len(l.items))
	}
	// only the first item of a line may overflow it
	assert.Equal(t, []int{1, 1, 1}, sizes)
}

func TestFlex_CollectLines_PreservesOrder(t *testing.T) {
	widths := []string{"120px", "120px", "50px", "300px", "10px", "80px", "90px"}
	for _, dir := range []string{"row", "row-reverse"} {
		t.Run(dir, func(t *testing.T) {
			var items []*Box
			for _, w := range widths {
				items = append(items, block("height: 10px; width: "+w))
			}
			root := flexBox("width: 250px; flex-wrap: wrap; flex-direction: "+dir, items...)
			f := collectFlexLines(NewTree(root, NewViewport(250, 100), nil), root, 250)
			require.Greater(t, len(f.lines), 1)

			var got []*Box
			for _, l := range f.lines {
				line := make([]*Box, len(l.items))
				for i, item := range l.items {
					line[i] = item.box
				}
				if root.Style.Flex.Direction.IsReverse() {
					slices.Reverse(line)
				}
				got = append(got, line...)
			}
			assert.Equal(t, items, got)
		})
	}
}

func TestFlex_ShrinkZeroBaseSizes(t *testing.T) {
	root := flexBox("width: 20px",
		block("flex: 1 1 0; min-width: 0px; margin: 0 10px; height: 10px"),
		block("flex: 1 1 0; min-width: 0px; margin: 0 10px; height: 10px"),
		block("flex: 1 1 0; min-width: 0px; margin: 0 10px; height: 10px"),
	)
	frag := commitFlex(t, root, 100)

	boxes := borderBoxes(frag)
	require.Len(t, boxes, 3)
	for i, b := range boxes {
		for _, v := range []float64{b.X, b.Y, b.W, b.H} {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "item %d: %v", i, b)
		}
		assert.Zero(t, b.W)
	}
	assert.Equal(t, []float64{10, 30, 50}, []float64{boxes[0].X, boxes[1].X, boxes[2].X})
}

func TestFlex_ShrinkClampedByMinWidth(t *testing.T) {
	root := flexBox("width: 100px",
		block("width: 100px; min-width: 80px; height: 10px"),
		block("width: 100px; height: 10px"),
	)
	frag := commitFlex(t, root, 100)

	// an even split would give 50/50; the clamped item freezes and the rest
	// of the overflow goes to its sibling
	boxes := borderBoxes(frag)
	assert.InDelta(t, 80, boxes[0].W, 1e-9)
	assert.InDelta(t, 20, boxes[1].W, 1e-9)
	assert.InDelta(t, 80, boxes[1].X, 1e-9)
}

func TestFlex_CrossContributionUsesCrossMargins(t *testing.T) {
	root := flexBox("", block("width: 10px; height: 10px; margin: 0 20px"))
	tree := NewTree(block("", root), NewViewport(500, 100), nil)

	size := ComputeIntrinsicSize(tree, root, IntrinsicMaxContent, Vec2{500, 100})
	assert.Equal(t, 10.0, size.Y)
	assert.Equal(t, 50.0, size.X)
}

func TestFlex_MaxContentWidthKeepsItemMargins(t *testing.T) {
	root := flexBox("width: max-content", block("width: 10px; height: 10px; margin: 0 20px"))
	frag := commitFlex(t, root, 500)

	assert.Equal(t, Rect{0, 0, 50, 10}, frag.BorderBox())
	require.Len(t, frag.Children, 1)
	assert.Equal(t, Rect{20, 0, 10, 10}, frag.Children[0].BorderBox())
}

func TestFlex_UnimplementedAlignmentIsReported(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	root := flexBox("align-items: baseline; height: 40px",
		block("width: 10px; height: 10px"),
		block("width: 10px; height: 10px; visibility: collapse"),
	)
	frag := commitFlex(t, root, 200)

	assert.NotZero(t, logs.FilterMessage("baseline alignment is not implemented, using flex-start").Len())
	assert.NotZero(t, logs.FilterMessage("visibility: collapse is not implemented for flex items").Len())
	// baseline items fall back to the cross start
	assert.Equal(t, Rect{0, 0, 10, 10}, frag.Children[0].BorderBox())
	assert.Equal(t, Rect{10, 0, 10, 10}, frag.Children[1].BorderBox())
}

func TestFlex_AutoMargins(t *testing.T) {
	root := flexBox("width: 300px; height: 100px",
		block("width: 50px; height: 20px; margin-left: auto"),
		block("width: 50px; height: 20px; margin-top: auto; margin-bottom: auto"),
	)
	frag := commitFlex(t, root, 300)

	boxes := borderBoxes(frag)
	assert.Equal(t, Rect{200, 0, 50, 20}, boxes[0])
	assert.Equal(t, Rect{250, 40, 50, 20}, boxes[1])
	assert.Equal(t, 200.0, frag.Children[0].Metrics.Margin.Start)
}

func TestFlex_IntrinsicSizes(t *testing.T) {
	root := flexBox("",
		block("width: 40px; height: 10px"),
		block("width: 60px; height: 10px"),
	)
	tree := NewTree(block("", root), NewViewport(500, 100), nil)

	assert.Equal(t, 100.0, ComputeIntrinsicSize(tree, root, IntrinsicMaxContent, Vec2{500, 100}).X)

	wrapping := flexBox("flex-wrap: wrap",
		block("width: 40px; height: 10px"),
		block("width: 60px; height: 10px"),
	)
	tree = NewTree(block("", wrapping), NewViewport(500, 100), nil)
	assert.Equal(t, 60.0, ComputeIntrinsicSize(tree, wrapping, IntrinsicMinContent, Vec2{500, 100}).X)
}

func TestFlex_SkipsDisplayNoneAndAbsolute(t *testing.T) {
	root := flexBox("width: 300px",
		block("display: none; width: 50px"),
		block("position: absolute; width: 50px"),
		block("width: 50px; height: 10px"),
	)
	frag := commitFlex(t, root, 300)
	require.Len(t, frag.Children, 1)
	assert.Equal(t, 0.0, frag.Children[0].BorderBox().X)
}
