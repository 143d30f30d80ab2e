package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxflow/pkg/css"
	"boxflow/pkg/images"
)

func block(decls string, children ...*Box) *Box {
	return NewBox(css.MustCompute("display: block; "+decls), children...)
}

func rootInput(w, h float64) Input {
	return Input{
		KnownSize:       OptVec2{X: Some(w)},
		AvailableSpace:  Vec2{w, h},
		ContainingBlock: Vec2{w, h},
	}
}

// commitTree lays out root in an infinite fragmentainer of width w.
func commitTree(t *testing.T, root *Box, w float64) (*Tree, *Frag) {
	t.Helper()
	tree := NewTree(root, NewViewport(w, 600), nil)
	_, frag := LayoutAndCommitRoot(tree, rootInput(w, 600))
	require.NotNil(t, frag)
	require.Same(t, root, frag.Box)
	return tree, frag
}

// boxComparer compares boxes by identity; boxes carry unexported caches.
var boxComparer = cmp.Comparer(func(a, b *Box) bool { return a == b })

func TestBlockLayout_Stacking(t *testing.T) {
	a := block("height: 30px; margin-bottom: 10px")
	b := block("height: 20px; margin-top: 25px")
	root := block("", a, b)

	_, frag := commitTree(t, root, 200)
	require.Len(t, frag.Children, 2)

	// adjoining margins collapse to the larger one
	assert.Equal(t, Rect{0, 0, 200, 30}, frag.Children[0].BorderBox())
	assert.Equal(t, Rect{0, 55, 200, 20}, frag.Children[1].BorderBox())
	assert.Equal(t, Rect{0, 0, 200, 75}, frag.BorderBox())
	assert.Equal(t, Insets{Top: 25}, frag.Children[1].Metrics.Margin)
}

func TestBlockLayout_AutoWidthFillsContainer(t *testing.T) {
	c := block("height: 10px; margin-left: 10px; margin-right: 30px")
	_, frag := commitTree(t, block("", c), 200)
	assert.Equal(t, Rect{10, 0, 160, 10}, frag.Children[0].BorderBox())
}

func TestBlockLayout_BoxSizing(t *testing.T) {
	tests := []struct {
		name    string
		decls   string
		border  Rect
		content Rect
	}{
		{
			name:    "content-box",
			decls:   "width: 100px; height: 20px; padding: 5px; border: 2px solid",
			border:  Rect{0, 0, 114, 34},
			content: Rect{7, 7, 100, 20},
		},
		{
			name:    "border-box",
			decls:   "box-sizing: border-box; width: 100px; height: 20px; padding: 5px; border: 2px solid",
			border:  Rect{0, 0, 100, 20},
			content: Rect{7, 7, 86, 6},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, frag := commitTree(t, block("", block(tt.decls)), 300)
			child := frag.Children[0]
			assert.Equal(t, tt.border, child.BorderBox())
			assert.Equal(t, tt.content, child.ContentBox())
			assert.Equal(t, AllInsets(2), child.Metrics.Borders)
			assert.Equal(t, AllInsets(5), child.Metrics.Padding)
		})
	}
}

func TestBlockLayout_MinMax(t *testing.T) {
	narrow := block("width: 300px; max-width: 150px; height: 10px")
	tall := block("height: 10px; min-height: 40px")
	_, frag := commitTree(t, block("", narrow, tall), 400)

	assert.Equal(t, Vec2{150, 10}, frag.Children[0].BorderBox().Size())
	assert.Equal(t, Vec2{400, 40}, frag.Children[1].BorderBox().Size())
}

func TestBlockLayout_Absolute(t *testing.T) {
	abs := block("position: absolute; width: 20px; height: 20px; right: 10px; bottom: 5px")
	flow := block("height: 100px")
	_, frag := commitTree(t, block("", flow, abs), 200)

	require.Len(t, frag.Children, 2)
	assert.Equal(t, Rect{170, 75, 20, 20}, frag.Children[1].BorderBox())
	// out of flow boxes take no room
	assert.Equal(t, 100.0, frag.BorderBox().H)
}

func TestDisplayNone(t *testing.T) {
	hidden := block("height: 50px")
	hidden.Style.Display = css.DisplayNone
	_, frag := commitTree(t, block("", hidden, block("height: 10px")), 100)

	require.Len(t, frag.Children, 1)
	assert.Equal(t, 0.0, frag.Children[0].BorderBox().Y)
	assert.Equal(t, 10.0, frag.BorderBox().H)
}

func TestTextLayout(t *testing.T) {
	txt := NewTextBox(css.MustCompute("display: block; font-size: 10px"), "aaaa bbbb")
	_, frag := commitTree(t, block("", txt), 30)

	child := frag.Children[0]
	assert.Equal(t, 30.0, child.BorderBox().W)
	assert.InDelta(t, 24, child.BorderBox().H, 1e-9)

	lines := child.TextLines()
	require.Len(t, lines, 2)
	assert.Equal(t, "aaaa", lines[0].Text)
	assert.Equal(t, "bbbb", lines[1].Text)
}

func TestTextLayout_Intrinsic(t *testing.T) {
	txt := NewTextBox(css.MustCompute("display: block; font-size: 10px"), "aaaa bb")
	tree := NewTree(block("", txt), NewViewport(100, 100), nil)

	minSize := ComputeIntrinsicSize(tree, txt, IntrinsicMinContent, Vec2{100, 100})
	maxSize := ComputeIntrinsicSize(tree, txt, IntrinsicMaxContent, Vec2{100, 100})
	assert.InDelta(t, 24, minSize.X, 1e-9)
	assert.InDelta(t, 24, minSize.Y, 1e-9)
	assert.InDelta(t, 42, maxSize.X, 1e-9)
	assert.InDelta(t, 12, maxSize.Y, 1e-9)
}

func TestImageLayout_AspectRatio(t *testing.T) {
	img := &images.Image{Width: 200, Height: 100}
	box := NewImageBox(css.MustCompute("display: block; width: 50px"), img)
	_, frag := commitTree(t, block("", box), 300)
	assert.Equal(t, Vec2{50, 25}, frag.Children[0].BorderBox().Size())
}

func TestComputeIntrinsicSize_PanicsOnAuto(t *testing.T) {
	box := block("")
	tree := NewTree(box, NewViewport(10, 10), nil)
	assert.Panics(t, func() { ComputeIntrinsicSize(tree, box, IntrinsicAuto, Vec2{}) })
}

func TestMeasureDoesNotCommit(t *testing.T) {
	build := func() *Box {
		return block("padding: 4px",
			block("height: 12px; margin: 3px"),
			NewTextBox(css.MustCompute("display: block"), "some words to wrap"),
			block("display: flex", block("flex: 1; height: 5px"), block("width: 20px; height: 8px")),
		)
	}
	root := build()
	tree := NewTree(root, NewViewport(120, 400), nil)

	first, frag := LayoutAndCommitRoot(tree, rootInput(120, 400))
	measured := LayoutRoot(tree, rootInput(120, 400))
	assert.Same(t, frag, tree.Frag, "measuring must leave the committed tree alone")
	assert.Equal(t, first.Size, measured.Size)

	_, again := LayoutAndCommitRoot(tree, rootInput(120, 400))
	if diff := cmp.Diff(frag, again, boxComparer); diff != "" {
		t.Errorf("commit after measure differs (-first +second):\n%s", diff)
	}
}

func TestFragWalkAndOffset(t *testing.T) {
	_, frag := commitTree(t, block("", block("height: 5px", block("height: 5px")), block("height: 5px")), 50)

	var depths []int
	frag.Walk(func(f *Frag, depth int) bool {
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []int{0, 1, 2, 1}, depths)

	frag.Offset(Vec2{10, 20})
	assert.Equal(t, Vec2{10, 25}, frag.Children[1].BorderBox().Pos())
	assert.Equal(t, Vec2{10, 20}, frag.Children[0].Children[0].BorderBox().Pos())
}
