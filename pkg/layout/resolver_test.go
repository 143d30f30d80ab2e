package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxflow/pkg/css"
)

func TestResolve_AbsoluteUnits(t *testing.T) {
	box := block("")
	r := NewResolver(NewTree(box, NewViewport(800, 600), nil), box)

	tests := []struct {
		in       string
		expected float64
	}{
		{"10px", 10},
		{"1in", 96},
		{"2.54cm", 96},
		{"25.4mm", 96},
		{"72pt", 96},
		{"6pc", 96},
		{"101.6q", 96},
		{"0.3px", 0.296875},
	}
	for _, tt := range tests {
		l, ok := css.ParseLength(tt.in)
		require.True(t, ok, tt.in)
		assert.Equal(t, tt.expected, r.Resolve(l), tt.in)
	}
}

func TestResolve_ViewportUnits(t *testing.T) {
	box := block("")
	vp := NewViewport(800, 600)
	vp.Small = Rect{W: 400, H: 300}
	r := NewResolver(NewTree(box, vp, nil), box)

	assert.Equal(t, 80.0, r.Resolve(css.Length{Val: 10, Unit: css.UnitVw}))
	assert.Equal(t, 40.0, r.Resolve(css.Length{Val: 10, Unit: css.UnitSvw}))
	assert.Equal(t, 60.0, r.Resolve(css.Length{Val: 10, Unit: css.UnitVh}))
	assert.Equal(t, 60.0, r.Resolve(css.Length{Val: 10, Unit: css.UnitVmin}))
	assert.Equal(t, 80.0, r.Resolve(css.Length{Val: 10, Unit: css.UnitVmax}))
}

func TestResolve_FontRelative(t *testing.T) {
	child := block("font-size: 2em")
	root := block("font-size: 20px", child)
	tree := NewTree(root, NewViewport(800, 600), nil)

	assert.Equal(t, 20.0, root.FontSize)
	assert.Equal(t, 40.0, child.FontSize)

	r := NewResolver(tree, child)
	assert.Equal(t, 60.0, r.Resolve(css.Em(1.5)))
	assert.Equal(t, 40.0, r.Resolve(css.Length{Val: 2, Unit: css.UnitRem}))
	// synthetic faces advance 0.6em per rune
	assert.Equal(t, 24.0, r.Resolve(css.Length{Val: 1, Unit: css.UnitCh}))
	assert.Equal(t, 48.0, r.Resolve(css.Length{Val: 1, Unit: css.UnitLh}))
}

func TestResolve_FontSizeKeywords(t *testing.T) {
	box := block("")
	r := NewResolver(NewTree(box, NewViewport(100, 100), nil), box)

	assert.Equal(t, 16.0, r.ResolveFontSize(css.FontSize{Kind: css.FontSizeMedium}, 30))
	assert.Equal(t, 24.0, r.ResolveFontSize(css.FontSize{Kind: css.FontSizeXXLarge}, 30))
	assert.Equal(t, 37.5, r.ResolveFontSize(css.FontSize{Kind: css.FontSizeLarger}, 30))
	assert.Equal(t, 15.0, r.ResolveFontSize(css.FontSize{Kind: css.FontSizeLength, Value: css.Percent(50)}, 30))
}

func TestResolveCalc(t *testing.T) {
	box := block("")
	r := NewResolver(NewTree(box, NewViewport(100, 100), nil), box)

	e, err := css.ParseExpr("calc(100% - 2 * 8px)")
	require.NoError(t, err)
	assert.Equal(t, 184.0, r.ResolveCalc(e, 200))

	assert.Equal(t, 25.0, r.ResolveCalc(css.Div(css.PxExpr(50), css.Number(2)), 0))
	assert.Equal(t, 0.0, r.ResolveCalc(nil, 100))
	assert.Equal(t, 0.0, r.ResolveWidth(css.WidthAuto, 100))

	assert.Panics(t, func() {
		r.ResolveCalc(css.Unary{Op: css.OpAbs, Arg: css.PxExpr(-3)}, 0)
	})
}

func TestResolveBorderWidth(t *testing.T) {
	box := block("")
	r := NewResolver(NewTree(box, NewViewport(100, 100), nil), box)

	assert.Equal(t, 1.0, r.ResolveBorderWidth(css.Px(0.25)))
	assert.Equal(t, 0.0, r.ResolveBorderWidth(css.Px(0)))
	assert.Equal(t, 2.0, r.ResolveBorderWidth(css.Px(2.75)))
}
