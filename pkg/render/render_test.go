package render

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxflow/pkg/css"
	"boxflow/pkg/layout"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	red   = color.NRGBA{255, 0, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
)

func frag(decls string, r layout.Rect, children ...*layout.Frag) *layout.Frag {
	f := layout.NewFrag(layout.NewBox(css.MustCompute("display: block; " + decls)))
	f.Metrics.Position = r.Pos()
	f.Metrics.BorderSize = r.Size()
	f.Children = children
	return f
}

func pixel(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

type recordingCanvas struct {
	rects  []layout.Rect
	colors []color.Color
}

func (c *recordingCanvas) StrokeRect(r layout.Rect, col color.Color, _ float64) {
	c.rects = append(c.rects, r)
	c.colors = append(c.colors, col)
}

func TestWireframe(t *testing.T) {
	root := frag("", layout.Rect{W: 100, H: 50},
		frag("", layout.Rect{W: 100, H: 20}),
		frag("", layout.Rect{Y: 20, W: 100, H: 30}),
		frag("", layout.Rect{Y: 50}),
	)
	canvas := &recordingCanvas{}
	n := Wireframe(root, canvas)

	assert.Equal(t, 3, n, "empty fragments are skipped")
	assert.Equal(t, []layout.Rect{{W: 100, H: 50}, {W: 100, H: 20}, {Y: 20, W: 100, H: 30}}, canvas.rects)
	assert.Equal(t, []color.Color{DepthColor(0), DepthColor(1), DepthColor(1)}, canvas.colors)
	assert.Zero(t, Wireframe(nil, canvas))
}

func TestWireframe_GGCanvas(t *testing.T) {
	canvas := NewGGCanvas(40, 40)
	Wireframe(frag("", layout.Rect{X: 10, Y: 10, W: 20, H: 20}), canvas)

	img := canvas.Image()
	assert.NotEqual(t, white, pixel(img, 10, 20), "left edge is stroked")
	assert.Equal(t, white, pixel(img, 20, 20))
	assert.Equal(t, white, pixel(img, 5, 5))
}

func TestRender_Background(t *testing.T) {
	root := frag("", layout.Rect{W: 60, H: 40},
		frag("background: red", layout.Rect{X: 10, W: 20, H: 20}),
	)
	r := NewRenderer(60, 40)
	r.Render(root)

	img := r.Image()
	assert.Equal(t, red, pixel(img, 20, 10))
	assert.Equal(t, white, pixel(img, 5, 5))
	assert.Equal(t, white, pixel(img, 50, 30))
}

func TestRender_Gradient(t *testing.T) {
	r := NewRenderer(100, 10)
	r.Render(frag("background: linear-gradient(to right, red, blue)", layout.Rect{W: 100, H: 10}))

	img := r.Image()
	left, right := pixel(img, 1, 5), pixel(img, 98, 5)
	assert.Greater(t, left.R, left.B)
	assert.Greater(t, right.B, right.R)
}

func TestRender_Border(t *testing.T) {
	f := frag("border: 4px solid blue", layout.Rect{W: 28, H: 28})
	f.Metrics.Borders = layout.AllInsets(4)

	r := NewRenderer(40, 40)
	r.Render(f)

	img := r.Image()
	assert.Equal(t, blue, pixel(img, 1, 14))
	assert.Equal(t, blue, pixel(img, 14, 26))
	assert.Equal(t, white, pixel(img, 14, 14))
}

func TestRender_VisibilityHidden(t *testing.T) {
	r := NewRenderer(20, 20)
	r.Render(frag("background: red; visibility: hidden", layout.Rect{W: 20, H: 20}))
	assert.Equal(t, white, pixel(r.Image(), 10, 10))
}

func TestSortByZIndex(t *testing.T) {
	a := frag("position: relative; z-index: 2", layout.Rect{})
	b := frag("position: relative; z-index: -1", layout.Rect{})
	c := frag("", layout.Rect{})
	positioned := frag("position: relative", layout.Rect{})
	// z-index does not apply to static boxes
	static := frag("z-index: 5", layout.Rect{})

	frags := []*layout.Frag{a, positioned, b, c, static}
	sortByZIndex(frags)
	assert.Equal(t, []*layout.Frag{b, c, static, positioned, a}, frags)
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestScale(t *testing.T) {
	img := solid(10, 6, red)

	scaled, err := Scale(img, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 12), scaled.Bounds().Size())

	same, err := Scale(img, 1)
	require.NoError(t, err)
	assert.Same(t, img, same)

	_, err = Scale(img, 0)
	assert.Error(t, err)
}

func TestCompare(t *testing.T) {
	base := solid(10, 10, white)

	changed := solid(10, 10, white)
	changed.SetNRGBA(3, 3, color.NRGBA{250, 250, 250, 255})
	changed.SetNRGBA(6, 6, red)

	tests := []struct {
		name      string
		opts      CompareOptions
		match     bool
		different int
	}{
		{"exact", CompareOptions{}, false, 2},
		{"tolerance absorbs small differences", CompareOptions{Tolerance: 5}, false, 1},
		{"percent threshold", CompareOptions{Tolerance: 5, MaxDifferentPercent: 1}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compare(changed, base, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.match, res.Match)
			assert.Equal(t, tt.different, res.DifferentPixels)
			assert.Equal(t, 100, res.TotalPixels)
			assert.Equal(t, 255, res.MaxDifference)
		})
	}

	same, err := Compare(base, base, CompareOptions{})
	require.NoError(t, err)
	assert.True(t, same.Match)
	assert.Zero(t, same.DifferentPercent())
}

func TestCompare_Fuzzy(t *testing.T) {
	expected := solid(10, 10, white)
	expected.SetNRGBA(5, 5, red)
	shifted := solid(10, 10, white)
	shifted.SetNRGBA(6, 5, red)

	res, err := Compare(shifted, expected, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DifferentPixels)

	res, err = Compare(shifted, expected, CompareOptions{FuzzyRadius: 1})
	require.NoError(t, err)
	assert.True(t, res.Match)
	assert.Zero(t, res.DifferentPixels)
}

func TestCompare_Diff(t *testing.T) {
	changed := solid(4, 4, white)
	changed.SetNRGBA(1, 2, blue)

	res, err := Compare(changed, solid(4, 4, white), CompareOptions{Diff: true})
	require.NoError(t, err)
	require.NotNil(t, res.Diff)
	assert.Equal(t, red, res.Diff.NRGBAAt(1, 2))
	assert.Equal(t, white, res.Diff.NRGBAAt(0, 0))
}

func TestCompare_SizeMismatch(t *testing.T) {
	_, err := Compare(solid(4, 4, white), solid(5, 4, white), CompareOptions{})
	assert.True(t, errors.Is(err, ErrSizeMismatch))
}

func TestCompareFiles(t *testing.T) {
	dir := t.TempDir()
	a, b := filepath.Join(dir, "a.png"), filepath.Join(dir, "b.png")
	require.NoError(t, SavePNG(solid(8, 8, red), a))
	require.NoError(t, SavePNG(solid(8, 8, red), b))

	res, err := CompareFiles(a, b, DefaultCompareOptions())
	require.NoError(t, err)
	assert.True(t, res.Match)

	_, err = CompareFiles(a, filepath.Join(dir, "missing.png"), DefaultCompareOptions())
	assert.Error(t, err)
}
