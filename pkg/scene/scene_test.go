package scene

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"boxflow/pkg/css"
	"boxflow/pkg/layout"
)

func intp(v int) *int { return &v }

const flexYAML = `
viewport:
  width: 300
  height: 200
root:
  name: row
  style: "display: flex; width: 300px"
  children:
    - name: a
      style: "flex: 1; height: 20px"
    - name: b
      style: "flex: 2; height: 20px"
`

func TestDecodeYAML(t *testing.T) {
	s, err := DecodeYAML(strings.NewReader(flexYAML))
	require.NoError(t, err)

	want := &Scene{
		Viewport: Viewport{Width: 300, Height: 200},
		Root: &Node{
			Name:  "row",
			Style: "display: flex; width: 300px",
			Children: []*Node{
				{Name: "a", Style: "flex: 1; height: 20px"},
				{Name: "b", Style: "flex: 2; height: 20px"},
			},
		},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("DecodeYAML mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeTOML(t *testing.T) {
	src := `
[viewport]
width = 100
height = 50

[root]
style = "display: table"

[[root.children]]
style = "display: table-row"

[[root.children.children]]
style = "display: table-cell"
rowspan = 0
colspan = 2
text = "cell"
`
	s, err := DecodeTOML(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, Viewport{Width: 100, Height: 50}, s.Viewport)
	require.Len(t, s.Root.Children, 1)
	require.Len(t, s.Root.Children[0].Children, 1)

	c := s.Root.Children[0].Children[0]
	require.NotNil(t, c.RowSpan)
	assert.Equal(t, 0, *c.RowSpan)
	assert.Equal(t, 2, c.ColSpan)
	assert.Equal(t, "cell", c.Text)
}

func TestDecode_Errors(t *testing.T) {
	_, err := DecodeYAML(strings.NewReader("viewport: {width: 1}\n"))
	assert.ErrorIs(t, err, ErrNoRoot)

	_, err = DecodeYAML(strings.NewReader("root: {colour: red}\n"))
	assert.Error(t, err, "unknown yaml fields are rejected")

	_, err = DecodeTOML(strings.NewReader("[root]\ncolour = \"red\"\n"))
	assert.Error(t, err, "unknown toml keys are rejected")

	_, err = DecodeTOML(strings.NewReader("[viewport]\nwidth = 1\n"))
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flex.yml")
	require.NoError(t, os.WriteFile(path, []byte(flexYAML), 0o644))

	s, err := Load(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Dir)
	assert.Equal(t, "row", s.Root.Name)

	_, err = Load(context.Background(), filepath.Join(dir, "scene.json"), nil)
	assert.Error(t, err, "missing file")

	json := filepath.Join(dir, "scene.json")
	require.NoError(t, os.WriteFile(json, []byte("{}"), 0o644))
	_, err = Load(context.Background(), json, nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestBuild_Flex(t *testing.T) {
	s, err := DecodeYAML(strings.NewReader(flexYAML))
	require.NoError(t, err)

	root, err := NewBuilder(nil).Build(s)
	require.NoError(t, err)
	assert.Equal(t, "row", root.Name)
	assert.Equal(t, css.DisplayFlex, root.Style.Display)

	tree := layout.NewTree(root, layout.NewViewport(s.Viewport.Width, s.Viewport.Height), nil)
	frag := tree.Commit()
	require.Len(t, frag.Children, 2)
	assert.InDelta(t, 100, frag.Children[0].BorderBox().W, 0.01)
	assert.InDelta(t, 200, frag.Children[1].BorderBox().W, 0.01)
	assert.InDelta(t, 100, frag.Children[1].BorderBox().X, 0.01)
}

func TestBuild_InheritsAndSpans(t *testing.T) {
	s := &Scene{Root: &Node{
		Style: "display: table; color: #0a141e",
		Children: []*Node{{
			Style: "display: table-row",
			Children: []*Node{
				{Style: "display: table-cell", RowSpan: intp(0), ColSpan: 2, Text: "x"},
				{Style: "display: table-cell", Text: "y"},
			},
		}},
	}}
	root, err := NewBuilder(nil).Build(s)
	require.NoError(t, err)

	// display: table builds a wrapper around the table box.
	assert.Equal(t, css.DisplayTable, root.Style.Display)
	require.Len(t, root.Children, 1)
	table := root.Children[0]
	assert.Equal(t, css.DisplayTableBox, table.Style.Display)

	cells := table.Children[0].Children
	require.Len(t, cells, 2)
	assert.Equal(t, layout.Attrs{RowSpan: 0, ColSpan: 2, Span: 1}, cells[0].Attrs)
	assert.Equal(t, layout.DefaultAttrs(), cells[1].Attrs)
	assert.Equal(t, css.Color{R: 10, G: 20, B: 30, A: 1}, cells[1].Style.Color)
	assert.True(t, cells[0].IsText())
}

func TestBuild_Image(t *testing.T) {
	dir := t.TempDir()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dot.png"), buf.Bytes(), 0o644))

	b := NewBuilder(nil)
	s := &Scene{Dir: dir, Root: &Node{Children: []*Node{
		{Image: "dot.png"},
		{Image: "dot.png", Style: "width: 8px"},
	}}}
	root, err := b.Build(s)
	require.NoError(t, err)
	require.True(t, root.Children[0].IsImage())
	assert.Equal(t, 2.0, root.Children[0].Image.AspectRatio())
	assert.Same(t, root.Children[0].Image, root.Children[1].Image)
	assert.Equal(t, 1, b.Images.Len())

	_, err = b.Build(&Scene{Dir: dir, Root: &Node{Image: "missing.png"}})
	assert.Error(t, err)
}

func TestBuild_InvalidDeclarations(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	b := NewBuilder(zap.New(core))
	s := &Scene{Root: &Node{Name: "root", Style: "width: banana; height: 10px"}}

	root, err := b.Build(s)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("skipping invalid declarations").Len())
	assert.Equal(t, css.MustCompute("height: 10px").Sizing, root.Style.Sizing)

	b.Strict = true
	_, err = b.Build(s)
	assert.Error(t, err)
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name string
		node *Node
	}{
		{"text with children", &Node{Text: "x", Children: []*Node{{}}}},
		{"text with image", &Node{Text: "x", Image: "a.png"}},
		{"image with children", &Node{Image: "a.png", Children: []*Node{{}}}},
		{"negative rowspan", &Node{Children: []*Node{{RowSpan: intp(-1)}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuilder(nil).Build(&Scene{Root: tt.node})
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	_, err := NewBuilder(nil).Build(&Scene{})
	assert.ErrorIs(t, err, ErrNoRoot)
}

func TestRunScript(t *testing.T) {
	src := `
viewport(320, 100);
const cells = [1, 2].map(i => text("display: table-cell", "cell " + i));
box({name: "root", style: "display: flex"},
	box("flex: 1", "plain"),
	box({style: "display: table-cell", rowspan: 0, colspan: 2}),
	cells,
	image("width: 4px", "a.png"));
`
	s, err := RunScript(context.Background(), "scene.js", src, nil)
	require.NoError(t, err)
	assert.Equal(t, Viewport{Width: 320, Height: 100}, s.Viewport)

	want := &Node{
		Name:  "root",
		Style: "display: flex",
		Children: []*Node{
			{Style: "flex: 1", Children: []*Node{{Text: "plain"}}},
			{Style: "display: table-cell", RowSpan: intp(0), ColSpan: 2},
			{Style: "display: table-cell", Text: "cell 1"},
			{Style: "display: table-cell", Text: "cell 2"},
			{Style: "width: 4px", Image: "a.png"},
		},
	}
	if diff := cmp.Diff(want, s.Root); diff != "" {
		t.Errorf("RunScript mismatch (-want +got):\n%s", diff)
	}
}

func TestRunScript_Console(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	_, err := RunScript(context.Background(), "log.js", `console.log("hello", 3); console.warn("careful"); box()`, zap.New(core))
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "hello 3", entries[0].Message)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "log.js", entries[1].ContextMap()["script"])
}

func TestRunScript_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		is   error
	}{
		{"syntax", "box(", nil},
		{"no root", "1 + 1", ErrNoRoot},
		{"bad option", `box({colour: "red"})`, nil},
		{"bad child", `box("", 42)`, nil},
		{"fractional span", `box({colspan: 1.5})`, nil},
		{"bad viewport", `viewport(0, 10); box()`, nil},
		{"missing image source", `image("")`, nil},
		{"thrown", `throw new Error("boom")`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RunScript(context.Background(), "bad.js", tt.src, nil)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestRunScript_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunScript(ctx, "loop.js", "for (;;) {}", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}
