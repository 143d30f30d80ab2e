package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boxflow/pkg/layout"
	"boxflow/pkg/render"
)

const flexScene = `
viewport: {width: 300, height: 200}
root:
  name: row
  style: "display: flex"
  children:
    - {name: a, style: "flex: 1; height: 20px"}
    - {name: b, style: "flex: 2; height: 20px"}
`

const stackScene = `
root:
  name: stack
  style: "display: block"
  children:
    - {style: "display: block; height: 20px"}
    - {style: "display: block; height: 20px"}
    - {style: "display: block; height: 20px"}
    - {style: "display: block; height: 20px"}
    - {style: "display: block; height: 20px"}
`

func writeScene(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command of a fresh app and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newApp().rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "boxflow version dev")
}

func TestLayoutCmd(t *testing.T) {
	yaml := writeScene(t, "flex.yaml", flexScene)
	js := writeScene(t, "one.js", `viewport(50, 50); box({name: "solo", style: "height: 5px"})`)

	out, err := execute(t, "layout", yaml, js)
	require.NoError(t, err)

	assert.Contains(t, out, "row [0 0 300 20]")
	assert.Contains(t, out, "  a [0 0 100 20]")
	assert.Contains(t, out, "  b [100 0 200 20]")
	assert.Contains(t, out, "solo [0 0 50 5]")
	assert.Less(t, strings.Index(out, yaml), strings.Index(out, js), "scenes print in argument order")
}

func TestLayoutCmd_ViewportOverrides(t *testing.T) {
	path := writeScene(t, "stack.yaml", stackScene)

	t.Setenv("BOXFLOW_VIEWPORT_WIDTH", "500")
	out, err := execute(t, "layout", path)
	require.NoError(t, err)
	assert.Contains(t, out, "stack [0 0 500 100]")

	out, err = execute(t, "layout", "--width", "120", path)
	require.NoError(t, err)
	assert.Contains(t, out, "stack [0 0 120 100]")
}

func TestLayoutCmd_Errors(t *testing.T) {
	_, err := execute(t, "layout")
	assert.Error(t, err, "needs a scene")

	_, err = execute(t, "layout", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := writeScene(t, "bad.yaml", `root: {text: "x", children: [{}]}`)
	_, err = execute(t, "layout", bad)
	assert.Error(t, err)
}

func TestDumpCmd(t *testing.T) {
	out, err := execute(t, "dump", writeScene(t, "flex.yaml", flexScene))
	require.NoError(t, err)

	var root fragJSON
	require.NoError(t, json.Unmarshal([]byte(out), &root))
	assert.Equal(t, "row", root.Name)
	assert.Equal(t, "flex", root.Display)
	require.Len(t, root.Children, 2)
	assert.Equal(t, "b", root.Children[1].Name)
	assert.Equal(t, layout.Rect{X: 100, W: 200, H: 20}, root.Children[1].Border)
}

func TestWireframeCmd(t *testing.T) {
	scenePath := writeScene(t, "flex.yaml", flexScene)
	out := filepath.Join(t.TempDir(), "wire.png")

	stdout, err := execute(t, "wireframe", scenePath, "-o", out, "--scale", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, out)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 600, 400), img.Bounds())
}

func TestRenderCmd(t *testing.T) {
	scenePath := writeScene(t, "box.yaml", `
viewport: {width: 40, height: 40}
root: {style: "display: block; height: 40px; background-color: red"}
`)
	out := filepath.Join(t.TempDir(), "paint.png")

	_, err := execute(t, "render", scenePath, "-o", out, "--wireframe")
	require.NoError(t, err)

	img, err := imaging.Open(out)
	require.NoError(t, err)
	r, g, b, _ := img.At(20, 20).RGBA()
	assert.Equal(t, [3]uint32{0xffff, 0, 0}, [3]uint32{r, g, b})
}

func TestPaginateCmd(t *testing.T) {
	scenePath := writeScene(t, "stack.yaml", stackScene)
	dir := filepath.Join(t.TempDir(), "pages")

	out, err := execute(t, "paginate", scenePath, "-o", dir, "--page-height", "45", "--width", "100")
	require.NoError(t, err)

	lines := strings.Fields(out)
	require.Len(t, lines, 3)
	for i, name := range []string{"page-001.png", "page-002.png", "page-003.png"} {
		assert.Equal(t, filepath.Join(dir, name), lines[i])
		img, err := imaging.Open(lines[i])
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 100, 45), img.Bounds())
	}
}

func TestDiffCmd(t *testing.T) {
	dir := t.TempDir()
	save := func(name string, c color.Color) string {
		img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				img.Set(x, y, c)
			}
		}
		path := filepath.Join(dir, name)
		require.NoError(t, render.SavePNG(img, path))
		return path
	}
	white := save("white.png", color.White)
	other := save("white2.png", color.White)
	black := save("black.png", color.Black)

	out, err := execute(t, "diff", white, other)
	require.NoError(t, err)
	assert.Contains(t, out, "0 of 16 pixels differ")

	diffPath := filepath.Join(dir, "diff.png")
	out, err = execute(t, "diff", white, black, "--diff", diffPath)
	assert.ErrorIs(t, err, errMismatch)
	assert.Contains(t, out, "16 of 16 pixels differ")
	assert.FileExists(t, diffPath)

	_, err = execute(t, "diff", white, black, "--max-percent", "100")
	assert.NoError(t, err)
}

func TestRun_ExitCode(t *testing.T) {
	assert.Equal(t, 0, run(context.Background(), []string{"--log-level", "error", "layout", writeScene(t, "flex.yaml", flexScene)}))
	assert.Equal(t, 1, run(context.Background(), []string{"no-such-command"}))
	assert.Equal(t, 1, run(context.Background(), []string{"--log-level", "loud", "layout", "x.yaml"}))
}

func TestLayoutCmd_Strict(t *testing.T) {
	path := writeScene(t, "loose.yaml", `root: {name: loose, style: "display: block; width: banana; height: 10px"}`)

	out, err := execute(t, "layout", "--width", "100", path)
	require.NoError(t, err)
	assert.Contains(t, out, "loose [0 0 100 10]")

	_, err = execute(t, "layout", "--strict", path)
	assert.Error(t, err)

	t.Setenv("BOXFLOW_STRICT", "true")
	_, err = execute(t, "layout", path)
	assert.Error(t, err)
}

func TestLayoutCmd_RemoteImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "boxflow/dev", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "image/png")
		_ = png.Encode(w, image.NewNRGBA(image.Rect(0, 0, 4, 2)))
	}))
	defer srv.Close()

	path := writeScene(t, "remote.yaml", `
root:
  name: page
  style: "display: block"
  children: [{name: pic, image: "`+srv.URL+`/pic.png", style: "display: block; width: 40px"}]
`)
	out, err := execute(t, "layout", path)
	require.NoError(t, err)
	assert.Contains(t, out, "  pic [0 0 40 20]")

	t.Setenv("BOXFLOW_IMAGES_REMOTE", "false")
	_, err = execute(t, "layout", path)
	assert.Error(t, err)
}
