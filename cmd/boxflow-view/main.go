// Command boxflow-view shows a scene in a window, painted with its fragment
// wireframe on top. Submitting a path in the entry reloads the view.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"boxflow/pkg/config"
	"boxflow/pkg/images"
	"boxflow/pkg/layout"
	"boxflow/pkg/logging"
	"boxflow/pkg/render"
	"boxflow/pkg/scene"
	"boxflow/pkg/text"
)

func main() {
	cfgFile := flag.String("config", "", "config file")
	flag.Parse()

	cfg, err := config.Load(config.New(), *cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "boxflow-view:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "boxflow-view:", err)
		os.Exit(1)
	}
	defer logging.Sync(logger)
	layout.SetLogger(logger)

	fonts, err := text.NewFontStoreFromConfig(cfg.FontConfig())
	if err != nil {
		logger.Fatal("loading fonts", zap.Error(err))
	}
	v := &viewer{cfg: cfg, logger: logger, fonts: fonts}
	v.run(flag.Arg(0))
}

type viewer struct {
	cfg    *config.Config
	logger *zap.Logger
	fonts  *text.FontStore
}

func (v *viewer) run(initial string) {
	a := app.New()
	w := a.NewWindow("boxflow")
	w.Resize(fyne.NewSize(float32(v.cfg.Viewport.Width), float32(v.cfg.Viewport.Height)+80))

	img := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	img.FillMode = canvas.ImageFillOriginal
	status := widget.NewLabel("Enter a scene path and press Enter")

	entry := widget.NewEntry()
	entry.SetPlaceHolder("scene.yaml")
	entry.OnSubmitted = func(path string) {
		status.SetText("Loading " + path + "...")
		go func() {
			out, err := v.draw(path)
			fyne.Do(func() {
				if err != nil {
					v.logger.Warn("draw failed", zap.String("scene", path), zap.Error(err))
					status.SetText("Error: " + err.Error())
					return
				}
				img.Image = out
				img.Refresh()
				status.SetText(path)
				w.SetTitle("boxflow: " + path)
			})
		}()
	}

	content := container.NewBorder(entry, status, nil, nil, container.NewScroll(img))
	w.SetContent(content)
	w.Canvas().Focus(entry)

	if initial != "" {
		entry.SetText(initial)
		entry.OnSubmitted(initial)
	}
	w.ShowAndRun()
}

// draw lays out the scene at path and paints it with its wireframe.
func (v *viewer) draw(path string) (image.Image, error) {
	s, err := scene.Load(context.Background(), path, v.logger)
	if err != nil {
		return nil, err
	}
	w, h := v.cfg.Viewport.Width, v.cfg.Viewport.Height
	if s.Viewport.Width > 0 && s.Viewport.Height > 0 {
		w, h = s.Viewport.Width, s.Viewport.Height
	}
	b := scene.NewBuilder(v.logger)
	b.Strict = v.cfg.Strict
	if v.cfg.Images.Remote {
		b.Images.Fetcher = images.NewHTTPFetcher(v.cfg.Images.Timeout, "boxflow-view")
	}
	root, err := b.Build(s)
	if err != nil {
		return nil, err
	}
	vp := layout.NewViewport(w, h)
	vp.DPI = v.cfg.Viewport.DPI

	frag := layout.NewTree(root, vp, v.fonts).Commit()
	r := render.NewRenderer(int(w), int(h))
	r.Render(frag)
	render.Wireframe(frag, r.Canvas())
	return r.Image(), nil
}
