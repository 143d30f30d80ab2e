package main

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"boxflow/pkg/config"
	"boxflow/pkg/images"
	"boxflow/pkg/layout"
	"boxflow/pkg/logging"
	"boxflow/pkg/scene"
	"boxflow/pkg/text"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

// app is the state shared by every subcommand of one run.
type app struct {
	v       *viper.Viper
	cfg     *config.Config
	logger  *zap.Logger
	fonts   *text.FontStore
	fetcher images.Fetcher
	ready   bool
}

func newApp() *app {
	return &app{v: config.New(), logger: zap.NewNop()}
}

func (a *app) rootCmd() *cobra.Command {
	var cfgFile string
	root := &cobra.Command{
		Use:           "boxflow",
		Short:         "Lay out CSS box trees into fragments",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cfgFile)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logging.Sync(a.logger)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default ./boxflow.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-file", "", "also write JSON logs to this file")
	pf.Float64("width", 0, "viewport width (overrides the config and the scene)")
	pf.Float64("height", 0, "viewport height")
	pf.Bool("strict", false, "fail on invalid style declarations")
	_ = a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log.file", pf.Lookup("log-file"))
	_ = a.v.BindPFlag("strict", pf.Lookup("strict"))

	root.AddCommand(
		a.layoutCmd(),
		a.wireframeCmd(),
		a.renderCmd(),
		a.paginateCmd(),
		a.dumpCmd(),
		a.diffCmd(),
	)
	return root
}

func (a *app) init(cfgFile string) error {
	cfg, err := config.Load(a.v, cfgFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.logger = logger.With(zap.String("run", uuid.New().String()))
	layout.SetLogger(a.logger)

	a.fonts, err = text.NewFontStoreFromConfig(cfg.FontConfig())
	if err != nil {
		return fmt.Errorf("fonts: %w", err)
	}
	if cfg.Images.Remote {
		a.fetcher = images.NewHTTPFetcher(cfg.Images.Timeout, "boxflow/"+Version)
	}
	a.cfg = cfg
	a.ready = true
	a.logger.Debug("configured", zap.String("config", a.v.ConfigFileUsed()))
	return nil
}

func (a *app) fail(err error) {
	if a.ready {
		a.logger.Error("command failed", zap.Error(err))
		logging.Sync(a.logger)
		return
	}
	fmt.Fprintln(os.Stderr, "boxflow:", err)
}

// loaded is a scene built into a layout tree.
type loaded struct {
	path  string
	scene *scene.Scene
	tree  *layout.Tree
}

// load reads a scene and builds its tree against the configured viewport.
// A scene viewport replaces the config one; --width and --height replace both.
func (a *app) load(ctx context.Context, cmd *cobra.Command, path string) (*loaded, error) {
	s, err := scene.Load(ctx, path, a.logger)
	if err != nil {
		return nil, err
	}

	w, h := a.cfg.Viewport.Width, a.cfg.Viewport.Height
	if s.Viewport.Width > 0 {
		w = s.Viewport.Width
	}
	if s.Viewport.Height > 0 {
		h = s.Viewport.Height
	}
	if v, _ := cmd.Flags().GetFloat64("width"); v > 0 {
		w = v
	}
	if v, _ := cmd.Flags().GetFloat64("height"); v > 0 {
		h = v
	}
	b := scene.NewBuilder(a.logger)
	b.Strict = a.cfg.Strict
	b.Images.Fetcher = a.fetcher
	root, err := b.Build(s)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	vp := layout.NewViewport(w, h)
	vp.DPI = a.cfg.Viewport.DPI

	a.logger.Debug("scene loaded", zap.String("scene", path), zap.Float64("width", w), zap.Float64("height", h))
	return &loaded{path: path, scene: s, tree: layout.NewTree(root, vp, a.fonts)}, nil
}

// canvasSize covers the viewport and everything the root fragment spans.
func canvasSize(vp layout.Viewport, f *layout.Frag) (int, int) {
	w, h := vp.Small.W, vp.Small.H
	if f != nil {
		r := f.Metrics.MarginBox()
		w = math.Max(w, r.X+r.W)
		h = math.Max(h, r.Y+r.H)
	}
	return int(math.Ceil(w)), int(math.Ceil(h))
}
