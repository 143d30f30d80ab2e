package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"boxflow/pkg/layout"
	"boxflow/pkg/render"
)

func (a *app) wireframeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wireframe <scene>",
		Short: "Stroke the border box of every fragment into a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.load(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			frag := l.tree.Commit()
			canvas := render.NewGGCanvas(canvasSize(l.tree.Viewport, frag))
			n := render.Wireframe(frag, canvas)
			a.logger.Debug("wireframe drawn", zap.Int("rects", n))
			return a.save(cmd, canvas.Image())
		},
	}
	a.outputFlags(cmd)
	return cmd
}

func (a *app) renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <scene>",
		Short: "Paint backgrounds, borders, images and text into a PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.load(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			frag := l.tree.Commit()
			r := render.NewRenderer(canvasSize(l.tree.Viewport, frag))
			r.Render(frag)
			if overlay, _ := cmd.Flags().GetBool("wireframe"); overlay || a.cfg.Render.Wireframe {
				render.Wireframe(frag, r.Canvas())
			}
			return a.save(cmd, r.Image())
		},
	}
	a.outputFlags(cmd)
	cmd.Flags().Bool("wireframe", false, "overlay border boxes")
	return cmd
}

func (a *app) paginateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "paginate <scene>",
		Short: "Split a scene into pages and write one wireframe PNG per page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.load(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			size := layout.Vec2{X: a.cfg.Page.Width, Y: a.cfg.Page.Height}
			if cmd.Flags().Changed("page-height") {
				size.Y, _ = cmd.Flags().GetFloat64("page-height")
			}
			if size.X == 0 {
				size.X = l.tree.Viewport.Small.W
			}
			pages, err := layout.Paginate(l.tree, layout.PageOptions{Size: size, MaxPages: a.cfg.Page.Max})
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			for i, p := range pages {
				canvas := render.NewGGCanvas(int(size.X), int(size.Y))
				render.Wireframe(p.Frag, canvas)
				path := filepath.Join(dir, fmt.Sprintf("page-%03d.png", i+1))
				if err := render.SavePNG(canvas.Image(), path); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			a.logger.Info("paginated", zap.String("scene", args[0]), zap.Int("pages", len(pages)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&dir, "out", "o", "pages", "output directory")
	cmd.Flags().Float64("page-height", 0, "page height (default from config)")
	return cmd
}

func (a *app) outputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("out", "o", "out.png", "output PNG")
	cmd.Flags().Float64("scale", 0, "scale the image by this factor (default from config)")
}

// save scales img by --scale or render.scale and writes it to the --out path.
func (a *app) save(cmd *cobra.Command, img image.Image) error {
	out, _ := cmd.Flags().GetString("out")
	scale := a.cfg.Render.Scale
	if cmd.Flags().Changed("scale") {
		scale, _ = cmd.Flags().GetFloat64("scale")
	}
	scaled, err := render.Scale(img, scale)
	if err != nil {
		return err
	}
	if err := render.SavePNG(scaled, out); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
