package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"boxflow/pkg/layout"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	nameStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	rectStyle  = lipgloss.NewStyle().Faint(true)
	textStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

func (a *app) layoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "layout <scene>...",
		Short: "Lay out scenes and print their fragment trees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := make([]string, len(args))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Concurrency)
			for i, path := range args {
				i, path := i, path
				g.Go(func() error {
					l, err := a.load(ctx, cmd, path)
					if err != nil {
						return err
					}
					var b strings.Builder
					b.WriteString(titleStyle.Render(path) + "\n")
					printFrag(&b, l.tree.Commit())
					out[i] = b.String()
					a.logger.Info("scene laid out", zap.String("scene", path))
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}
			for _, s := range out {
				fmt.Fprint(cmd.OutOrStdout(), s)
			}
			return nil
		},
	}
}

// printFrag writes one line per fragment: name, border box and, for text,
// its broken lines.
func printFrag(w io.Writer, root *layout.Frag) {
	root.Walk(func(f *layout.Frag, depth int) bool {
		indent := strings.Repeat("  ", depth)
		fmt.Fprintf(w, "%s%s %s\n", indent, nameStyle.Render(fragName(f)), rectStyle.Render(formatRect(f.BorderBox())))
		for _, line := range f.TextLines() {
			fmt.Fprintf(w, "%s  %s\n", indent, textStyle.Render(strconv.Quote(line.Text)))
		}
		return true
	})
}

func fragName(f *layout.Frag) string {
	if f.Box == nil {
		return "anonymous"
	}
	return f.Box.String()
}

func formatRect(r layout.Rect) string {
	return fmt.Sprintf("[%s %s %s %s]", num(r.X), num(r.Y), num(r.W), num(r.H))
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
