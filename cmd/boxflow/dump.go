package main

import (
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"boxflow/pkg/layout"
	"boxflow/pkg/render"
)

var errMismatch = errors.New("images differ")

// fragJSON is the dump form of a fragment.
type fragJSON struct {
	Name     string      `json:"name"`
	Display  string      `json:"display,omitempty"`
	Border   layout.Rect `json:"border"`
	Content  layout.Rect `json:"content"`
	Lines    []string    `json:"lines,omitempty"`
	Children []*fragJSON `json:"children,omitempty"`
}

func newFragJSON(f *layout.Frag) *fragJSON {
	j := &fragJSON{Name: fragName(f), Border: f.BorderBox(), Content: f.ContentBox()}
	if f.Box != nil {
		j.Display = f.Box.Style.Display.String()
	}
	for _, l := range f.TextLines() {
		j.Lines = append(j.Lines, l.Text)
	}
	for _, c := range f.Children {
		j.Children = append(j.Children, newFragJSON(c))
	}
	return j
}

func (a *app) dumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <scene>",
		Short: "Print the committed fragment tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := a.load(cmd.Context(), cmd, args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(newFragJSON(l.tree.Commit()), "", "  ")
			if err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
}

func (a *app) diffCmd() *cobra.Command {
	opts := render.DefaultCompareOptions()
	var diffOut string
	cmd := &cobra.Command{
		Use:   "diff <actual.png> <expected.png>",
		Short: "Compare two images pixel by pixel",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Diff = diffOut != ""
			res, err := render.CompareFiles(args[0], args[1], opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d pixels differ (%.2f%%), max channel difference %d\n",
				res.DifferentPixels, res.TotalPixels, res.DifferentPercent(), res.MaxDifference)
			if res.Diff != nil {
				if err := render.SavePNG(res.Diff, diffOut); err != nil {
					return err
				}
			}
			if !res.Match {
				return fmt.Errorf("%w: %s %s", errMismatch, args[0], args[1])
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.Tolerance, "tolerance", opts.Tolerance, "per-channel difference still counted as equal")
	f.IntVar(&opts.FuzzyRadius, "fuzzy", opts.FuzzyRadius, "match against neighbours within this radius")
	f.Float64Var(&opts.MaxDifferentPercent, "max-percent", opts.MaxDifferentPercent, "allowed share of differing pixels")
	f.StringVar(&diffOut, "diff", "", "write a diff image to this path")
	return cmd
}
