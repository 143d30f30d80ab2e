package layout

import (
	"boxflow/pkg/text"
)

// leafFits reports whether a leaf of the given height may be placed in the
// current fragment. A leaf taller than a whole fragmentainer is placed anyway
// and overflows.
func leafFits(t *Tree, input Input, height float64) bool {
	fc := &t.FC
	if !fc.IsDiscoveryMode() {
		return true
	}
	if fc.AcceptsFit(input.Position.Y, height, input.PendingVerticalSizes) {
		return true
	}
	return !fc.AcceptsFit(0, height, 0)
}

func (b *Box) run() text.Run {
	return text.Run{Text: b.Text, Font: b.Font()}
}

// textLayout sizes a text run. Under auto sizing the run is broken greedily
// against the known or available inline size.
func textLayout(t *Tree, box *Box, input Input) Output {
	run := box.run()
	lineHeight := run.Font.LineHeight()

	var size Vec2
	switch input.Intrinsic {
	case IntrinsicMaxContent:
		lines := run.BreakLines(run.MaxContentWidth())
		size = Vec2{run.MaxContentWidth(), float64(len(lines)) * lineHeight}
	case IntrinsicMinContent:
		w := run.MinContentWidth()
		lines := run.BreakLines(w)
		size = Vec2{w, float64(len(lines)) * lineHeight}
	default:
		width := input.KnownSize.X.Or(input.AvailableSpace.X)
		if width <= 0 {
			width = run.MaxContentWidth()
		}
		lines := run.BreakLines(width)
		widest := 0.0
		for _, l := range lines {
			widest = max(widest, l.Width)
		}
		size = Vec2{input.KnownSize.X.Or(widest), float64(len(lines)) * lineHeight}
	}

	if !leafFits(t, input, size.Y) {
		return Output{CompletelyLaidOut: false, Breakpoint: Overflow()}
	}
	return OutputFromSize(size)
}

// TextLines returns the lines of a committed text fragment, broken against
// its content box.
func (f *Frag) TextLines() []text.Line {
	if f.Box == nil || !f.Box.IsText() {
		return nil
	}
	return f.Box.run().BreakLines(f.ContentBox().W)
}

// imageLayout sizes a replaced image from its natural size. A single known
// axis scales the other one with the aspect ratio.
func imageLayout(t *Tree, box *Box, input Input) Output {
	img := box.Image
	size := Vec2{img.Width, img.Height}
	ratio := img.AspectRatio()
	switch {
	case input.KnownSize.X.Set && input.KnownSize.Y.Set:
		size = Vec2{input.KnownSize.X.Val, input.KnownSize.Y.Val}
	case input.KnownSize.X.Set:
		size.X = input.KnownSize.X.Val
		if ratio > 0 {
			size.Y = size.X / ratio
		}
	case input.KnownSize.Y.Set:
		size.Y = input.KnownSize.Y.Val
		size.X = size.Y * ratio
	}

	if !leafFits(t, input, size.Y) {
		return Output{CompletelyLaidOut: false, Breakpoint: Overflow()}
	}
	return OutputFromSize(size)
}
