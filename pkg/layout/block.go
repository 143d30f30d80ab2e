package layout

import (
	"boxflow/pkg/css"
)

// fragmentEmptyBox sizes a box without children. Outside discovery it is cut
// at the bottom of the fragmentainer, unless no fragmentainer could hold it.
func fragmentEmptyBox(t *Tree, input Input) Output {
	known := input.KnownSize.Or(Vec2{})
	fc := &t.FC
	if fc.IsDiscoveryMode() {
		if leafFits(t, input, known.Y) {
			return OutputFromSize(known)
		}
		return Output{CompletelyLaidOut: false, Breakpoint: Overflow()}
	}
	if !fc.AcceptsFit(0, known.Y, 0) {
		return OutputFromSize(known)
	}
	left := fc.LeftVerticalSpace(input.Position.Y, input.PendingVerticalSizes)
	return Output{
		Size:              Vec2{known.X, min(known.Y, left)},
		CompletelyLaidOut: left >= known.Y,
	}
}

// breakState tracks the best breakpoint of one block run in discovery mode.
type breakState struct {
	fc     *Fragmentainer
	best   *Breakpoint
	parent *Box
}

func (s *breakState) processChild(i int, child *Breakpoint) {
	if !s.fc.IsDiscoveryMode() || child == nil {
		return
	}
	avoid := s.parent.Style.Break.Inside == css.BreakInsideAvoid
	s.best = s.best.OverrideIfBetter(FromChild(child, i+1, avoid))
}

// afterChild returns a non-nil output when the run must stop after child i.
func (s *breakState) afterChild(i int, size Vec2, childComplete bool) *Output {
	if !s.fc.IsDiscoveryMode() {
		return nil
	}
	if !childComplete {
		return &Output{Size: size, CompletelyLaidOut: false, Breakpoint: s.best}
	}
	children := s.parent.Children
	child := children[i]
	if i+1 != len(children) {
		avoid := s.parent.Style.Break.Inside == css.BreakInsideAvoid ||
			child.Style.Break.After == css.BreakAvoid ||
			children[i+1].Style.Break.Before == css.BreakAvoid
		s.best = s.best.OverrideIfBetter(ClassB(i+1, avoid))
	}
	if child.Style.Break.After == css.BreakPage {
		return &Output{Size: size, CompletelyLaidOut: false, Breakpoint: Forced(i + 1)}
	}
	return nil
}

// computeCapmin is the widest min-content contribution of the captions next
// to a table box.
func computeCapmin(t *Tree, box *Box, input Input, inlineSize float64) float64 {
	capmin := 0.0
	for _, c := range box.Children {
		if c.Style.Display == css.DisplayTableBox {
			continue
		}
		margin := computeMargins(newResolver(t, c), c, Input{
			ContainingBlock: Vec2{inlineSize, input.KnownSize.Y.Or(0)},
		})
		contrib := ComputeIntrinsicSize(t, c, IntrinsicMinContent, input.ContainingBlock)
		capmin = max(capmin, contrib.X+margin.Horizontal())
	}
	return capmin
}

// blockLayout stacks children [startAt, stopAt) vertically.
//
// See CSS 2.2 §9.4.1 and §10.3.3.
func blockLayout(t *Tree, box *Box, input Input, startAt, stopAt int) Output {
	if len(box.Children) == 0 {
		return fragmentEmptyBox(t, input)
	}

	blockSize := 0.0
	inlineSize := input.KnownSize.X.Or(0)

	// The parent wants a commit but has no idea of our width.
	if input.Committing() && !input.KnownSize.X.Set {
		inlineSize = blockLayout(t, box, input.WithFragment(nil), startAt, stopAt).Size.X
	}

	state := &breakState{fc: &t.FC, best: &Breakpoint{}, parent: box}
	end := len(box.Children)
	if stopAt != noStop {
		end = min(stopAt, end)
	}

	completelyLaidOut := false
	lastMarginBottom := 0.0
	var absolutes []int

	for i := startAt; i < end; i++ {
		c := box.Children[i]

		if c.Style.Break.Before == css.BreakPage && i != startAt && t.FC.IsDiscoveryMode() {
			return Output{
				Size:              Vec2{inlineSize, blockSize},
				CompletelyLaidOut: false,
				Breakpoint:        Forced(i),
			}
		}

		if c.Style.Position.RemovesFromFlow() {
			absolutes = append(absolutes, i)
			if t.FC.AllowBreak() && i+1 == end {
				completelyLaidOut = i+1 == len(box.Children)
			}
			continue
		}

		childInput := Input{
			Fragment:             input.Fragment,
			Intrinsic:            input.Intrinsic,
			AvailableSpace:       Vec2{input.AvailableSpace.X, 0},
			ContainingBlock:      Vec2{inlineSize, input.KnownSize.Y.Or(0)},
			Breakpoints:          input.Breakpoints.TraverseInsideUsingIthChild(i),
			PendingVerticalSizes: input.PendingVerticalSizes,
		}

		margin := computeMargins(newResolver(t, c), c, childInput)

		blockSize += max(margin.Top, lastMarginBottom) - lastMarginBottom
		if c.Style.Sizing.Width.IsAuto() && !c.IsReplaced() && (input.Committing() || input.KnownSize.X.Set) {
			childInput.KnownSize.X = Some(inlineSize - margin.Horizontal())
		}
		childInput.Position = input.Position.Add(Vec2{margin.Start, blockSize})

		if c.Style.Display == css.DisplayTableBox {
			childInput.Capmin = Some(computeCapmin(t, box, input, inlineSize))
		}

		out := Layout(t, c, childInput)
		blockSize += out.Size.Y + margin.Bottom
		lastMarginBottom = margin.Bottom

		state.processChild(i, out.Breakpoint)
		if stop := state.afterChild(i, Vec2{inlineSize, blockSize}, out.CompletelyLaidOut); stop != nil {
			return *stop
		}

		if t.FC.AllowBreak() && i+1 == end {
			completelyLaidOut = out.CompletelyLaidOut && i+1 == len(box.Children)
		}

		inlineSize = max(inlineSize, out.Size.X+margin.Horizontal())
	}

	if input.Committing() {
		for _, i := range absolutes {
			layoutAbsolute(t, box.Children[i], input, Vec2{inlineSize, input.KnownSize.Y.Or(blockSize)})
		}
	}

	out := Output{
		Size:              Vec2{inlineSize, blockSize},
		CompletelyLaidOut: completelyLaidOut,
	}
	if t.FC.IsDiscoveryMode() {
		out.Breakpoint = state.best
	}
	if !t.FC.AllowBreak() {
		out.CompletelyLaidOut = true
	}
	return out
}

// layoutAbsolute commits an out-of-flow child against the content box of its
// parent. Offsets that are auto fall back to the static position at the top
// start corner.
//
// See CSS 2.2 §10.3.7 and §10.6.4.
func layoutAbsolute(t *Tree, c *Box, input Input, cb Vec2) {
	r := newResolver(t, c)
	childInput := Input{
		Fragment:        input.Fragment,
		ContainingBlock: cb,
		AvailableSpace:  cb,
	}
	margin := computeMargins(r, c, childInput)
	offsets := c.Style.Offsets

	if c.Style.Sizing.Width.IsAuto() && !offsets.Start.Auto && !offsets.End.Auto {
		w := cb.X - r.ResolveWidth(offsets.Start, cb.X) - r.ResolveWidth(offsets.End, cb.X) - margin.Horizontal()
		childInput.KnownSize.X = Some(max(0, w))
	}
	if c.Style.Sizing.Height.IsAuto() && !offsets.Top.Auto && !offsets.Bottom.Auto {
		h := cb.Y - r.ResolveWidth(offsets.Top, cb.Y) - r.ResolveWidth(offsets.Bottom, cb.Y) - margin.Vertical()
		childInput.KnownSize.Y = Some(max(0, h))
	}

	// Measure first so end/bottom anchoring knows the border box.
	size := Layout(t, c, childInput.WithFragment(nil)).Size
	if !childInput.KnownSize.X.Set {
		childInput.KnownSize.X = Some(size.X)
	}

	pos := Vec2{margin.Start, margin.Top}
	switch {
	case !offsets.Start.Auto:
		pos.X += r.ResolveWidth(offsets.Start, cb.X)
	case !offsets.End.Auto:
		pos.X = cb.X - r.ResolveWidth(offsets.End, cb.X) - margin.End - size.X
	}
	switch {
	case !offsets.Top.Auto:
		pos.Y += r.ResolveWidth(offsets.Top, cb.Y)
	case !offsets.Bottom.Auto:
		pos.Y = cb.Y - r.ResolveWidth(offsets.Bottom, cb.Y) - margin.Bottom - size.Y
	}
	childInput.Position = input.Position.Add(pos)
	Layout(t, c, childInput)
}
