package layout

import (
	"fmt"
	"strings"
)

// Appeal ranks break candidates, worst first.
type Appeal uint8

const (
	AppealEmpty    Appeal = 0
	AppealOverflow Appeal = 1
	AppealAvoid    Appeal = 2
	AppealClassB   Appeal = 3
	AppealForced   Appeal = 4
	AppealMax      Appeal = 255
)

func (a Appeal) String() string {
	switch a {
	case AppealEmpty:
		return "EMPTY"
	case AppealOverflow:
		return "OVERFLOW"
	case AppealAvoid:
		return "AVOID"
	case AppealClassB:
		return "CLASS_B"
	case AppealForced:
		return "FORCED"
	case AppealMax:
		return "MAX"
	}
	return fmt.Sprintf("appeal(%d)", uint8(a))
}

// Advance tells the next fragment where to resume relative to EndIdx.
type Advance uint8

const (
	// AdvanceDont keeps the box at EndIdx-1 open; the next fragment recurses into it.
	AdvanceDont Advance = iota
	AdvanceWithChildren
	AdvanceWithoutChildren
)

func (a Advance) String() string {
	switch a {
	case AdvanceWithChildren:
		return "WITH_CHILDREN"
	case AdvanceWithoutChildren:
		return "WITHOUT_CHILDREN"
	}
	return "DONT"
}

// Breakpoint is a candidate break, mirroring the recursion that produced it.
// Children holds one entry per parallel flow; entries may be nil.
// A Breakpoint is never mutated once returned from a layout call.
type Breakpoint struct {
	EndIdx   int
	Appeal   Appeal
	Children []*Breakpoint
	Advance  Advance
}

func StartOfDocument() *Breakpoint {
	return &Breakpoint{EndIdx: 0, Advance: AdvanceWithoutChildren}
}

func EndOfDocument() *Breakpoint {
	return &Breakpoint{EndIdx: 1, Advance: AdvanceWithoutChildren}
}

func Forced(endIdx int) *Breakpoint {
	return &Breakpoint{EndIdx: endIdx, Appeal: AppealForced, Advance: AdvanceWithoutChildren}
}

func FromChild(child *Breakpoint, endIdx int, avoid bool) *Breakpoint {
	b := &Breakpoint{
		EndIdx:   endIdx,
		Appeal:   child.Appeal,
		Children: []*Breakpoint{child},
		Advance:  AdvanceDont,
	}
	if avoid {
		b.Appeal = AppealAvoid
	}
	return b
}

// FromChildren builds a breakpoint for parallel flows. Its appeal is the worst
// of the non-nil children. At least one child must be set.
func FromChildren(children []*Breakpoint, endIdx int, avoid, advance bool) *Breakpoint {
	appeal := AppealMax
	for _, c := range children {
		if c != nil {
			appeal = min(appeal, c.Appeal)
		}
	}
	if appeal == AppealMax {
		panic("layout: cannot build breakpoint from children when no children have a breakpoint")
	}
	b := &Breakpoint{
		EndIdx:   endIdx,
		Appeal:   appeal,
		Children: children,
		Advance:  AdvanceDont,
	}
	if advance {
		b.Advance = AdvanceWithChildren
	}
	if avoid {
		b.Appeal = AppealAvoid
	}
	return b
}

func ClassB(endIdx int, avoid bool) *Breakpoint {
	b := &Breakpoint{EndIdx: endIdx, Appeal: AppealClassB, Advance: AdvanceWithoutChildren}
	if avoid {
		b.Appeal = AppealAvoid
	}
	return b
}

// Overflow is a placeholder meant to be overridden by any real candidate.
func Overflow() *Breakpoint {
	return &Breakpoint{EndIdx: 0, Appeal: AppealOverflow, Advance: AdvanceDont}
}

func (b *Breakpoint) WithAppeal(a Appeal) *Breakpoint {
	cp := *b
	cp.Appeal = a
	return &cp
}

// OverrideIfBetter returns the better of b and other. Between two overflows
// the earlier one is kept; otherwise an equal or higher appeal wins, so ties
// go to the later candidate.
func (b *Breakpoint) OverrideIfBetter(other *Breakpoint) *Breakpoint {
	if b == nil {
		return other
	}
	if other == nil {
		return b
	}
	if b.Appeal == AppealOverflow && other.Appeal == AppealOverflow {
		return b
	}
	if b.Appeal <= other.Appeal {
		return other
	}
	return b
}

func (b *Breakpoint) String() string {
	if b == nil {
		return "none"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "(end: %d appeal: %s advance: %s", b.EndIdx, b.Appeal, b.Advance)
	if len(b.Children) == 0 {
		sb.WriteString("; no child)")
		return sb.String()
	}
	sb.WriteString("; children: [")
	for i, c := range b.Children {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.String())
	}
	sb.WriteString("])")
	return sb.String()
}

// BreakpointTraverser hands each formatting context the slice of the previous
// and current breakpoints that concerns it. Both nil means no fragmentation.
type BreakpointTraverser struct {
	Prev, Curr *Breakpoint
}

func (t BreakpointTraverser) IsDeactivated() bool { return t.Prev == nil && t.Curr == nil }

// TraversePrev returns the previous fragment's breakpoint inside child i,
// flow j, when the previous fragment ended inside that child.
func (t BreakpointTraverser) TraversePrev(i, j int) *Breakpoint {
	p := t.Prev
	if p != nil && len(p.Children) > 0 &&
		(i+1 == p.EndIdx || (p.Advance == AdvanceWithChildren && i == p.EndIdx)) {
		if j < len(p.Children) {
			return p.Children[j]
		}
	}
	return nil
}

func (t BreakpointTraverser) TraverseCurr(i, j int) *Breakpoint {
	c := t.Curr
	if c != nil && len(c.Children) > 0 && i+1 == c.EndIdx {
		if j < len(c.Children) {
			return c.Children[j]
		}
	}
	return nil
}

func (t BreakpointTraverser) TraverseInsideUsingIthChildToJthParallelFlow(i, j int) BreakpointTraverser {
	return BreakpointTraverser{Prev: t.TraversePrev(i, j), Curr: t.TraverseCurr(i, j)}
}

func (t BreakpointTraverser) TraverseInsideUsingIthChild(i int) BreakpointTraverser {
	return t.TraverseInsideUsingIthChildToJthParallelFlow(i, 0)
}

// Start is the first child index to lay out in this fragment.
func (t BreakpointTraverser) Start() (int, bool) {
	if t.Prev == nil {
		return 0, false
	}
	if t.Prev.Advance == AdvanceDont {
		return max(t.Prev.EndIdx-1, 0), true
	}
	return t.Prev.EndIdx, true
}

// End is the index where this fragment stops.
func (t BreakpointTraverser) End() (int, bool) {
	if t.Curr == nil {
		return 0, false
	}
	return t.Curr.EndIdx, true
}
