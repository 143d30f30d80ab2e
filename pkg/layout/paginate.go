package layout

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

var (
	ErrTooManyPages = errors.New("layout: too many pages")
	ErrNoProgress   = errors.New("layout: page made no progress")
)

const DefaultMaxPages = 1000

type PageOptions struct {
	// Size is the page content size. A zero width uses the viewport width.
	Size     Vec2
	MaxPages int
}

// Page is one committed fragment of the tree.
type Page struct {
	Frag *Frag
	// Breakpoint ends the page, nil on the last one.
	Breakpoint *Breakpoint
}

// Paginate splits the tree into pages. Every page runs a discovery pass that
// picks the best breakpoint, then commits the content between the previous
// breakpoint and that one.
func Paginate(t *Tree, opts PageOptions) ([]Page, error) {
	size := opts.Size
	if size.X == 0 {
		size.X = t.Viewport.Small.W
	}
	if size.Y <= 0 {
		return nil, fmt.Errorf("paginate: page height must be positive, got %g", size.Y)
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	saved := t.FC
	defer func() { t.FC = saved }()

	var pages []Page
	prev := StartOfDocument()
	for {
		if len(pages) == maxPages {
			return pages, fmt.Errorf("%w: limit is %d", ErrTooManyPages, maxPages)
		}

		t.FC = NewFragmentainer(size)
		input := Input{
			KnownSize:       OptVec2{X: Some(size.X)},
			AvailableSpace:  size,
			ContainingBlock: size,
			Breakpoints:     BreakpointTraverser{Prev: prev},
		}

		t.FC.EnterDiscovery()
		out := LayoutRoot(t, input)
		t.FC.LeaveDiscovery()

		var curr *Breakpoint
		if !out.CompletelyLaidOut {
			curr = out.Breakpoint
			if curr == nil || sameBreakpoint(curr, prev) {
				return pages, fmt.Errorf("%w: page %d", ErrNoProgress, len(pages)+1)
			}
		}

		input.Breakpoints = BreakpointTraverser{Prev: prev, Curr: curr}
		_, frag := LayoutAndCommitRoot(t, input)
		pages = append(pages, Page{Frag: frag, Breakpoint: curr})
		logger.Debug("page committed",
			zap.Int("page", len(pages)),
			zap.Stringer("breakpoint", curr))

		if curr == nil {
			return pages, nil
		}
		prev = curr
	}
}

func sameBreakpoint(a, b *Breakpoint) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.EndIdx != b.EndIdx || a.Appeal != b.Appeal || a.Advance != b.Advance || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameBreakpoint(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
