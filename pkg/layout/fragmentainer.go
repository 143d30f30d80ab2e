package layout

import "math"

// Fragmentainer is the page or column content is split into. The zero value
// has infinite dimensions and never allows breaks.
type Fragmentainer struct {
	size       Vec2
	finite     bool
	discovery  bool
	monolithic int
}

func NewFragmentainer(size Vec2) Fragmentainer {
	return Fragmentainer{size: size, finite: true}
}

func (f *Fragmentainer) Size() Vec2 {
	if !f.finite {
		return Vec2{math.Inf(1), math.Inf(1)}
	}
	return f.size
}

func (f *Fragmentainer) HasInfiniteDimensions() bool { return !f.finite }

func (f *Fragmentainer) IsDiscoveryMode() bool { return f.AllowBreak() && f.discovery }

// AllowBreak is false in an infinite fragmentainer and inside monolithic boxes.
func (f *Fragmentainer) AllowBreak() bool { return f.finite && f.monolithic == 0 }

// IsMonolithicBox reports whether no monolithic box is currently open.
func (f *Fragmentainer) IsMonolithicBox() bool { return f.monolithic == 0 }

func (f *Fragmentainer) EnterDiscovery() { f.discovery = true }
func (f *Fragmentainer) LeaveDiscovery() { f.discovery = false }

func (f *Fragmentainer) EnterMonolithicBox() { f.monolithic++ }

func (f *Fragmentainer) LeaveMonolithicBox() {
	if f.monolithic == 0 {
		panic("layout: unbalanced LeaveMonolithicBox")
	}
	f.monolithic--
}

// AcceptsFit reports whether a block of the given height starting at
// verticalPosition still fits once the pending sizes are added.
func (f *Fragmentainer) AcceptsFit(verticalPosition, verticalSize, pendingVerticalSizes float64) bool {
	return verticalPosition+verticalSize+pendingVerticalSizes <= f.Size().Y
}

func (f *Fragmentainer) LeftVerticalSpace(verticalPosition, pendingVerticalSizes float64) float64 {
	return f.Size().Y - verticalPosition - pendingVerticalSizes
}
