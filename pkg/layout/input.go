package layout

// IntrinsicSize selects how a box is sized when it has no definite size.
type IntrinsicSize uint8

const (
	IntrinsicAuto IntrinsicSize = iota
	IntrinsicMinContent
	IntrinsicMaxContent
	IntrinsicStretchToFit
)

func (i IntrinsicSize) IsMinMax() bool {
	return i == IntrinsicMinContent || i == IntrinsicMaxContent
}

func (i IntrinsicSize) String() string {
	switch i {
	case IntrinsicMinContent:
		return "min-content"
	case IntrinsicMaxContent:
		return "max-content"
	case IntrinsicStretchToFit:
		return "stretch-to-fit"
	}
	return "auto"
}

// Input carries the parameters of one layout call. It is a value type:
// every level narrows a copy for its children.
type Input struct {
	// Fragment is the parent fragment to commit into. Nil means the call
	// only measures and must not touch any Frag.
	Fragment *Frag

	Intrinsic       IntrinsicSize
	KnownSize       OptVec2
	Position        Vec2
	AvailableSpace  Vec2
	ContainingBlock Vec2
	Breakpoints     BreakpointTraverser

	// Capmin is the minimum inline size of a table box, set by its wrapper
	// from the widest caption.
	Capmin Opt

	// PendingVerticalSizes is the space reserved below the box by its
	// ancestors' bottom borders and paddings.
	PendingVerticalSizes float64
}

func (i Input) Committing() bool { return i.Fragment != nil }

func (i Input) WithFragment(f *Frag) Input {
	i.Fragment = f
	return i
}

func (i Input) WithIntrinsic(s IntrinsicSize) Input {
	i.Intrinsic = s
	return i
}

func (i Input) WithKnownSize(s OptVec2) Input {
	i.KnownSize = s
	return i
}

func (i Input) WithPosition(p Vec2) Input {
	i.Position = p
	return i
}

func (i Input) WithAvailableSpace(s Vec2) Input {
	i.AvailableSpace = s
	return i
}

func (i Input) WithContainingBlock(s Vec2) Input {
	i.ContainingBlock = s
	return i
}

func (i Input) WithBreakpointTraverser(t BreakpointTraverser) Input {
	i.Breakpoints = t
	return i
}

func (i Input) AddPendingVerticalSize(v float64) Input {
	i.PendingVerticalSizes += v
	return i
}

// Output is the result of a layout call, in the box's own content-box space
// while the formatting context runs and in border-box space once Layout returns.
type Output struct {
	Size              Vec2
	CompletelyLaidOut bool
	Breakpoint        *Breakpoint
}

func OutputFromSize(size Vec2) Output {
	return Output{Size: size, CompletelyLaidOut: true}
}
