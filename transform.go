package mudterm

// Line is a completed logical line on its way into the scrollback. The
// transform chain may inspect or rewrite it before commit.
type Line struct {
	Cells []Cell
}

// Text returns the line's display bytes without styling.
func (l *Line) Text() string { return cellsToString(l.Cells) }

// SetText replaces the line's content with s in a uniform color.
func (l *Line) SetText(s string, c Color) {
	l.Cells = l.Cells[:0]
	for i := 0; i < len(s); i++ {
		l.Cells = append(l.Cells, MakeCell(s[i], c))
	}
}

// TransformAction is a transform's verdict on a line.
type TransformAction int

const (
	// TransformKeep passes the line through unchanged.
	TransformKeep TransformAction = iota
	// TransformReplace stores the (possibly rewritten) line in place of
	// the original. A replace also cancels a suppression signalled by an
	// earlier transform.
	TransformReplace
	// TransformSuppress drops the line from the scrollback.
	TransformSuppress
)

// TransformFunc is one registered line transform.
type TransformFunc func(*Line) TransformAction

// TransformChain runs registered transforms in registration order. Every
// transform sees the output of the ones before it; a suppress or replace
// verdict does not short-circuit the chain. The chain's final verdict is
// what the session stores.
type TransformChain struct {
	transforms []TransformFunc
}

// Register appends a transform to the chain.
func (tc *TransformChain) Register(t TransformFunc) {
	tc.transforms = append(tc.transforms, t)
}

// Len returns the number of registered transforms.
func (tc *TransformChain) Len() int { return len(tc.transforms) }

// Apply runs the chain over the line in place and reports whether the line
// was modified and whether it ended up suppressed.
func (tc *TransformChain) Apply(l *Line) (modified, suppressed bool) {
	for _, t := range tc.transforms {
		switch t(l) {
		case TransformReplace:
			modified = true
			suppressed = false
		case TransformSuppress:
			suppressed = true
		}
	}
	return modified, suppressed
}
