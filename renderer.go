package mudterm

import "fmt"

// OpWriter receives the renderer's terminal operations. Implementations
// translate them into concrete capability strings for the attached
// terminal; any error aborts the render pass.
type OpWriter interface {
	// MoveTo positions the cursor (zero-based row and column).
	MoveTo(row, col int) error
	// SetColor establishes the style for subsequent glyphs.
	SetColor(c Color) error
	// PutGlyph writes one display byte. Glyphs in the alternate character
	// set range arrive between EnableAcs and DisableAcs calls.
	PutGlyph(ch byte) error
	// EnableAcs and DisableAcs bracket runs of line-drawing glyphs.
	EnableAcs() error
	DisableAcs() error
	// ScrollUp shifts the whole display up n rows, filling the bottom with
	// blanks in the default style. The cursor position and style are
	// unspecified afterward.
	ScrollUp(n int) error
}

// Frame is the last-rendered state of a display surface. Paint diffs a
// viewport against it and emits the minimal operation sequence that brings
// the terminal in line, updating the frame as it goes. A fresh frame (or
// one that has been invalidated) differs from every real viewport, so the
// first pass paints everything.
type Frame struct {
	width  int
	height int
	cells  []Cell

	lastColor  Color
	styleKnown bool
	acsOn      bool

	curRow, curCol int
	cursorKnown    bool
}

// NewFrame creates a frame for a width*height display surface.
func NewFrame(width, height int) *Frame {
	return &Frame{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
}

// Width returns the frame width in columns.
func (f *Frame) Width() int { return f.width }

// Height returns the frame height in rows.
func (f *Frame) Height() int { return f.height }

// Invalidate forgets everything the frame believes about the terminal,
// forcing the next Paint to redraw every cell. Call it after a resize,
// an external clear, or a failed render pass.
func (f *Frame) Invalidate() {
	for i := range f.cells {
		f.cells[i] = 0
	}
	f.styleKnown = false
	f.cursorKnown = false
	f.acsOn = false
}

// ForgetTerminalState drops the frame's style and cursor assumptions
// without touching its cell contents. Call it whenever something other than
// Paint wrote to the terminal (a status line, another drawable) so the next
// pass re-establishes the style before new glyphs and restores the cursor.
// Such writers must leave the alternate character set disabled.
func (f *Frame) ForgetTerminalState() {
	f.styleKnown = false
	f.cursorKnown = false
}

// Resize reallocates the frame for new dimensions and invalidates it.
func (f *Frame) Resize(width, height int) {
	f.width = width
	f.height = height
	f.cells = make([]Cell, width*height)
	f.Invalidate()
}

// Paint diffs view against the frame and writes the difference to ops,
// finishing with the cursor at (curRow, curCol). An unchanged viewport with
// an unchanged cursor emits nothing. On a sink error the pass aborts, the
// frame is invalidated, and the error is returned; the next successful pass
// repaints from scratch.
func (f *Frame) Paint(view []Cell, curRow, curCol int, ops OpWriter) error {
	if len(view) != f.width*f.height {
		return fmt.Errorf("render: view is %d cells, frame wants %d", len(view), f.width*f.height)
	}
	if err := f.tryScrollUp(view, ops); err != nil {
		return f.fail(err)
	}

	changed := false
	last := -2
	for i, cell := range view {
		row := i / f.width
		col := i % f.width
		if row == f.height-1 && col == f.width-1 {
			// Writing the bottom-right cell makes some terminals scroll
			// or wrap; leave it alone.
			continue
		}
		if f.cells[i] == cell {
			continue
		}
		if i != last+1 || col == 0 {
			if err := ops.MoveTo(row, col); err != nil {
				return f.fail(err)
			}
		}
		ch := cell.Ch()
		if acs := IsAcs(ch); acs != f.acsOn {
			var err error
			if acs {
				err = ops.EnableAcs()
			} else {
				err = ops.DisableAcs()
			}
			if err != nil {
				return f.fail(err)
			}
			f.acsOn = acs
		}
		if c := cell.Color(); !f.styleKnown || c != f.lastColor {
			if err := ops.SetColor(c); err != nil {
				return f.fail(err)
			}
			f.lastColor = c
			f.styleKnown = true
		}
		if err := ops.PutGlyph(ch); err != nil {
			return f.fail(err)
		}
		f.cells[i] = cell
		last = i
		changed = true
	}

	if f.acsOn {
		if err := ops.DisableAcs(); err != nil {
			return f.fail(err)
		}
		f.acsOn = false
	}
	if changed || !f.cursorKnown || curRow != f.curRow || curCol != f.curCol {
		if err := ops.MoveTo(curRow, curCol); err != nil {
			return f.fail(err)
		}
		f.curRow, f.curCol = curRow, curCol
		f.cursorKnown = true
	}
	return nil
}

func (f *Frame) fail(err error) error {
	f.Invalidate()
	return err
}

// tryScrollUp detects the common case of the viewport having scrolled up a
// few rows and emits a single scroll operation instead of repainting the
// shifted rows cell by cell. The remaining differences are picked up by the
// normal diff pass.
func (f *Frame) tryScrollUp(view []Cell, ops OpWriter) error {
	if f.height < 2 {
		return nil
	}
	w := f.width
	for n := 1; n < f.height; n++ {
		keep := (f.height - n) * w
		if !f.shiftMatches(n, view[:keep]) {
			continue
		}
		if !hasContent(view[:keep]) {
			return nil // matching blank rows, nothing to save
		}
		if cellsEqual(f.cells[:keep], view[:keep]) {
			return nil // rows already in place, scrolling gains nothing
		}
		if err := ops.ScrollUp(n); err != nil {
			return err
		}
		copy(f.cells, f.cells[n*w:])
		blank := BlankCell(ColorDefault)
		for i := keep; i < len(f.cells); i++ {
			f.cells[i] = blank
		}
		f.styleKnown = false
		f.cursorKnown = false
		return nil
	}
	return nil
}

func cellsEqual(a, b []Cell) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// shiftMatches reports whether the frame shifted up n rows equals the top
// of the view. The bottom-right cell is never written, so a zero there
// stands in for the blank the screen actually shows.
func (f *Frame) shiftMatches(n int, top []Cell) bool {
	off := n * f.width
	corner := len(f.cells) - 1
	blank := BlankCell(ColorDefault)
	for i := range top {
		got := f.cells[off+i]
		if off+i == corner && got == 0 {
			got = blank
		}
		if got != top[i] {
			return false
		}
	}
	return true
}

func hasContent(cells []Cell) bool {
	blank := BlankCell(ColorDefault)
	for _, c := range cells {
		if c != blank && c != 0 {
			return true
		}
	}
	return false
}
