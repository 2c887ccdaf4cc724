package cli

import (
	"sync"

	"github.com/quillmud/mudterm"
)

// Overlay is a specialized drawable composed into a Screen. Composition
// gives no virtual dispatch, so the screen keeps an explicit ordered list
// and visits each dirty overlay before the generic buffer pass.
type Overlay interface {
	// Dirty reports whether the overlay needs redrawing.
	Dirty() bool
	// Draw emits the overlay's cells through the operation writer and
	// clears its dirty state.
	Draw(ops *Writer) error
}

// Screen binds one session's scrollback to the host terminal. Rendering is
// explicit: nothing redraws until Render is called, and Render emits output
// only when the buffer or an overlay changed.
type Screen struct {
	term  *Terminal
	sess  *mudterm.Session
	frame *mudterm.Frame

	overlays []Overlay
	status   *StatusBar
}

// NewScreen creates a screen for the session on the given terminal. The
// session's viewport occupies the top rows; a status bar takes the bottom
// line.
func NewScreen(t *Terminal, sess *mudterm.Session) *Screen {
	buf := sess.Buffer()
	s := &Screen{
		term:   t,
		sess:   sess,
		frame:  mudterm.NewFrame(buf.Width(), buf.Height()),
		status: NewStatusBar(buf.Height(), buf.Width()),
	}
	s.overlays = append(s.overlays, s.status)
	return s
}

// Status returns the screen's status bar.
func (s *Screen) Status() *StatusBar { return s.status }

// AddOverlay appends a drawable visited on every render pass, after earlier
// overlays and before the buffer diff.
func (s *Screen) AddOverlay(o Overlay) {
	s.overlays = append(s.overlays, o)
}

// Invalidate forces the next render to repaint everything.
func (s *Screen) Invalidate() {
	s.frame.Invalidate()
	s.status.MarkDirty()
}

// Render runs one explicit render pass: dirty overlays first, then the
// buffer diff, then a single flush. A clean screen writes nothing.
func (s *Screen) Render() error {
	buf := s.sess.Buffer()
	ops := s.term.Ops()
	wrote := false

	for _, o := range s.overlays {
		if !o.Dirty() {
			continue
		}
		if err := o.Draw(ops); err != nil {
			s.frame.Invalidate()
			return err
		}
		wrote = true
	}
	if wrote {
		// Overlay output moved the cursor and changed the style behind the
		// frame's back; make the buffer pass re-establish both.
		s.frame.ForgetTerminalState()
	}

	if buf.TakeDirty() || wrote {
		view := buf.View()
		curRow, curCol, ok := buf.CursorPos()
		if !ok {
			// Scrolled away from the tail; park the caret bottom-left.
			curRow, curCol = buf.Height()-1, 0
		}
		if err := s.frame.Paint(view, curRow, curCol, ops); err != nil {
			return err
		}
		wrote = true
	}

	if !wrote {
		return nil
	}
	return s.term.Flush()
}

// StatusBar is the one-line summary at the bottom of the screen: connection
// state on the left, scroll position on the right.
type StatusBar struct {
	mu    sync.Mutex
	row   int
	width int
	text  string
	dirty bool
}

// NewStatusBar creates a status bar on the given row.
func NewStatusBar(row, width int) *StatusBar {
	return &StatusBar{row: row, width: width, dirty: true}
}

// Set replaces the status text.
func (b *StatusBar) Set(text string) {
	b.mu.Lock()
	if text != b.text {
		b.text = text
		b.dirty = true
	}
	b.mu.Unlock()
}

// MarkDirty forces a redraw on the next render pass.
func (b *StatusBar) MarkDirty() {
	b.mu.Lock()
	b.dirty = true
	b.mu.Unlock()
}

// Dirty reports whether the bar changed since its last draw.
func (b *StatusBar) Dirty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dirty
}

// Draw paints the bar in inverse style, padded to the full width.
func (b *StatusBar) Draw(ops *Writer) error {
	b.mu.Lock()
	text := b.text
	b.dirty = false
	b.mu.Unlock()

	if err := ops.MoveTo(b.row, 0); err != nil {
		return err
	}
	style := mudterm.SwapColors(mudterm.ColorDefault)
	if err := ops.SetColor(style); err != nil {
		return err
	}
	// The last column stays untouched for the same reason the renderer
	// skips the bottom-right cell.
	for col := 0; col < b.width-1; col++ {
		ch := byte(' ')
		if col < len(text) {
			ch = text[col]
		}
		if err := ops.PutGlyph(ch); err != nil {
			return err
		}
	}
	return ops.SetColor(mudterm.ColorDefault)
}

var (
	activeScreen   *Screen
	activeScreenMu sync.Mutex
)

// InitScreen installs the process-wide screen. Call once after opening the
// terminal.
func InitScreen(s *Screen) {
	activeScreenMu.Lock()
	activeScreen = s
	activeScreenMu.Unlock()
}

// ActiveScreen returns the process-wide screen. Panics before InitScreen;
// that is a wiring bug, not a runtime condition.
func ActiveScreen() *Screen {
	activeScreenMu.Lock()
	defer activeScreenMu.Unlock()
	if activeScreen == nil {
		panic("cli: ActiveScreen called before InitScreen")
	}
	return activeScreen
}
