package cli

import (
	"os"
	"strings"

	"github.com/atotto/clipboard"

	"github.com/quillmud/mudterm"
)

// decoded key identifiers for escape sequences
const (
	keyNone = iota
	keyUp
	keyDown
	keyHome
	keyEnd
	keyPageUp
	keyPageDown
)

// InputHandler decodes keyboard input from the host terminal into
// scrollback navigation and outbound command lines. Navigation keys act on
// the session buffer directly; completed command lines and control events
// go to the registered callbacks.
type InputHandler struct {
	sess *mudterm.Session

	line []byte

	selecting bool
	selAnchor int
	selCur    int

	// OnSend receives a completed command line (without the newline).
	OnSend func(line string)
	// OnQuit fires on the quit key (Ctrl-]).
	OnQuit func()
}

// NewInputHandler creates a handler bound to a session.
func NewInputHandler(sess *mudterm.Session) *InputHandler {
	return &InputHandler{sess: sess}
}

// Line returns the pending command line.
func (h *InputHandler) Line() string { return string(h.line) }

// Run reads stdin until it closes or OnQuit fires. Call from its own
// goroutine.
func (h *InputHandler) Run() {
	buf := make([]byte, 256)
	var pending []byte
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return
		}
		pending = append(pending, buf[:n]...)
		var quit bool
		pending, quit = h.process(pending)
		if quit {
			return
		}
	}
}

// process consumes complete keys from the pending bytes and returns
// whatever tail is still incomplete (a partial escape sequence).
func (h *InputHandler) process(pending []byte) (rest []byte, quit bool) {
	for len(pending) > 0 {
		if pending[0] == 0x1b {
			key, used := decodeEscape(pending)
			if used == 0 {
				return pending, false // incomplete, wait for more
			}
			pending = pending[used:]
			h.handleKey(key)
			continue
		}
		b := pending[0]
		pending = pending[1:]
		switch b {
		case 0x1d: // Ctrl-]
			if h.OnQuit != nil {
				h.OnQuit()
			}
			return pending, true
		case 0x02: // Ctrl-B, begin or cancel a line selection
			h.toggleSelect()
		case 0x19: // Ctrl-Y, copy the highlighted selection
			h.copyHighlight()
		case '\r', '\n':
			if h.OnSend != nil {
				h.OnSend(string(h.line))
			}
			h.line = h.line[:0]
		case 0x7f, 0x08:
			if len(h.line) > 0 {
				h.line = h.line[:len(h.line)-1]
			}
		default:
			if b >= 0x20 {
				h.line = append(h.line, b)
			}
		}
	}
	return pending, false
}

func (h *InputHandler) handleKey(key int) {
	buf := h.sess.Buffer()
	if h.selecting {
		switch key {
		case keyUp:
			h.extendSelect(-1)
			return
		case keyDown:
			h.extendSelect(1)
			return
		}
	}
	switch key {
	case keyPageUp:
		buf.Scroll(-1, mudterm.ScrollPage)
	case keyPageDown:
		buf.Scroll(1, mudterm.ScrollPage)
	case keyUp:
		buf.Scroll(-1, mudterm.ScrollLine)
	case keyDown:
		buf.Scroll(1, mudterm.ScrollLine)
	case keyHome:
		buf.Scroll(-buf.WriteRow(), mudterm.ScrollLine)
	case keyEnd:
		buf.Follow()
	}
}

// toggleSelect starts a line selection on the bottom visible row, or
// cancels one already in progress. Up and Down extend an active selection;
// Ctrl-Y copies it.
func (h *InputHandler) toggleSelect() {
	buf := h.sess.Buffer()
	if h.selecting {
		h.selecting = false
		buf.ClearHighlight()
		return
	}
	row := buf.ViewRow() + buf.Height() - 1
	if wr := buf.WriteRow(); row > wr {
		row = wr
	}
	h.selecting = true
	h.selAnchor, h.selCur = row, row
	buf.Highlight(row, 0, row, buf.Width()-1)
}

// extendSelect grows or shrinks the selection one row at a time, scrolling
// when the moving end leaves the viewport.
func (h *InputHandler) extendSelect(delta int) {
	buf := h.sess.Buffer()
	cur := h.selCur + delta
	if cur < 0 {
		cur = 0
	}
	if wr := buf.WriteRow(); cur > wr {
		cur = wr
	}
	h.selCur = cur
	fr, tr := h.selAnchor, cur
	if fr > tr {
		fr, tr = tr, fr
	}
	buf.Highlight(fr, 0, tr, buf.Width()-1)
	if cur < buf.ViewRow() || cur >= buf.ViewRow()+buf.Height() {
		buf.Scroll(delta, mudterm.ScrollLine)
	}
}

// copyHighlight puts the highlighted selection on the system clipboard and
// ends any selection in progress.
func (h *InputHandler) copyHighlight() {
	buf := h.sess.Buffer()
	fr, fc, tr, tc, ok := buf.HighlightRange()
	if !ok {
		return
	}
	text := strings.Join(buf.TextRange(fr, fc, tr, tc), "\n")
	_ = clipboard.WriteAll(text)
	if h.selecting {
		h.selecting = false
		buf.ClearHighlight()
	}
}

// decodeEscape recognizes the navigation sequences the handler cares about.
// Returns the key and the bytes consumed; used == 0 means the sequence is
// incomplete, any unknown complete sequence comes back as keyNone.
func decodeEscape(b []byte) (key, used int) {
	if len(b) < 2 {
		return keyNone, 0
	}
	if b[1] != '[' && b[1] != 'O' {
		return keyNone, 1 // lone escape
	}
	if len(b) < 3 {
		return keyNone, 0
	}
	switch b[2] {
	case 'A':
		return keyUp, 3
	case 'B':
		return keyDown, 3
	case 'H':
		return keyHome, 3
	case 'F':
		return keyEnd, 3
	}
	// CSI digit ~ forms: 1~ home, 4~ end, 5~ pgup, 6~ pgdn
	if b[2] >= '0' && b[2] <= '9' {
		if len(b) < 4 {
			return keyNone, 0
		}
		if b[3] == '~' {
			switch b[2] {
			case '1', '7':
				return keyHome, 4
			case '4', '8':
				return keyEnd, 4
			case '5':
				return keyPageUp, 4
			case '6':
				return keyPageDown, 4
			}
			return keyNone, 4
		}
		return keyNone, 4
	}
	return keyNone, 3
}
