package cli

import (
	"fmt"
	"io"

	"github.com/quillmud/mudterm"
)

// Writer implements mudterm.OpWriter over an io.Writer, translating
// operations into capability strings. The first sink error is sticky: every
// later operation returns it untouched, so a render pass aborts cleanly.
type Writer struct {
	caps *Caps
	w    io.Writer
	err  error
}

// NewWriter binds a Writer to a sink. The caller owns buffering and
// flushing of the sink.
func NewWriter(w io.Writer, caps *Caps) *Writer {
	return &Writer{caps: caps, w: w}
}

// Err returns the sticky error, if any.
func (o *Writer) Err() error { return o.err }

func (o *Writer) puts(s string) error {
	if o.err != nil {
		return o.err
	}
	if s == "" {
		return nil
	}
	_, o.err = io.WriteString(o.w, s)
	return o.err
}

// MoveTo positions the cursor at a zero-based row and column.
func (o *Writer) MoveTo(row, col int) error {
	return o.puts(o.caps.ti.TGoto(col, row))
}

// SetColor translates a packed style into attribute strings. The default
// style collapses to a bare attribute reset.
func (o *Writer) SetColor(c mudterm.Color) error {
	ti := o.caps.ti
	if err := o.puts(ti.AttrOff); err != nil {
		return err
	}
	if c == mudterm.ColorDefault {
		return nil
	}
	if mudterm.Bold(c) {
		if err := o.puts(ti.Bold); err != nil {
			return err
		}
	}
	if err := o.puts(ti.TParm(ti.SetFg, int(mudterm.Fg(c)))); err != nil {
		return err
	}
	return o.puts(ti.TParm(ti.SetBg, int(mudterm.Bg(c))))
}

// PutGlyph writes one display byte, translating alternate-charset glyphs
// through the terminal's acsc table.
func (o *Writer) PutGlyph(ch byte) error {
	if o.err != nil {
		return o.err
	}
	b := o.caps.acsByte(ch)
	_, o.err = o.w.Write([]byte{b})
	return o.err
}

// EnableAcs enters the alternate character set.
func (o *Writer) EnableAcs() error { return o.puts(o.caps.ti.EnterAcs) }

// DisableAcs leaves the alternate character set.
func (o *Writer) DisableAcs() error { return o.puts(o.caps.ti.ExitAcs) }

// ScrollUp shifts the display up n rows using the SU control sequence,
// resetting attributes first so the exposed rows fill with the default
// style.
func (o *Writer) ScrollUp(n int) error {
	if err := o.puts(o.caps.ti.AttrOff); err != nil {
		return err
	}
	return o.puts(fmt.Sprintf("\x1b[%dS", n))
}

// Clear wipes the display and homes the cursor.
func (o *Writer) Clear() error { return o.puts(o.caps.ti.Clear) }
