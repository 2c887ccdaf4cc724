package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmud/mudterm"
)

// The status bar shares the op writer with the buffer diff. After it draws,
// the frame's style and cursor memory must be dropped or the next pass
// trusts state the bar just clobbered.
func TestStatusBarDrawDoesNotPoisonNextPaint(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testCaps())
	frame := mudterm.NewFrame(10, 2)
	bar := NewStatusBar(2, 10)

	red := mudterm.WithFg(mudterm.ColorDefault, mudterm.Red)
	view := make([]mudterm.Cell, 10*2)
	for i := range view {
		view[i] = mudterm.BlankCell(red)
	}
	require.NoError(t, frame.Paint(view, 1, 0, w))

	// The bar ends on ColorDefault with the cursor on its own row.
	bar.Set("connected")
	require.NoError(t, bar.Draw(w))
	frame.ForgetTerminalState()

	buf.Reset()
	view[0] = mudterm.MakeCell('x', red)
	require.NoError(t, frame.Paint(view, 1, 0, w))
	assert.Contains(t, buf.String(), "\x1b[31m",
		"new glyph after a status draw must re-establish its style")

	// An unchanged viewport still pulls the cursor back off the bar's row.
	bar.MarkDirty()
	require.NoError(t, bar.Draw(w))
	frame.ForgetTerminalState()

	buf.Reset()
	require.NoError(t, frame.Paint(view, 1, 0, w))
	assert.Contains(t, buf.String(), "\x1b[2;1H", "cursor must return to the viewport")
}

func TestStatusBarPadsAndSkipsLastColumn(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, testCaps())
	bar := NewStatusBar(3, 8)
	bar.Set("ok")
	require.NoError(t, bar.Draw(w))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\x1b[4;1H"), "bar draws on its own row")
	assert.Contains(t, out, "ok     ", "text padded to width-1, last column untouched")
	assert.False(t, bar.Dirty(), "drawing clears the dirty flag")
}
