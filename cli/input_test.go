package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillmud/mudterm"
)

func inputSession(t *testing.T) *mudterm.Session {
	t.Helper()
	s, err := mudterm.NewSession(mudterm.SessionConfig{
		Width: 40, Height: 5, CapacityLines: 100,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Feed([]byte("one\r\ntwo\r\nthree\r\nfour\r\nfive\r\nsix\r\nseven\r\n")))
	return s
}

func TestDecodeEscapeSequences(t *testing.T) {
	cases := []struct {
		in   string
		key  int
		used int
	}{
		{"\x1b[A", keyUp, 3},
		{"\x1b[B", keyDown, 3},
		{"\x1b[H", keyHome, 3},
		{"\x1b[F", keyEnd, 3},
		{"\x1b[5~", keyPageUp, 4},
		{"\x1b[6~", keyPageDown, 4},
		{"\x1b[1~", keyHome, 4},
		{"\x1b[4~", keyEnd, 4},
		{"\x1bOA", keyUp, 3},
	}
	for _, tc := range cases {
		key, used := decodeEscape([]byte(tc.in))
		assert.Equal(t, tc.key, key, "key for %q", tc.in)
		assert.Equal(t, tc.used, used, "used for %q", tc.in)
	}
}

func TestDecodeEscapeIncomplete(t *testing.T) {
	for _, in := range []string{"\x1b", "\x1b[", "\x1b[5"} {
		_, used := decodeEscape([]byte(in))
		assert.Equal(t, 0, used, "incomplete %q must wait for more bytes", in)
	}
}

func TestPageUpFreezesAndEndFollows(t *testing.T) {
	sess := inputSession(t)
	h := NewInputHandler(sess)

	h.process([]byte("\x1b[5~"))
	assert.True(t, sess.Buffer().Frozen())

	h.process([]byte("\x1b[F"))
	assert.False(t, sess.Buffer().Frozen())
}

func TestCommandLineAssemblyAndSend(t *testing.T) {
	sess := inputSession(t)
	h := NewInputHandler(sess)

	var sent []string
	h.OnSend = func(line string) { sent = append(sent, line) }

	h.process([]byte("look north"))
	assert.Equal(t, "look north", h.Line())

	// Backspace trims, enter sends and clears.
	h.process([]byte{0x7f, 0x7f})
	h.process([]byte{'\r'})
	assert.Equal(t, []string{"look nor"}, sent)
	assert.Empty(t, h.Line())
}

func TestQuitKeyFiresCallback(t *testing.T) {
	sess := inputSession(t)
	h := NewInputHandler(sess)

	var quit bool
	h.OnQuit = func() { quit = true }
	_, stopped := h.process([]byte{0x1d})
	assert.True(t, quit)
	assert.True(t, stopped)
}

func TestSelectionMarkExtendAndCopy(t *testing.T) {
	sess := inputSession(t)
	h := NewInputHandler(sess)
	buf := sess.Buffer()

	// Ctrl-B marks the bottom visible row.
	h.process([]byte{0x02})
	require.True(t, buf.Highlighted())
	bottom := buf.ViewRow() + buf.Height() - 1
	if wr := buf.WriteRow(); bottom > wr {
		bottom = wr
	}
	fr, _, tr, _, _ := buf.HighlightRange()
	assert.Equal(t, bottom, fr)
	assert.Equal(t, bottom, tr)

	// Up extends the selection a row instead of scrolling.
	h.process([]byte("\x1b[A"))
	fr, _, tr, _, _ = buf.HighlightRange()
	assert.Equal(t, bottom-1, fr)
	assert.Equal(t, bottom, tr)

	// Ctrl-Y copies and ends the selection.
	h.process([]byte{0x19})
	assert.False(t, buf.Highlighted())
}

func TestSelectionCancel(t *testing.T) {
	sess := inputSession(t)
	h := NewInputHandler(sess)

	h.process([]byte{0x02})
	require.True(t, sess.Buffer().Highlighted())
	h.process([]byte{0x02})
	assert.False(t, sess.Buffer().Highlighted())
}

func TestPartialEscapeCarriesOver(t *testing.T) {
	sess := inputSession(t)
	h := NewInputHandler(sess)

	rest, _ := h.process([]byte("\x1b[5"))
	require.Equal(t, []byte("\x1b[5"), rest)

	rest = append(rest, '~')
	rest, _ = h.process(rest)
	assert.Empty(t, rest)
	assert.True(t, sess.Buffer().Frozen())
}
