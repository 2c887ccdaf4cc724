package mudterm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T, compress bool) *Session {
	t.Helper()
	s, err := NewSession(SessionConfig{
		Width:         40,
		Height:        5,
		CapacityLines: 100,
		Compress:      compress,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRejectsBadGeometry(t *testing.T) {
	_, err := NewSession(SessionConfig{Width: 0, Height: 5, CapacityLines: 100})
	assert.Error(t, err)
}

func TestSessionWarnScenario(t *testing.T) {
	s := testSession(t, false)
	require.NoError(t, s.Feed([]byte("\x1b[1;33mWarn\x1b[0m\r\nnext")))

	lines := s.Buffer().RecentLines(2)
	require.Equal(t, []string{"Warn", "next"}, lines)

	// The first four cells carry bold yellow; the reset before the line
	// feed leaves later text in the default style.
	view := s.Buffer().View()
	w := s.Buffer().Width()
	warnRow := (s.Buffer().WriteRow() - 1 - s.Buffer().ViewRow()) * w
	boldYellow := PackColor(Yellow, Black, true)
	for i := 0; i < 4; i++ {
		assert.Equal(t, boldYellow, view[warnRow+i].Color(), "cell %d", i)
	}
	nextRow := (s.Buffer().WriteRow() - s.Buffer().ViewRow()) * w
	assert.Equal(t, ColorDefault, view[nextRow].Color())
}

func TestSessionArbitraryFragmentation(t *testing.T) {
	whole := testSession(t, false)
	require.NoError(t, whole.Feed([]byte("\x1b[31mred line\x1b[0m\r\nplain\r\n")))

	byByte := testSession(t, false)
	for _, b := range []byte("\x1b[31mred line\x1b[0m\r\nplain\r\n") {
		require.NoError(t, byByte.Feed([]byte{b}))
	}

	assert.Equal(t, whole.Buffer().View(), byByte.Buffer().View(),
		"chunking must not change the result")
}

func TestSessionTransformChainIsOrderedAndChained(t *testing.T) {
	s := testSession(t, false)
	s.Transforms().Register(func(l *Line) TransformAction {
		l.SetText(l.Text()+"-a", ColorDefault)
		return TransformReplace
	})
	s.Transforms().Register(func(l *Line) TransformAction {
		l.SetText(l.Text()+"-b", ColorDefault)
		return TransformReplace
	})

	require.NoError(t, s.Feed([]byte("base\r\n")))
	assert.Equal(t, []string{"base-a-b"}, s.Buffer().RecentLines(1),
		"second transform must see the first one's output")
}

func TestSessionTransformSuppression(t *testing.T) {
	s := testSession(t, false)
	s.Transforms().Register(func(l *Line) TransformAction {
		if strings.Contains(l.Text(), "spam") {
			return TransformSuppress
		}
		return TransformKeep
	})

	require.NoError(t, s.Feed([]byte("keep one\r\nspam spam\r\nkeep two\r\n")))
	assert.Equal(t, []string{"keep one", "keep two"}, s.Buffer().RecentLines(2))
	assert.Equal(t, int64(1), s.Stats().LinesSuppressed)
}

func TestSessionReplaceAfterSuppressReinstates(t *testing.T) {
	s := testSession(t, false)
	s.Transforms().Register(func(l *Line) TransformAction {
		return TransformSuppress
	})
	s.Transforms().Register(func(l *Line) TransformAction {
		l.SetText("rescued", ColorDefault)
		return TransformReplace
	})

	require.NoError(t, s.Feed([]byte("doomed\r\n")))
	assert.Equal(t, []string{"rescued"}, s.Buffer().RecentLines(1),
		"a later replace overrides an earlier suppress")
}

func TestSessionPromptMarking(t *testing.T) {
	s := testSession(t, false)
	require.NoError(t, s.Feed([]byte{'>', ' ', cmdIAC, cmdGA}))

	assert.Equal(t, "> ", s.Prompt())
	assert.Equal(t, "> ", s.CurrentLine(), "the prompt stays on screen")
	assert.Equal(t, int64(1), s.Stats().PromptsSignalled)
}

func TestSessionPromptTextAndMarkerInOneChunk(t *testing.T) {
	s := testSession(t, false)
	require.NoError(t, s.Feed([]byte("Welcome.\r\n")))

	chunk := append([]byte("Enter name: "), cmdIAC, cmdGA)
	require.NoError(t, s.Feed(chunk))
	assert.Equal(t, "Enter name: ", s.Prompt(),
		"text arriving in the same read as GA belongs to the prompt")
}

func TestSessionNegotiationRepliesSurface(t *testing.T) {
	s := testSession(t, false)
	require.NoError(t, s.Feed([]byte{cmdIAC, cmdWILL, TelOptEOR}))
	assert.Equal(t, []byte{cmdIAC, cmdDO, TelOptEOR}, s.TakeWrites())
	assert.Empty(t, s.TakeWrites(), "writes are cleared once taken")
}

func TestSessionSetPolicyGovernsFutureOffers(t *testing.T) {
	s := testSession(t, false)
	require.NoError(t, s.Feed([]byte{cmdIAC, cmdWILL, TelOptEcho}))
	assert.Equal(t, []byte{cmdIAC, cmdDONT, TelOptEcho}, s.TakeWrites())

	p := DefaultTelnetPolicy()
	p.Remote[TelOptEcho] = true
	s.SetPolicy(p)
	require.NoError(t, s.Feed([]byte{cmdIAC, cmdWILL, TelOptEcho}))
	assert.Equal(t, []byte{cmdIAC, cmdDO, TelOptEcho}, s.TakeWrites())
}

func TestSessionDoubledIACSurvivesPipeline(t *testing.T) {
	// With compression enabled the escape byte passes through the
	// inflater untouched and the telnet decoder collapses exactly one
	// literal out of the pair.
	s := testSession(t, true)
	require.NoError(t, s.Feed([]byte{'a', cmdIAC, cmdIAC, 'b'}))
	assert.Equal(t, "a\xffb", s.CurrentLine())
}

func TestSessionMCCPEndToEnd(t *testing.T) {
	s := testSession(t, true)

	require.NoError(t, s.Feed([]byte{cmdIAC, cmdWILL, TelOptCompress2}))
	assert.Equal(t, []byte{cmdIAC, cmdDO, TelOptCompress2}, s.TakeWrites())

	var in []byte
	in = append(in, v2Start()...)
	in = append(in, deflate(t, []byte("\x1b[32mgreen grass\x1b[0m\r\nunder foot\r\n"), false)...)
	require.NoError(t, s.Feed(in))

	assert.Equal(t, []string{"green grass", "under foot"}, s.Buffer().RecentLines(2))
	st := s.Stats()
	assert.True(t, st.Compressing)
	assert.Greater(t, st.CompressedIn, 0)
	assert.Greater(t, st.DecompressedOut, 0)
}

func TestSessionCorruptStreamIsFatal(t *testing.T) {
	s := testSession(t, true)
	in := append(v2Start(), []byte("garbage, not a zlib stream")...)
	require.ErrorIs(t, s.Feed(in), ErrDecompressCorrupt)
	require.ErrorIs(t, s.Feed([]byte("more")), ErrDecompressCorrupt)
}

func TestSessionStatsCountLines(t *testing.T) {
	s := testSession(t, false)
	require.NoError(t, s.Feed([]byte("one\r\ntwo\r\nthree\r\n")))
	st := s.Stats()
	assert.Equal(t, int64(3), st.Lines)
	assert.Equal(t, int64(len("one\r\ntwo\r\nthree\r\n")), st.BytesIn)
}
