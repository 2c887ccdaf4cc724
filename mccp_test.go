package mudterm

import (
	"bytes"
	"compress/zlib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deflate compresses data into a zlib stream. close ends the stream; a
// sync flush keeps it open the way MCCP servers do for a live connection.
func deflate(t *testing.T, data []byte, close bool) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	if close {
		require.NoError(t, zw.Close())
	} else {
		require.NoError(t, zw.Flush())
	}
	return buf.Bytes()
}

func v2Start() []byte {
	return []byte{cmdIAC, cmdSB, TelOptCompress2, cmdIAC, cmdSE}
}

func TestPassthroughIsIdentity(t *testing.T) {
	p := NewPassthrough()
	require.NoError(t, p.Receive([]byte{'a', cmdIAC, cmdIAC, 'b'}))
	assert.True(t, p.Pending())
	assert.Equal(t, []byte{'a', cmdIAC, cmdIAC, 'b'}, p.TakeOutput())
	assert.False(t, p.Pending())
	assert.Empty(t, p.TakeResponses())
}

func TestInflaterAnswersCompressionOffers(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	require.NoError(t, f.Receive([]byte{cmdIAC, cmdWILL, TelOptCompress2}))
	assert.Equal(t, []byte{cmdIAC, cmdDO, TelOptCompress2}, f.TakeResponses())

	// A v1 offer after v2 has been accepted is refused.
	require.NoError(t, f.Receive([]byte{cmdIAC, cmdWILL, TelOptCompress}))
	assert.Equal(t, []byte{cmdIAC, cmdDONT, TelOptCompress}, f.TakeResponses())
	assert.Empty(t, f.TakeOutput(), "handshake bytes must not reach the output")
}

func TestInflaterAcceptsV1WithoutV2(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	require.NoError(t, f.Receive([]byte{cmdIAC, cmdWILL, TelOptCompress}))
	assert.Equal(t, []byte{cmdIAC, cmdDO, TelOptCompress}, f.TakeResponses())
}

func TestInflaterPassesOtherSequencesThrough(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	// Doubled IAC and foreign negotiation belong to the telnet decoder;
	// the inflater must hand them over byte for byte.
	in := []byte{'a', cmdIAC, cmdIAC, 'b', cmdIAC, cmdWILL, TelOptEOR}
	require.NoError(t, f.Receive(in))
	assert.Equal(t, in, f.TakeOutput())
	assert.Empty(t, f.TakeResponses())
}

func TestInflaterDecompressesStream(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	payload := []byte("You see a goblin here.\r\nIt looks angry.\r\n")
	var in []byte
	in = append(in, []byte("before ")...)
	in = append(in, v2Start()...)
	in = append(in, deflate(t, payload, false)...)

	require.NoError(t, f.Receive(in))
	assert.Equal(t, append([]byte("before "), payload...), f.TakeOutput())
	assert.True(t, f.Compressing())

	compressed, raw := f.Stats()
	assert.Greater(t, compressed, 0)
	assert.Equal(t, len(payload), raw)
}

func TestInflaterResumesMidBlock(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	payload := bytes.Repeat([]byte("fragmented stream "), 50)
	stream := append(v2Start(), deflate(t, payload, false)...)

	// One byte at a time: the inflate state must survive every boundary.
	for _, b := range stream {
		require.NoError(t, f.Receive([]byte{b}))
	}
	assert.Equal(t, payload, f.TakeOutput())
}

func TestInflaterHandlesStreamEnd(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	payload := []byte("compressed part")
	var in []byte
	in = append(in, v2Start()...)
	in = append(in, deflate(t, payload, true)...)
	in = append(in, []byte("plain tail")...)

	require.NoError(t, f.Receive(in))
	assert.Equal(t, append(append([]byte(nil), payload...), []byte("plain tail")...), f.TakeOutput())
	assert.False(t, f.Compressing(), "a finished stream returns to passthrough")
}

func TestInflaterCorruptStreamIsFatalAndSticky(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	in := append(v2Start(), []byte("this is not zlib data")...)
	err := f.Receive(in)
	require.ErrorIs(t, err, ErrDecompressCorrupt)

	// Sticky: later feeds keep failing and produce nothing.
	err = f.Receive([]byte("more"))
	require.ErrorIs(t, err, ErrDecompressCorrupt)
	assert.False(t, f.Pending())
}

func TestInflaterSplitStartMarker(t *testing.T) {
	f := NewInflater()
	defer f.Close()

	stream := append(v2Start(), deflate(t, []byte("hello"), false)...)
	mid := 3 // split inside the start marker
	require.NoError(t, f.Receive(stream[:mid]))
	require.NoError(t, f.Receive(stream[mid:]))
	assert.Equal(t, []byte("hello"), f.TakeOutput())
}
