// Package mudterm provides the terminal emulation core of an interactive
// MUD client: the protocol decode pipeline (MCCP decompression, telnet
// option stripping, SGR attribute parsing), a compacting scrollback buffer,
// and a diff-based screen renderer that produces minimal terminal output.
//
// This package contains:
//   - Packed color/attribute types
//   - Attributed cell representation
//   - Telnet decoder and MCCP decompressor
//   - SGR escape sequence parser
//   - Scrollback buffer with a moving write cursor and viewpoint
//   - Differential renderer emitting terminal operations
//
// Terminal-specific packages (cli) provide the capability-string adapters
// that translate renderer operations for a concrete terminal type.
package mudterm

import "strconv"

// Color is a packed style byte: foreground in bits 0-2, background in
// bits 4-6, bold in bit 7. Stored color indexes are plain ANSI indexes
// (0=black .. 7=white).
type Color = byte

// ANSI color indexes.
const (
	Black byte = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

// ColorBold marks the bold/intensity flag within a packed style byte.
const ColorBold byte = 1 << 7

// ColorDefault is white on black without bold, the terminal default.
const ColorDefault byte = White

// PackColor builds a style byte from foreground, background and bold.
func PackColor(fg, bg byte, bold bool) Color {
	c := (fg & 0x07) | (bg&0x07)<<4
	if bold {
		c |= ColorBold
	}
	return c
}

// Fg returns the foreground index (0-7) of a style byte.
func Fg(c Color) byte { return c & 0x07 }

// Bg returns the background index (0-7) of a style byte.
func Bg(c Color) byte { return (c >> 4) & 0x07 }

// Bold reports whether the bold flag is set.
func Bold(c Color) bool { return c&ColorBold != 0 }

// WithFg returns c with the foreground replaced.
func WithFg(c Color, fg byte) Color { return (c &^ 0x07) | (fg & 0x07) }

// WithBg returns c with the background replaced.
func WithBg(c Color, bg byte) Color { return (c &^ 0x70) | (bg&0x07)<<4 }

// SwapColors exchanges foreground and background and clears bold. This is
// the highlight style used for transient selection overlays.
func SwapColors(c Color) Color {
	return PackColor(Bg(c), Fg(c), false)
}

// SGRCode returns the escape sequence that switches the terminal to the
// given style. The default style collapses to a bare reset rather than
// explicit color parameters. When setBg is false the background parameter
// is omitted (for terminals where a reset already restored it).
func SGRCode(c Color, setBg bool) string {
	fg := 30 + int(Fg(c))
	bg := 40 + int(Bg(c))
	bold := Bold(c)
	if fg == 37 && bg == 40 && !bold {
		return "\x1b[0m"
	}
	bgPart := ""
	if setBg {
		bgPart = strconv.Itoa(bg) + ";"
	}
	if bold {
		return "\x1b[1;" + bgPart + strconv.Itoa(fg) + "m"
	}
	return "\x1b[0;" + bgPart + strconv.Itoa(fg) + "m"
}
