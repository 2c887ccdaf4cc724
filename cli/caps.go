package cli

import (
	"os"

	"github.com/gdamore/tcell/v2/terminfo"
	_ "github.com/gdamore/tcell/v2/terminfo/base" // common terminal entries

	"github.com/quillmud/mudterm"
)

// vt100 alternate-charset letters for each mudterm glyph, in glyph order
// (vline, hline, the four corners, left tee, right tee).
const acsLetters = "xqlkmjtu"

// Caps wraps the capability strings for the attached terminal. Unknown
// terminal types fall back to plain ANSI, which every MUD-era terminal
// understands.
type Caps struct {
	ti  *terminfo.Terminfo
	acs [8]byte
}

// Detect looks up the capabilities for termName (or $TERM when empty).
func Detect(termName string) *Caps {
	if termName == "" {
		termName = os.Getenv("TERM")
	}
	ti, err := terminfo.LookupTerminfo(termName)
	if err != nil {
		ti = ansiFallback()
	}
	c := &Caps{ti: ti}
	c.buildAcsTable()
	return c
}

// TermName returns the name of the resolved terminfo entry.
func (c *Caps) TermName() string { return c.ti.Name }

// Colors returns the terminal's color count.
func (c *Caps) Colors() int { return c.ti.Colors }

// buildAcsTable resolves each glyph through the terminal's acsc string,
// which maps vt100 letters to the bytes this terminal draws them with.
// Terminals without an acsc entry get ASCII approximations.
func (c *Caps) buildAcsTable() {
	pairs := map[byte]byte{}
	alt := c.ti.AltChars
	for i := 0; i+1 < len(alt); i += 2 {
		pairs[alt[i]] = alt[i+1]
	}
	ascii := [8]byte{'|', '-', '+', '+', '+', '+', '+', '+'}
	for i := 0; i < 8; i++ {
		if b, ok := pairs[acsLetters[i]]; ok {
			c.acs[i] = b
		} else if c.ti.EnterAcs != "" {
			// acsc missing but the mode exists; vt100 letters work as-is.
			c.acs[i] = acsLetters[i]
		} else {
			c.acs[i] = ascii[i]
		}
	}
}

// acsByte translates a mudterm glyph into the byte to emit while the
// alternate character set is enabled.
func (c *Caps) acsByte(ch byte) byte {
	if mudterm.IsAcs(ch) {
		return c.acs[ch-mudterm.AcsBase]
	}
	return ch
}

// ansiFallback is a minimal hand-built entry for terminals terminfo does
// not know. The parameterized strings use the standard terminfo parameter
// language, so TParm and TGoto work on them unchanged.
func ansiFallback() *terminfo.Terminfo {
	return &terminfo.Terminfo{
		Name:       "ansi",
		Columns:    80,
		Lines:      24,
		Colors:     8,
		Clear:      "\x1b[H\x1b[2J",
		AttrOff:    "\x1b[0m",
		Bold:       "\x1b[1m",
		EnterCA:    "\x1b[?1049h",
		ExitCA:     "\x1b[?1049l",
		HideCursor: "\x1b[?25l",
		ShowCursor: "\x1b[?25h",
		SetCursor:  "\x1b[%i%p1%d;%p2%dH",
		SetFg:      "\x1b[3%p1%dm",
		SetBg:      "\x1b[4%p1%dm",
		EnterAcs:   "\x1b(0",
		ExitAcs:    "\x1b(B",
		AltChars:   "``aaffggiijjkkllmmnnooppqqrrssttuuvvwwxxyyzz{{||}}~~",
	}
}
