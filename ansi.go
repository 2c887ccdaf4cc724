package mudterm

// The SGR parser sits between the telnet decoder and the scrollback. It
// understands exactly the color subset MUD servers emit (SGR 0, 1, 30-37,
// 40-47 and the bright 90-97/100-107 variants); every other escape sequence
// is consumed and dropped so stray cursor movement from a server can never
// corrupt the grid.

const (
	ansiMaxParams   = 16
	ansiMaxSeqBytes = 64
)

const (
	ansiNormal = iota
	ansiEsc
	ansiCSI
)

// AnsiEventKind discriminates AnsiEvent values.
type AnsiEventKind int

const (
	// AnsiText is a run of bytes to display under the current color.
	AnsiText AnsiEventKind = iota
	// AnsiColor changes the current color for subsequent text.
	AnsiColor
)

// AnsiEvent is one decoded item from the parser.
type AnsiEvent struct {
	Kind  AnsiEventKind
	Text  []byte
	Color Color
}

// AnsiParser strips escape sequences from a byte stream, translating SGR
// color codes into color change events. It tolerates sequences split across
// Feed calls.
type AnsiParser struct {
	state    int
	color    Color
	params   []int
	value    int
	hasValue bool
	seqLen   int
}

// NewAnsiParser creates a parser with the default color active.
func NewAnsiParser() *AnsiParser {
	return &AnsiParser{color: ColorDefault}
}

// Color returns the color currently in effect.
func (a *AnsiParser) Color() Color { return a.color }

// Reset returns the parser to its initial state, default color included.
func (a *AnsiParser) Reset() {
	a.state = ansiNormal
	a.color = ColorDefault
	a.resetSeq()
}

func (a *AnsiParser) resetSeq() {
	a.params = a.params[:0]
	a.value = 0
	a.hasValue = false
	a.seqLen = 0
}

// Feed consumes a chunk and returns the decoded events in order. Text runs
// are batched: consecutive displayable bytes come back as one event.
func (a *AnsiParser) Feed(input []byte) []AnsiEvent {
	var events []AnsiEvent
	runStart := -1

	flush := func(end int) {
		if runStart >= 0 {
			text := make([]byte, end-runStart)
			copy(text, input[runStart:end])
			events = append(events, AnsiEvent{Kind: AnsiText, Text: text})
			runStart = -1
		}
	}

	for i := 0; i < len(input); i++ {
		b := input[i]
		switch a.state {
		case ansiNormal:
			if b == 0x1b {
				flush(i)
				a.state = ansiEsc
				continue
			}
			if runStart < 0 {
				runStart = i
			}
		case ansiEsc:
			if b == '[' {
				a.state = ansiCSI
				a.resetSeq()
			} else {
				// Single-byte escape (ESC c, charset selection and the
				// like); drop it.
				a.state = ansiNormal
			}
		case ansiCSI:
			a.seqLen++
			if a.seqLen > ansiMaxSeqBytes {
				// Runaway sequence, abandon it.
				a.state = ansiNormal
				continue
			}
			switch {
			case b >= '0' && b <= '9':
				a.value = a.value*10 + int(b-'0')
				a.hasValue = true
			case b == ';':
				if !a.pushParam() {
					// Too many parameters; abandon without effect.
					a.state = ansiNormal
				}
			case b >= 0x40 && b <= 0x7e:
				if !a.pushParam() {
					a.state = ansiNormal
					continue
				}
				if b == 'm' {
					if c, ok := a.applySGR(); ok {
						events = append(events, AnsiEvent{Kind: AnsiColor, Color: c})
					}
				}
				a.state = ansiNormal
			default:
				// Intermediate byte we do not interpret; keep scanning
				// for the terminator.
			}
		}
	}
	flush(len(input))
	return events
}

// pushParam stores the accumulated value. It reports false when the
// parameter list is already full; the caller abandons the sequence.
func (a *AnsiParser) pushParam() bool {
	if len(a.params) >= ansiMaxParams {
		return false
	}
	if a.hasValue {
		a.params = append(a.params, a.value)
	} else {
		a.params = append(a.params, 0)
	}
	a.value = 0
	a.hasValue = false
	return true
}

// applySGR folds the collected parameters into the current color. Returns
// false when nothing changed.
func (a *AnsiParser) applySGR() (Color, bool) {
	params := a.params
	if len(params) == 0 {
		params = []int{0}
	}
	c := a.color
	for _, p := range params {
		switch {
		case p == 0:
			c = ColorDefault
		case p == 1:
			c |= ColorBold
		case p >= 30 && p <= 37:
			c = WithFg(c, byte(p-30))
		case p >= 90 && p <= 97:
			c = WithFg(c, byte(p-90)) | ColorBold
		case p >= 40 && p <= 47:
			c = WithBg(c, byte(p-40))
		case p >= 100 && p <= 107:
			c = WithBg(c, byte(p-100))
		}
	}
	if c == a.color {
		return c, false
	}
	a.color = c
	return c, true
}
