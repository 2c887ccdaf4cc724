package mudterm

import (
	"io"
	"log"
)

// SessionConfig carries the knobs for a new session.
type SessionConfig struct {
	Width         int
	Height        int
	CapacityLines int

	// Policy controls option negotiation. Nil gets DefaultTelnetPolicy.
	Policy *TelnetPolicy

	// Compress enables the MCCP decompression stage. When false the
	// stream passes through untouched and any compression offer from the
	// server is refused by the negotiation policy.
	Compress bool

	// Logger receives pipeline diagnostics. Nil discards them.
	Logger *log.Logger
}

// SessionStats is a point-in-time snapshot of a session's byte counters.
type SessionStats struct {
	BytesIn          int64 // raw bytes fed
	BytesDecoded     int64 // bytes after decompression
	CompressedIn     int   // compressed bytes consumed by the inflater
	DecompressedOut  int   // bytes the inflater produced
	Compressing      bool
	Lines            int64 // logical lines committed
	LinesSuppressed  int64
	PromptsSignalled int64
}

// Session owns one connection's decode pipeline and scrollback. Feed bytes
// in with Feed, collect negotiation replies with TakeWrites, and read the
// display state through Buffer. Single-threaded: the caller must not feed
// and read concurrently.
type Session struct {
	decomp     Decompressor
	telnet     *TelnetDecoder
	ansi       *AnsiParser
	buf        *Scrollback
	transforms TransformChain

	color   Color
	lineBuf []Cell
	prompt  string

	writes []byte
	logger *log.Logger
	stats  SessionStats
	closed bool
}

// NewSession builds a pipeline from the config. The scrollback dimensions
// are validated; an unusable geometry is an error, not a panic.
func NewSession(cfg SessionConfig) (*Session, error) {
	buf, err := NewScrollback(cfg.Width, cfg.Height, cfg.CapacityLines)
	if err != nil {
		return nil, err
	}
	policy := DefaultTelnetPolicy()
	if cfg.Policy != nil {
		policy = *cfg.Policy
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	s := &Session{
		telnet: NewTelnetDecoder(policy),
		ansi:   NewAnsiParser(),
		buf:    buf,
		color:  ColorDefault,
		logger: logger,
	}
	if cfg.Compress {
		s.decomp = NewInflater()
	} else {
		s.decomp = NewPassthrough()
	}
	return s, nil
}

// Buffer returns the session's scrollback.
func (s *Session) Buffer() *Scrollback { return s.buf }

// Transforms returns the pre-commit line transform chain for registration.
func (s *Session) Transforms() *TransformChain { return &s.transforms }

// SetPolicy replaces the telnet negotiation policy for future offers.
// Options the server already negotiated are unaffected.
func (s *Session) SetPolicy(policy TelnetPolicy) {
	s.telnet.SetPolicy(policy)
}

// Prompt returns the most recent partial line the server flagged as a
// prompt via GA or EOR.
func (s *Session) Prompt() string { return s.prompt }

// CurrentLine returns the text of the line under assembly.
func (s *Session) CurrentLine() string { return cellsToString(s.lineBuf) }

// Stats returns the session's byte and line counters.
func (s *Session) Stats() SessionStats {
	st := s.stats
	if inf, ok := s.decomp.(*Inflater); ok {
		st.CompressedIn, st.DecompressedOut = inf.Stats()
		st.Compressing = inf.Compressing()
	}
	return st
}

// TakeWrites returns and clears the negotiation replies owed to the server.
// The connection owner must send them verbatim.
func (s *Session) TakeWrites() []byte {
	out := s.writes
	s.writes = nil
	return out
}

// Close tears down decode state. The scrollback stays readable.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.decomp.Close()
}

// Feed pushes a chunk of raw connection bytes through the pipeline. Any
// chunking is acceptable, down to a single byte. A decompression error is
// fatal and sticky; the caller should drop the connection.
func (s *Session) Feed(data []byte) error {
	s.stats.BytesIn += int64(len(data))
	if err := s.decomp.Receive(data); err != nil {
		s.logger.Printf("session: decompression failed: %v", err)
		return err
	}
	if resp := s.decomp.TakeResponses(); len(resp) > 0 {
		s.writes = append(s.writes, resp...)
		s.logger.Printf("session: compression negotiation reply (%d bytes)", len(resp))
	}
	decoded := s.decomp.TakeOutput()
	if len(decoded) == 0 {
		return nil
	}
	s.stats.BytesDecoded += int64(len(decoded))

	s.telnet.Feed(decoded)
	if resp := s.telnet.TakeResponses(); len(resp) > 0 {
		s.writes = append(s.writes, resp...)
	}

	for _, ev := range s.ansi.Feed(s.telnet.TakeOutput()) {
		switch ev.Kind {
		case AnsiColor:
			s.color = ev.Color
		case AnsiText:
			s.writeText(ev.Text)
		}
	}

	// Prompt markers are handled after the chunk's text so a prompt whose
	// text and GA arrive in the same read captures the assembled line.
	for i, n := 0, s.telnet.DrainPromptEvents(); i < n; i++ {
		s.markPrompt()
	}
	return nil
}

func (s *Session) writeText(text []byte) {
	for _, b := range text {
		switch b {
		case '\r':
			s.buf.CarriageReturn()
		case '\n':
			s.commitLine()
		default:
			s.buf.PutCell(b, s.color)
			ch := b
			if ch < 0x20 {
				ch = ' '
			}
			s.lineBuf = append(s.lineBuf, MakeCell(ch, s.color))
		}
	}
}

// commitLine runs the transform chain over the assembled logical line and
// stores the chain's verdict.
func (s *Session) commitLine() {
	if s.transforms.Len() > 0 {
		line := Line{Cells: s.lineBuf}
		modified, suppressed := s.transforms.Apply(&line)
		if suppressed {
			if len(s.lineBuf) > 0 {
				s.buf.SuppressLine(s.color)
			}
			s.lineBuf = s.lineBuf[:0]
			s.stats.LinesSuppressed++
			return
		}
		if modified {
			s.buf.RewriteLine(line.Cells, s.color)
		}
	}
	s.buf.LineFeed(s.color)
	s.lineBuf = s.lineBuf[:0]
	s.stats.Lines++
}

// markPrompt records the partial line as the server's prompt. The text
// stays on screen; only the bookkeeping changes.
func (s *Session) markPrompt() {
	s.prompt = cellsToString(s.lineBuf)
	s.stats.PromptsSignalled++
}
