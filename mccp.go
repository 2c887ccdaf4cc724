package mudterm

import (
	"compress/zlib"
	"errors"
	"io"
	"sync"
)

// ErrDecompressCorrupt reports an unrecoverable decompression failure. The
// compressed stream is desynchronized; the owning session must terminate
// the connection rather than fall back to passthrough.
var ErrDecompressCorrupt = errors.New("mudterm: compressed stream corrupt")

// Decompressor is the first stage of the inbound pipeline. It starts in
// passthrough mode and, for MCCP-capable implementations, switches to
// streaming inflation once the compression start marker is seen. Receive
// must tolerate arbitrary fragmentation, including compressed blocks split
// across calls.
type Decompressor interface {
	// Receive consumes a raw chunk from the connection. A non-nil error is
	// fatal and sticky.
	Receive(input []byte) error
	// Pending reports whether decoded output is waiting to be taken.
	Pending() bool
	// TakeOutput returns and clears the decoded bytes.
	TakeOutput() []byte
	// TakeResponses returns and clears negotiation replies owed to the
	// server (MCCP handshake traffic handled at this layer).
	TakeResponses() []byte
	// Close releases any internal decompression state.
	Close() error
}

// Passthrough is the no-compression Decompressor: output equals input.
type Passthrough struct {
	buf []byte
}

// NewPassthrough creates a passthrough decompressor.
func NewPassthrough() *Passthrough { return &Passthrough{} }

func (p *Passthrough) Receive(input []byte) error {
	p.buf = append(p.buf, input...)
	return nil
}

func (p *Passthrough) Pending() bool { return len(p.buf) > 0 }

func (p *Passthrough) TakeOutput() []byte {
	out := p.buf
	p.buf = nil
	return out
}

func (p *Passthrough) TakeResponses() []byte { return nil }

func (p *Passthrough) Close() error { return nil }

// Inflater is the MCCP v1/v2 Decompressor. It negotiates compression itself:
// the bytes following the start marker are already compressed, so the
// decision to inflate cannot wait for a downstream decoder. Until the start
// marker arrives everything except the MCCP handshake passes through
// untouched (doubled IAC bytes included; unescaping belongs to the telnet
// decoder).
type Inflater struct {
	residual  []byte
	out       []byte
	responses []byte

	gotV2       bool
	compressing bool
	err         error

	compIn int
	rawOut int

	pump *inflatePump
}

// NewInflater creates an MCCP decompressor in passthrough mode.
func NewInflater() *Inflater { return &Inflater{} }

// Receive consumes a raw chunk. Handshake sequences are stripped and
// answered; once compression starts, every subsequent byte is inflated.
func (f *Inflater) Receive(input []byte) error {
	if f.err != nil {
		return f.err
	}
	f.residual = append(f.residual, input...)
	pos := 0
	for pos < len(f.residual) {
		if f.compressing {
			chunk := f.residual[pos:]
			pos = len(f.residual)
			f.compIn += len(chunk)
			produced, end, err := f.pump.feed(chunk)
			f.out = append(f.out, produced...)
			f.rawOut += len(produced)
			if err != nil {
				f.err = ErrDecompressCorrupt
				f.pump.close()
				f.pump = nil
				return f.err
			}
			if end {
				// Server terminated the compressed stream; trailing
				// bytes resume uncompressed.
				rest := f.pump.leftover()
				f.pump.close()
				f.pump = nil
				f.compressing = false
				f.residual = append(f.residual[:0], rest...)
				pos = 0
			}
			continue
		}

		b := f.residual[pos]
		if b != cmdIAC {
			f.out = append(f.out, b)
			pos++
			continue
		}
		if pos+1 >= len(f.residual) {
			break // incomplete sequence, wait for more
		}
		b1 := f.residual[pos+1]
		if b1 == cmdWILL {
			if pos+2 >= len(f.residual) {
				break
			}
			opt := f.residual[pos+2]
			if opt == TelOptCompress2 {
				f.responses = append(f.responses, cmdIAC, cmdDO, TelOptCompress2)
				f.gotV2 = true
				pos += 3
				continue
			}
			if opt == TelOptCompress {
				if f.gotV2 {
					f.responses = append(f.responses, cmdIAC, cmdDONT, TelOptCompress)
				} else {
					f.responses = append(f.responses, cmdIAC, cmdDO, TelOptCompress)
				}
				pos += 3
				continue
			}
		}
		if b1 == cmdSB {
			if pos+4 >= len(f.residual) {
				break
			}
			opt := f.residual[pos+2]
			v1Start := opt == TelOptCompress && f.residual[pos+3] == cmdWILL && f.residual[pos+4] == cmdSE
			v2Start := opt == TelOptCompress2 && f.residual[pos+3] == cmdIAC && f.residual[pos+4] == cmdSE
			if v1Start || v2Start {
				f.compressing = true
				f.pump = newInflatePump()
				pos += 5
				continue
			}
		}
		// Any other IAC-led sequence belongs to the telnet decoder; pass
		// the escape byte through and keep scanning.
		f.out = append(f.out, b)
		pos++
	}
	if pos > 0 {
		f.residual = append(f.residual[:0], f.residual[pos:]...)
	}
	return nil
}

func (f *Inflater) Pending() bool { return f.err == nil && len(f.out) > 0 }

func (f *Inflater) TakeOutput() []byte {
	out := f.out
	f.out = nil
	return out
}

func (f *Inflater) TakeResponses() []byte {
	out := f.responses
	f.responses = nil
	return out
}

// Compressing reports whether the inflate stage is active.
func (f *Inflater) Compressing() bool { return f.compressing }

// Stats returns the compressed bytes consumed and raw bytes produced since
// compression started.
func (f *Inflater) Stats() (compressed, uncompressed int) {
	return f.compIn, f.rawOut
}

func (f *Inflater) Close() error {
	if f.pump != nil {
		f.pump.close()
		f.pump = nil
	}
	return nil
}

// inflatePump adapts Go's pull-based zlib reader to the push-based Receive
// contract. A single goroutine runs the reader against an input buffer;
// feed blocks until that goroutine has consumed the chunk and gone idle, so
// the pipeline stays synchronous from the caller's point of view.
type inflatePump struct {
	mu   sync.Mutex
	cond *sync.Cond

	in     []byte
	out    []byte
	err    error
	idle   bool
	done   bool
	closed bool
}

func newInflatePump() *inflatePump {
	p := &inflatePump{}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

func (p *inflatePump) run() {
	zr, err := zlib.NewReader((*pumpSource)(p))
	if err != nil {
		p.finish(err)
		return
	}
	buf := make([]byte, 4096)
	for {
		n, err := zr.Read(buf)
		p.mu.Lock()
		if n > 0 {
			p.out = append(p.out, buf[:n]...)
		}
		p.mu.Unlock()
		if err != nil {
			if err == io.EOF {
				err = nil // clean end of the compressed stream
			}
			p.finish(err)
			return
		}
	}
}

func (p *inflatePump) finish(err error) {
	p.mu.Lock()
	if err != nil && p.err == nil && !p.closed {
		p.err = err
	}
	p.done = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// feed hands a compressed chunk to the inflate goroutine and waits until it
// has been fully consumed. Returns the inflated output, whether the stream
// ended cleanly, and any fatal error.
func (p *inflatePump) feed(data []byte) (out []byte, end bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.in = append(p.in, data...)
	p.idle = false
	p.cond.Broadcast()
	for !p.done && !(p.idle && len(p.in) == 0) {
		p.cond.Wait()
	}
	out = p.out
	p.out = nil
	if p.done {
		return out, p.err == nil, p.err
	}
	return out, false, nil
}

// leftover returns input bytes beyond the end of the compressed stream.
func (p *inflatePump) leftover() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	rest := p.in
	p.in = nil
	return rest
}

func (p *inflatePump) close() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

// pumpSource exposes the pump's input buffer as the reader consumed by the
// zlib stream. Implementing io.ByteReader keeps the flate layer from
// wrapping it in bufio, which would read ahead past a stream end.
type pumpSource inflatePump

func (s *pumpSource) Read(b []byte) (int, error) {
	p := (*inflatePump)(s)
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.in) == 0 && !p.closed {
		p.idle = true
		p.cond.Broadcast()
		p.cond.Wait()
	}
	if len(p.in) == 0 {
		return 0, io.EOF
	}
	n := copy(b, p.in)
	p.in = p.in[n:]
	return n, nil
}

func (s *pumpSource) ReadByte() (byte, error) {
	p := (*inflatePump)(s)
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(p.in) == 0 && !p.closed {
		p.idle = true
		p.cond.Broadcast()
		p.cond.Wait()
	}
	if len(p.in) == 0 {
		return 0, io.EOF
	}
	b := p.in[0]
	p.in = p.in[1:]
	return b, nil
}
