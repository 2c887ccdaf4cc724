package mudterm

// Telnet command bytes.
const (
	cmdSE   byte = 240
	cmdNOP  byte = 241
	cmdGA   byte = 249
	cmdSB   byte = 250
	cmdWILL byte = 251
	cmdWONT byte = 252
	cmdDO   byte = 253
	cmdDONT byte = 254
	cmdIAC  byte = 255
)

// End-of-record, sent in place of GA by servers that negotiated EOR.
const cmdEOR byte = 239

// Telnet option codes relevant to MUD servers.
const (
	TelOptEcho      byte = 1
	TelOptSGA       byte = 3
	TelOptTType     byte = 24
	TelOptEOR       byte = 25
	TelOptNAWS      byte = 31
	TelOptCompress  byte = 85
	TelOptCompress2 byte = 86
)

// TelnetPolicy is the static accept/refuse table consulted when the server
// negotiates an option. Remote lists options we agree the server may enable
// (WILL answered with DO); Local lists options we are willing to enable
// ourselves (DO answered with WILL). Anything absent is refused.
type TelnetPolicy struct {
	Remote map[byte]bool
	Local  map[byte]bool
}

// DefaultTelnetPolicy accepts end-of-record prompts and nothing else.
func DefaultTelnetPolicy() TelnetPolicy {
	return TelnetPolicy{
		Remote: map[byte]bool{TelOptEOR: true},
		Local:  map[byte]bool{},
	}
}

type telnetState int

const (
	telnetNormal telnetState = iota
	telnetSawIAC
	telnetSawVerb
	telnetInSubneg
	telnetSubnegOpt
	telnetSubnegIAC
)

// SubnegHandler receives a complete subnegotiation payload for an option.
type SubnegHandler func(option byte, payload []byte)

// TelnetDecoder strips telnet control sequences from a byte stream,
// answering option negotiation per a static policy and dispatching complete
// subnegotiations. Decoder state persists across Feed calls, so sequences
// may be fragmented arbitrarily.
type TelnetDecoder struct {
	state  telnetState
	verb   byte
	subOpt byte
	subBuf []byte

	policy   TelnetPolicy
	onSubneg SubnegHandler

	appOut    []byte
	responses []byte
	prompts   int
}

// NewTelnetDecoder creates a decoder with the given negotiation policy.
func NewTelnetDecoder(policy TelnetPolicy) *TelnetDecoder {
	return &TelnetDecoder{policy: policy}
}

// SetPolicy replaces the negotiation policy. Options already negotiated
// stay as they are; the new table governs future offers.
func (d *TelnetDecoder) SetPolicy(policy TelnetPolicy) {
	d.policy = policy
}

// SetSubnegHandler registers the receiver for subnegotiation payloads.
func (d *TelnetDecoder) SetSubnegHandler(fn SubnegHandler) {
	d.onSubneg = fn
}

// Feed consumes a chunk of the inbound stream. Decoded application bytes
// accumulate until TakeOutput is called.
func (d *TelnetDecoder) Feed(chunk []byte) {
	for _, b := range chunk {
		switch d.state {
		case telnetNormal:
			if b == cmdIAC {
				d.state = telnetSawIAC
			} else {
				d.appOut = append(d.appOut, b)
			}

		case telnetSawIAC:
			switch b {
			case cmdIAC:
				// Doubled escape byte: one literal 0xFF of data.
				d.appOut = append(d.appOut, cmdIAC)
				d.state = telnetNormal
			case cmdGA, cmdEOR:
				d.prompts++
				d.state = telnetNormal
			case cmdSB:
				d.subBuf = d.subBuf[:0]
				d.state = telnetSubnegOpt
			case cmdWILL, cmdWONT, cmdDO, cmdDONT:
				d.verb = b
				d.state = telnetSawVerb
			default:
				// NOP and anything unrecognized: skip.
				d.state = telnetNormal
			}

		case telnetSawVerb:
			d.negotiate(d.verb, b)
			d.state = telnetNormal

		case telnetSubnegOpt:
			d.subOpt = b
			d.state = telnetInSubneg

		case telnetInSubneg:
			if b == cmdIAC {
				d.state = telnetSubnegIAC
			} else {
				d.subBuf = append(d.subBuf, b)
			}

		case telnetSubnegIAC:
			switch b {
			case cmdSE:
				if d.onSubneg != nil {
					d.onSubneg(d.subOpt, d.subBuf)
				}
				d.subBuf = nil
				d.state = telnetNormal
			case cmdIAC:
				// Escaped literal 0xFF inside the payload.
				d.subBuf = append(d.subBuf, cmdIAC)
				d.state = telnetInSubneg
			default:
				// Malformed: keep accumulating until a real IAC SE.
				d.subBuf = append(d.subBuf, cmdIAC, b)
				d.state = telnetInSubneg
			}
		}
	}
}

// negotiate answers one option verb per the policy table.
func (d *TelnetDecoder) negotiate(verb, opt byte) {
	switch verb {
	case cmdWILL:
		if d.policy.Remote[opt] {
			d.responses = append(d.responses, cmdIAC, cmdDO, opt)
		} else {
			d.responses = append(d.responses, cmdIAC, cmdDONT, opt)
		}
	case cmdDO:
		if d.policy.Local[opt] {
			d.responses = append(d.responses, cmdIAC, cmdWILL, opt)
		} else {
			d.responses = append(d.responses, cmdIAC, cmdWONT, opt)
		}
	case cmdWONT, cmdDONT:
		// Server withdrawing an option needs no reply from us.
	}
}

// TakeOutput returns the decoded application bytes accumulated so far and
// resets the internal buffer.
func (d *TelnetDecoder) TakeOutput() []byte {
	out := d.appOut
	d.appOut = nil
	return out
}

// TakeResponses returns negotiation replies that must be written back to
// the server, and clears them.
func (d *TelnetDecoder) TakeResponses() []byte {
	out := d.responses
	d.responses = nil
	return out
}

// DrainPromptEvents returns the number of GA/EOR prompt markers seen since
// the last call.
func (d *TelnetDecoder) DrainPromptEvents() int {
	n := d.prompts
	d.prompts = 0
	return n
}
