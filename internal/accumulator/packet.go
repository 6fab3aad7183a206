// Package accumulator coalesces raw per-cell events into the observation
// sequences the Viterbi decoder consumes (§4.3, §4.4). A packet
// accumulator tracks bytes moving over one stream; a stream accumulator
// tracks streams appearing on one circuit.
package accumulator

import (
	"time"

	"github.com/relaytrace/tmodel/internal/model"
)

// PacketTimeTolerance is the window within which same-direction cells are
// coalesced into a single packet observation (§4.3).
const PacketTimeTolerance = 2 * time.Microsecond

// PacketByteCount is the approximate payload size of one packet; a
// buffered run longer than this is split into PacketByteCount-sized
// observations plus a remainder (§4.3).
const PacketByteCount = 1434

// PacketCode is the direction tag passed to Packet.Observe.
type PacketCode int

const (
	PacketSent PacketCode = iota // payload moved away from the client end
	PacketRecv                   // payload moved toward the client end
	PacketEnd                    // the stream ended
)

// Record is one committed observation: the observation code and its delay,
// which is the forward gap from the moment the observation was buffered
// until it was committed by the next event or by Finalize. The leading
// chunks of a split run and the terminal F record carry delay 0.
type Record struct {
	Delay time.Duration
	Code  string
	// Direction is not set by Packet or Stream: every record they commit
	// holds the zero value (PacketSent). The direction is carried by Code.
	Direction PacketCode
}

// Packet accumulates byte-level cell events for one stream into
// packet-sized observations.
type Packet struct {
	now func() time.Time

	tBuf    time.Time
	bufLen  int
	bufCode string
	hasBuf  bool

	records []Record
}

// NewPacket constructs a Packet accumulator. Construction never fails;
// callers decide whether to construct one at all based on
// Registry.IsActive and the presence of a packet model (mirrored by the
// facade's NewPacketAccumulator, §4.3).
func NewPacket() *Packet {
	return &Packet{now: time.Now}
}

func codeString(c PacketCode) string {
	switch c {
	case PacketSent:
		return model.ObsSent
	case PacketRecv:
		return model.ObsRecv
	default:
		return model.ObsDone
	}
}

// commit flushes any buffered bytes into committed records, splitting runs
// longer than PacketByteCount per §4.3: while more than PacketByteCount
// bytes remain, one PacketByteCount chunk becomes a zero-delay record; the
// last PacketByteCount or fewer bytes become one record carrying the
// elapsed time since the buffer was opened.
func (p *Packet) commit(now time.Time) {
	if !p.hasBuf {
		return
	}
	for p.bufLen > PacketByteCount {
		p.records = append(p.records, Record{Delay: 0, Code: p.bufCode})
		p.bufLen -= PacketByteCount
	}
	p.records = append(p.records, Record{Delay: now.Sub(p.tBuf), Code: p.bufCode})
	p.hasBuf = false
	p.bufLen = 0
}

// Observe accepts one cell event. code is PacketSent/PacketRecv for a
// payload transfer of payloadLen bytes, or PacketEnd to close the stream.
func (p *Packet) Observe(code PacketCode, payloadLen int) {
	now := p.now()

	if code == PacketEnd {
		if p.hasBuf {
			p.commit(now)
		}
		p.records = append(p.records, Record{Delay: 0, Code: model.ObsDone})
		return
	}

	cs := codeString(code)
	if p.hasBuf && (p.bufCode != cs || now.Sub(p.tBuf) >= PacketTimeTolerance) {
		p.commit(now)
	}
	if !p.hasBuf {
		p.bufCode = cs
		p.tBuf = now
		p.bufLen = payloadLen
		p.hasBuf = true
	} else {
		p.bufLen += payloadLen
	}
}

// Finalize commits any pending buffer, appends the terminal F record if one
// is not already present, and returns the committed observation sequence.
// Safe to call at most once; the accumulator must not be reused afterward.
func (p *Packet) Finalize() []Record {
	if p.hasBuf {
		p.commit(p.now())
	}
	if len(p.records) == 0 || p.records[len(p.records)-1].Code != model.ObsDone {
		p.records = append(p.records, Record{Delay: 0, Code: model.ObsDone})
	}
	return p.records
}
