package accumulator

import (
	"time"

	"github.com/relaytrace/tmodel/internal/model"
)

// StreamCode is the event tag passed to Stream.Observe.
type StreamCode int

const (
	StreamNew  StreamCode = iota // a stream was attached to the circuit
	StreamEnd                    // the circuit's stream sequence ended
)

// Stream accumulates stream-attach events and the end event of one circuit into the
// observation sequence the stream-level HMM decodes (§4.4). Like the
// packet accumulator, it buffers the most recent event and emits it on the
// next call, carrying the forward gap as its delay; the terminal F record
// always carries delay 0.
type Stream struct {
	now func() time.Time

	tBuf    time.Time
	bufCode string
	hasBuf  bool

	records []Record
}

// NewStream constructs a Stream accumulator.
func NewStream() *Stream {
	return &Stream{now: time.Now}
}

func streamCodeString(c StreamCode) string {
	if c == StreamNew {
		return model.ObsNew
	}
	return model.ObsDone
}

// Observe records one stream-attach (StreamNew) or end-of-sequence
// (StreamEnd) event. If a previous event is buffered, it is emitted first
// with delay=elapsed(t_buf→now); the new event is then buffered in its
// place. On StreamEnd, a terminal F record with delay 0 is appended after
// flushing any buffered event (§4.4).
func (s *Stream) Observe(code StreamCode) {
	now := s.now()
	if s.hasBuf {
		s.records = append(s.records, Record{Delay: now.Sub(s.tBuf), Code: s.bufCode})
		s.hasBuf = false
	}

	if code == StreamEnd {
		s.records = append(s.records, Record{Delay: 0, Code: model.ObsDone})
		return
	}

	s.tBuf = now
	s.bufCode = streamCodeString(code)
	s.hasBuf = true
}

// Finalize flushes any pending buffered event, appends the terminal F
// record if one is not already present, and returns the committed
// observation sequence. Safe to call at most once.
func (s *Stream) Finalize() []Record {
	if s.hasBuf {
		s.records = append(s.records, Record{Delay: s.now().Sub(s.tBuf), Code: s.bufCode})
		s.hasBuf = false
	}
	if len(s.records) == 0 || s.records[len(s.records)-1].Code != model.ObsDone {
		s.records = append(s.records, Record{Delay: 0, Code: model.ObsDone})
	}
	return s.records
}
