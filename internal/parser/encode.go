package parser

import (
	"strconv"
	"strings"

	"github.com/relaytrace/tmodel/internal/model"
)

// QuoteString renders s as a dictionary-syntax quoted string. Observation
// codes and state names never contain a literal quote, so no escaping is
// attempted (matching the grammar in §6.1, which has no escape sequence).
func QuoteString(s string) string { return `"` + s + `"` }

// FormatNumber renders n using the shortest round-trippable decimal form,
// suitable for both probability values and encoded delays.
func FormatNumber(n float64) string { return strconv.FormatFloat(n, 'g', -1, 64) }

// Serialize renders pair back into a TRUE-prefixed control-channel blob.
// Used by the round-trip property tests (§8): feeding Serialize's output
// back through ParseCommand must reproduce a structurally equal pair, up to
// section ordering.
func Serialize(pair *model.Pair) string {
	var b strings.Builder
	b.WriteString("TRUE {")
	first := true
	writeSep := func() {
		if !first {
			b.WriteByte(';')
		}
		first = false
	}
	if pair.Packets != nil {
		writeSep()
		b.WriteString(`"packet_model":`)
		writeHMM(&b, pair.Packets)
	}
	if pair.Streams != nil {
		writeSep()
		b.WriteString(`"stream_model":`)
		writeHMM(&b, pair.Streams)
	}
	b.WriteByte('}')
	return b.String()
}

func writeHMM(b *strings.Builder, h *model.HMM) {
	b.WriteByte('{')
	b.WriteString(`"state_space":[`)
	for i, s := range h.States {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(QuoteString(s))
	}
	b.WriteString(`];"observation_space":[`)
	for i, o := range h.Obs {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(QuoteString(o))
	}
	b.WriteString(`];"start_probability":{`)
	for i, s := range h.States {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(QuoteString(s))
		b.WriteByte(':')
		b.WriteString(FormatNumber(h.StartProb[i]))
	}
	b.WriteString(`};"transition_probability":{`)
	for i, s := range h.States {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(QuoteString(s))
		b.WriteString(`:{`)
		for j, d := range h.States {
			if j > 0 {
				b.WriteByte(';')
			}
			b.WriteString(QuoteString(d))
			b.WriteByte(':')
			b.WriteString(FormatNumber(h.TransProb[i][j]))
		}
		b.WriteByte('}')
	}
	b.WriteString(`};"emission_probability":{`)
	for i, s := range h.States {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(QuoteString(s))
		b.WriteString(`:{`)
		for k, o := range h.Obs {
			if k > 0 {
				b.WriteByte(';')
			}
			e := h.Emit[i][k]
			b.WriteString(QuoteString(o))
			b.WriteByte(':')
			if o == model.ObsDone {
				b.WriteByte('[')
				b.WriteString(FormatNumber(e.DP))
				b.WriteByte(']')
			} else {
				b.WriteByte('[')
				b.WriteString(FormatNumber(e.DP))
				b.WriteByte(';')
				b.WriteString(FormatNumber(e.Mu))
				b.WriteByte(';')
				b.WriteString(FormatNumber(e.Sigma))
				b.WriteByte(';')
				b.WriteString(FormatNumber(e.Lambda))
				b.WriteByte(']')
			}
		}
		b.WriteByte('}')
	}
	b.WriteString("}}")
}
