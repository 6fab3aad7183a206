package decoder

import (
	"strconv"
	"strings"

	"github.com/relaytrace/tmodel/internal/parser"
)

// MaxPathBytes is the hard cap on an emitted path string (§4.6). A path
// whose encoding exceeds this size is discarded and treated as a decode
// failure to protect the downstream control channel.
const MaxPathBytes = 200 << 20

// EmptyPath is the sentinel emitted for any decode failure, including a
// refused short sequence and an oversize result (§6.3, §7).
const EmptyPath = "[]"

// EncodePath renders steps as "[[state;code;delay];...]" using the same
// semicolon-delimited syntax as the input grammar (§6.2). Returns
// EmptyPath if the encoding would exceed MaxPathBytes.
func EncodePath(steps []Step) string {
	if len(steps) == 0 {
		return EmptyPath
	}

	var b strings.Builder
	b.WriteByte('[')
	for i, s := range steps {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteByte('[')
		b.WriteString(parser.QuoteString(s.State))
		b.WriteByte(';')
		b.WriteString(parser.QuoteString(s.Code))
		b.WriteByte(';')
		b.WriteString(strconv.FormatInt(s.DelayMicros, 10))
		b.WriteByte(']')

		if b.Len() > MaxPathBytes {
			return EmptyPath
		}
	}
	b.WriteByte(']')

	if b.Len() > MaxPathBytes {
		return EmptyPath
	}
	return b.String()
}
