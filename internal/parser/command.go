// Package parser implements the control-channel command grammar and the
// custom semicolon-delimited dictionary syntax of §6.1, and produces a
// model.Pair from it. The `;` separator in place of `,` sidesteps the
// surrounding relay's control-channel comma-splitting; implementers must
// not substitute a standard JSON parser here.
package parser

import (
	"bytes"

	"github.com/relaytrace/tmodel/internal/model"
)

var (
	truePrefix  = []byte("TRUE ")
	falsePrefix = []byte("FALSE")
)

// ParseCommand parses a length-prefixed control-channel blob. ok reports
// whether the blob requested installing a new model (true, with pair
// non-nil) or clearing the active one (false, pair always nil in that
// case). A non-nil err means a TRUE-prefixed payload failed to parse as a
// well-formed object; per §4.2 the caller must leave the previously active
// model untouched rather than clear it.
func ParseCommand(blob []byte) (pair *model.Pair, ok bool, err error) {
	if len(blob) < 5 {
		return nil, false, nil
	}
	switch {
	case bytes.HasPrefix(blob, truePrefix):
		payload := bytes.TrimRight(blob[len(truePrefix):], "\r\n")
		c := &cursor{b: payload}
		v, perr := c.parseValue()
		if perr != nil {
			return nil, false, perr
		}
		if c.pos != len(c.b) {
			return nil, false, errf(MalformedSyntax, "trailing data after object")
		}
		built, berr := buildPair(v)
		if berr != nil {
			return nil, false, berr
		}
		return built, true, nil
	case bytes.HasPrefix(blob, falsePrefix):
		return nil, false, nil
	default:
		return nil, false, nil
	}
}
