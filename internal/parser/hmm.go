package parser

import "github.com/relaytrace/tmodel/internal/model"

func isKnownObsCode(code string) bool {
	switch code {
	case model.ObsSent, model.ObsRecv, model.ObsNew, model.ObsDone:
		return true
	default:
		return false
	}
}

func parseStringArray(v value) ([]string, error) {
	if v.kind != kindArray {
		return nil, errf(MalformedSyntax, "expected array")
	}
	out := make([]string, 0, len(v.arr))
	for _, item := range v.arr {
		if item.kind != kindString {
			return nil, errf(MalformedSyntax, "expected string in array")
		}
		out = append(out, item.str)
	}
	return out, nil
}

// buildHMM interprets an HMM object per §4.1: state_space and
// observation_space are resolved first (pass 1) so that the probability
// sections (pass 2) can look states and codes up by name regardless of the
// order the sections appeared in the source text.
func buildHMM(obj value) (*model.HMM, error) {
	if obj.kind != kindObject {
		return nil, errf(MalformedSyntax, "hmm value must be an object")
	}

	seen := make(map[string]int, len(obj.obj))
	for _, p := range obj.obj {
		seen[p.key]++
	}
	for k, n := range seen {
		if n > 1 {
			return nil, errf(DuplicateSection, "section %q repeated", k)
		}
	}

	h := &model.HMM{}

	if v, ok := obj.get("state_space"); ok {
		states, err := parseStringArray(v)
		if err != nil {
			return nil, err
		}
		if len(states) > 4096 {
			return nil, errf(InternalLimitExceeded, "state space too large (%d)", len(states))
		}
		for _, s := range states {
			if len(s) > model.MaxStateNameLen {
				return nil, errf(InternalLimitExceeded, "state name %q exceeds %d bytes", s, model.MaxStateNameLen)
			}
			if len(s) > h.MaxStateNameLen {
				h.MaxStateNameLen = len(s)
			}
		}
		h.States = states
	}

	if v, ok := obj.get("observation_space"); ok {
		obs, err := parseStringArray(v)
		if err != nil {
			return nil, err
		}
		for _, o := range obs {
			if len(o) > model.MaxObsCodeLen {
				return nil, errf(InternalLimitExceeded, "observation code %q exceeds %d bytes", o, model.MaxObsCodeLen)
			}
			if !isKnownObsCode(o) {
				return nil, errf(UnknownObsCode, "unknown observation code %q", o)
			}
		}
		h.Obs = obs
	}

	numStates := len(h.States)
	numObs := len(h.Obs)
	h.StartProb = make([]float64, numStates)
	h.TransProb = make([][]float64, numStates)
	for i := range h.TransProb {
		h.TransProb[i] = make([]float64, numStates)
	}
	h.Emit = make([][]model.Emission, numStates)
	for i := range h.Emit {
		h.Emit[i] = make([]model.Emission, numObs)
	}

	for _, p := range obj.obj {
		switch p.key {
		case "state_space", "observation_space":
			continue
		case "start_probability":
			if err := fillStart(h, p.val); err != nil {
				return nil, err
			}
		case "transition_probability":
			if err := fillTrans(h, p.val); err != nil {
				return nil, err
			}
		case "emission_probability":
			if err := fillEmit(h, p.val); err != nil {
				return nil, err
			}
		default:
			return nil, errf(MalformedSyntax, "unknown hmm section %q", p.key)
		}
	}
	return h, nil
}

func fillStart(h *model.HMM, v value) error {
	if v.kind != kindObject {
		return errf(MalformedSyntax, "start_probability must be an object")
	}
	for _, p := range v.obj {
		idx, ok := h.StateIndex(p.key)
		if !ok {
			return errf(UnknownStateName, "start_probability: unknown state %q", p.key)
		}
		if p.val.kind != kindNumber {
			return errf(MalformedSyntax, "start_probability[%q] must be a number", p.key)
		}
		h.StartProb[idx] = p.val.num
	}
	return nil
}

func fillTrans(h *model.HMM, v value) error {
	if v.kind != kindObject {
		return errf(MalformedSyntax, "transition_probability must be an object")
	}
	for _, row := range v.obj {
		src, ok := h.StateIndex(row.key)
		if !ok {
			return errf(UnknownStateName, "transition_probability: unknown state %q", row.key)
		}
		if row.val.kind != kindObject {
			return errf(MalformedSyntax, "transition_probability[%q] must be an object", row.key)
		}
		for _, dst := range row.val.obj {
			dstIdx, ok := h.StateIndex(dst.key)
			if !ok {
				return errf(UnknownStateName, "transition_probability[%q]: unknown state %q", row.key, dst.key)
			}
			if dst.val.kind != kindNumber {
				return errf(MalformedSyntax, "transition_probability[%q][%q] must be a number", row.key, dst.key)
			}
			h.TransProb[src][dstIdx] = dst.val.num
		}
	}
	return nil
}

func emissionArity(code string) (int, bool) {
	switch code {
	case model.ObsDone:
		return 1, true
	case model.ObsSent, model.ObsRecv, model.ObsNew:
		return 4, true
	default:
		return 0, false
	}
}

func fillEmit(h *model.HMM, v value) error {
	if v.kind != kindObject {
		return errf(MalformedSyntax, "emission_probability must be an object")
	}
	for _, row := range v.obj {
		stateIdx, ok := h.StateIndex(row.key)
		if !ok {
			return errf(UnknownStateName, "emission_probability: unknown state %q", row.key)
		}
		if row.val.kind != kindObject {
			return errf(MalformedSyntax, "emission_probability[%q] must be an object", row.key)
		}
		for _, cell := range row.val.obj {
			wantArity, known := emissionArity(cell.key)
			if !known {
				return errf(UnknownObsCode, "emission_probability[%q]: unknown observation code %q", row.key, cell.key)
			}
			obsIdx, ok := h.ObsIndex(cell.key)
			if !ok {
				return errf(UnknownObsCode, "emission_probability[%q]: observation code %q not in observation_space", row.key, cell.key)
			}
			if cell.val.kind != kindArray || len(cell.val.arr) != wantArity {
				return errf(WrongEmissionArity, "emission_probability[%q][%q]: expected %d values", row.key, cell.key, wantArity)
			}
			vals := make([]float64, wantArity)
			for i, item := range cell.val.arr {
				if item.kind != kindNumber {
					return errf(MalformedSyntax, "emission_probability[%q][%q][%d] must be a number", row.key, cell.key, i)
				}
				vals[i] = item.num
			}
			e := model.Emission{DP: vals[0]}
			if wantArity == 4 {
				e.Mu, e.Sigma, e.Lambda = vals[1], vals[2], vals[3]
			}
			h.Emit[stateIdx][obsIdx] = e
		}
	}
	return nil
}

// legacyHMMKeys are the sub-object names that, when present directly at the
// top level, mark the compatibility flat form described in §4.1 item 1 and
// §6.1: the whole object is a single HMM, treated as hmm_packets.
var legacyHMMKeys = []string{
	"state_space", "observation_space",
	"start_probability", "transition_probability", "emission_probability",
}

// buildPair interprets the top-level object: either the packet_model /
// stream_model pair, or the legacy flat single-HMM form.
func buildPair(top value) (*model.Pair, error) {
	if top.kind != kindObject {
		return nil, errf(MalformedSyntax, "top-level value must be an object")
	}

	pm, hasPM := top.get("packet_model")
	sm, hasSM := top.get("stream_model")
	if hasPM || hasSM {
		pair := &model.Pair{}
		if hasPM {
			h, err := buildHMM(pm)
			if err != nil {
				return nil, err
			}
			pair.Packets = h
		}
		if hasSM {
			h, err := buildHMM(sm)
			if err != nil {
				return nil, err
			}
			pair.Streams = h
		}
		return pair, nil
	}

	for _, k := range legacyHMMKeys {
		if top.has(k) {
			h, err := buildHMM(top)
			if err != nil {
				return nil, err
			}
			return &model.Pair{Packets: h}, nil
		}
	}

	return &model.Pair{}, nil
}
