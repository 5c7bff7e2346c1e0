package change

import (
	"bytes"
	"encoding/json"
)

// Merge resolves two versions of the same record field by field: the value
// with the later stamp wins. Identical stamps fall back to comparing the
// encoded values, so Merge(a, b) and Merge(b, a) always agree. The result's
// Seq is zero.
func Merge(a, b Document) Document {
	out := Document{
		Kind:   a.Kind,
		ID:     a.ID,
		Fields: make(map[string]json.RawMessage, len(a.Fields)+len(b.Fields)),
		Stamps: make(map[string]Stamp, len(a.Stamps)+len(b.Stamps)),
	}
	if out.Kind == "" {
		out.Kind = b.Kind
	}
	if out.ID == "" {
		out.ID = b.ID
	}
	keys := make(map[string]struct{}, len(a.Fields)+len(b.Fields))
	for k := range a.Fields {
		keys[k] = struct{}{}
	}
	for k := range b.Fields {
		keys[k] = struct{}{}
	}
	for k := range keys {
		av, aok := a.Fields[k]
		bv, bok := b.Fields[k]
		switch {
		case aok && !bok:
			out.Fields[k], out.Stamps[k] = av, a.Stamps[k]
		case bok && !aok:
			out.Fields[k], out.Stamps[k] = bv, b.Stamps[k]
		case pickFirst(a.Stamps[k], av, b.Stamps[k], bv):
			out.Fields[k], out.Stamps[k] = av, a.Stamps[k]
		default:
			out.Fields[k], out.Stamps[k] = bv, b.Stamps[k]
		}
	}
	return out
}

func pickFirst(as Stamp, av []byte, bs Stamp, bv []byte) bool {
	if c := as.Compare(bs); c != 0 {
		return c > 0
	}
	return bytes.Compare(av, bv) >= 0
}

// Equal compares two documents field by field, ignoring Seq.
func Equal(a, b Document) bool {
	if a.Kind != b.Kind || a.ID != b.ID || len(a.Fields) != len(b.Fields) || len(a.Stamps) != len(b.Stamps) {
		return false
	}
	for k, av := range a.Fields {
		bv, ok := b.Fields[k]
		if !ok || !sameJSON(av, bv) {
			return false
		}
	}
	for k, as := range a.Stamps {
		bs, ok := b.Stamps[k]
		if !ok || as.Compare(bs) != 0 {
			return false
		}
	}
	return true
}
