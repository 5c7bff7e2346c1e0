package change

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Kind names the record type a document carries.
type Kind string

const (
	KindTask   Kind = "task"
	KindNote   Kind = "note"
	KindSpread Kind = "spread"
	KindEvent  Kind = "event"
)

// Kinds lists every synchronized kind.
func Kinds() []Kind {
	return []Kind{KindSpread, KindTask, KindNote, KindEvent}
}

// DeletedField is the tombstone field. Deletion merges like any other field.
const DeletedField = "_deleted"

// Document is a record as the sync layer sees it: top-level JSON fields,
// each with the stamp of its last write. Seq is a store-local sequence
// number and is not part of the record's identity.
type Document struct {
	Kind   Kind                       `json:"kind"`
	ID     string                     `json:"id"`
	Fields map[string]json.RawMessage `json:"fields"`
	Stamps map[string]Stamp           `json:"stamps"`
	Seq    int64                      `json:"seq,omitempty"`
}

// Key is "<kind>/<id>".
func (d Document) Key() string {
	return string(d.Kind) + "/" + d.ID
}

// Deleted reports whether the tombstone is set.
func (d Document) Deleted() bool {
	raw, ok := d.Fields[DeletedField]
	if !ok {
		return false
	}
	var v bool
	_ = json.Unmarshal(raw, &v)
	return v
}

// Modified is the latest stamp on any field: when, and by which device, the
// record was last written.
func (d Document) Modified() Stamp {
	var latest Stamp
	for _, s := range d.Stamps {
		if s.After(latest) {
			latest = s
		}
	}
	return latest
}

// Decode unmarshals the fields into v.
func (d Document) Decode(v any) error {
	fields := make(map[string]json.RawMessage, len(d.Fields))
	for k, raw := range d.Fields {
		if k == DeletedField {
			continue
		}
		fields[k] = raw
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("change: decode %s: %w", d.Key(), err)
	}
	return nil
}

// Encode splits v into top-level fields.
func Encode(v any) (map[string]json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("change: encode: %w", err)
	}
	return fields, nil
}

// Update replaces the document's fields with next, stamping only the fields
// whose value changed. Fields missing from next are written as null. It
// reports whether anything changed.
func (d *Document) Update(next map[string]json.RawMessage, clock *Clock) bool {
	if d.Fields == nil {
		d.Fields = make(map[string]json.RawMessage, len(next))
	}
	if d.Stamps == nil {
		d.Stamps = make(map[string]Stamp, len(next))
	}
	var changed []string
	for k, v := range next {
		if old, ok := d.Fields[k]; !ok || !sameJSON(old, v) {
			changed = append(changed, k)
		}
	}
	for k, old := range d.Fields {
		if k == DeletedField {
			continue
		}
		if _, ok := next[k]; !ok && !sameJSON(old, json.RawMessage("null")) {
			changed = append(changed, k)
		}
	}
	if d.Deleted() {
		changed = append(changed, DeletedField)
	}
	if len(changed) == 0 {
		return false
	}
	sort.Strings(changed)
	stamp := clock.Now()
	for _, k := range changed {
		switch v, ok := next[k]; {
		case k == DeletedField:
			d.Fields[k] = json.RawMessage("false")
		case ok:
			d.Fields[k] = v
		default:
			d.Fields[k] = json.RawMessage("null")
		}
		d.Stamps[k] = stamp
	}
	return true
}

// Rebase is Update for a writer that last read the record as base. Only the
// fields whose value differs from base are written, so anything merged into
// the document since base was read is kept.
func (d *Document) Rebase(base, next map[string]json.RawMessage, clock *Clock) bool {
	edited := make(map[string]json.RawMessage, len(d.Fields)+len(next))
	for k, v := range d.Fields {
		if k != DeletedField {
			edited[k] = v
		}
	}
	for k, v := range next {
		if old, ok := base[k]; !ok || !sameJSON(old, v) {
			edited[k] = v
		}
	}
	for k, old := range base {
		if _, ok := next[k]; !ok && k != DeletedField && !sameJSON(old, json.RawMessage("null")) {
			edited[k] = json.RawMessage("null")
		}
	}
	return d.Update(edited, clock)
}

// SameFields compares two field sets by value, ignoring the tombstone.
func SameFields(a, b map[string]json.RawMessage) bool {
	count := func(m map[string]json.RawMessage) int {
		n := len(m)
		if _, ok := m[DeletedField]; ok {
			n--
		}
		return n
	}
	if count(a) != count(b) {
		return false
	}
	for k, av := range a {
		if k == DeletedField {
			continue
		}
		if bv, ok := b[k]; !ok || !sameJSON(av, bv) {
			return false
		}
	}
	return true
}

// MarkDeleted sets the tombstone.
func (d *Document) MarkDeleted(clock *Clock) {
	if d.Fields == nil {
		d.Fields = make(map[string]json.RawMessage)
	}
	if d.Stamps == nil {
		d.Stamps = make(map[string]Stamp)
	}
	d.Fields[DeletedField] = json.RawMessage("true")
	d.Stamps[DeletedField] = clock.Now()
}

// Clone deep-copies the document.
func (d Document) Clone() Document {
	cp := d
	cp.Fields = make(map[string]json.RawMessage, len(d.Fields))
	for k, v := range d.Fields {
		cp.Fields[k] = append(json.RawMessage(nil), v...)
	}
	cp.Stamps = make(map[string]Stamp, len(d.Stamps))
	for k, v := range d.Stamps {
		cp.Stamps[k] = v
	}
	return cp
}

func sameJSON(a, b json.RawMessage) bool {
	if bytes.Equal(a, b) {
		return true
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return false
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}
