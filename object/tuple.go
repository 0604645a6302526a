package object

import "strings"

// Tuple is a fixed-length ordered collection. The tuple owns one reference
// to each of its items.
type Tuple struct {
	hdr   header
	items []Value
}

// NewTuple creates a tuple from the given items, retaining each one.
func NewTuple(items []Value) *Tuple {
	owned := make([]Value, len(items))
	for i, v := range items {
		Retain(v)
		owned[i] = v
	}
	t := &Tuple{hdr: newHeader(), items: owned}
	track(t)
	return t
}

func (t *Tuple) Type() Type { return TUPLE }

func (t *Tuple) Inspect() string {
	var sb strings.Builder
	sb.WriteString("(")
	for i, item := range t.items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(inspectQuoted(item))
	}
	sb.WriteString(")")
	return sb.String()
}

func (t *Tuple) IsTruthy() bool { return true }

// Len returns the number of items.
func (t *Tuple) Len() int { return len(t.items) }

// Items exposes the backing slice. Callers must not mutate it.
func (t *Tuple) Items() []Value { return t.items }

// Get returns the item at index i, or nil and false when out of range.
func (t *Tuple) Get(i int) (Value, bool) {
	if i < 0 || i >= len(t.items) {
		return nil, false
	}
	return t.items[i], true
}

func (t *Tuple) approxBytes() int64 {
	return baseValueBytes + int64(len(t.items))*16
}

func (t *Tuple) header() *header { return &t.hdr }

func (t *Tuple) children() []Value {
	kids := t.items
	t.items = nil
	return kids
}

func (t *Tuple) finalize() { t.items = nil }
