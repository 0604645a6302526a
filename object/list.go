package object

import "strings"

// List is a growable ordered collection. The list owns one reference to
// each of its items.
type List struct {
	hdr   header
	items []Value
}

// NewList creates an empty list with the given capacity hint and a
// reference count of one.
func NewList(capacity int) *List {
	if capacity < 0 {
		capacity = 0
	}
	l := &List{hdr: newHeader(), items: make([]Value, 0, capacity)}
	track(l)
	return l
}

func (l *List) Type() Type { return LIST }

func (l *List) Inspect() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, item := range l.items {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(inspectQuoted(item))
	}
	sb.WriteString("]")
	return sb.String()
}

func (l *List) IsTruthy() bool { return true }

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// Items exposes the backing slice. Callers must not mutate it; use Append,
// Set, Insert and Remove instead.
func (l *List) Items() []Value { return l.items }

// Get returns the item at index i, or nil and false when out of range.
// Negative indices are the caller's concern.
func (l *List) Get(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	return l.items[i], true
}

// Append adds an item to the end of the list, retaining it.
func (l *List) Append(v Value) {
	Retain(v)
	l.items = append(l.items, v)
}

// Set replaces the item at index i, retaining the new item and releasing
// the old one. Returns false when out of range.
func (l *List) Set(i int, v Value) bool {
	if i < 0 || i >= len(l.items) {
		return false
	}
	Retain(v)
	Release(l.items[i])
	l.items[i] = v
	return true
}

// Insert places an item at index i, shifting later items right. i may
// equal the length to append. Returns false when out of range.
func (l *List) Insert(i int, v Value) bool {
	if i < 0 || i > len(l.items) {
		return false
	}
	Retain(v)
	l.items = append(l.items, nil)
	copy(l.items[i+1:], l.items[i:])
	l.items[i] = v
	return true
}

// Remove deletes the item at index i and returns it with ownership
// transferred to the caller. Returns nil and false when out of range.
func (l *List) Remove(i int) (Value, bool) {
	if i < 0 || i >= len(l.items) {
		return nil, false
	}
	v := l.items[i]
	copy(l.items[i:], l.items[i+1:])
	l.items[len(l.items)-1] = nil
	l.items = l.items[:len(l.items)-1]
	return v, true
}

func (l *List) approxBytes() int64 {
	return baseValueBytes + int64(cap(l.items))*16
}

func (l *List) header() *header { return &l.hdr }

func (l *List) children() []Value {
	kids := l.items
	l.items = nil
	return kids
}

func (l *List) finalize() { l.items = nil }

// inspectQuoted renders a value for display inside a container, quoting
// strings so `["a", 1]` is unambiguous.
func inspectQuoted(v Value) string {
	if s, ok := v.(*String); ok {
		return "\"" + s.Value() + "\""
	}
	if v == nil {
		return "null"
	}
	return v.Inspect()
}
