package object

import "github.com/kronos-lang/kronos/errz"

// ITERATOR is the type of the cursor values that drive for loops. They are
// created by the execution engine and never appear in user data.
const ITERATOR Type = "iterator"

// Iterator is a cursor over a list or a range. Lists are walked by index
// against the live list; ranges yield successive numbers until the first
// value past the end in the direction of the step.
type Iterator struct {
	hdr     header
	source  Value
	index   int
	current float64
}

// NewIterator creates a cursor over source, retaining it. Only lists and
// ranges are iterable.
func NewIterator(source Value) (*Iterator, error) {
	it := &Iterator{hdr: newHeader(), source: source}
	switch s := source.(type) {
	case *List:
	case *Range:
		it.current = s.start
	default:
		return nil, errz.Newf(errz.Runtime, "cannot iterate over %s", source.Type())
	}
	Retain(source)
	track(it)
	return it, nil
}

// Next returns the next element with a reference owned by the caller, or
// nil and false when the cursor is exhausted.
func (it *Iterator) Next() (Value, bool) {
	switch s := it.source.(type) {
	case *List:
		if it.index >= len(s.items) {
			return nil, false
		}
		v := s.items[it.index]
		it.index++
		Retain(v)
		return v, true
	case *Range:
		if !s.Contains(it.current) {
			return nil, false
		}
		v := NewNumber(it.current)
		it.current += s.step
		return v, true
	}
	return nil, false
}

func (it *Iterator) Type() Type { return ITERATOR }

func (it *Iterator) Inspect() string { return "<iterator>" }

func (it *Iterator) IsTruthy() bool { return true }

func (it *Iterator) header() *header { return &it.hdr }

func (it *Iterator) children() []Value {
	kid := it.source
	it.source = nil
	if kid == nil {
		return nil
	}
	return []Value{kid}
}

func (it *Iterator) finalize() { it.source = nil }
