package vm

import (
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// normalizeIndex converts a possibly negative (from-end) index against a
// collection of the given length. ok is false when out of range.
func normalizeIndex(idx float64, length int) (int, bool) {
	i := int(idx)
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, false
	}
	return i, true
}

// clampBound converts a possibly negative slice bound and clamps it into
// [0, length].
func clampBound(idx float64, length int) int {
	i := int(idx)
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

// indexGet implements IndexGet: pop index then target, push the element.
func (v *VM) indexGet() *errz.Error {
	index, err := v.pop()
	if err != nil {
		return err
	}
	target, err := v.pop()
	if err != nil {
		object.Release(index)
		return err
	}
	defer func() {
		object.Release(index)
		object.Release(target)
	}()

	switch t := target.(type) {
	case *object.List:
		i, ierr := v.numericIndex(index, t.Len())
		if ierr != nil {
			return ierr
		}
		item, _ := t.Get(i)
		object.Retain(item)
		return v.push(item)
	case *object.Tuple:
		i, ierr := v.numericIndex(index, t.Len())
		if ierr != nil {
			return ierr
		}
		item, _ := t.Get(i)
		object.Retain(item)
		return v.push(item)
	case *object.String:
		i, ierr := v.numericIndex(index, len(t.Value()))
		if ierr != nil {
			return ierr
		}
		return v.push(v.newString(t.Value()[i : i+1]))
	case *object.Map:
		val, ok := t.Get(index)
		if !ok {
			return errz.Newf(errz.NotFound, "key %s not found", index.Inspect())
		}
		object.Retain(val)
		return v.push(val)
	default:
		return errz.Newf(errz.Runtime, "cannot index %s", target.Type())
	}
}

// numericIndex validates a number index value against a length.
func (v *VM) numericIndex(index object.Value, length int) (int, *errz.Error) {
	n, ok := index.(*object.Number)
	if !ok {
		return 0, errz.Newf(errz.Runtime, "index must be a number, got %s", index.Type())
	}
	i, inRange := normalizeIndex(n.Value(), length)
	if !inRange {
		return 0, errz.Newf(errz.Runtime, "index %s out of range", object.FormatNumber(n.Value()))
	}
	return i, nil
}

// indexSet implements IndexSet: pop value, index and target, and mutate
// the target in place.
func (v *VM) indexSet() *errz.Error {
	value, err := v.pop()
	if err != nil {
		return err
	}
	index, err := v.pop()
	if err != nil {
		object.Release(value)
		return err
	}
	target, err := v.pop()
	if err != nil {
		object.Release(value)
		object.Release(index)
		return err
	}
	defer func() {
		object.Release(value)
		object.Release(index)
		object.Release(target)
	}()

	switch t := target.(type) {
	case *object.List:
		i, ierr := v.numericIndex(index, t.Len())
		if ierr != nil {
			return ierr
		}
		t.Set(i, value)
		return nil
	case *object.Map:
		t.Set(index, value)
		return nil
	default:
		return errz.Newf(errz.Runtime, "cannot assign into %s", target.Type())
	}
}

// sliceGet implements SliceGet: pop end (null for an open end), start and
// target. Bounds are clamped rather than range checked.
func (v *VM) sliceGet() *errz.Error {
	endVal, err := v.pop()
	if err != nil {
		return err
	}
	startVal, err := v.pop()
	if err != nil {
		object.Release(endVal)
		return err
	}
	target, err := v.pop()
	if err != nil {
		object.Release(endVal)
		object.Release(startVal)
		return err
	}
	defer func() {
		object.Release(endVal)
		object.Release(startVal)
		object.Release(target)
	}()

	sn, ok := startVal.(*object.Number)
	if !ok {
		return errz.Newf(errz.Runtime, "slice start must be a number, got %s", startVal.Type())
	}
	openEnd := false
	var en *object.Number
	switch e := endVal.(type) {
	case *object.Nil:
		openEnd = true
	case *object.Number:
		en = e
	default:
		return errz.Newf(errz.Runtime, "slice end must be a number, got %s", endVal.Type())
	}

	bounds := func(length int) (int, int) {
		start := clampBound(sn.Value(), length)
		end := length
		if !openEnd {
			end = clampBound(en.Value(), length)
		}
		if end < start {
			end = start
		}
		return start, end
	}

	switch t := target.(type) {
	case *object.List:
		start, end := bounds(t.Len())
		out := object.NewList(end - start)
		for _, item := range t.Items()[start:end] {
			out.Append(item)
		}
		return v.push(out)
	case *object.String:
		start, end := bounds(len(t.Value()))
		return v.push(v.newString(t.Value()[start:end]))
	default:
		return errz.Newf(errz.Runtime, "cannot slice %s", target.Type())
	}
}

// lengthOf returns the element count of any sized value.
func lengthOf(val object.Value) (int, *errz.Error) {
	switch t := val.(type) {
	case *object.List:
		return t.Len(), nil
	case *object.Tuple:
		return t.Len(), nil
	case *object.Map:
		return t.Len(), nil
	case *object.String:
		return len(t.Value()), nil
	case *object.Range:
		return t.Len(), nil
	default:
		return 0, errz.Newf(errz.Runtime, "%s has no length", val.Type())
	}
}
