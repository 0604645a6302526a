package object

import "math"

// Epsilon is the absolute tolerance used when comparing two numbers for
// equality. Ordering comparisons use exact IEEE semantics.
const Epsilon = 1e-9

// maxEqualDepth bounds structural comparison of nested containers.
const maxEqualDepth = 64

type valuePair struct{ a, b uint64 }

// Equal reports value equality: identity short-circuit, then tag match,
// then per-kind comparison. Numbers compare within Epsilon; a NaN compares
// unequal to any distinct value. Cyclic containers terminate via a
// visited-pair set.
func Equal(a, b Value) bool {
	return equalAt(a, b, 0, nil)
}

func equalAt(a, b Value, depth int, seen map[valuePair]struct{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	if a.Type() != b.Type() {
		return false
	}
	if depth >= maxEqualDepth {
		return false
	}
	switch av := a.(type) {
	case *Number:
		bv := b.(*Number)
		return math.Abs(av.value-bv.value) < Epsilon
	case *String:
		return av.value == b.(*String).value
	case *Bool:
		return av.value == b.(*Bool).value
	case *Nil:
		return true
	case *Range:
		bv := b.(*Range)
		return av.start == bv.start && av.end == bv.end && av.step == bv.step
	case *List:
		return equalItems(av.items, b.(*List).items, depth, &seen, a, b)
	case *Tuple:
		return equalItems(av.items, b.(*Tuple).items, depth, &seen, a, b)
	case *Map:
		return equalMaps(av, b.(*Map), depth, &seen)
	default:
		// functions and channels compare by identity only
		return false
	}
}

// markSeen records the (a, b) pair and reports whether it was already
// under comparison, which means the structures are cyclic and the pair is
// provisionally equal.
func markSeen(seen *map[valuePair]struct{}, a, b Value) bool {
	key := valuePair{a: ID(a), b: ID(b)}
	if *seen == nil {
		*seen = map[valuePair]struct{}{key: {}}
		return false
	}
	if _, ok := (*seen)[key]; ok {
		return true
	}
	(*seen)[key] = struct{}{}
	return false
}

func equalItems(xs, ys []Value, depth int, seen *map[valuePair]struct{}, a, b Value) bool {
	if len(xs) != len(ys) {
		return false
	}
	if markSeen(seen, a, b) {
		return true
	}
	for i := range xs {
		if !equalAt(xs[i], ys[i], depth+1, *seen) {
			return false
		}
	}
	return true
}

func equalMaps(am, bm *Map, depth int, seen *map[valuePair]struct{}) bool {
	if am.count != bm.count {
		return false
	}
	if markSeen(seen, am, bm) {
		return true
	}
	for i := range am.entries {
		e := &am.entries[i]
		if !e.used || e.tombstone {
			continue
		}
		other, ok := bm.Get(e.key)
		if !ok {
			return false
		}
		if !equalAt(e.value, other, depth+1, *seen) {
			return false
		}
	}
	return true
}
