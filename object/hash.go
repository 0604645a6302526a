package object

import "math"

// Hash returns a 32-bit hash of the value suitable for the map container.
// Strings cache theirs; numbers hash their IEEE bit pattern; containers
// hash recursively; functions and channels hash by identity.
func Hash(v Value) uint32 {
	return hashAt(v, 0)
}

func hashAt(v Value, depth int) uint32 {
	if v == nil || depth >= maxEqualDepth {
		return 0
	}
	switch v := v.(type) {
	case *String:
		return v.Hash()
	case *Number:
		bits := math.Float64bits(v.value)
		return uint32(bits) ^ uint32(bits>>32)
	case *Bool:
		if v.value {
			return 1231
		}
		return 1237
	case *Nil:
		return 0
	case *Range:
		h := hashFloat(v.start)
		h = h*31 + hashFloat(v.end)
		h = h*31 + hashFloat(v.step)
		return h
	case *List:
		return hashItems(v.items, depth)
	case *Tuple:
		return hashItems(v.items, depth)
	case *Map:
		// order-independent combine so equal maps hash alike
		var h uint32
		for i := range v.entries {
			e := &v.entries[i]
			if !e.used || e.tombstone {
				continue
			}
			h ^= e.hash * 31
			h ^= hashAt(e.value, depth+1)
		}
		return h
	default:
		id := ID(v)
		return uint32(id) ^ uint32(id>>32)
	}
}

func hashFloat(f float64) uint32 {
	bits := math.Float64bits(f)
	return uint32(bits) ^ uint32(bits>>32)
}

func hashItems(items []Value, depth int) uint32 {
	var h uint32 = 2166136261
	for _, item := range items {
		h = (h ^ hashAt(item, depth+1)) * 16777619
	}
	return h
}
