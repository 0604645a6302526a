package object

import (
	"math"

	"github.com/rs/zerolog/log"
)

// maxWorklist bounds the deferred-release worklist. Beyond this the release
// walk switches to direct recursion rather than growing further.
const maxWorklist = 1 << 20

// Retain increments the value's reference count and returns the value for
// chaining. The count saturates at the 32-bit ceiling instead of wrapping;
// a saturated value is never freed.
func Retain(v Value) Value {
	if v == nil {
		return nil
	}
	h := v.header()
	if h.dead {
		log.Warn().Str("type", string(v.Type())).Uint64("id", h.id).
			Msg("retain of finalized value ignored")
		return v
	}
	if h.refs == math.MaxInt32 {
		log.Warn().Str("type", string(v.Type())).Uint64("id", h.id).
			Msg("reference count saturated")
		return v
	}
	h.refs++
	return v
}

// Release decrements the value's reference count. When the count reaches
// zero the value is finalized exactly once and its direct children are
// released iteratively, so deeply nested containers cannot exhaust the Go
// stack.
func Release(v Value) {
	if v == nil {
		return
	}
	work := []Value{v}
	for len(work) > 0 {
		cur := work[len(work)-1]
		work = work[:len(work)-1]
		h := cur.header()
		if h.dead {
			log.Warn().Str("type", string(cur.Type())).Uint64("id", h.id).
				Msg("release of finalized value ignored")
			continue
		}
		if h.refs == math.MaxInt32 {
			continue // saturated values are immortal
		}
		h.refs--
		if h.refs > 0 {
			continue
		}
		kids := cur.children()
		finalize(cur)
		for _, kid := range kids {
			if kid == nil {
				continue
			}
			if len(work) >= maxWorklist {
				Release(kid)
				continue
			}
			work = append(work, kid)
		}
	}
}

// finalize marks the value dead, unregisters it from its tracker and frees
// its own memory. Children are the caller's responsibility.
func finalize(v Value) {
	h := v.header()
	h.dead = true
	if h.trk != nil {
		h.trk.Untrack(v)
		h.trk = nil
	}
	v.finalize()
}

// Finalize destroys the value immediately, regardless of its reference
// count and without releasing children. Tracker shutdown uses this: every
// live value has its own table entry, so child references are finalized by
// their own entries rather than by walking ownership links that may already
// be dead.
func Finalize(v Value) {
	h := v.header()
	if h.dead {
		return
	}
	h.dead = true
	h.trk = nil
	v.finalize()
}

// Refcount returns the value's current reference count. Primarily useful
// in tests and diagnostics.
func Refcount(v Value) int32 {
	return v.header().refs
}

// IsFinalized reports whether the value has already been destroyed. A
// correct program never observes true; the check exists so tests can verify
// single-finalization.
func IsFinalized(v Value) bool {
	return v.header().dead
}
