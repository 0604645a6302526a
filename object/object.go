// Package object provides the tagged, reference-counted value types used by
// the Kronos runtime.
//
// Values are created with the New* constructors and shared via Retain and
// Release. A value is destroyed exactly when its reference count reaches
// zero. Containers (List, Map, Tuple) own a reference to each of their
// children.
//
// External users will often type assert a Value to a specific type:
//
//	switch v := v.(type) {
//	case *object.String:
//		// do something with v.Value()
//	case *object.Number:
//		// do something with v.Value()
//	}
package object

import (
	"sync"
	"sync/atomic"
)

// Type of a value as a string. These names are also the type constraints
// accepted by variable declarations ("set x to 1 as number").
type Type string

const (
	NUMBER   Type = "number"
	STRING   Type = "string"
	BOOL     Type = "boolean"
	NIL      Type = "null"
	FUNCTION Type = "function"
	LIST     Type = "list"
	MAP      Type = "map"
	RANGE    Type = "range"
	TUPLE    Type = "tuple"
	CHANNEL  Type = "channel"
)

// Value is the interface implemented by every Kronos runtime value. The set
// of implementations is closed: the unexported header method prevents types
// outside this package from satisfying the interface.
type Value interface {
	// Type of the value.
	Type() Type

	// Inspect returns the printable representation of the value.
	Inspect() string

	// IsTruthy returns true if the value is considered "truthy": nil is
	// false, a bool is its own value, a number is false only at exactly
	// 0.0, a string is false only when empty, everything else is true.
	IsTruthy() bool

	// header gives the refcounting machinery access to the value's
	// shared bookkeeping fields.
	header() *header

	// children returns the value's direct child ownership links. Only
	// containers and functions have children.
	children() []Value

	// finalize releases the value's own memory. It must never touch
	// child values, which may already have been finalized.
	finalize()
}

var nextID uint64

// header carries the bookkeeping shared by all value kinds.
type header struct {
	refs int32
	dead bool
	id   uint64
	trk  Tracker
}

func newHeader() header {
	return header{refs: 1, id: atomic.AddUint64(&nextID, 1)}
}

// sizer reports a value's approximate heap footprint for the tracker.
type sizer interface {
	approxBytes() int64
}

// Tracker is the registry interface implemented by the allocation tracker
// in the gc package. Track must be idempotent per value; Untrack of an
// unknown value must be a no-op.
type Tracker interface {
	Track(v Value, bytes int64)
	Untrack(v Value)
}

// track registers a freshly constructed value with the active tracker, if
// one is installed.
func track(v Value) {
	trk := activeTracker()
	if trk == nil {
		return
	}
	h := v.header()
	h.trk = trk
	var bytes int64 = baseValueBytes
	if s, ok := v.(sizer); ok {
		bytes = s.approxBytes()
	}
	trk.Track(v, bytes)
}

// baseValueBytes approximates the struct overhead of a value with no
// variable-length payload.
const baseValueBytes = 48

var (
	currentTracker atomic.Pointer[trackerBox]
	trackerMu      sync.Mutex
	trackerHolds   int
)

type trackerBox struct{ t Tracker }

// ShareTracker installs t as the allocation registry that newly constructed
// values register with, or joins the registry a live holder already
// installed — runtimes coexisting in one process share a single registry,
// so no runtime's teardown can finalize a sibling's live values. It returns
// the tracker in effect; every call must be paired with one ReleaseTracker.
func ShareTracker(t Tracker) Tracker {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	trackerHolds++
	if box := currentTracker.Load(); box != nil {
		return box.t
	}
	currentTracker.Store(&trackerBox{t: t})
	return t
}

// ReleaseTracker drops one hold on the shared registry. The final release
// uninstalls the tracker and returns true so the owner can shut it down.
func ReleaseTracker() bool {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	if trackerHolds == 0 {
		return false
	}
	trackerHolds--
	if trackerHolds == 0 {
		currentTracker.Store(nil)
		return true
	}
	return false
}

func activeTracker() Tracker {
	box := currentTracker.Load()
	if box == nil {
		return nil
	}
	return box.t
}

// ID returns a process-unique identity for the value, used for identity
// hashing and identity equality of functions and channels.
func ID(v Value) uint64 {
	return v.header().id
}
