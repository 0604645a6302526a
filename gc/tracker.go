// Package gc tracks live runtime values for leak detection and memory
// accounting. Values are reference counted; the tracker is a registry, not
// a collector. Reference cycles are a documented limitation: CollectCycles
// exists as an explicit no-op so callers have a place to hook a future
// cycle collector.
package gc

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// Tracker is a mutex-guarded registry of every live value with approximate
// byte accounting. One tracker is shared by all VMs created under a
// runtime.
type Tracker struct {
	mu     sync.Mutex
	live   map[object.Value]int64
	bytes  int64
	peak   int
	closed bool
}

// Stats is a snapshot of the tracker's accounting.
type Stats struct {
	// Objects is the number of currently live values.
	Objects int
	// Bytes is the approximate heap footprint of live values.
	Bytes int64
	// Peak is the high-water mark of simultaneously live values.
	Peak int
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{live: make(map[object.Value]int64)}
}

// Track registers a value with its approximate size. Tracking an already
// tracked value updates its size instead of double counting.
func (t *Tracker) Track(v object.Value, bytes int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if prev, ok := t.live[v]; ok {
		t.bytes += bytes - prev
		t.live[v] = bytes
		return
	}
	t.live[v] = bytes
	t.bytes += bytes
	if len(t.live) > t.peak {
		t.peak = len(t.live)
	}
}

// Untrack removes a value from the registry. Unknown values are ignored.
func (t *Tracker) Untrack(v object.Value) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if bytes, ok := t.live[v]; ok {
		t.bytes -= bytes
		delete(t.live, v)
	}
}

// Stats returns a snapshot of the tracker's accounting.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{Objects: len(t.live), Bytes: t.bytes, Peak: t.peak}
}

// CollectCycles would reclaim unreachable reference cycles. The runtime
// does not implement cycle collection; this is a no-op that reports zero
// collected values.
func (t *Tracker) CollectCycles() int {
	return 0
}

// Shutdown finalizes every value still registered and closes the tracker.
// Each value's own memory is freed without dereferencing its children,
// which have their own registry entries and may already be finalized.
// Anything still live at shutdown is a leak, logged and reported as an
// error.
func (t *Tracker) Shutdown() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	leaked := len(t.live)
	for v := range t.live {
		object.Finalize(v)
	}
	t.live = nil
	t.bytes = 0
	if leaked > 0 {
		log.Warn().Int("count", leaked).Msg("values still live at tracker shutdown")
		return errz.Newf(errz.Internal, "%d values still live at tracker shutdown", leaked)
	}
	return nil
}
