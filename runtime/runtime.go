// Package runtime bundles the process state shared by a group of VMs: one
// allocation tracker and one string interner, with a reference-counted
// lifetime so the last VM standing tears everything down.
package runtime

import (
	"sync"

	"github.com/gofrs/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog/log"

	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/gc"
	"github.com/kronos-lang/kronos/object"
)

// Runtime is the shared state behind one or more VMs. The tracker and the
// interner are each internally locked; everything else a VM touches is
// single-threaded.
type Runtime struct {
	mu       sync.Mutex
	id       uuid.UUID
	refs     int
	tracker  *gc.Tracker
	interner *object.Interner
}

// New creates a runtime holding one reference and returns it. Call Release
// to drop the reference. The allocation registry for newly constructed
// values is shared by every runtime alive in the process: the first runtime
// installs its tracker, later ones join it, and the last one to release
// shuts it down.
func New() *Runtime {
	id, _ := uuid.NewV4()
	rt := &Runtime{
		id:       id,
		refs:     1,
		tracker:  object.ShareTracker(gc.NewTracker()).(*gc.Tracker),
		interner: object.NewInterner(),
	}
	log.Debug().Str("runtime", id.String()).Msg("runtime created")
	return rt
}

// ID returns the runtime's unique identifier, carried in logs.
func (rt *Runtime) ID() uuid.UUID { return rt.id }

// Tracker returns the shared allocation tracker.
func (rt *Runtime) Tracker() *gc.Tracker { return rt.tracker }

// Interner returns the shared string interner.
func (rt *Runtime) Interner() *object.Interner { return rt.interner }

// Acquire adds a reference to the runtime's lifetime and returns it for
// chaining. Each Acquire must be matched by one Release.
func (rt *Runtime) Acquire() *Runtime {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.refs <= 0 {
		log.Warn().Str("runtime", rt.id.String()).Msg("acquire of released runtime ignored")
		return rt
	}
	rt.refs++
	return rt
}

// Release drops one reference. The final release closes the interner and
// drops the runtime's hold on the shared tracker; the tracker itself shuts
// down only when no runtime in the process holds it anymore, so a sibling
// runtime's values are never finalized from here. Teardown diagnostics are
// aggregated into the returned error.
func (rt *Runtime) Release() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.refs <= 0 {
		return errz.New(errz.Internal, "release of already released runtime")
	}
	rt.refs--
	if rt.refs > 0 {
		return nil
	}
	var result *multierror.Error
	if err := rt.interner.Close(); err != nil {
		result = multierror.Append(result, err)
	}
	if object.ReleaseTracker() {
		if err := rt.tracker.Shutdown(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	log.Debug().Str("runtime", rt.id.String()).Msg("runtime shut down")
	return result.ErrorOrNil()
}

// Refs returns the current reference count, for tests and diagnostics.
func (rt *Runtime) Refs() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.refs
}
