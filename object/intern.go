package object

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kronos-lang/kronos/errz"
)

// internTableSize is the fixed capacity of an interner. When the table is
// full, Intern degrades to returning fresh strings rather than evicting.
const internTableSize = 1024

// Interner deduplicates string values so repeated literals and map keys
// share one allocation. The table owns one reference to each entry; callers
// receive a retained reference from Intern. An Interner is safe for use by
// every VM sharing a runtime.
type Interner struct {
	mu      sync.Mutex
	entries [internTableSize]*String
	count   int
	closed  bool
}

// NewInterner creates an empty interner.
func NewInterner() *Interner {
	return &Interner{}
}

// Intern returns a retained string value for s, reusing an existing entry
// with the same content when one exists. A full table is not an error: the
// caller gets a fresh, non-interned string.
func (in *Interner) Intern(s string) *String {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return NewString(s)
	}
	hash := fnv1a(s)
	idx := int(hash) & (internTableSize - 1)
	for i := 0; i < internTableSize; i++ {
		slot := (idx + i) & (internTableSize - 1)
		entry := in.entries[slot]
		if entry == nil {
			v := NewString(s)
			v.hash = hash
			v.hashSet = true
			in.entries[slot] = v
			in.count++
			Retain(v) // one reference for the table, one for the caller
			return v
		}
		if entry.hash == hash && entry.value == s {
			Retain(entry)
			return entry
		}
	}
	return NewString(s)
}

// Len returns the number of interned strings.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.count
}

// Close releases the table's references. Entries still retained elsewhere
// survive; a warning notes how many and the count is reported as an error.
func (in *Interner) Close() error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return nil
	}
	in.closed = true
	escaped := 0
	for i, entry := range in.entries {
		if entry == nil {
			continue
		}
		if Refcount(entry) > 1 {
			escaped++
		}
		Release(entry)
		in.entries[i] = nil
	}
	in.count = 0
	if escaped > 0 {
		log.Warn().Int("count", escaped).
			Msg("interned strings still referenced at interner close")
		return errz.Newf(errz.Internal, "%d interned strings still referenced at interner close", escaped)
	}
	return nil
}
