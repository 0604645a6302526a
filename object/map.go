package object

import "strings"

// Map is a hash table with open addressing, linear probing and tombstone
// deletion. The map owns one reference to each stored key and value. Any
// hashable value may be used as a key.
type Map struct {
	hdr     header
	entries []mapEntry
	count   int // live entries
	dels    int // tombstones
}

type mapEntry struct {
	key       Value
	value     Value
	hash      uint32
	used      bool
	tombstone bool
}

const mapInitialCapacity = 16

// NewMap creates an empty map with a reference count of one.
func NewMap() *Map {
	m := &Map{hdr: newHeader(), entries: make([]mapEntry, mapInitialCapacity)}
	track(m)
	return m
}

func (m *Map) Type() Type { return MAP }

func (m *Map) Inspect() string {
	var sb strings.Builder
	sb.WriteString("{")
	first := true
	for i := range m.entries {
		e := &m.entries[i]
		if !e.used || e.tombstone {
			continue
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		sb.WriteString(inspectQuoted(e.key))
		sb.WriteString(": ")
		sb.WriteString(inspectQuoted(e.value))
	}
	sb.WriteString("}")
	return sb.String()
}

func (m *Map) IsTruthy() bool { return true }

// Len returns the number of live entries.
func (m *Map) Len() int { return m.count }

// Get returns the value stored under key. The second result distinguishes
// an absent key from a stored null.
func (m *Map) Get(key Value) (Value, bool) {
	e := m.find(key, Hash(key))
	if e == nil || !e.used || e.tombstone {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key, retaining both on insert and swapping the
// value reference on update.
func (m *Map) Set(key, value Value) {
	if (m.count+m.dels+1)*4 > len(m.entries)*3 {
		m.grow()
	}
	hash := Hash(key)
	e := m.find(key, hash)
	if e.used && !e.tombstone {
		Retain(value)
		Release(e.value)
		e.value = value
		return
	}
	if e.tombstone {
		m.dels--
	}
	Retain(key)
	Retain(value)
	e.key = key
	e.value = value
	e.hash = hash
	e.used = true
	e.tombstone = false
	m.count++
}

// Delete removes key from the map, releasing the stored key and value and
// leaving a tombstone so probe chains stay intact. Returns false when the
// key is absent.
func (m *Map) Delete(key Value) bool {
	e := m.find(key, Hash(key))
	if e == nil || !e.used || e.tombstone {
		return false
	}
	Release(e.key)
	Release(e.value)
	e.key = nil
	e.value = nil
	e.tombstone = true
	m.count--
	m.dels++
	return true
}

// Keys returns the live keys in table order. The returned values are
// borrowed, not retained.
func (m *Map) Keys() []Value {
	keys := make([]Value, 0, m.count)
	for i := range m.entries {
		e := &m.entries[i]
		if e.used && !e.tombstone {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Values returns the live values in table order, borrowed.
func (m *Map) Values() []Value {
	vals := make([]Value, 0, m.count)
	for i := range m.entries {
		e := &m.entries[i]
		if e.used && !e.tombstone {
			vals = append(vals, e.value)
		}
	}
	return vals
}

// find locates the slot for key: the live entry holding an equal key, or
// otherwise the first free/tombstone slot on the probe chain.
func (m *Map) find(key Value, hash uint32) *mapEntry {
	capacity := len(m.entries)
	if capacity == 0 {
		return nil
	}
	idx := int(hash) & (capacity - 1)
	var firstTombstone *mapEntry
	for i := 0; i < capacity; i++ {
		e := &m.entries[(idx+i)&(capacity-1)]
		if !e.used {
			if firstTombstone != nil {
				return firstTombstone
			}
			return e
		}
		if e.tombstone {
			if firstTombstone == nil {
				firstTombstone = e
			}
			continue
		}
		if e.hash == hash && Equal(e.key, key) {
			return e
		}
	}
	return firstTombstone
}

// grow doubles the table and reinserts live entries, dropping tombstones.
func (m *Map) grow() {
	old := m.entries
	m.entries = make([]mapEntry, len(old)*2)
	m.count = 0
	m.dels = 0
	for i := range old {
		e := &old[i]
		if !e.used || e.tombstone {
			continue
		}
		slot := m.find(e.key, e.hash)
		slot.key = e.key
		slot.value = e.value
		slot.hash = e.hash
		slot.used = true
		m.count++
	}
}

func (m *Map) approxBytes() int64 {
	return baseValueBytes + int64(len(m.entries))*48
}

func (m *Map) header() *header { return &m.hdr }

func (m *Map) children() []Value {
	kids := make([]Value, 0, m.count*2)
	for i := range m.entries {
		e := &m.entries[i]
		if e.used && !e.tombstone {
			kids = append(kids, e.key, e.value)
		}
	}
	m.entries = nil
	return kids
}

func (m *Map) finalize() {
	m.entries = nil
	m.count = 0
	m.dels = 0
}
