package object

// String is an immutable text value with a lazily computed, cached FNV-1a
// hash used by the map container and the interner.
type String struct {
	hdr     header
	value   string
	hash    uint32
	hashSet bool
}

// NewString creates a string value with a reference count of one.
func NewString(value string) *String {
	s := &String{hdr: newHeader(), value: value}
	track(s)
	return s
}

func (s *String) Type() Type { return STRING }

func (s *String) Value() string { return s.value }

func (s *String) Inspect() string { return s.value }

func (s *String) IsTruthy() bool { return len(s.value) > 0 }

// Hash returns the FNV-1a hash of the string's bytes, computed once.
func (s *String) Hash() uint32 {
	if !s.hashSet {
		s.hash = fnv1a(s.value)
		s.hashSet = true
	}
	return s.hash
}

func (s *String) approxBytes() int64 {
	return baseValueBytes + int64(len(s.value))
}

func (s *String) header() *header { return &s.hdr }

func (s *String) children() []Value { return nil }

func (s *String) finalize() { s.value = "" }

// fnv1a is the 32-bit FNV-1a hash.
func fnv1a(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
