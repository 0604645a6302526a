package object

// Bool is a true/false value.
type Bool struct {
	hdr   header
	value bool
}

// NewBool creates a boolean value with a reference count of one.
func NewBool(value bool) *Bool {
	b := &Bool{hdr: newHeader(), value: value}
	track(b)
	return b
}

func (b *Bool) Type() Type { return BOOL }

func (b *Bool) Value() bool { return b.value }

func (b *Bool) Inspect() string {
	if b.value {
		return "true"
	}
	return "false"
}

func (b *Bool) IsTruthy() bool { return b.value }

func (b *Bool) header() *header { return &b.hdr }

func (b *Bool) children() []Value { return nil }

func (b *Bool) finalize() {}
