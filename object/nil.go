package object

// Nil is the null value.
type Nil struct {
	hdr header
}

// NewNil creates a null value with a reference count of one.
func NewNil() *Nil {
	n := &Nil{hdr: newHeader()}
	track(n)
	return n
}

func (n *Nil) Type() Type { return NIL }

func (n *Nil) Inspect() string { return "null" }

func (n *Nil) IsTruthy() bool { return false }

func (n *Nil) header() *header { return &n.hdr }

func (n *Nil) children() []Value { return nil }

func (n *Nil) finalize() {}
