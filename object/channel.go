package object

// Channel wraps an external handle supplied by an embedding host. The
// runtime treats it as an opaque identity: channels compare and hash by
// identity and the handle's lifetime belongs to the host.
type Channel struct {
	hdr    header
	handle any
}

// NewChannel creates a channel value wrapping the given host handle.
func NewChannel(handle any) *Channel {
	c := &Channel{hdr: newHeader(), handle: handle}
	track(c)
	return c
}

func (c *Channel) Type() Type { return CHANNEL }

func (c *Channel) Inspect() string { return "<channel>" }

func (c *Channel) IsTruthy() bool { return true }

// Handle returns the wrapped host handle.
func (c *Channel) Handle() any { return c.handle }

func (c *Channel) header() *header { return &c.hdr }

func (c *Channel) children() []Value { return nil }

func (c *Channel) finalize() { c.handle = nil }
