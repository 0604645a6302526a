package object

import (
	"fmt"
	"math"
)

// Number is a 64-bit float, the only numeric type in the language.
type Number struct {
	hdr   header
	value float64
}

// NewNumber creates a number value with a reference count of one.
func NewNumber(value float64) *Number {
	n := &Number{hdr: newHeader(), value: value}
	track(n)
	return n
}

func (n *Number) Type() Type { return NUMBER }

func (n *Number) Value() float64 { return n.value }

func (n *Number) Inspect() string { return FormatNumber(n.value) }

func (n *Number) IsTruthy() bool { return n.value != 0 }

func (n *Number) header() *header { return &n.hdr }

func (n *Number) children() []Value { return nil }

func (n *Number) finalize() {}

// FormatNumber renders a float the way the language prints it: whole values
// without a fraction, everything else in the shortest %g form.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%g", f)
}
