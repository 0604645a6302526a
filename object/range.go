package object

import (
	"fmt"

	"github.com/kronos-lang/kronos/errz"
)

// Range is a lazy arithmetic sequence from Start toward End in increments
// of Step. Iteration stops at the first value past End in the direction of
// Step's sign; a range pointing away from its end is empty.
type Range struct {
	hdr   header
	start float64
	end   float64
	step  float64
}

// NewRange creates a range value. A zero step can never terminate and is
// rejected with a value error.
func NewRange(start, end, step float64) (*Range, error) {
	if step == 0 {
		return nil, errz.New(errz.InvalidArgument, "range step cannot be zero")
	}
	r := &Range{hdr: newHeader(), start: start, end: end, step: step}
	track(r)
	return r, nil
}

func (r *Range) Type() Type { return RANGE }

func (r *Range) Inspect() string {
	if r.step == 1 {
		return fmt.Sprintf("range %s to %s", FormatNumber(r.start), FormatNumber(r.end))
	}
	return fmt.Sprintf("range %s to %s by %s",
		FormatNumber(r.start), FormatNumber(r.end), FormatNumber(r.step))
}

func (r *Range) IsTruthy() bool { return true }

func (r *Range) Start() float64 { return r.start }

func (r *Range) End() float64 { return r.end }

func (r *Range) Step() float64 { return r.step }

// Contains reports whether v lies within the range's span, inclusive of
// both ends.
func (r *Range) Contains(v float64) bool {
	if r.step > 0 {
		return v >= r.start && v <= r.end
	}
	return v <= r.start && v >= r.end
}

// Len returns the number of values the range yields.
func (r *Range) Len() int {
	if r.step > 0 {
		if r.start > r.end {
			return 0
		}
		return int((r.end-r.start)/r.step) + 1
	}
	if r.start < r.end {
		return 0
	}
	return int((r.start-r.end)/(-r.step)) + 1
}

func (r *Range) header() *header { return &r.hdr }

func (r *Range) children() []Value { return nil }

func (r *Range) finalize() {}
