package object

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRefcountLifecycle(t *testing.T) {
	n := NewNumber(42)
	require.Equal(t, int32(1), Refcount(n))

	Retain(n)
	Retain(n)
	require.Equal(t, int32(3), Refcount(n))

	Release(n)
	Release(n)
	require.Equal(t, int32(1), Refcount(n))
	require.False(t, IsFinalized(n))

	Release(n)
	require.True(t, IsFinalized(n))
}

func TestReleaseFinalizedValueIsNoop(t *testing.T) {
	s := NewString("once")
	Release(s)
	require.True(t, IsFinalized(s))

	// double free must not panic or resurrect
	Release(s)
	Retain(s)
	require.True(t, IsFinalized(s))
}

func TestContainerTeardownReleasesChildren(t *testing.T) {
	item := NewString("hello")
	list := NewList(0)
	list.Append(item)
	require.Equal(t, int32(2), Refcount(item))

	Release(item)
	require.Equal(t, int32(1), Refcount(item))

	Release(list)
	require.True(t, IsFinalized(list))
	require.True(t, IsFinalized(item))
}

func TestDeepNestingReleasesIteratively(t *testing.T) {
	// a chain much deeper than any sane Go stack recursion budget
	inner := NewList(0)
	outer := inner
	for i := 0; i < 200_000; i++ {
		next := NewList(1)
		next.Append(outer)
		Release(outer)
		outer = next
	}
	Release(outer)
	require.True(t, IsFinalized(inner))
}

func TestSharedChildSurvivesOneParent(t *testing.T) {
	child := NewNumber(7)
	a := NewList(0)
	b := NewList(0)
	a.Append(child)
	b.Append(child)
	Release(child)

	Release(a)
	require.False(t, IsFinalized(child))
	Release(b)
	require.True(t, IsFinalized(child))
}

func TestTruthiness(t *testing.T) {
	require.False(t, NewNil().IsTruthy())
	require.False(t, NewBool(false).IsTruthy())
	require.True(t, NewBool(true).IsTruthy())
	require.False(t, NewNumber(0).IsTruthy())
	require.True(t, NewNumber(-0.5).IsTruthy())
	require.False(t, NewString("").IsTruthy())
	require.True(t, NewString("x").IsTruthy())
	require.True(t, NewList(0).IsTruthy())
	require.True(t, NewMap().IsTruthy())
}

func TestNumberEqualityEpsilon(t *testing.T) {
	require.True(t, Equal(NewNumber(1.0), NewNumber(1.0+1e-12)))
	require.False(t, Equal(NewNumber(1.0), NewNumber(1.0+1e-6)))
	require.False(t, Equal(NewNumber(math.NaN()), NewNumber(math.NaN())))
}

func TestEqualityAcrossKinds(t *testing.T) {
	require.False(t, Equal(NewNumber(0), NewBool(false)))
	require.False(t, Equal(NewString("1"), NewNumber(1)))
	require.True(t, Equal(NewNil(), NewNil()))
	require.True(t, Equal(NewString("abc"), NewString("abc")))
}

func TestListEquality(t *testing.T) {
	a := NewList(0)
	b := NewList(0)
	for _, f := range []float64{1, 2, 3} {
		n := NewNumber(f)
		a.Append(n)
		Release(n)
		n2 := NewNumber(f)
		b.Append(n2)
		Release(n2)
	}
	require.True(t, Equal(a, b))

	extra := NewNumber(4)
	b.Append(extra)
	Release(extra)
	require.False(t, Equal(a, b))
}

func TestCyclicEqualityTerminates(t *testing.T) {
	a := NewList(0)
	b := NewList(0)
	a.Append(a)
	b.Append(b)
	// each structure cycles; comparison must terminate
	require.True(t, Equal(a, b))
	require.True(t, Equal(a, a))
}

func TestFunctionIdentityEquality(t *testing.T) {
	f := NewFunction("f", nil, []byte{1}, nil)
	g := NewFunction("f", nil, []byte{1}, nil)
	require.True(t, Equal(f, f))
	require.False(t, Equal(f, g))
}

func TestFormatNumber(t *testing.T) {
	require.Equal(t, "3", FormatNumber(3.0))
	require.Equal(t, "-12", FormatNumber(-12.0))
	require.Equal(t, "3.5", FormatNumber(3.5))
	require.Equal(t, "0.1", FormatNumber(0.1))
}

func TestInspect(t *testing.T) {
	list := NewList(0)
	s := NewString("a")
	n := NewNumber(1)
	list.Append(s)
	list.Append(n)
	Release(s)
	Release(n)
	require.Equal(t, `["a", 1]`, list.Inspect())
	require.Equal(t, "null", NewNil().Inspect())
	require.Equal(t, "<function f>", NewFunction("f", nil, nil, nil).Inspect())
}

func TestStringHashCached(t *testing.T) {
	s := NewString("kronos")
	h1 := s.Hash()
	h2 := s.Hash()
	require.Equal(t, h1, h2)
	require.Equal(t, fnv1a("kronos"), h1)
}

func TestRangeZeroStepRejected(t *testing.T) {
	_, err := NewRange(0, 10, 0)
	require.Error(t, err)

	r, err := NewRange(5, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 0, r.Len())

	r2, err := NewRange(1, 10, 2)
	require.NoError(t, err)
	require.Equal(t, 5, r2.Len())
}

func TestFunctionOwnsPrivateCode(t *testing.T) {
	body := []byte{1, 2, 3}
	f := NewFunction("f", []string{"x"}, body, nil)
	body[0] = 99
	require.Equal(t, byte(1), f.Code()[0])
	require.Equal(t, 1, f.Arity())
}
