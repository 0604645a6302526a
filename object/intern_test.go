package object

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternDeduplicates(t *testing.T) {
	in := NewInterner()
	defer in.Close()

	a := in.Intern("hello")
	b := in.Intern("hello")
	require.Same(t, a, b)
	require.Equal(t, 1, in.Len())
	// table ref + two caller refs
	require.Equal(t, int32(3), Refcount(a))

	Release(a)
	Release(b)
}

func TestInternDistinctContent(t *testing.T) {
	in := NewInterner()
	defer in.Close()

	a := in.Intern("a")
	b := in.Intern("b")
	require.NotSame(t, a, b)
	require.Equal(t, 2, in.Len())
	Release(a)
	Release(b)
}

func TestInternFullTableFallsBack(t *testing.T) {
	in := NewInterner()
	defer in.Close()

	for i := 0; i < internTableSize; i++ {
		s := in.Intern(fmt.Sprintf("s%d", i))
		Release(s)
	}
	require.Equal(t, internTableSize, in.Len())

	// table is full: overflow strings are fresh and not interned
	x := in.Intern("overflow")
	y := in.Intern("overflow")
	require.NotSame(t, x, y)
	require.Equal(t, int32(1), Refcount(x))
	Release(x)
	Release(y)
}

func TestInternCloseReleasesTable(t *testing.T) {
	in := NewInterner()
	s := in.Intern("kept")
	require.Equal(t, int32(2), Refcount(s))

	in.Close()
	require.Equal(t, int32(1), Refcount(s))
	require.False(t, IsFinalized(s))
	Release(s)

	// close is idempotent and a closed interner still hands out strings
	in.Close()
	fresh := in.Intern("late")
	require.Equal(t, int32(1), Refcount(fresh))
	Release(fresh)
}
