package object

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapSetGetDelete(t *testing.T) {
	m := NewMap()
	k := NewString("name")
	v := NewString("kronos")
	m.Set(k, v)
	require.Equal(t, 1, m.Len())

	got, ok := m.Get(k)
	require.True(t, ok)
	require.Same(t, Value(v), got)

	require.True(t, m.Delete(k))
	require.Equal(t, 0, m.Len())
	_, ok = m.Get(k)
	require.False(t, ok)
	require.False(t, m.Delete(k))
}

func TestMapStoredNilDistinctFromAbsent(t *testing.T) {
	m := NewMap()
	k := NewString("k")
	nv := NewNil()
	m.Set(k, nv)

	got, ok := m.Get(k)
	require.True(t, ok)
	require.Equal(t, NIL, got.Type())

	other := NewString("missing")
	_, ok = m.Get(other)
	require.False(t, ok)
}

func TestMapUpdateSwapsValueReference(t *testing.T) {
	m := NewMap()
	k := NewString("k")
	v1 := NewNumber(1)
	v2 := NewNumber(2)
	m.Set(k, v1)
	require.Equal(t, int32(2), Refcount(v1))

	m.Set(k, v2)
	require.Equal(t, int32(1), Refcount(v1))
	require.Equal(t, int32(2), Refcount(v2))
	require.Equal(t, int32(2), Refcount(k)) // key retained once
}

func TestMapGrowthPreservesEntries(t *testing.T) {
	m := NewMap()
	const n = 200
	for i := 0; i < n; i++ {
		k := NewString(fmt.Sprintf("key-%d", i))
		v := NewNumber(float64(i))
		m.Set(k, v)
		Release(k)
		Release(v)
	}
	require.Equal(t, n, m.Len())
	for i := 0; i < n; i++ {
		k := NewString(fmt.Sprintf("key-%d", i))
		got, ok := m.Get(k)
		require.True(t, ok, "key-%d", i)
		require.True(t, Equal(NewNumber(float64(i)), got))
		Release(k)
	}
}

func TestMapTombstoneReuse(t *testing.T) {
	m := NewMap()
	for i := 0; i < 50; i++ {
		k := NewString(fmt.Sprintf("k%d", i))
		v := NewNumber(float64(i))
		m.Set(k, v)
		Release(k)
		Release(v)
	}
	for i := 0; i < 50; i += 2 {
		k := NewString(fmt.Sprintf("k%d", i))
		require.True(t, m.Delete(k))
		Release(k)
	}
	require.Equal(t, 25, m.Len())

	// deleted slots must not break probe chains for survivors
	for i := 1; i < 50; i += 2 {
		k := NewString(fmt.Sprintf("k%d", i))
		_, ok := m.Get(k)
		require.True(t, ok, "k%d", i)
		Release(k)
	}

	// reinsert over tombstones
	for i := 0; i < 50; i += 2 {
		k := NewString(fmt.Sprintf("k%d", i))
		v := NewNumber(float64(-i))
		m.Set(k, v)
		Release(k)
		Release(v)
	}
	require.Equal(t, 50, m.Len())
}

func TestMapNumberKeys(t *testing.T) {
	m := NewMap()
	k := NewNumber(3)
	v := NewString("three")
	m.Set(k, v)
	lookup := NewNumber(3)
	got, ok := m.Get(lookup)
	require.True(t, ok)
	require.True(t, Equal(v, got))
}

func TestMapEqualityOrderIndependent(t *testing.T) {
	a := NewMap()
	b := NewMap()
	keys := []string{"x", "y", "z"}
	for i, name := range keys {
		k := NewString(name)
		v := NewNumber(float64(i))
		a.Set(k, v)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		k := NewString(keys[i])
		v := NewNumber(float64(i))
		b.Set(k, v)
	}
	require.True(t, Equal(a, b))

	extraK := NewString("w")
	extraV := NewNil()
	b.Set(extraK, extraV)
	require.False(t, Equal(a, b))
}

func TestMapReleaseReleasesEntries(t *testing.T) {
	m := NewMap()
	k := NewString("k")
	v := NewString("v")
	m.Set(k, v)
	Release(m)
	require.Equal(t, int32(1), Refcount(k))
	require.Equal(t, int32(1), Refcount(v))
}
