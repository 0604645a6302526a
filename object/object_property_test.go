package object

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestRefcountBalanceProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("n retains then n releases leave the count unchanged", prop.ForAll(
		func(n int) bool {
			v := NewString("balance")
			before := Refcount(v)
			for i := 0; i < n; i++ {
				Retain(v)
			}
			for i := 0; i < n; i++ {
				Release(v)
			}
			ok := Refcount(v) == before && !IsFinalized(v)
			Release(v)
			return ok
		},
		gen.IntRange(0, 64),
	))

	properties.Property("a released list finalizes all exclusively-owned items", prop.ForAll(
		func(n int) bool {
			list := NewList(0)
			items := make([]*Number, n)
			for i := 0; i < n; i++ {
				items[i] = NewNumber(float64(i))
				list.Append(items[i])
				Release(items[i])
			}
			Release(list)
			for _, item := range items {
				if !IsFinalized(item) {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 32),
	))

	properties.TestingRun(t)
}

func TestMapRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("set then get returns the stored value", prop.ForAll(
		func(key string, val float64) bool {
			m := NewMap()
			k := NewString(key)
			v := NewNumber(val)
			m.Set(k, v)
			got, ok := m.Get(k)
			res := ok && Equal(v, got)
			Release(k)
			Release(v)
			Release(m)
			return res
		},
		gen.Identifier(),
		gen.Float64Range(-1e9, 1e9),
	))

	properties.Property("delete removes exactly the deleted key", prop.ForAll(
		func(keys []string) bool {
			m := NewMap()
			uniq := map[string]bool{}
			for i, key := range keys {
				uniq[key] = true
				k := NewString(key)
				v := NewNumber(float64(i))
				m.Set(k, v)
				Release(k)
				Release(v)
			}
			if m.Len() != len(uniq) {
				Release(m)
				return false
			}
			for key := range uniq {
				k := NewString(key)
				if !m.Delete(k) {
					Release(k)
					Release(m)
					return false
				}
				if _, ok := m.Get(k); ok {
					Release(k)
					Release(m)
					return false
				}
				Release(k)
			}
			res := m.Len() == 0
			Release(m)
			return res
		},
		gen.SliceOf(gen.Identifier()),
	))

	properties.TestingRun(t)
}
