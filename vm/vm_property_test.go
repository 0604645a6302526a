package vm

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kronos-lang/kronos/compiler"
)

// propRun executes src on a throwaway VM and returns the printed output,
// or the empty string on failure.
func propRun(src string) (string, bool) {
	bc, err := compiler.CompileSource(src)
	if err != nil {
		return "", false
	}
	defer bc.Close()
	var buf bytes.Buffer
	v := New(WithOutput(&buf))
	defer v.Close()
	if err := v.Execute(bc); err != nil {
		return "", false
	}
	return buf.String(), true
}

func TestStackDisciplineProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("the operand stack is empty after any arithmetic chain", prop.ForAll(
		func(terms []int) bool {
			var sb strings.Builder
			sb.WriteString("print 0")
			for _, term := range terms {
				fmt.Fprintf(&sb, " plus %d", term)
			}
			sb.WriteString("\n")
			bc, err := compiler.CompileSource(sb.String())
			if err != nil {
				return false
			}
			defer bc.Close()
			v := New(WithOutput(&bytes.Buffer{}))
			defer v.Close()
			if err := v.Execute(bc); err != nil {
				return false
			}
			return v.sp == 0
		},
		gen.SliceOfN(5, gen.IntRange(0, 1000)),
	))

	properties.Property("a failing program leaves the stack empty too", prop.ForAll(
		func(n int) bool {
			src := fmt.Sprintf("print %d plus call nope with 1\n", n)
			bc, err := compiler.CompileSource(src)
			if err != nil {
				return false
			}
			defer bc.Close()
			v := New(WithOutput(&bytes.Buffer{}))
			defer v.Close()
			if err := v.Execute(bc); err == nil {
				return false
			}
			return v.sp == 0
		},
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

func TestRangeIterationProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("an ascending range visits each value once, in order", prop.ForAll(
		func(start, count int) bool {
			end := start + count - 1
			src := fmt.Sprintf("for i in range %d to %d:\n    print i\n", start, end)
			out, ok := propRun(src)
			if !ok {
				return false
			}
			var want strings.Builder
			for i := start; i <= end; i++ {
				fmt.Fprintf(&want, "%d\n", i)
			}
			return out == want.String()
		},
		gen.IntRange(-50, 50),
		gen.IntRange(0, 30),
	))

	properties.Property("a stepped range matches the arithmetic sequence", prop.ForAll(
		func(start, count, step int) bool {
			end := start + (count-1)*step
			src := fmt.Sprintf("for i in range %d to %d by %d:\n    print i\n", start, end, step)
			out, ok := propRun(src)
			if !ok {
				return false
			}
			var want strings.Builder
			for i := 0; i < count; i++ {
				fmt.Fprintf(&want, "%d\n", start+i*step)
			}
			return out == want.String()
		},
		gen.IntRange(-20, 20),
		gen.IntRange(1, 20),
		gen.IntRange(1, 5),
	))

	properties.TestingRun(t)
}
