package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kronos-lang/kronos/compiler"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// runSource compiles and executes src on a fresh VM and returns its
// printed output.
func runSource(t *testing.T, src string) string {
	t.Helper()
	out, err := tryRunSource(t, src)
	require.NoError(t, err)
	return out
}

func tryRunSource(t *testing.T, src string) (string, error) {
	t.Helper()
	bc, err := compiler.CompileSource(src)
	require.NoError(t, err)
	defer bc.Close()
	var buf bytes.Buffer
	v := New(WithOutput(&buf))
	t.Cleanup(func() { v.Close() })
	execErr := v.Execute(bc)
	return buf.String(), execErr
}

// runFailing executes src and returns the recorded error triple.
func runFailing(t *testing.T, src string) *errz.Error {
	t.Helper()
	bc, cerr := compiler.CompileSource(src)
	require.NoError(t, cerr)
	defer bc.Close()
	v := New(WithOutput(&bytes.Buffer{}))
	t.Cleanup(func() { v.Close() })
	err := v.Execute(bc)
	require.Error(t, err)
	e, ok := err.(*errz.Error)
	require.True(t, ok)
	return e
}

func TestExecuteArithmetic(t *testing.T) {
	require.Equal(t, "7\n", runSource(t, "print 1 plus 2 times 3\n"))
	require.Equal(t, "2\n", runSource(t, "print 10 divided by 4 minus 0.5\n"))
	require.Equal(t, "1\n", runSource(t, "print 7 mod 3\n"))
	require.Equal(t, "-5\n", runSource(t, "print 0 minus 5\n"))
}

func TestStringConcatenation(t *testing.T) {
	require.Equal(t, "ab\n", runSource(t, "print \"a\" plus \"b\"\n"))
	require.Equal(t, "n=4\n", runSource(t, "print \"n=\" plus 4\n"))
}

func TestVariables(t *testing.T) {
	out := runSource(t, "set x to 42\nprint x\nlet y to 1\nset y to y plus 1\nprint y\n")
	require.Equal(t, "42\n2\n", out)
}

func TestImmutableReassignment(t *testing.T) {
	e := runFailing(t, "set x to 1\nset x to 2\n")
	require.Equal(t, errz.Runtime, e.Code)
	require.Equal(t, "cannot reassign immutable variable 'x'", e.Message)
}

func TestTypeConstraint(t *testing.T) {
	require.Equal(t, "2\n", runSource(t, "let n to 1 as number\nset n to 2\nprint n\n"))

	e := runFailing(t, "let n to 1 as number\nset n to \"two\"\n")
	require.Equal(t, errz.InvalidArgument, e.Code)
	require.Equal(t, "cannot assign string to 'n' declared as number", e.Message)
	require.Equal(t, "ValueError", e.Name())
}

func TestUndefinedVariable(t *testing.T) {
	e := runFailing(t, "print x\n")
	require.Equal(t, errz.NotFound, e.Code)
	require.Equal(t, "undefined variable 'x'", e.Message)
	require.Equal(t, "NameError", e.Name())
}

func TestDivisionByZero(t *testing.T) {
	e := runFailing(t, "print 1 divided by 0\n")
	require.Equal(t, "division by zero", e.Message)
	require.Equal(t, "RuntimeError", e.Name())
}

func TestComparisonsAndLogic(t *testing.T) {
	out := runSource(t, `print 1 is less than 2
print 2 is greater than or equal to 2
print 1 is equal to 1.0000000001
print true and false
print not false
`)
	require.Equal(t, "true\ntrue\ntrue\nfalse\ntrue\n", out)
}

func TestIfElse(t *testing.T) {
	src := `let x to 10
if x is greater than 5:
    print "big"
else:
    print "small"
`
	require.Equal(t, "big\n", runSource(t, src))
}

func TestWhileLoop(t *testing.T) {
	src := `let i to 0
let total to 0
while i is less than 5:
    set i to i plus 1
    set total to total plus i
print total
`
	require.Equal(t, "15\n", runSource(t, src))
}

func TestForOverRange(t *testing.T) {
	require.Equal(t, "1\n2\n3\n", runSource(t, "for i in range 1 to 3:\n    print i\n"))
	require.Equal(t, "5\n3\n1\n", runSource(t, "for i in range 5 to 1 by -2:\n    print i\n"))
	require.Equal(t, "", runSource(t, "for i in range 3 to 1:\n    print i\n"))
}

func TestForOverList(t *testing.T) {
	src := `set xs to list 10, 20, 30
for x in xs:
    print x
`
	require.Equal(t, "10\n20\n30\n", runSource(t, src))
}

func TestBreakAndContinue(t *testing.T) {
	src := `for i in range 1 to 10:
    if i is equal to 4:
        break
    print i
`
	require.Equal(t, "1\n2\n3\n", runSource(t, src))
}

func TestFunctions(t *testing.T) {
	src := `function double with n:
    return n times 2
set r to call double with 21
print r
`
	require.Equal(t, "42\n", runSource(t, src))
}

func TestFunctionWithoutReturnYieldsNull(t *testing.T) {
	src := `function greet with name:
    print "hi " plus name
set r to call greet with "ada"
print r
`
	require.Equal(t, "hi ada\nnull\n", runSource(t, src))
}

func TestFunctionArityMismatch(t *testing.T) {
	src := `function double with n:
    return n times 2
call double with 1, 2
`
	e := runFailing(t, src)
	require.Equal(t, "Function 'double' expects 1 arguments, got 2", e.Message)
}

func TestCallDepthExceeded(t *testing.T) {
	src := `function loop:
    return call loop
call loop
`
	e := runFailing(t, src)
	require.Equal(t, errz.Runtime, e.Code)
	require.Contains(t, e.Message, "call depth exceeded")
}

func TestOperandStackOverflowReported(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("set xs to tuple 1")
	for i := 0; i < StackSize+8; i++ {
		sb.WriteString(", 1")
	}
	sb.WriteString("\n")
	e := runFailing(t, sb.String())
	require.Equal(t, errz.Runtime, e.Code)
	require.Contains(t, e.Message, "stack overflow")
}

func TestIterativeFactorial(t *testing.T) {
	iter := `function fact with n:
    let acc to 1
    let i to 1
    while i is less than or equal to n:
        set acc to acc times i
        set i to i plus 1
    return acc
print call fact with 6
`
	require.Equal(t, "720\n", runSource(t, iter))
}

func TestListIndexingAndSlicing(t *testing.T) {
	src := `set xs to list 1, 2, 3, 4
print xs at 0
print xs at -1
print xs from 1 to 3
print xs from 2 to end
`
	require.Equal(t, "1\n4\n[2, 3]\n[3, 4]\n", runSource(t, src))
}

func TestIndexOutOfRange(t *testing.T) {
	e := runFailing(t, "set xs to list 1\nprint xs at 5\n")
	require.Equal(t, "index 5 out of range", e.Message)
}

func TestIndexAssignment(t *testing.T) {
	src := `set xs to list 1, 2, 3
set xs at 1 to 99
print xs
`
	require.Equal(t, "[1, 99, 3]\n", runSource(t, src))
}

func TestStringIndexingAndSlicing(t *testing.T) {
	src := `set s to "kronos"
print s at 0
print s at -1
print s from 1 to 4
`
	require.Equal(t, "k\ns\nron\n", runSource(t, src))
}

func TestMapOperations(t *testing.T) {
	src := `set m to map "a" to 1, "b" to 2
print m at "a"
set m at "c" to 3
print call has_key with m, "c"
delete m at "b"
print call has_key with m, "b"
`
	require.Equal(t, "1\ntrue\nfalse\n", runSource(t, src))
}

func TestMissingMapKey(t *testing.T) {
	e := runFailing(t, "set m to map \"a\" to 1\nprint m at \"z\"\n")
	require.Equal(t, errz.NotFound, e.Code)
}

func TestTupleLiteral(t *testing.T) {
	src := `set tp to tuple 1, "two", true
print tp at 1
print call len with tp
`
	require.Equal(t, "two\n3\n", runSource(t, src))
}

func TestFormatString(t *testing.T) {
	src := `set name to "ada"
set n to 3
print f"{name} has {n} items"
`
	require.Equal(t, "ada has 3 items\n", runSource(t, src))
}

func TestBuiltins(t *testing.T) {
	src := `print call len with "hello"
print call uppercase with "abc"
print call trim with "  x  "
print call to_number with "4.5"
print call type_of with true
print call abs with -3
print call pow with 2, 10
set xs to list 3, 1, 2
print call sort with xs
print call reverse with xs
print call contains with xs, 2
print call index_of with xs, 1
`
	require.Equal(t,
		"5\nABC\nx\n4.5\nboolean\n3\n1024\n[1, 2, 3]\n[2, 1, 3]\ntrue\n1\n",
		runSource(t, src))
}

func TestBuiltinArityMismatch(t *testing.T) {
	e := runFailing(t, "call uppercase with \"a\", \"b\"\n")
	require.Equal(t, "Function 'uppercase' expects 1 arguments, got 2", e.Message)
}

func TestBuiltinTypeError(t *testing.T) {
	e := runFailing(t, "call sqrt with \"nope\"\n")
	require.Equal(t, errz.InvalidArgument, e.Code)
}

func TestBuiltinsShadowUserFunctions(t *testing.T) {
	src := `function len with x:
    return 0
print call len with "four"
`
	require.Equal(t, "4\n", runSource(t, src))
}

func TestSetGlobalVisibleToScript(t *testing.T) {
	bc, err := compiler.CompileSource("print greeting\n")
	require.NoError(t, err)
	defer bc.Close()

	var buf bytes.Buffer
	v := New(WithOutput(&buf))
	defer v.Close()

	s := object.NewString("hello")
	v.SetGlobal("greeting", s, false, "")
	object.Release(s)

	require.NoError(t, v.Execute(bc))
	require.Equal(t, "hello\n", buf.String())
}

func TestGetGlobalAfterExecute(t *testing.T) {
	bc, err := compiler.CompileSource("set answer to 42\n")
	require.NoError(t, err)
	defer bc.Close()

	v := New(WithOutput(&bytes.Buffer{}))
	defer v.Close()
	require.NoError(t, v.Execute(bc))

	val, ok := v.GetGlobal("answer")
	require.True(t, ok)
	require.Equal(t, 42.0, val.(*object.Number).Value())
}

func TestGlobalsPersistAcrossChunks(t *testing.T) {
	v := New(WithOutput(&bytes.Buffer{}))
	defer v.Close()

	bc1, err := compiler.CompileSource("let count to 1\n")
	require.NoError(t, err)
	defer bc1.Close()
	require.NoError(t, v.Execute(bc1))

	var buf bytes.Buffer
	v.out = &buf
	bc2, err := compiler.CompileSource("set count to count plus 1\nprint count\n")
	require.NoError(t, err)
	defer bc2.Close()
	require.NoError(t, v.Execute(bc2))
	require.Equal(t, "2\n", buf.String())
}

func TestLastErrorRecorded(t *testing.T) {
	v := New(WithOutput(&bytes.Buffer{}))
	defer v.Close()

	bc, err := compiler.CompileSource("print missing\n")
	require.NoError(t, err)
	defer bc.Close()

	require.Error(t, v.Execute(bc))
	last := v.LastError()
	require.NotNil(t, last)
	require.Equal(t, "undefined variable 'missing'", last.Message)
	require.Equal(t, "NameError", last.TypeName)
}

func TestErrorCallback(t *testing.T) {
	var seen []*errz.Error
	v := New(
		WithOutput(&bytes.Buffer{}),
		WithErrorCallback(func(e *errz.Error) { seen = append(seen, e) }),
	)
	defer v.Close()

	bc, err := compiler.CompileSource("print 1 divided by 0\n")
	require.NoError(t, err)
	defer bc.Close()

	require.Error(t, v.Execute(bc))
	require.Len(t, seen, 1)
	require.Equal(t, "division by zero", seen[0].Message)
}

func TestCoexistingVMsKeepValuesAlive(t *testing.T) {
	// each VM owns a private runtime; closing one must never finalize
	// values still referenced by the other
	v1 := New(WithOutput(&bytes.Buffer{}))
	v2 := New(WithOutput(&bytes.Buffer{}))

	s := object.NewString("held by the first vm")
	v1.SetGlobal("g", s, false, "")
	object.Release(s)

	require.NoError(t, v2.Close())

	g, ok := v1.GetGlobal("g")
	require.True(t, ok)
	require.False(t, object.IsFinalized(g))
	require.Equal(t, "held by the first vm", g.Inspect())
	require.NoError(t, v1.Close())
}

func TestCleanCloseAfterRun(t *testing.T) {
	bc, err := compiler.CompileSource("set xs to list 1, 2\nprint xs\n")
	require.NoError(t, err)

	var buf bytes.Buffer
	v := New(WithOutput(&buf))
	require.NoError(t, v.Execute(bc))
	bc.Close()
	require.NoError(t, v.Close())
}
