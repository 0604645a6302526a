package vm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kronos-lang/kronos/errz"
)

func TestCatchMatchingFilter(t *testing.T) {
	src := `try:
    raise ValueError "boom"
catch ValueError as e:
    print e
print "after"
`
	require.Equal(t, "boom\nafter\n", runSource(t, src))
}

func TestCatchAll(t *testing.T) {
	src := `try:
    raise CustomError "anything"
catch:
    print "caught"
`
	require.Equal(t, "caught\n", runSource(t, src))
}

func TestCatchSelectsByTypeName(t *testing.T) {
	src := `try:
    raise IOError "disk"
catch ValueError as e:
    print "value"
catch IOError as e:
    print "io " plus e
`
	require.Equal(t, "io disk\n", runSource(t, src))
}

func TestUnmatchedFilterPropagates(t *testing.T) {
	src := `try:
    raise AlphaError "a"
catch BetaError as e:
    print e
`
	e := runFailing(t, src)
	require.Equal(t, "AlphaError", e.Name())
	require.Equal(t, "a", e.Message)
}

func TestRuntimeErrorIsCatchable(t *testing.T) {
	src := `try:
    print 1 divided by 0
catch RuntimeError as e:
    print e
`
	require.Equal(t, "division by zero\n", runSource(t, src))
}

func TestNameErrorIsCatchable(t *testing.T) {
	src := `try:
    print missing
catch NameError as e:
    print e
`
	require.Equal(t, "undefined variable 'missing'\n", runSource(t, src))
}

func TestFinallyRunsOnSuccess(t *testing.T) {
	src := `try:
    print "body"
finally:
    print "cleanup"
`
	require.Equal(t, "body\ncleanup\n", runSource(t, src))
}

func TestFinallyRunsOnError(t *testing.T) {
	src := `try:
    raise ValueError "x"
finally:
    print "cleanup"
`
	out, err := tryRunSource(t, src)
	require.Equal(t, "cleanup\n", out)
	require.Error(t, err)
	require.Equal(t, "ValueError", err.(*errz.Error).Name())
}

func TestFinallyRunsAfterCatch(t *testing.T) {
	src := `try:
    raise ValueError "x"
catch ValueError as e:
    print "caught"
finally:
    print "cleanup"
print "after"
`
	require.Equal(t, "caught\ncleanup\nafter\n", runSource(t, src))
}

func TestNestedTryRethrow(t *testing.T) {
	src := `try:
    try:
        raise InnerError "deep"
    catch OtherError as e:
        print "wrong"
catch InnerError as e:
    print "outer " plus e
`
	require.Equal(t, "outer deep\n", runSource(t, src))
}

func TestCatchUnwindsCallFrames(t *testing.T) {
	src := `function boom with n:
    raise ValueError "from boom"
try:
    call boom with 1
catch ValueError as e:
    print e
`
	require.Equal(t, "from boom\n", runSource(t, src))
}

func TestErrorAfterCrossFrameCatchPropagates(t *testing.T) {
	// catching an error thrown inside a callee must leave the handler
	// stack empty; the second raise has no handler to land in
	src := `function boom:
    raise ValueError "inner"
try:
    call boom
catch ValueError as e:
    print e
raise ValueError "outer"
`
	out, err := tryRunSource(t, src)
	require.Equal(t, "inner\n", out)
	require.Error(t, err)
	require.Equal(t, "outer", err.(*errz.Error).Message)
}

func TestBreakClosesOpenTry(t *testing.T) {
	src := `let done to false
while not done:
    try:
        set done to true
        break
    catch ValueError as e:
        print e
raise ValueError "post"
`
	out, err := tryRunSource(t, src)
	require.Equal(t, "", out)
	require.Error(t, err)
	require.Equal(t, "post", err.(*errz.Error).Message)
}

func TestContinueClosesOpenTry(t *testing.T) {
	src := `let i to 0
while i is less than 3:
    set i to i plus 1
    try:
        continue
    catch ValueError as e:
        print e
raise ValueError "after"
`
	out, err := tryRunSource(t, src)
	require.Equal(t, "", out)
	require.Error(t, err)
	require.Equal(t, "after", err.(*errz.Error).Message)
}

func TestBreakOutOfTryInsideForLoop(t *testing.T) {
	src := `for x in range 1 to 5:
    try:
        print x
        break
    catch ValueError as e:
        print e
raise ValueError "end"
`
	out, err := tryRunSource(t, src)
	require.Equal(t, "1\n", out)
	require.Error(t, err)
	require.Equal(t, "end", err.(*errz.Error).Message)
}

func TestCatchRestoresOperandStack(t *testing.T) {
	// the partially evaluated addition must not leak onto the stack
	src := `try:
    print 1 plus call nope with 2
catch NameError as e:
    print "caught"
print 40 plus 2
`
	require.Equal(t, "caught\n42\n", runSource(t, src))
}

func TestCaughtErrorStillRecorded(t *testing.T) {
	src := `try:
    raise ValueError "recorded"
catch ValueError as e:
    print e
`
	bcOut := runSource(t, src)
	require.Equal(t, "recorded\n", bcOut)
}

func TestRaiseCarriesTypeName(t *testing.T) {
	e := runFailing(t, "raise TimeoutError \"too slow\"\n")
	require.Equal(t, "TimeoutError", e.TypeName)
	require.Equal(t, "too slow", e.Message)
	require.Equal(t, errz.Runtime, e.Code)
}
