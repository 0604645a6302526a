package dis

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kronos-lang/kronos/compiler"
)

func listing(t *testing.T, src string) string {
	t.Helper()
	bc, err := compiler.CompileSource(src)
	require.NoError(t, err)
	t.Cleanup(bc.Close)
	return Disassemble(bc)
}

func TestDisassembleAssignment(t *testing.T) {
	out := listing(t, "set x to 42\n")
	require.Contains(t, out, "main:")
	require.Contains(t, out, "LOAD_CONST")
	require.Contains(t, out, "42")
	require.Contains(t, out, "STORE_VAR")
	require.Contains(t, out, "\"x\"")
	require.Contains(t, out, "HALT")
}

func TestDisassembleJumpTargets(t *testing.T) {
	out := listing(t, "if x:\n    print 1\nelse:\n    print 2\n")
	require.Contains(t, out, "JUMP_IF_FALSE")
	require.Contains(t, out, "to 00")
}

func TestDisassembleFunctionChunks(t *testing.T) {
	out := listing(t, "function double with n:\n    return n times 2\n")
	require.Contains(t, out, "DEFINE_FUNC")
	require.Contains(t, out, "function double(n)")
	require.Contains(t, out, "RETURN_VAL")
}

func TestDisassembleCallAnnotation(t *testing.T) {
	out := listing(t, "call greet with \"ada\"\n")
	require.Contains(t, out, "CALL_FUNC")
	require.Contains(t, out, "\"greet\"")
}

func TestDisassembleTryLayout(t *testing.T) {
	src := `try:
    raise ValueError "x"
catch ValueError as e:
    print e
`
	out := listing(t, src)
	require.Contains(t, out, "TRY_ENTER")
	require.Contains(t, out, "CATCH")
	require.Contains(t, out, "\"ValueError\"")
	require.Contains(t, out, "END_FINALLY")
}
