package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kronos-lang/kronos/ast"
)

func TestParseAssign(t *testing.T) {
	prog, err := Parse("set x to 42 as number\nlet y to \"hi\"\n")
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)

	set := prog.Statements[0].(*ast.Assign)
	require.Equal(t, "x", set.Name)
	require.False(t, set.Mutable)
	require.Equal(t, "number", set.TypeName)
	require.Equal(t, 42.0, set.Value.(*ast.NumberLit).Value)

	let := prog.Statements[1].(*ast.Assign)
	require.Equal(t, "y", let.Name)
	require.True(t, let.Mutable)
	require.Empty(t, let.TypeName)
}

func TestParseIndexAssign(t *testing.T) {
	prog, err := Parse(`set scores at "alice" to 10`)
	require.NoError(t, err)
	stmt := prog.Statements[0].(*ast.IndexAssign)
	require.Equal(t, "scores", stmt.Target.(*ast.Var).Name)
	require.Equal(t, "alice", stmt.Index.(*ast.StringLit).Value)
}

func TestParseOperatorPrecedence(t *testing.T) {
	prog, err := Parse("print a plus b times c\n")
	require.NoError(t, err)
	expr := prog.Statements[0].(*ast.Print).Value.(*ast.BinOp)
	require.Equal(t, ast.OpAdd, expr.Kind)
	right := expr.Right.(*ast.BinOp)
	require.Equal(t, ast.OpMul, right.Kind)
}

func TestParseComparisons(t *testing.T) {
	cases := map[string]ast.BinOpKind{
		"a is equal to b":                    ast.OpEq,
		"a is not equal to b":                ast.OpNeq,
		"a is greater than b":                ast.OpGt,
		"a is less than b":                   ast.OpLt,
		"a is greater than or equal to b":    ast.OpGte,
		"a is less than or equal to b":       ast.OpLte,
	}
	for src, want := range cases {
		prog, err := Parse("print " + src)
		require.NoError(t, err, src)
		expr := prog.Statements[0].(*ast.Print).Value.(*ast.BinOp)
		require.Equal(t, want, expr.Kind, src)
	}
}

func TestGreaterThanOrDisambiguation(t *testing.T) {
	// `or` starts a new clause here, not an `or equal to` suffix
	prog, err := Parse("print a is greater than b or c\n")
	require.NoError(t, err)
	expr := prog.Statements[0].(*ast.Print).Value.(*ast.BinOp)
	require.Equal(t, ast.OpOr, expr.Kind)
	require.Equal(t, ast.OpGt, expr.Left.(*ast.BinOp).Kind)
}

func TestParseIfChain(t *testing.T) {
	src := `if a:
    print 1
else if b:
    print 2
else:
    print 3
`
	prog, err := Parse(src)
	require.NoError(t, err)
	stmt := prog.Statements[0].(*ast.If)
	require.Len(t, stmt.Then.Statements, 1)
	elseIf := stmt.Else.(*ast.If)
	require.NotNil(t, elseIf.Else)
	require.Len(t, elseIf.Else.(*ast.Block).Statements, 1)
}

func TestParseLoops(t *testing.T) {
	src := `while x is less than 10:
    set x to x plus 1
    if x is equal to 5:
        break
for item in items:
    print item
`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Statements, 2)
	loop := prog.Statements[0].(*ast.While)
	require.Len(t, loop.Body.Statements, 2)
	each := prog.Statements[1].(*ast.For)
	require.Equal(t, "item", each.Name)
}

func TestParseFunctionAndCall(t *testing.T) {
	src := `function add_two with a, b:
    return a plus b
set r to call add_two with 1, 2
`
	prog, err := Parse(src)
	require.NoError(t, err)
	fn := prog.Statements[0].(*ast.FunctionDef)
	require.Equal(t, "add_two", fn.Name)
	require.Equal(t, []string{"a", "b"}, fn.Params)

	assign := prog.Statements[1].(*ast.Assign)
	call := assign.Value.(*ast.Call)
	require.Equal(t, "add_two", call.Name)
	require.Empty(t, call.Module)
	require.Len(t, call.Args, 2)
}

func TestParseModuleCall(t *testing.T) {
	prog, err := Parse("set r to call utils.double with 4\n")
	require.NoError(t, err)
	call := prog.Statements[0].(*ast.Assign).Value.(*ast.Call)
	require.Equal(t, "utils", call.Module)
	require.Equal(t, "double", call.Name)
}

func TestParseImport(t *testing.T) {
	prog, err := Parse("import utils\nimport helpers from \"./lib/helpers.kr\"\n")
	require.NoError(t, err)
	first := prog.Statements[0].(*ast.Import)
	require.Equal(t, "utils", first.Name)
	require.Empty(t, first.Path)
	second := prog.Statements[1].(*ast.Import)
	require.Equal(t, "./lib/helpers.kr", second.Path)
}

func TestParseTryCatchFinally(t *testing.T) {
	src := `try:
    raise ValueError "boom"
catch ValueError as e:
    print e
catch:
    print "other"
finally:
    print "done"
`
	prog, err := Parse(src)
	require.NoError(t, err)
	stmt := prog.Statements[0].(*ast.Try)
	require.Len(t, stmt.Catches, 2)
	require.Equal(t, "ValueError", stmt.Catches[0].Filter)
	require.Equal(t, "e", stmt.Catches[0].Name)
	require.Empty(t, stmt.Catches[1].Filter)
	require.NotNil(t, stmt.Finally)
}

func TestTryWithoutHandlersFails(t *testing.T) {
	_, err := Parse("try:\n    print 1\nprint 2\n")
	require.Error(t, err)
}

func TestParseLiterals(t *testing.T) {
	src := `set xs to list 1, 2, 3
set m to map "a" to 1, "b" to 2
set r to range 0 to 10 by 2
set tup to tuple 1, "two"
`
	prog, err := Parse(src)
	require.NoError(t, err)

	xs := prog.Statements[0].(*ast.Assign).Value.(*ast.ListLit)
	require.Len(t, xs.Items, 3)

	m := prog.Statements[1].(*ast.Assign).Value.(*ast.MapLit)
	require.Len(t, m.Keys, 2)

	r := prog.Statements[2].(*ast.Assign).Value.(*ast.RangeLit)
	require.NotNil(t, r.Step)

	tup := prog.Statements[3].(*ast.Assign).Value.(*ast.TupleLit)
	require.Len(t, tup.Items, 2)
}

func TestParseIndexAndSlice(t *testing.T) {
	prog, err := Parse("print xs at 2\nprint xs from 1 to 3\nprint xs from 1 to end\n")
	require.NoError(t, err)

	idx := prog.Statements[0].(*ast.Print).Value.(*ast.Index)
	require.Equal(t, 2.0, idx.Index.(*ast.NumberLit).Value)

	sl := prog.Statements[1].(*ast.Print).Value.(*ast.Slice)
	require.False(t, sl.OpenEnd)
	require.NotNil(t, sl.End)

	open := prog.Statements[2].(*ast.Print).Value.(*ast.Slice)
	require.True(t, open.OpenEnd)
	require.Nil(t, open.End)
}

func TestParseFormatString(t *testing.T) {
	prog, err := Parse("print f\"sum is {a plus b}!\"\n")
	require.NoError(t, err)
	fs := prog.Statements[0].(*ast.Print).Value.(*ast.FormatString)
	require.Equal(t, []string{"sum is ", "!"}, fs.Parts)
	require.Len(t, fs.Exprs, 1)
	require.Equal(t, ast.OpAdd, fs.Exprs[0].(*ast.BinOp).Kind)
}

func TestParseDeleteAndRaise(t *testing.T) {
	prog, err := Parse("delete m at \"key\"\nraise IOError \"disk gone\"\n")
	require.NoError(t, err)
	del := prog.Statements[0].(*ast.Delete)
	require.Equal(t, "key", del.Key.(*ast.StringLit).Value)
	raise := prog.Statements[1].(*ast.Raise)
	require.Equal(t, "IOError", raise.TypeName)
}

func TestParseErrorsCarryPosition(t *testing.T) {
	_, err := Parse("set x 42\n")
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 1")
}
