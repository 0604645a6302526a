// Package compiler lowers a syntax tree to bytecode. Forward conditional
// jumps use 16-bit offsets; unconditional jumps are short signed 8-bit
// offsets, so an oversized branch or loop body is a compile error rather
// than silently wrong code.
package compiler

import (
	"github.com/kronos-lang/kronos/ast"
	"github.com/kronos-lang/kronos/bytecode"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
	"github.com/kronos-lang/kronos/op"
	"github.com/kronos-lang/kronos/parser"
)

// NoOperand marks an unused 16-bit constant slot, e.g. the type constraint
// of an untyped variable.
const NoOperand = 0xFFFF

// Compile lowers a parsed program to an executable chunk. The caller owns
// the returned chunk and must Close it after execution.
func Compile(prog *ast.Program) (*bytecode.Bytecode, error) {
	c := &compiler{b: bytecode.NewBuilder()}
	for _, stmt := range prog.Statements {
		if err := c.statement(stmt); err != nil {
			c.b.Bytecode().Close()
			return nil, err
		}
	}
	c.b.Emit(op.Halt)
	return c.b.Bytecode(), nil
}

// CompileSource parses and compiles in one step.
func CompileSource(src string) (*bytecode.Bytecode, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return Compile(prog)
}

type compiler struct {
	b        *bytecode.Builder
	loops    []*loopContext
	inFn     bool
	tryDepth int // open try bodies at the current emit point
}

// loopContext tracks the patch points of the innermost loop.
type loopContext struct {
	start     int   // continue target
	breaks    []int // Jump operand positions to patch to the loop end
	iterOwned bool  // an iterator sits on the stack and breaks must pop it
	tryBase   int   // tryDepth at loop entry
}

func (c *compiler) statement(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Assign:
		return c.assign(s)
	case *ast.IndexAssign:
		return c.indexAssign(s)
	case *ast.Print:
		if err := c.expression(s.Value); err != nil {
			return err
		}
		c.b.Emit(op.Print)
		return nil
	case *ast.If:
		return c.ifStmt(s)
	case *ast.Block:
		return c.block(s)
	case *ast.While:
		return c.whileStmt(s)
	case *ast.For:
		return c.forStmt(s)
	case *ast.Break:
		return c.breakStmt(s)
	case *ast.Continue:
		return c.continueStmt(s)
	case *ast.FunctionDef:
		return c.functionDef(s)
	case *ast.Return:
		return c.returnStmt(s)
	case *ast.Import:
		return c.importStmt(s)
	case *ast.Try:
		return c.tryStmt(s)
	case *ast.Raise:
		if err := c.expression(s.Message); err != nil {
			return err
		}
		c.b.Emit(op.Throw)
		c.b.EmitU16(uint16(c.stringConst(s.TypeName)))
		return nil
	case *ast.Delete:
		if err := c.expression(s.Target); err != nil {
			return err
		}
		if err := c.expression(s.Key); err != nil {
			return err
		}
		c.b.Emit(op.Delete)
		return nil
	case *ast.ExpressionStatement:
		if err := c.expression(s.Value); err != nil {
			return err
		}
		c.b.Emit(op.Pop)
		return nil
	default:
		return errz.Newf(errz.Compile, "unsupported statement at %s", stmt.Position())
	}
}

func (c *compiler) block(b *ast.Block) error {
	for _, stmt := range b.Statements {
		if err := c.statement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) assign(s *ast.Assign) error {
	if err := c.expression(s.Value); err != nil {
		return err
	}
	c.emitStore(s.Name, s.Mutable, s.TypeName)
	return nil
}

// emitStore writes a StoreVar with the name, mutability and optional type
// constraint operands.
func (c *compiler) emitStore(name string, mutable bool, typeName string) {
	c.b.Emit(op.StoreVar)
	c.b.EmitU16(uint16(c.stringConst(name)))
	if mutable {
		c.b.EmitByte(1)
	} else {
		c.b.EmitByte(0)
	}
	if typeName == "" {
		c.b.EmitU16(NoOperand)
	} else {
		c.b.EmitU16(uint16(c.stringConst(typeName)))
	}
}

func (c *compiler) indexAssign(s *ast.IndexAssign) error {
	if err := c.expression(s.Target); err != nil {
		return err
	}
	if err := c.expression(s.Index); err != nil {
		return err
	}
	if err := c.expression(s.Value); err != nil {
		return err
	}
	c.b.Emit(op.IndexSet)
	return nil
}

func (c *compiler) ifStmt(s *ast.If) error {
	if err := c.expression(s.Cond); err != nil {
		return err
	}
	c.b.Emit(op.JumpIfFalse)
	elseJump := c.b.EmitU16(0)
	if err := c.block(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		c.b.PatchU16(elseJump, uint16(c.b.Len()-(elseJump+2)))
		return nil
	}
	endJump := c.emitForwardJump()
	c.b.PatchU16(elseJump, uint16(c.b.Len()-(elseJump+2)))
	if err := c.statement(s.Else); err != nil {
		return err
	}
	return c.patchForwardJump(endJump, s.Position())
}

func (c *compiler) whileStmt(s *ast.While) error {
	top := c.b.Len()
	if err := c.expression(s.Cond); err != nil {
		return err
	}
	c.b.Emit(op.JumpIfFalse)
	exitJump := c.b.EmitU16(0)

	ctx := &loopContext{start: top, tryBase: c.tryDepth}
	c.loops = append(c.loops, ctx)
	err := c.block(s.Body)
	c.loops = c.loops[:len(c.loops)-1]
	if err != nil {
		return err
	}

	if err := c.emitBackwardJump(top, s.Position()); err != nil {
		return err
	}
	c.b.PatchU16(exitJump, uint16(c.b.Len()-(exitJump+2)))
	return c.patchBreaks(ctx, s.Position())
}

func (c *compiler) forStmt(s *ast.For) error {
	if err := c.expression(s.Iter); err != nil {
		return err
	}
	c.b.Emit(op.IterNew)
	top := c.b.Len()
	c.b.Emit(op.IterNext)
	exitJump := c.b.EmitU16(0)
	c.emitStore(s.Name, true, "")

	ctx := &loopContext{start: top, iterOwned: true, tryBase: c.tryDepth}
	c.loops = append(c.loops, ctx)
	err := c.block(s.Body)
	c.loops = c.loops[:len(c.loops)-1]
	if err != nil {
		return err
	}

	if err := c.emitBackwardJump(top, s.Position()); err != nil {
		return err
	}
	c.b.PatchU16(exitJump, uint16(c.b.Len()-(exitJump+2)))
	return c.patchBreaks(ctx, s.Position())
}

func (c *compiler) breakStmt(s *ast.Break) error {
	if len(c.loops) == 0 {
		return errz.Newf(errz.Compile, "break outside loop at %s", s.Position())
	}
	ctx := c.loops[len(c.loops)-1]
	c.emitTryExits(ctx)
	if ctx.iterOwned {
		// drop the loop's iterator before leaving
		c.b.Emit(op.Pop)
	}
	ctx.breaks = append(ctx.breaks, c.emitForwardJump())
	return nil
}

func (c *compiler) continueStmt(s *ast.Continue) error {
	if len(c.loops) == 0 {
		return errz.Newf(errz.Compile, "continue outside loop at %s", s.Position())
	}
	ctx := c.loops[len(c.loops)-1]
	c.emitTryExits(ctx)
	return c.emitBackwardJump(ctx.start, s.Position())
}

// emitTryExits closes every try body opened between loop entry and the jump
// point, so their handlers do not outlive the iteration they belong to.
func (c *compiler) emitTryExits(ctx *loopContext) {
	for i := ctx.tryBase; i < c.tryDepth; i++ {
		c.b.Emit(op.TryExit)
	}
}

// patchBreaks points every pending break jump at the loop's end.
func (c *compiler) patchBreaks(ctx *loopContext, at any) error {
	for _, pos := range ctx.breaks {
		if err := c.patchForwardJump(pos, at); err != nil {
			return err
		}
	}
	return nil
}

// emitForwardJump emits a short jump with a placeholder offset and returns
// the operand position for patching.
func (c *compiler) emitForwardJump() int {
	c.b.Emit(op.Jump)
	return c.b.EmitByte(0)
}

func (c *compiler) patchForwardJump(pos int, at any) error {
	offset := c.b.Len() - (pos + 1)
	if offset > 127 {
		return errz.Newf(errz.Compile, "branch too long at %v", at)
	}
	c.b.PatchByte(pos, byte(int8(offset)))
	return nil
}

// emitBackwardJump emits a short jump back to target, for loop back edges.
func (c *compiler) emitBackwardJump(target int, at any) error {
	c.b.Emit(op.Jump)
	pos := c.b.EmitByte(0)
	offset := target - (pos + 1)
	if offset < -128 {
		return errz.Newf(errz.Compile, "loop body too long at %v", at)
	}
	c.b.PatchByte(pos, byte(int8(offset)))
	return nil
}

func (c *compiler) functionDef(s *ast.FunctionDef) error {
	sub := &compiler{b: bytecode.NewBuilder(), inFn: true}
	if err := sub.block(s.Body); err != nil {
		sub.b.Bytecode().Close()
		return err
	}
	// implicit `return null` at the end of every function body
	sub.b.Emit(op.LoadConst)
	nilConst := object.NewNil()
	sub.b.EmitU16(uint16(sub.b.AddConstant(nilConst)))
	object.Release(nilConst)
	sub.b.Emit(op.ReturnVal)

	chunk := sub.b.Bytecode()
	fn := object.NewFunction(s.Name, s.Params, chunk.Code(), chunk.Constants())
	chunk.Close()

	idx := c.b.AddConstant(fn)
	object.Release(fn)
	c.b.Emit(op.DefineFunc)
	c.b.EmitU16(uint16(idx))
	return nil
}

func (c *compiler) returnStmt(s *ast.Return) error {
	if !c.inFn {
		return errz.Newf(errz.Compile, "return outside function at %s", s.Position())
	}
	if s.Value != nil {
		if err := c.expression(s.Value); err != nil {
			return err
		}
	} else {
		c.emitNullConst()
	}
	c.b.Emit(op.ReturnVal)
	return nil
}

func (c *compiler) importStmt(s *ast.Import) error {
	c.b.Emit(op.Import)
	c.b.EmitU16(uint16(c.stringConst(s.Name)))
	if s.Path == "" {
		c.b.EmitByte(0)
		c.b.EmitU16(NoOperand)
	} else {
		c.b.EmitByte(1)
		c.b.EmitU16(uint16(c.stringConst(s.Path)))
	}
	return nil
}

func (c *compiler) tryStmt(s *ast.Try) error {
	tePos := c.b.Emit(op.TryEnter)
	catchOperand := c.b.EmitU16(0)
	if s.Finally != nil {
		c.b.EmitByte(1)
	} else {
		c.b.EmitByte(0)
	}
	finallyOperand := c.b.EmitU16(0)
	after := tePos + 6

	c.tryDepth++
	err := c.block(s.Body)
	c.tryDepth--
	if err != nil {
		return err
	}
	c.b.Emit(op.TryExit)
	endJumps := []int{c.emitForwardJump()}

	// catch dispatch chain; an unmatched error falls through to the
	// finally section, whose EndFinally re-raises it
	c.b.PatchU16(catchOperand, uint16(c.b.Len()-after))
	for _, clause := range s.Catches {
		cPos := c.b.Emit(op.Catch)
		if clause.Filter == "" {
			c.b.EmitByte(0)
			c.b.EmitU16(NoOperand)
		} else {
			c.b.EmitByte(1)
			c.b.EmitU16(uint16(c.stringConst(clause.Filter)))
		}
		skipOperand := c.b.EmitU16(0)
		afterCatch := cPos + 6

		if clause.Name != "" {
			c.emitStore(clause.Name, true, "")
		} else {
			c.b.Emit(op.Pop)
		}
		if err := c.block(clause.Body); err != nil {
			return err
		}
		endJumps = append(endJumps, c.emitForwardJump())
		c.b.PatchU16(skipOperand, uint16(c.b.Len()-afterCatch))
	}

	// finally section: normal completion, handled errors and unmatched
	// errors all pass through here
	finallyStart := c.b.Len()
	if len(s.Catches) == 0 {
		c.b.PatchU16(catchOperand, uint16(finallyStart-after))
	}
	c.b.PatchU16(finallyOperand, uint16(finallyStart-after))
	for _, pos := range endJumps {
		if err := c.patchForwardJump(pos, s.Position()); err != nil {
			return err
		}
	}
	if s.Finally != nil {
		if err := c.block(s.Finally); err != nil {
			return err
		}
	}
	c.b.Emit(op.EndFinally)
	return nil
}

func (c *compiler) expression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLit:
		n := object.NewNumber(e.Value)
		c.emitLoadConst(n)
		object.Release(n)
		return nil
	case *ast.StringLit:
		s := object.NewString(e.Value)
		c.emitLoadConst(s)
		object.Release(s)
		return nil
	case *ast.BoolLit:
		b := object.NewBool(e.Value)
		c.emitLoadConst(b)
		object.Release(b)
		return nil
	case *ast.NullLit:
		c.emitNullConst()
		return nil
	case *ast.Var:
		c.b.Emit(op.LoadVar)
		c.b.EmitU16(uint16(c.stringConst(e.Name)))
		return nil
	case *ast.BinOp:
		return c.binOp(e)
	case *ast.UnaryNot:
		if err := c.expression(e.Value); err != nil {
			return err
		}
		c.b.Emit(op.Not)
		return nil
	case *ast.FormatString:
		return c.formatString(e)
	case *ast.ListLit:
		c.b.Emit(op.ListNew)
		c.b.EmitU16(uint16(len(e.Items)))
		for _, item := range e.Items {
			if err := c.expression(item); err != nil {
				return err
			}
			c.b.Emit(op.ListAppend)
		}
		return nil
	case *ast.TupleLit:
		for _, item := range e.Items {
			if err := c.expression(item); err != nil {
				return err
			}
		}
		c.b.Emit(op.TupleNew)
		c.b.EmitU16(uint16(len(e.Items)))
		return nil
	case *ast.MapLit:
		for i := range e.Keys {
			if err := c.expression(e.Keys[i]); err != nil {
				return err
			}
			if err := c.expression(e.Values[i]); err != nil {
				return err
			}
		}
		c.b.Emit(op.MapNew)
		c.b.EmitU16(uint16(len(e.Keys)))
		return nil
	case *ast.RangeLit:
		if err := c.expression(e.Start); err != nil {
			return err
		}
		if err := c.expression(e.End); err != nil {
			return err
		}
		hasStep := byte(0)
		if e.Step != nil {
			if err := c.expression(e.Step); err != nil {
				return err
			}
			hasStep = 1
		}
		c.b.Emit(op.RangeNew)
		c.b.EmitByte(hasStep)
		return nil
	case *ast.Index:
		if err := c.expression(e.Target); err != nil {
			return err
		}
		if err := c.expression(e.Index); err != nil {
			return err
		}
		c.b.Emit(op.IndexGet)
		return nil
	case *ast.Slice:
		if err := c.expression(e.Target); err != nil {
			return err
		}
		if err := c.expression(e.Start); err != nil {
			return err
		}
		if e.OpenEnd {
			c.emitNullConst()
		} else if err := c.expression(e.End); err != nil {
			return err
		}
		c.b.Emit(op.SliceGet)
		return nil
	case *ast.Call:
		return c.call(e)
	default:
		return errz.Newf(errz.Compile, "unsupported expression at %s", expr.Position())
	}
}

var binOps = map[ast.BinOpKind]op.Code{
	ast.OpAdd: op.Add,
	ast.OpSub: op.Sub,
	ast.OpMul: op.Mul,
	ast.OpDiv: op.Div,
	ast.OpMod: op.Mod,
	ast.OpEq:  op.Eq,
	ast.OpNeq: op.Neq,
	ast.OpGt:  op.Gt,
	ast.OpLt:  op.Lt,
	ast.OpGte: op.Gte,
	ast.OpLte: op.Lte,
	ast.OpAnd: op.And,
	ast.OpOr:  op.Or,
}

func (c *compiler) binOp(e *ast.BinOp) error {
	if err := c.expression(e.Left); err != nil {
		return err
	}
	if err := c.expression(e.Right); err != nil {
		return err
	}
	code, ok := binOps[e.Kind]
	if !ok {
		return errz.Newf(errz.Compile, "unknown operator at %s", e.Position())
	}
	c.b.Emit(code)
	return nil
}

// formatString compiles an f-string as a left-to-right concatenation that
// starts from the leading literal part, so the result is always a string.
func (c *compiler) formatString(e *ast.FormatString) error {
	s := object.NewString(e.Parts[0])
	c.emitLoadConst(s)
	object.Release(s)
	for i, sub := range e.Exprs {
		if err := c.expression(sub); err != nil {
			return err
		}
		c.b.Emit(op.Add)
		part := e.Parts[i+1]
		if part == "" {
			continue
		}
		ps := object.NewString(part)
		c.emitLoadConst(ps)
		object.Release(ps)
		c.b.Emit(op.Add)
	}
	return nil
}

func (c *compiler) call(e *ast.Call) error {
	// `call len with X` compiles straight to the Len opcode
	if e.Module == "" && e.Name == "len" && len(e.Args) == 1 {
		if err := c.expression(e.Args[0]); err != nil {
			return err
		}
		c.b.Emit(op.Len)
		return nil
	}
	for _, arg := range e.Args {
		if err := c.expression(arg); err != nil {
			return err
		}
	}
	if len(e.Args) > 255 {
		return errz.Newf(errz.Compile, "too many arguments at %s", e.Position())
	}
	if e.Module != "" {
		c.b.Emit(op.CallModule)
		c.b.EmitU16(uint16(c.stringConst(e.Module)))
		c.b.EmitU16(uint16(c.stringConst(e.Name)))
		c.b.EmitByte(byte(len(e.Args)))
		return nil
	}
	c.b.Emit(op.CallFunc)
	c.b.EmitU16(uint16(c.stringConst(e.Name)))
	c.b.EmitByte(byte(len(e.Args)))
	return nil
}

func (c *compiler) emitLoadConst(v object.Value) {
	idx := c.b.AddConstant(v)
	c.b.Emit(op.LoadConst)
	c.b.EmitU16(uint16(idx))
}

func (c *compiler) emitNullConst() {
	n := object.NewNil()
	c.emitLoadConst(n)
	object.Release(n)
}

// stringConst adds a string to the constant pool and returns its index.
func (c *compiler) stringConst(s string) int {
	v := object.NewString(s)
	idx := c.b.AddConstant(v)
	object.Release(v)
	return idx
}
