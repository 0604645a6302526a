// Package vm implements the stack-based virtual machine that executes
// Kronos bytecode. A VM is single-threaded; the tracker and interner it
// shares with sibling VMs through the runtime are internally locked.
package vm

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kronos-lang/kronos/bytecode"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
	"github.com/kronos-lang/kronos/op"
	"github.com/kronos-lang/kronos/runtime"
)

const (
	// StackSize is the operand stack capacity.
	StackSize = 1024
	// MaxFrames bounds the call depth.
	MaxFrames = 256
	// MaxImportDepth bounds nested imports, independently of call depth.
	MaxImportDepth = 16
	// maxInternLen is the longest string the VM routes through the shared
	// interning table. Longer strings are unlikely to repeat.
	maxInternLen = 64
)

// binding is one named variable slot.
type binding struct {
	value    object.Value
	mutable  bool
	typeName string
}

// constSource resolves constant pool indices. Both a compiled chunk and a
// function value satisfy it.
type constSource interface {
	Constant(int) (object.Value, bool)
}

// frame is one call frame.
type frame struct {
	code        []byte
	consts      constSource
	ip          int
	fn          *object.Function // nil for the top-level frame
	locals      map[string]*binding
	baseSP      int
	handlerBase int
}

// handler is one entry of the exception handler stack.
type handler struct {
	catchAddr   int
	finallyAddr int
	hasFinally  bool
	sp          int
	fp          int
}

// VM executes bytecode chunks against a shared runtime.
type VM struct {
	id      uuid.UUID
	rt      *runtime.Runtime
	ownsRT  bool
	stack   [StackSize]object.Value
	sp      int
	frames  [MaxFrames]frame
	fp      int
	running bool

	globals  map[string]*binding
	handlers []handler
	err      *errz.Error // pending, checked before every instruction
	caught   *errz.Error // parked during catch dispatch and finally blocks
	lastErr  *errz.Error

	out     io.Writer
	onError func(*errz.Error)

	// module state; the root VM of an import graph owns the table and
	// the loading stack
	root        *VM
	modules     map[string]*VM // by resolved path
	moduleNames map[string]*VM // names visible to this VM's CallModule
	loading     []string
	importDepth int
	scriptPath  string
	scriptRoot  string
}

// New creates a VM. Without WithRuntime the VM creates and owns a private
// runtime that is torn down on Close.
func New(opts ...Option) *VM {
	id, _ := uuid.NewV4()
	v := &VM{
		id:          id,
		out:         os.Stdout,
		globals:     make(map[string]*binding),
		moduleNames: make(map[string]*VM),
	}
	v.root = v
	v.modules = make(map[string]*VM)
	for _, opt := range opts {
		opt(v)
	}
	if v.rt == nil {
		v.rt = runtime.New()
		v.ownsRT = true
	} else {
		v.rt.Acquire()
	}
	log.Debug().Str("vm", id.String()).Msg("vm created")
	return v
}

// ID returns the VM's instance identifier.
func (v *VM) ID() uuid.UUID { return v.id }

// Runtime returns the shared runtime backing this VM.
func (v *VM) Runtime() *runtime.Runtime { return v.rt }

// Close releases the VM's variables and modules and drops its runtime
// reference. The VM must not be used afterwards.
func (v *VM) Close() error {
	for v.sp > 0 {
		v.sp--
		object.Release(v.stack[v.sp])
		v.stack[v.sp] = nil
	}
	for name, b := range v.globals {
		object.Release(b.value)
		delete(v.globals, name)
	}
	if v.root == v {
		for path, mod := range v.modules {
			mod.Close()
			delete(v.modules, path)
		}
	}
	v.moduleNames = nil
	log.Debug().Str("vm", v.id.String()).Msg("vm closed")
	return v.rt.Release()
}

// LastError returns the most recently recorded error triple, or nil.
func (v *VM) LastError() *errz.Error { return v.lastErr }

// SetGlobal binds a value into the VM's global scope, retaining it. An
// existing binding is replaced regardless of mutability: the embedding API
// outranks script-level declarations.
func (v *VM) SetGlobal(name string, value object.Value, mutable bool, typeName string) {
	object.Retain(value)
	if old, ok := v.globals[name]; ok {
		object.Release(old.value)
		old.value = value
		old.mutable = mutable
		old.typeName = typeName
		return
	}
	v.globals[name] = &binding{value: value, mutable: mutable, typeName: typeName}
}

// GetGlobal returns the value bound to name, borrowed, or nil and false.
func (v *VM) GetGlobal(name string) (object.Value, bool) {
	b, ok := v.globals[name]
	if !ok {
		return nil, false
	}
	return b.value, true
}

// Execute runs a compiled chunk to completion on the top-level frame.
// Globals persist across calls, so a REPL can execute one chunk per line.
func (v *VM) Execute(bc *bytecode.Bytecode) error {
	if v.running {
		return errz.New(errz.Internal, "vm is already running")
	}
	v.running = true
	defer func() { v.running = false }()

	v.fp = 0
	v.frames[0] = frame{code: bc.Code(), consts: bc, locals: nil}
	v.err = nil
	v.caught = nil
	v.handlers = v.handlers[:0]
	err := v.run(0)
	// drop anything an aborted program left on the stack
	for v.sp > 0 {
		v.sp--
		object.Release(v.stack[v.sp])
		v.stack[v.sp] = nil
	}
	return err
}

// recordError stores the error triple, invokes the error callback and
// marks the error pending for the dispatch loop.
func (v *VM) recordError(e *errz.Error) {
	if e.TypeName == "" {
		e.TypeName = e.Code.TypeName()
	}
	v.err = e
	v.lastErr = e
	if v.onError != nil {
		v.onError(e)
	}
}

// unwind transfers control to the innermost handler: the operand stack and
// call frames are rolled back to their depth at TryEnter and the pending
// error is parked for catch dispatch. Returns false when no handler exists.
func (v *VM) unwind() bool {
	if len(v.handlers) == 0 {
		return false
	}
	h := v.handlers[len(v.handlers)-1]
	v.handlers = v.handlers[:len(v.handlers)-1]
	for v.fp > h.fp {
		v.popFrame()
	}
	for v.sp > h.sp {
		v.sp--
		object.Release(v.stack[v.sp])
		v.stack[v.sp] = nil
	}
	v.caught = v.err
	v.err = nil
	v.frames[v.fp].ip = h.catchAddr
	return true
}

// popFrame tears down the current frame: locals released, handlers opened
// inside the frame dropped. The handler stack may already be below the
// frame's base when unwind popped the target handler first; re-extending
// the slice would resurrect it.
func (v *VM) popFrame() {
	f := &v.frames[v.fp]
	for name, b := range f.locals {
		object.Release(b.value)
		delete(f.locals, name)
	}
	if f.handlerBase < len(v.handlers) {
		v.handlers = v.handlers[:f.handlerBase]
	}
	object.Release(f.fn)
	f.fn = nil
	f.consts = nil
	f.code = nil
	v.fp--
}

func (v *VM) push(val object.Value) *errz.Error {
	if v.sp >= StackSize {
		object.Release(val)
		return errz.New(errz.Runtime, "stack overflow")
	}
	v.stack[v.sp] = val
	v.sp++
	return nil
}

func (v *VM) pop() (object.Value, *errz.Error) {
	if v.sp <= 0 {
		return nil, errz.New(errz.Runtime, "stack underflow")
	}
	v.sp--
	val := v.stack[v.sp]
	v.stack[v.sp] = nil
	return val, nil
}

// run is the dispatch loop. It returns when the frame below entryFP
// becomes current (a function invocation returned) or when the entry
// frame halts. A pending error with no handler ends the run.
func (v *VM) run(entryFP int) error {
	for {
		if v.err != nil {
			if v.unwind() {
				continue
			}
			err := v.err
			v.err = nil
			// roll back frames pushed during this run
			for v.fp > entryFP {
				v.popFrame()
			}
			return err
		}
		f := &v.frames[v.fp]
		if f.ip >= len(f.code) {
			return nil
		}
		code := op.Code(f.code[f.ip])
		f.ip++
		done, err := v.dispatch(f, code, entryFP)
		if err != nil {
			v.recordError(err)
			continue
		}
		if done {
			return nil
		}
	}
}

// dispatch executes one instruction. It reports done=true when the run
// should stop (Halt, or a return to the entry frame's caller).
func (v *VM) dispatch(f *frame, code op.Code, entryFP int) (bool, *errz.Error) {
	switch code {
	case op.Nop:
		return false, nil

	case op.Halt:
		return true, nil

	case op.Pop:
		val, err := v.pop()
		if err != nil {
			return false, err
		}
		object.Release(val)
		return false, nil

	case op.Print:
		val, err := v.pop()
		if err != nil {
			return false, err
		}
		fmt.Fprintln(v.out, val.Inspect())
		object.Release(val)
		return false, nil

	case op.LoadConst:
		c, err := v.readConst(f)
		if err != nil {
			return false, err
		}
		object.Retain(c)
		return false, v.push(c)

	case op.LoadVar:
		name, err := v.readString(f)
		if err != nil {
			return false, err
		}
		b := v.lookup(f, name)
		if b == nil {
			return false, errz.Newf(errz.NotFound, "undefined variable '%s'", name)
		}
		object.Retain(b.value)
		return false, v.push(b.value)

	case op.StoreVar:
		return false, v.storeVar(f)

	case op.Jump:
		off, err := bytecode.ReadS8(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		f.ip++
		target := f.ip + int(off)
		if err := bytecode.CheckJump(f.code, target); err != nil {
			return false, asErrz(err)
		}
		f.ip = target
		return false, nil

	case op.JumpIfFalse:
		off, err := bytecode.ReadU16(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		f.ip += 2
		cond, perr := v.pop()
		if perr != nil {
			return false, perr
		}
		truthy := cond.IsTruthy()
		object.Release(cond)
		if !truthy {
			target := f.ip + int(off)
			if err := bytecode.CheckJump(f.code, target); err != nil {
				return false, asErrz(err)
			}
			f.ip = target
		}
		return false, nil

	case op.Add, op.Sub, op.Mul, op.Div, op.Mod:
		return false, v.arithmetic(code)

	case op.Negate:
		val, err := v.pop()
		if err != nil {
			return false, err
		}
		n, ok := val.(*object.Number)
		if !ok {
			object.Release(val)
			return false, errz.Newf(errz.Runtime, "cannot negate %s", val.Type())
		}
		result := object.NewNumber(-n.Value())
		object.Release(val)
		return false, v.push(result)

	case op.Eq, op.Neq:
		b, a, err := v.popPair()
		if err != nil {
			return false, err
		}
		eq := object.Equal(a, b)
		if code == op.Neq {
			eq = !eq
		}
		object.Release(a)
		object.Release(b)
		return false, v.push(object.NewBool(eq))

	case op.Gt, op.Lt, op.Gte, op.Lte:
		return false, v.ordered(code)

	case op.And, op.Or:
		b, a, err := v.popPair()
		if err != nil {
			return false, err
		}
		var result bool
		if code == op.And {
			result = a.IsTruthy() && b.IsTruthy()
		} else {
			result = a.IsTruthy() || b.IsTruthy()
		}
		object.Release(a)
		object.Release(b)
		return false, v.push(object.NewBool(result))

	case op.Not:
		val, err := v.pop()
		if err != nil {
			return false, err
		}
		result := object.NewBool(!val.IsTruthy())
		object.Release(val)
		return false, v.push(result)

	case op.ListNew:
		n, err := bytecode.ReadU16(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		f.ip += 2
		return false, v.push(object.NewList(int(n)))

	case op.ListAppend:
		item, err := v.pop()
		if err != nil {
			return false, err
		}
		if v.sp == 0 {
			object.Release(item)
			return false, errz.New(errz.Runtime, "stack underflow")
		}
		list, ok := v.stack[v.sp-1].(*object.List)
		if !ok {
			object.Release(item)
			return false, errz.New(errz.Internal, "list append target is not a list")
		}
		list.Append(item)
		object.Release(item)
		return false, nil

	case op.TupleNew:
		n, err := bytecode.ReadU16(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		f.ip += 2
		items := make([]object.Value, n)
		for i := int(n) - 1; i >= 0; i-- {
			item, perr := v.pop()
			if perr != nil {
				return false, perr
			}
			items[i] = item
		}
		tup := object.NewTuple(items)
		for _, item := range items {
			object.Release(item)
		}
		return false, v.push(tup)

	case op.MapNew:
		n, err := bytecode.ReadU16(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		f.ip += 2
		m := object.NewMap()
		pairs := make([]object.Value, 2*int(n))
		for i := len(pairs) - 1; i >= 0; i-- {
			val, perr := v.pop()
			if perr != nil {
				object.Release(m)
				return false, perr
			}
			pairs[i] = val
		}
		for i := 0; i < len(pairs); i += 2 {
			m.Set(pairs[i], pairs[i+1])
			object.Release(pairs[i])
			object.Release(pairs[i+1])
		}
		return false, v.push(m)

	case op.IndexGet:
		return false, v.indexGet()

	case op.IndexSet:
		return false, v.indexSet()

	case op.SliceGet:
		return false, v.sliceGet()

	case op.Len:
		val, err := v.pop()
		if err != nil {
			return false, err
		}
		n, lerr := lengthOf(val)
		object.Release(val)
		if lerr != nil {
			return false, lerr
		}
		return false, v.push(object.NewNumber(float64(n)))

	case op.Delete:
		key, err := v.pop()
		if err != nil {
			return false, err
		}
		target, err := v.pop()
		if err != nil {
			object.Release(key)
			return false, err
		}
		m, ok := target.(*object.Map)
		if !ok {
			object.Release(key)
			object.Release(target)
			return false, errz.Newf(errz.Runtime, "cannot delete from %s", target.Type())
		}
		found := m.Delete(key)
		object.Release(key)
		object.Release(target)
		if !found {
			return false, errz.New(errz.NotFound, "key not found")
		}
		return false, nil

	case op.RangeNew:
		return false, v.rangeNew(f)

	case op.IterNew:
		src, err := v.pop()
		if err != nil {
			return false, err
		}
		it, ierr := object.NewIterator(src)
		object.Release(src)
		if ierr != nil {
			return false, asErrz(ierr)
		}
		return false, v.push(it)

	case op.IterNext:
		off, err := bytecode.ReadU16(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		f.ip += 2
		if v.sp == 0 {
			return false, errz.New(errz.Runtime, "stack underflow")
		}
		it, ok := v.stack[v.sp-1].(*object.Iterator)
		if !ok {
			return false, errz.New(errz.Internal, "iteration over a non-iterator")
		}
		next, more := it.Next()
		if !more {
			v.sp--
			v.stack[v.sp] = nil
			object.Release(it)
			target := f.ip + int(off)
			if err := bytecode.CheckJump(f.code, target); err != nil {
				return false, asErrz(err)
			}
			f.ip = target
			return false, nil
		}
		return false, v.push(next)

	case op.DefineFunc:
		c, err := v.readConst(f)
		if err != nil {
			return false, err
		}
		fn, ok := c.(*object.Function)
		if !ok {
			return false, errz.New(errz.Internal, "function constant expected")
		}
		v.define(f, fn.Name(), fn, false, "")
		return false, nil

	case op.CallFunc:
		name, err := v.readString(f)
		if err != nil {
			return false, err
		}
		argc, berr := bytecode.ReadByte(f.code, f.ip)
		if berr != nil {
			return false, asErrz(berr)
		}
		f.ip++
		return false, v.call(name, int(argc))

	case op.ReturnVal:
		result, err := v.pop()
		if err != nil {
			return false, err
		}
		if v.fp == 0 {
			object.Release(result)
			return false, errz.New(errz.Internal, "return outside function")
		}
		base := v.frames[v.fp].baseSP
		v.popFrame()
		for v.sp > base {
			v.sp--
			object.Release(v.stack[v.sp])
			v.stack[v.sp] = nil
		}
		if perr := v.push(result); perr != nil {
			return false, perr
		}
		// returning to the caller of the entry frame ends this run
		return v.fp < entryFP, nil

	case op.TryEnter:
		catchOff, err := bytecode.ReadU16(f.code, f.ip)
		if err != nil {
			return false, asErrz(err)
		}
		hasFinally, berr := bytecode.ReadByte(f.code, f.ip+2)
		if berr != nil {
			return false, asErrz(berr)
		}
		finallyOff, ferr := bytecode.ReadU16(f.code, f.ip+3)
		if ferr != nil {
			return false, asErrz(ferr)
		}
		f.ip += 5
		v.handlers = append(v.handlers, handler{
			catchAddr:   f.ip + int(catchOff),
			finallyAddr: f.ip + int(finallyOff),
			hasFinally:  hasFinally == 1,
			sp:          v.sp,
			fp:          v.fp,
		})
		return false, nil

	case op.TryExit:
		if len(v.handlers) == 0 {
			return false, errz.New(errz.Internal, "try exit without handler")
		}
		v.handlers = v.handlers[:len(v.handlers)-1]
		return false, nil

	case op.Catch:
		return false, v.catchDispatch(f)

	case op.EndFinally:
		if v.caught != nil {
			v.err = v.caught
			v.caught = nil
		}
		return false, nil

	case op.Throw:
		typeName, err := v.readString(f)
		if err != nil {
			return false, err
		}
		msg, perr := v.pop()
		if perr != nil {
			return false, perr
		}
		text := msg.Inspect()
		object.Release(msg)
		return false, errz.Raised(typeName, text)

	case op.Import:
		return false, v.importModule(f)

	case op.CallModule:
		return false, v.callModule(f)
	}
	return false, errz.Newf(errz.Internal, "unknown opcode %d", code)
}

// readConst reads a u16 constant index operand and resolves it.
func (v *VM) readConst(f *frame) (object.Value, *errz.Error) {
	idx, err := bytecode.ReadU16(f.code, f.ip)
	if err != nil {
		return nil, asErrz(err)
	}
	f.ip += 2
	c, ok := f.consts.Constant(int(idx))
	if !ok {
		return nil, errz.Newf(errz.Runtime, "constant index %d out of range", idx)
	}
	return c, nil
}

// readString reads a constant index operand that must name a string.
func (v *VM) readString(f *frame) (string, *errz.Error) {
	c, err := v.readConst(f)
	if err != nil {
		return "", err
	}
	s, ok := c.(*object.String)
	if !ok {
		return "", errz.New(errz.Internal, "string constant expected")
	}
	return s.Value(), nil
}

// lookup resolves a name against the current frame's locals, then globals.
func (v *VM) lookup(f *frame, name string) *binding {
	if f.locals != nil {
		if b, ok := f.locals[name]; ok {
			return b
		}
	}
	return v.globals[name]
}

// define creates or replaces a binding in the current scope, retaining the
// value.
func (v *VM) define(f *frame, name string, value object.Value, mutable bool, typeName string) {
	scope := v.globals
	if f.locals != nil {
		scope = f.locals
	}
	object.Retain(value)
	if old, ok := scope[name]; ok {
		object.Release(old.value)
		old.value = value
		old.mutable = mutable
		old.typeName = typeName
		return
	}
	scope[name] = &binding{value: value, mutable: mutable, typeName: typeName}
}

// storeVar implements StoreVar: pop a value and bind it, enforcing
// mutability and any declared type constraint before any state changes.
func (v *VM) storeVar(f *frame) *errz.Error {
	name, err := v.readString(f)
	if err != nil {
		return err
	}
	mutableFlag, berr := bytecode.ReadByte(f.code, f.ip)
	if berr != nil {
		return asErrz(berr)
	}
	typeIdx, terr := bytecode.ReadU16(f.code, f.ip+1)
	if terr != nil {
		return asErrz(terr)
	}
	f.ip += 3
	typeName := ""
	if typeIdx != 0xFFFF {
		c, ok := f.consts.Constant(int(typeIdx))
		if !ok {
			return errz.Newf(errz.Runtime, "constant index %d out of range", typeIdx)
		}
		s, ok := c.(*object.String)
		if !ok {
			return errz.New(errz.Internal, "string constant expected")
		}
		typeName = s.Value()
	}

	value, perr := v.pop()
	if perr != nil {
		return perr
	}
	existing := v.lookup(f, name)
	if existing != nil {
		if !existing.mutable {
			object.Release(value)
			return errz.Newf(errz.Runtime, "cannot reassign immutable variable '%s'", name)
		}
		constraint := existing.typeName
		if typeName != "" {
			constraint = typeName
		}
		if constraint != "" && string(value.Type()) != constraint {
			got := string(value.Type())
			object.Release(value)
			return errz.Newf(errz.InvalidArgument,
				"cannot assign %s to '%s' declared as %s", got, name, constraint)
		}
		object.Release(existing.value)
		existing.value = value
		existing.typeName = constraint
		return nil
	}
	if typeName != "" && string(value.Type()) != typeName {
		got := string(value.Type())
		object.Release(value)
		return errz.Newf(errz.InvalidArgument,
			"cannot assign %s to '%s' declared as %s", got, name, typeName)
	}
	scope := v.globals
	if f.locals != nil {
		scope = f.locals
	}
	scope[name] = &binding{value: value, mutable: mutableFlag == 1, typeName: typeName}
	return nil
}

// catchDispatch implements the Catch opcode: match the parked error's type
// name against the clause filter.
func (v *VM) catchDispatch(f *frame) *errz.Error {
	hasFilter, berr := bytecode.ReadByte(f.code, f.ip)
	if berr != nil {
		return asErrz(berr)
	}
	filterIdx, ferr := bytecode.ReadU16(f.code, f.ip+1)
	if ferr != nil {
		return asErrz(ferr)
	}
	skipOff, serr := bytecode.ReadU16(f.code, f.ip+3)
	if serr != nil {
		return asErrz(serr)
	}
	f.ip += 5
	if v.caught == nil {
		return errz.New(errz.Internal, "catch without a pending error")
	}
	if hasFilter == 1 {
		c, ok := f.consts.Constant(int(filterIdx))
		if !ok {
			return errz.Newf(errz.Runtime, "constant index %d out of range", filterIdx)
		}
		s, sok := c.(*object.String)
		if !sok {
			return errz.New(errz.Internal, "string constant expected")
		}
		if s.Value() != v.caught.Name() {
			target := f.ip + int(skipOff)
			if err := bytecode.CheckJump(f.code, target); err != nil {
				return asErrz(err)
			}
			f.ip = target
			return nil
		}
	}
	msg := v.newString(v.caught.Message)
	v.caught = nil
	return v.push(msg)
}

// newString creates a string value, deduplicating short ones through the
// runtime's shared interning table.
func (v *VM) newString(s string) *object.String {
	if len(s) <= maxInternLen {
		return v.rt.Interner().Intern(s)
	}
	return object.NewString(s)
}

// rangeNew implements RangeNew: pop step (optional), end and start.
func (v *VM) rangeNew(f *frame) *errz.Error {
	hasStep, berr := bytecode.ReadByte(f.code, f.ip)
	if berr != nil {
		return asErrz(berr)
	}
	f.ip++
	step := 1.0
	if hasStep == 1 {
		sv, err := v.popNumber("range step")
		if err != nil {
			return err
		}
		step = sv
	}
	end, err := v.popNumber("range end")
	if err != nil {
		return err
	}
	start, err := v.popNumber("range start")
	if err != nil {
		return err
	}
	r, rerr := object.NewRange(start, end, step)
	if rerr != nil {
		return asErrz(rerr)
	}
	return v.push(r)
}

// arithmetic implements Add, Sub, Mul, Div and Mod. Add falls back to
// string concatenation, left operand first, when either side is not a
// number.
func (v *VM) arithmetic(code op.Code) *errz.Error {
	b, a, err := v.popPair()
	if err != nil {
		return err
	}
	defer func() {
		object.Release(a)
		object.Release(b)
	}()
	an, aok := a.(*object.Number)
	bn, bok := b.(*object.Number)
	if code == op.Add && (!aok || !bok) {
		return v.push(v.newString(a.Inspect() + b.Inspect()))
	}
	if !aok || !bok {
		return errz.Newf(errz.Runtime, "unsupported operands %s and %s", a.Type(), b.Type())
	}
	x, y := an.Value(), bn.Value()
	var result float64
	switch code {
	case op.Add:
		result = x + y
	case op.Sub:
		result = x - y
	case op.Mul:
		result = x * y
	case op.Div:
		if y == 0 {
			return errz.New(errz.Runtime, "division by zero")
		}
		result = x / y
	case op.Mod:
		if y == 0 {
			return errz.New(errz.Runtime, "modulo by zero")
		}
		result = math.Mod(x, y)
	}
	return v.push(object.NewNumber(result))
}

// ordered implements the >, <, >=, <= opcodes with exact IEEE comparison
// on numbers.
func (v *VM) ordered(code op.Code) *errz.Error {
	b, a, err := v.popPair()
	if err != nil {
		return err
	}
	defer func() {
		object.Release(a)
		object.Release(b)
	}()
	an, aok := a.(*object.Number)
	bn, bok := b.(*object.Number)
	if !aok || !bok {
		return errz.Newf(errz.Runtime, "cannot compare %s and %s", a.Type(), b.Type())
	}
	x, y := an.Value(), bn.Value()
	var result bool
	switch code {
	case op.Gt:
		result = x > y
	case op.Lt:
		result = x < y
	case op.Gte:
		result = x >= y
	case op.Lte:
		result = x <= y
	}
	return v.push(object.NewBool(result))
}

// popPair pops the top two values: the top of the stack first (the right
// operand), then the left.
func (v *VM) popPair() (b, a object.Value, err *errz.Error) {
	b, err = v.pop()
	if err != nil {
		return nil, nil, err
	}
	a, err = v.pop()
	if err != nil {
		object.Release(b)
		return nil, nil, err
	}
	return b, a, nil
}

func (v *VM) popNumber(what string) (float64, *errz.Error) {
	val, err := v.pop()
	if err != nil {
		return 0, err
	}
	n, ok := val.(*object.Number)
	if !ok {
		t := val.Type()
		object.Release(val)
		return 0, errz.Newf(errz.Runtime, "%s must be a number, got %s", what, t)
	}
	x := n.Value()
	object.Release(val)
	return x, nil
}

// asErrz adapts a plain error from the bytecode reader or the object
// package to the VM's error triple.
func asErrz(err error) *errz.Error {
	if e, ok := err.(*errz.Error); ok {
		return e
	}
	return errz.New(errz.Internal, err.Error())
}
