package vm

import (
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// call implements CallFunc. Built-ins shadow user functions: the name is
// resolved against the builtin table first, then against the variable
// scopes.
func (v *VM) call(name string, argc int) *errz.Error {
	if bi, ok := builtins[name]; ok {
		if bi.arity >= 0 && argc != bi.arity {
			return errz.Newf(errz.Runtime, "Function '%s' expects %d arguments, got %d",
				name, bi.arity, argc)
		}
		args, err := v.popArgs(argc)
		if err != nil {
			return err
		}
		result, berr := bi.fn(v, args)
		releaseAll(args)
		if berr != nil {
			return berr
		}
		if result == nil {
			result = object.NewNil()
		}
		return v.push(result)
	}

	b := v.lookup(&v.frames[v.fp], name)
	if b == nil {
		return errz.Newf(errz.NotFound, "undefined function '%s'", name)
	}
	fn, ok := b.value.(*object.Function)
	if !ok {
		return errz.Newf(errz.Runtime, "'%s' is not a function", name)
	}
	return v.pushFrame(fn, argc)
}

// pushFrame binds argc popped arguments to the function's parameters, in
// reverse so the last argument is popped first, and switches execution to
// the function's private bytecode.
func (v *VM) pushFrame(fn *object.Function, argc int) *errz.Error {
	if argc != fn.Arity() {
		return errz.Newf(errz.Runtime, "Function '%s' expects %d arguments, got %d",
			fn.Name(), fn.Arity(), argc)
	}
	if v.fp+1 >= MaxFrames {
		return errz.New(errz.Runtime, "call depth exceeded")
	}
	locals := make(map[string]*binding, argc)
	params := fn.Params()
	for i := argc - 1; i >= 0; i-- {
		arg, err := v.pop()
		if err != nil {
			for _, b := range locals {
				object.Release(b.value)
			}
			return err
		}
		locals[params[i]] = &binding{value: arg, mutable: true}
	}
	object.Retain(fn)
	v.fp++
	v.frames[v.fp] = frame{
		code:        fn.Code(),
		consts:      fn,
		fn:          fn,
		locals:      locals,
		baseSP:      v.sp,
		handlerBase: len(v.handlers),
	}
	return nil
}

// invoke runs a function to completion on this VM and returns its result
// with a reference owned by the caller. It is the entry point for calls
// that cross a module boundary.
func (v *VM) invoke(fn *object.Function, args []object.Value) (object.Value, *errz.Error) {
	if v.running {
		return nil, errz.New(errz.Internal, "vm is already running")
	}
	startSP := v.sp
	for _, arg := range args {
		object.Retain(arg)
		if err := v.push(arg); err != nil {
			return nil, err
		}
	}
	if err := v.pushFrame(fn, len(args)); err != nil {
		return nil, err
	}
	v.running = true
	entry := v.fp
	err := v.run(entry)
	v.running = false
	if err != nil {
		// the run unwound to the entry frame; tear it down too
		if v.fp == entry {
			v.popFrame()
		}
		for v.sp > startSP {
			v.sp--
			object.Release(v.stack[v.sp])
			v.stack[v.sp] = nil
		}
		return nil, asErrz(err)
	}
	result, perr := v.pop()
	if perr != nil {
		return nil, perr
	}
	return result, nil
}

// popArgs pops argc values, restoring their push order.
func (v *VM) popArgs(argc int) ([]object.Value, *errz.Error) {
	args := make([]object.Value, argc)
	for i := argc - 1; i >= 0; i-- {
		arg, err := v.pop()
		if err != nil {
			for j := i + 1; j < argc; j++ {
				object.Release(args[j])
			}
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

func releaseAll(vals []object.Value) {
	for _, val := range vals {
		object.Release(val)
	}
}
