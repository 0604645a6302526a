package object

import "fmt"

// Function is a user-defined function. It carries a private copy of its
// body bytecode, so the function stays valid even if the defining chunk is
// discarded, plus the constants it references. The function owns one
// reference to each constant.
type Function struct {
	hdr       header
	name      string
	params    []string
	code      []byte
	constants []Value
}

// NewFunction creates a function value, copying the body bytes and
// retaining the constants.
func NewFunction(name string, params []string, code []byte, constants []Value) *Function {
	body := make([]byte, len(code))
	copy(body, code)
	owned := make([]Value, len(constants))
	for i, c := range constants {
		Retain(c)
		owned[i] = c
	}
	f := &Function{
		hdr:       newHeader(),
		name:      name,
		params:    append([]string(nil), params...),
		code:      body,
		constants: owned,
	}
	track(f)
	return f
}

func (f *Function) Type() Type { return FUNCTION }

func (f *Function) Inspect() string {
	if f.name == "" {
		return "<function>"
	}
	return fmt.Sprintf("<function %s>", f.name)
}

func (f *Function) IsTruthy() bool { return true }

// Name returns the function's declared name.
func (f *Function) Name() string { return f.name }

// Params returns the parameter names in declaration order.
func (f *Function) Params() []string { return f.params }

// Arity returns the declared parameter count.
func (f *Function) Arity() int { return len(f.params) }

// Code returns the function's private body bytecode. Callers must not
// mutate it.
func (f *Function) Code() []byte { return f.code }

// Constant returns the constant at index i, or nil and false when out of
// range.
func (f *Function) Constant(i int) (Value, bool) {
	if i < 0 || i >= len(f.constants) {
		return nil, false
	}
	return f.constants[i], true
}

func (f *Function) approxBytes() int64 {
	return baseValueBytes + int64(len(f.code)) + int64(len(f.constants))*16
}

func (f *Function) header() *header { return &f.hdr }

func (f *Function) children() []Value {
	kids := f.constants
	f.constants = nil
	return kids
}

func (f *Function) finalize() {
	f.code = nil
	f.constants = nil
}
