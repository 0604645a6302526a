package bytecode

import (
	"github.com/kronos-lang/kronos/object"
	"github.com/kronos-lang/kronos/op"
)

// Builder accumulates instructions and constants during compilation and
// produces an immutable Bytecode.
type Builder struct {
	code      []byte
	constants []object.Value
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Emit appends an opcode and returns its position.
func (b *Builder) Emit(c op.Code) int {
	pos := len(b.code)
	b.code = append(b.code, byte(c))
	return pos
}

// EmitByte appends a raw operand byte and returns its position.
func (b *Builder) EmitByte(v byte) int {
	pos := len(b.code)
	b.code = append(b.code, v)
	return pos
}

// EmitU16 appends a big-endian 16-bit operand and returns its position.
func (b *Builder) EmitU16(v uint16) int {
	pos := len(b.code)
	b.code = append(b.code, byte(v>>8), byte(v))
	return pos
}

// PatchByte overwrites the operand byte at pos, for back-patching short
// jump offsets.
func (b *Builder) PatchByte(pos int, v byte) {
	b.code[pos] = v
}

// PatchU16 overwrites the 16-bit operand at pos, for back-patching forward
// jump offsets.
func (b *Builder) PatchU16(pos int, v uint16) {
	b.code[pos] = byte(v >> 8)
	b.code[pos+1] = byte(v)
}

// AddConstant adds a value to the pool, retaining it, and returns its
// index. Existing equal scalar constants are reused.
func (b *Builder) AddConstant(v object.Value) int {
	for i, c := range b.constants {
		if sameScalarConstant(c, v) {
			return i
		}
	}
	object.Retain(v)
	b.constants = append(b.constants, v)
	return len(b.constants) - 1
}

// sameScalarConstant reports whether an existing pool entry can stand in
// for v. Only scalars are deduplicated, and numbers must match exactly:
// container constants are distinct even when structurally equal.
func sameScalarConstant(c, v object.Value) bool {
	switch cv := c.(type) {
	case *object.Number:
		nv, ok := v.(*object.Number)
		return ok && cv.Value() == nv.Value()
	case *object.String:
		sv, ok := v.(*object.String)
		return ok && cv.Value() == sv.Value()
	case *object.Bool:
		bv, ok := v.(*object.Bool)
		return ok && cv.Value() == bv.Value()
	case *object.Nil:
		_, ok := v.(*object.Nil)
		return ok
	}
	return false
}

// Len returns the current instruction stream length, which is the position
// the next emitted byte will occupy.
func (b *Builder) Len() int { return len(b.code) }

// Bytecode finishes the build. Ownership of the pool's references moves to
// the returned chunk; the builder must not be reused.
func (b *Builder) Bytecode() *Bytecode {
	bc := &Bytecode{code: b.code, constants: b.constants}
	b.code = nil
	b.constants = nil
	return bc
}
