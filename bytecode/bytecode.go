// Package bytecode defines the compiled form executed by the VM: an
// instruction stream plus a constant pool. The pool owns one reference to
// each constant. All reads out of an instruction stream go through the
// bounds-checked helpers in this package, so a corrupt or truncated chunk
// surfaces as a reported error rather than a wild read.
package bytecode

import (
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/object"
)

// Bytecode is a finished chunk: immutable once built.
type Bytecode struct {
	code      []byte
	constants []object.Value
}

// Code returns the instruction bytes. Callers must not mutate them.
func (b *Bytecode) Code() []byte { return b.code }

// Constant returns the pool entry at index i, or nil and false when out of
// range. The returned value is borrowed from the pool.
func (b *Bytecode) Constant(i int) (object.Value, bool) {
	if i < 0 || i >= len(b.constants) {
		return nil, false
	}
	return b.constants[i], true
}

// ConstantCount returns the size of the constant pool.
func (b *Bytecode) ConstantCount() int { return len(b.constants) }

// Constants returns the pool slice, borrowed. Used when a function value
// captures the constants it references.
func (b *Bytecode) Constants() []object.Value { return b.constants }

// Close releases the pool's references. The chunk must not be executed
// afterwards.
func (b *Bytecode) Close() {
	for _, c := range b.constants {
		object.Release(c)
	}
	b.constants = nil
	b.code = nil
}

// ReadByte returns the byte at ip.
func ReadByte(code []byte, ip int) (byte, error) {
	if ip < 0 || ip >= len(code) {
		return 0, errz.Newf(errz.Runtime, "bytecode read out of bounds at %d", ip)
	}
	return code[ip], nil
}

// ReadU16 returns the big-endian 16-bit operand at ip.
func ReadU16(code []byte, ip int) (uint16, error) {
	if ip < 0 || ip+1 >= len(code) {
		return 0, errz.Newf(errz.Runtime, "bytecode read out of bounds at %d", ip)
	}
	return uint16(code[ip])<<8 | uint16(code[ip+1]), nil
}

// ReadS8 returns the signed 8-bit operand at ip, used by short relative
// jumps.
func ReadS8(code []byte, ip int) (int8, error) {
	b, err := ReadByte(code, ip)
	if err != nil {
		return 0, err
	}
	return int8(b), nil
}

// CheckJump validates a jump target against the instruction stream. A
// target exactly at len(code) is legal: the loop halts there.
func CheckJump(code []byte, target int) error {
	if target < 0 || target > len(code) {
		return errz.Newf(errz.Runtime, "jump target %d out of bounds", target)
	}
	return nil
}
