// Package dis renders compiled bytecode as a human-readable listing. The
// CLI exposes it behind a flag; it has no role at execution time.
package dis

import (
	"fmt"
	"strings"

	"github.com/kronos-lang/kronos/bytecode"
	"github.com/kronos-lang/kronos/object"
	"github.com/kronos-lang/kronos/op"
)

// constSource resolves constant pool indices for annotation.
type constSource interface {
	Constant(int) (object.Value, bool)
}

// Disassemble renders a compiled chunk, one instruction per line, with
// constant operands resolved inline. Function constants are listed after
// the chunk that references them.
func Disassemble(bc *bytecode.Bytecode) string {
	var sb strings.Builder
	fns := writeChunk(&sb, "main", bc.Code(), bc)
	for len(fns) > 0 {
		fn := fns[0]
		fns = fns[1:]
		sb.WriteString("\n")
		label := fmt.Sprintf("function %s(%s)", fn.Name(), strings.Join(fn.Params(), ", "))
		fns = append(fns, writeChunk(&sb, label, fn.Code(), fn)...)
	}
	return sb.String()
}

// writeChunk lists one chunk and returns the function constants it refers
// to so the caller can list them too.
func writeChunk(sb *strings.Builder, label string, code []byte, consts constSource) []*object.Function {
	fmt.Fprintf(sb, "%s:\n", label)
	var fns []*object.Function
	for ip := 0; ip < len(code); {
		c := op.Code(code[ip])
		info := op.GetInfo(c)
		if info.Name == "" {
			fmt.Fprintf(sb, "%04d %-14s ; unknown opcode %d\n", ip, "???", c)
			ip++
			continue
		}
		operands, note := describe(code, ip, c, consts)
		if c == op.DefineFunc {
			if idx, err := bytecode.ReadU16(code, ip+1); err == nil {
				if v, ok := consts.Constant(int(idx)); ok {
					if fn, fok := v.(*object.Function); fok {
						fns = append(fns, fn)
					}
				}
			}
		}
		fmt.Fprintf(sb, "%04d %-14s%s", ip, info.Name, operands)
		if note != "" {
			fmt.Fprintf(sb, " ; %s", note)
		}
		sb.WriteString("\n")
		ip += 1 + info.OperandWidth
	}
	return fns
}

// describe decodes one instruction's operands into a printable form and an
// optional annotation.
func describe(code []byte, ip int, c op.Code, consts constSource) (string, string) {
	u16 := func(off int) int {
		v, err := bytecode.ReadU16(code, ip+off)
		if err != nil {
			return -1
		}
		return int(v)
	}
	u8 := func(off int) int {
		v, err := bytecode.ReadByte(code, ip+off)
		if err != nil {
			return -1
		}
		return int(v)
	}
	constNote := func(idx int) string {
		v, ok := consts.Constant(idx)
		if !ok {
			return "bad const"
		}
		if s, sok := v.(*object.String); sok {
			return fmt.Sprintf("%q", s.Value())
		}
		return v.Inspect()
	}

	switch c {
	case op.LoadConst, op.LoadVar, op.Throw, op.DefineFunc:
		idx := u16(1)
		return fmt.Sprintf(" %d", idx), constNote(idx)

	case op.StoreVar:
		idx := u16(1)
		note := constNote(idx)
		if u8(3) == 1 {
			note += " mutable"
		}
		if typeIdx := u16(4); typeIdx != 0xFFFF {
			note += " as " + constNote(typeIdx)
		}
		return fmt.Sprintf(" %d", idx), note

	case op.CallFunc:
		idx := u16(1)
		return fmt.Sprintf(" %d %d", idx, u8(3)), constNote(idx)

	case op.CallModule:
		modIdx, fnIdx := u16(1), u16(3)
		return fmt.Sprintf(" %d %d %d", modIdx, fnIdx, u8(5)),
			constNote(modIdx) + "." + constNote(fnIdx)

	case op.Import:
		idx := u16(1)
		note := constNote(idx)
		if u8(3) == 1 {
			note += " from " + constNote(u16(4))
		}
		return fmt.Sprintf(" %d", idx), note

	case op.Jump:
		off, err := bytecode.ReadS8(code, ip+1)
		if err != nil {
			return " ?", ""
		}
		return fmt.Sprintf(" %+d", off), fmt.Sprintf("to %04d", ip+2+int(off))

	case op.JumpIfFalse:
		off := u16(1)
		return fmt.Sprintf(" %d", off), fmt.Sprintf("to %04d", ip+3+off)

	case op.IterNext:
		off := u16(1)
		return fmt.Sprintf(" %d", off), fmt.Sprintf("exit %04d", ip+3+off)

	case op.ListNew, op.TupleNew, op.MapNew:
		return fmt.Sprintf(" %d", u16(1)), ""

	case op.RangeNew:
		if u8(1) == 1 {
			return " 1", "with step"
		}
		return " 0", ""

	case op.TryEnter:
		catchOff, finOff := u16(1), u16(4)
		note := fmt.Sprintf("catch %04d", ip+6+catchOff)
		if u8(3) == 1 {
			note += fmt.Sprintf(" finally %04d", ip+6+finOff)
		}
		return fmt.Sprintf(" %d %d %d", catchOff, u8(3), finOff), note

	case op.Catch:
		hasFilter, filterIdx, skipOff := u8(1), u16(2), u16(4)
		note := "any"
		if hasFilter == 1 {
			note = constNote(filterIdx)
		}
		return fmt.Sprintf(" %d %d %d", hasFilter, filterIdx, skipOff), note

	default:
		return "", ""
	}
}
