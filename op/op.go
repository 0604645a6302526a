// Package op defines opcodes used by the Kronos compiler and virtual machine.
package op

// Code is a single-byte opcode that indicates an operation to execute.
type Code byte

const (
	Invalid Code = 0

	// Execution
	Nop       Code = 1
	Halt      Code = 2
	CallFunc  Code = 3
	ReturnVal Code = 4
	Pop       Code = 5
	Print     Code = 6

	// Jump
	Jump        Code = 10 // signed 8-bit relative offset
	JumpIfFalse Code = 11 // unsigned 16-bit forward offset, pops condition

	// Load / store
	LoadConst Code = 20
	LoadVar   Code = 21
	StoreVar  Code = 22

	// Arithmetic
	Add    Code = 30
	Sub    Code = 31
	Mul    Code = 32
	Div    Code = 33
	Mod    Code = 34
	Negate Code = 35

	// Comparison
	Eq  Code = 40
	Neq Code = 41
	Gt  Code = 42
	Lt  Code = 43
	Gte Code = 44
	Lte Code = 45

	// Logical
	And Code = 50
	Or  Code = 51
	Not Code = 52

	// Containers
	ListNew    Code = 60
	ListAppend Code = 61
	TupleNew   Code = 62
	MapNew     Code = 63
	IndexGet   Code = 64
	IndexSet   Code = 65
	SliceGet   Code = 66
	Len        Code = 67
	Delete     Code = 68
	RangeNew   Code = 69

	// Iteration
	IterNew  Code = 80
	IterNext Code = 81 // 16-bit forward offset taken when exhausted

	// Functions
	DefineFunc Code = 90

	// Exception handling
	TryEnter   Code = 100 // operands: catch offset (u16), has-finally (u8), finally offset (u16)
	TryExit    Code = 101
	Catch      Code = 102 // operands: has-filter (u8), filter const (u16), skip offset (u16)
	EndFinally Code = 103
	Throw      Code = 104 // operand: type-name const (u16); message popped from stack

	// Modules
	Import     Code = 110 // operands: name const (u16), has-path (u8), path const (u16)
	CallModule Code = 111 // operands: module const (u16), function const (u16), argc (u8)
)

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandWidth int // total operand bytes following the opcode (fixed part)
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		width int
	}
	ops := []opInfo{
		{Nop, "NOP", 0},
		{Halt, "HALT", 0},
		{CallFunc, "CALL_FUNC", 3},
		{ReturnVal, "RETURN_VAL", 0},
		{Pop, "POP", 0},
		{Print, "PRINT", 0},
		{Jump, "JUMP", 1},
		{JumpIfFalse, "JUMP_IF_FALSE", 2},
		{LoadConst, "LOAD_CONST", 2},
		{LoadVar, "LOAD_VAR", 2},
		{StoreVar, "STORE_VAR", 5}, // name (u16), mutable (u8), type const or 0 (u16)
		{Add, "ADD", 0},
		{Sub, "SUB", 0},
		{Mul, "MUL", 0},
		{Div, "DIV", 0},
		{Mod, "MOD", 0},
		{Negate, "NEGATE", 0},
		{Eq, "EQ", 0},
		{Neq, "NEQ", 0},
		{Gt, "GT", 0},
		{Lt, "LT", 0},
		{Gte, "GTE", 0},
		{Lte, "LTE", 0},
		{And, "AND", 0},
		{Or, "OR", 0},
		{Not, "NOT", 0},
		{ListNew, "LIST_NEW", 2},
		{ListAppend, "LIST_APPEND", 0},
		{TupleNew, "TUPLE_NEW", 2},
		{MapNew, "MAP_NEW", 2},
		{IndexGet, "INDEX_GET", 0},
		{IndexSet, "INDEX_SET", 0},
		{SliceGet, "SLICE_GET", 0},
		{Len, "LEN", 0},
		{Delete, "DELETE", 0},
		{RangeNew, "RANGE_NEW", 1}, // has-step (u8)
		{IterNew, "ITER_NEW", 0},
		{IterNext, "ITER_NEXT", 2},
		{DefineFunc, "DEFINE_FUNC", 2}, // function const (u16)
		{TryEnter, "TRY_ENTER", 5},
		{TryExit, "TRY_EXIT", 0},
		{Catch, "CATCH", 5},
		{EndFinally, "END_FINALLY", 0},
		{Throw, "THROW", 2},
		{Import, "IMPORT", 5},
		{CallModule, "CALL_MODULE", 5},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:         o.op,
			Name:         o.name,
			OperandWidth: o.width,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(c Code) Info {
	return infos[c]
}
