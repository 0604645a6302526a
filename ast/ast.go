// Package ast defines the syntax tree produced by the parser and consumed
// by the compiler.
package ast

import "github.com/kronos-lang/kronos/internal/token"

// Node is implemented by every syntax tree node.
type Node interface {
	Position() token.Position
}

// Statement is a node that appears at statement position.
type Statement interface {
	Node
	statementNode()
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionNode()
}

// Program is the root node: a sequence of statements.
type Program struct {
	Statements []Statement
}

func (p *Program) Position() token.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Position()
	}
	return token.Position{Line: 1, Column: 1}
}

// Pos is embedded in every node to carry its source position.
type Pos struct{ At token.Position }

// Position returns the node's source position.
func (p Pos) Position() token.Position { return p.At }

// Assign is `set NAME to EXPR [as TYPE]` or `let NAME to EXPR [as TYPE]`.
type Assign struct {
	Pos
	Name     string
	Mutable  bool // let rather than set
	TypeName string
	Value    Expression
}

func (*Assign) statementNode() {}

// IndexAssign is `set XS at I to EXPR`, element assignment into a list or
// map.
type IndexAssign struct {
	Pos
	Target Expression
	Index  Expression
	Value  Expression
}

func (*IndexAssign) statementNode() {}

// Print is `print EXPR`.
type Print struct {
	Pos
	Value Expression
}

func (*Print) statementNode() {}

// If is an if/else-if/else chain. Else holds either a Block (final else)
// or a nested If (else if).
type If struct {
	Pos
	Cond Expression
	Then *Block
	Else Statement
}

func (*If) statementNode() {}

// Block is an indented statement list.
type Block struct {
	Pos
	Statements []Statement
}

func (*Block) statementNode() {}

// While is `while EXPR:` BLOCK.
type While struct {
	Pos
	Cond Expression
	Body *Block
}

func (*While) statementNode() {}

// For is `for NAME in EXPR:` BLOCK.
type For struct {
	Pos
	Name string
	Iter Expression
	Body *Block
}

func (*For) statementNode() {}

// Break exits the innermost loop.
type Break struct{ Pos }

func (*Break) statementNode() {}

// Continue restarts the innermost loop.
type Continue struct{ Pos }

func (*Continue) statementNode() {}

// FunctionDef is `function NAME with P1, P2:` BLOCK.
type FunctionDef struct {
	Pos
	Name   string
	Params []string
	Body   *Block
}

func (*FunctionDef) statementNode() {}

// Return is `return [EXPR]`.
type Return struct {
	Pos
	Value Expression // nil returns null
}

func (*Return) statementNode() {}

// Import is `import NAME [from "PATH"]`.
type Import struct {
	Pos
	Name string
	Path string // empty when resolved from the name
}

func (*Import) statementNode() {}

// Try is `try:` BLOCK with optional catch clauses and finally block.
type Try struct {
	Pos
	Body    *Block
	Catches []*Catch
	Finally *Block
}

func (*Try) statementNode() {}

// Catch is one `catch [TYPE [as NAME]]:` clause. An empty Filter catches
// everything; Name binds the error message.
type Catch struct {
	Pos
	Filter string
	Name   string
	Body   *Block
}

// Raise is `raise TYPE "message"`.
type Raise struct {
	Pos
	TypeName string
	Message  Expression
}

func (*Raise) statementNode() {}

// Delete is `delete M at K`.
type Delete struct {
	Pos
	Target Expression
	Key    Expression
}

func (*Delete) statementNode() {}

// ExpressionStatement is an expression evaluated for effect, its result
// discarded.
type ExpressionStatement struct {
	Pos
	Value Expression
}

func (*ExpressionStatement) statementNode() {}

// NumberLit is a numeric literal.
type NumberLit struct {
	Pos
	Value float64
}

func (*NumberLit) expressionNode() {}

// StringLit is a plain string literal.
type StringLit struct {
	Pos
	Value string
}

func (*StringLit) expressionNode() {}

// FormatString is an f-string: literal parts interleaved with embedded
// expressions. Parts and Exprs alternate starting with a part; Parts has
// exactly one more element than Exprs.
type FormatString struct {
	Pos
	Parts []string
	Exprs []Expression
}

func (*FormatString) expressionNode() {}

// BoolLit is true or false.
type BoolLit struct {
	Pos
	Value bool
}

func (*BoolLit) expressionNode() {}

// NullLit is null.
type NullLit struct{ Pos }

func (*NullLit) expressionNode() {}

// Var references a variable by name.
type Var struct {
	Pos
	Name string
}

func (*Var) expressionNode() {}

// BinOp operator kinds.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNeq
	OpGt
	OpLt
	OpGte
	OpLte
	OpAnd
	OpOr
)

// BinOp is a binary operation.
type BinOp struct {
	Pos
	Kind  BinOpKind
	Left  Expression
	Right Expression
}

func (*BinOp) expressionNode() {}

// UnaryNot is `not EXPR`.
type UnaryNot struct {
	Pos
	Value Expression
}

func (*UnaryNot) expressionNode() {}

// ListLit is `list E1, E2, ...`.
type ListLit struct {
	Pos
	Items []Expression
}

func (*ListLit) expressionNode() {}

// TupleLit is `tuple E1, E2, ...`.
type TupleLit struct {
	Pos
	Items []Expression
}

func (*TupleLit) expressionNode() {}

// MapLit is `map K1 to V1, K2 to V2, ...`.
type MapLit struct {
	Pos
	Keys   []Expression
	Values []Expression
}

func (*MapLit) expressionNode() {}

// RangeLit is `range A to B [by C]`.
type RangeLit struct {
	Pos
	Start Expression
	End   Expression
	Step  Expression // nil means step 1
}

func (*RangeLit) expressionNode() {}

// Index is `XS at I`.
type Index struct {
	Pos
	Target Expression
	Index  Expression
}

func (*Index) expressionNode() {}

// Slice is `XS from A to B`; OpenEnd marks `to end`.
type Slice struct {
	Pos
	Target  Expression
	Start   Expression
	End     Expression // nil when OpenEnd
	OpenEnd bool
}

func (*Slice) expressionNode() {}

// Call is `call NAME with A1, A2`; Module is set for `call MOD.FN`.
type Call struct {
	Pos
	Module string
	Name   string
	Args   []Expression
}

func (*Call) expressionNode() {}
