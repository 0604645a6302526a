// Package token defines the lexical tokens of the Kronos language.
package token

import "fmt"

// Type names a category of token.
type Type string

// Position locates a token in its source text. Lines and columns are
// 1-based.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d", p.Line, p.Column)
}

// Token is a single lexical token.
type Token struct {
	Type    Type
	Literal string
	Pos     Position
}

const (
	ILLEGAL Type = "ILLEGAL"
	EOF     Type = "EOF"

	// Layout
	NEWLINE Type = "NEWLINE"
	INDENT  Type = "INDENT"
	DEDENT  Type = "DEDENT"

	// Literals and names
	IDENT   Type = "IDENT"
	NUMBER  Type = "NUMBER"
	STRING  Type = "STRING"
	FSTRING Type = "FSTRING"

	// Punctuation
	COLON Type = ":"
	COMMA Type = ","
	DOT   Type = "."

	// Keywords
	SET      Type = "SET"
	LET      Type = "LET"
	TO       Type = "TO"
	AS       Type = "AS"
	IF       Type = "IF"
	ELSE     Type = "ELSE"
	FOR      Type = "FOR"
	WHILE    Type = "WHILE"
	BREAK    Type = "BREAK"
	CONTINUE Type = "CONTINUE"
	IN       Type = "IN"
	RANGE    Type = "RANGE"
	LIST     Type = "LIST"
	MAP      Type = "MAP"
	TUPLE    Type = "TUPLE"
	AT       Type = "AT"
	FROM     Type = "FROM"
	BY       Type = "BY"
	END      Type = "END"
	FUNCTION Type = "FUNCTION"
	WITH     Type = "WITH"
	CALL     Type = "CALL"
	RETURN   Type = "RETURN"
	IMPORT   Type = "IMPORT"
	TRUE     Type = "TRUE"
	FALSE    Type = "FALSE"
	NULL     Type = "NULL"
	IS       Type = "IS"
	EQUAL    Type = "EQUAL"
	NOT      Type = "NOT"
	GREATER  Type = "GREATER"
	LESS     Type = "LESS"
	THAN     Type = "THAN"
	OR       Type = "OR"
	AND      Type = "AND"
	PRINT    Type = "PRINT"
	PLUS     Type = "PLUS"
	MINUS    Type = "MINUS"
	TIMES    Type = "TIMES"
	DIVIDED  Type = "DIVIDED"
	MOD      Type = "MOD"
	DELETE   Type = "DELETE"
	TRY      Type = "TRY"
	CATCH    Type = "CATCH"
	FINALLY  Type = "FINALLY"
	RAISE    Type = "RAISE"
)

var keywords = map[string]Type{
	"set":      SET,
	"let":      LET,
	"to":       TO,
	"as":       AS,
	"if":       IF,
	"else":     ELSE,
	"for":      FOR,
	"while":    WHILE,
	"break":    BREAK,
	"continue": CONTINUE,
	"in":       IN,
	"range":    RANGE,
	"list":     LIST,
	"map":      MAP,
	"tuple":    TUPLE,
	"at":       AT,
	"from":     FROM,
	"by":       BY,
	"end":      END,
	"function": FUNCTION,
	"with":     WITH,
	"call":     CALL,
	"return":   RETURN,
	"import":   IMPORT,
	"true":     TRUE,
	"false":    FALSE,
	"null":     NULL,
	"is":       IS,
	"equal":    EQUAL,
	"not":      NOT,
	"greater":  GREATER,
	"less":     LESS,
	"than":     THAN,
	"or":       OR,
	"and":      AND,
	"print":    PRINT,
	"plus":     PLUS,
	"minus":    MINUS,
	"times":    TIMES,
	"divided":  DIVIDED,
	"mod":      MOD,
	"delete":   DELETE,
	"try":      TRY,
	"catch":    CATCH,
	"finally":  FINALLY,
	"raise":    RAISE,
}

// LookupIdent maps an identifier to its keyword type, or IDENT.
func LookupIdent(ident string) Type {
	if t, ok := keywords[ident]; ok {
		return t
	}
	return IDENT
}
