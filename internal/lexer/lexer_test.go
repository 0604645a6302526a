package lexer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kronos-lang/kronos/internal/token"
)

func types(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestSimpleStatement(t *testing.T) {
	toks, err := Tokenize(`set x to 42`)
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.SET, token.IDENT, token.TO, token.NUMBER, token.NEWLINE, token.EOF,
	}, types(toks))
	require.Equal(t, "x", toks[1].Literal)
	require.Equal(t, "42", toks[3].Literal)
}

func TestIndentationBlocks(t *testing.T) {
	src := "if x:\n    print x\nprint y\n"
	toks, err := Tokenize(src)
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.PRINT, token.IDENT, token.NEWLINE,
		token.DEDENT, token.PRINT, token.IDENT, token.NEWLINE,
		token.EOF,
	}, types(toks))
}

func TestNestedBlocksCloseAtEOF(t *testing.T) {
	src := "while a:\n    if b:\n        break"
	toks, err := Tokenize(src)
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.WHILE, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.IF, token.IDENT, token.COLON, token.NEWLINE,
		token.INDENT, token.BREAK, token.NEWLINE,
		token.DEDENT, token.DEDENT, token.EOF,
	}, types(toks))
}

func TestBlankAndCommentLinesIgnored(t *testing.T) {
	src := "set a to 1\n\n# a comment\n    # indented comment\nset b to 2\n"
	toks, err := Tokenize(src)
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.SET, token.IDENT, token.TO, token.NUMBER, token.NEWLINE,
		token.SET, token.IDENT, token.TO, token.NUMBER, token.NEWLINE,
		token.EOF,
	}, types(toks))
}

func TestInconsistentIndentationFails(t *testing.T) {
	src := "if x:\n        print a\n    print b\n"
	_, err := Tokenize(src)
	require.Error(t, err)
	require.Contains(t, err.Error(), "indentation")
}

func TestStringsAndEscapes(t *testing.T) {
	toks, err := Tokenize(`set s to "a\n\"b\""`)
	require.NoError(t, err)
	require.Equal(t, token.STRING, toks[3].Type)
	require.Equal(t, "a\n\"b\"", toks[3].Literal)
}

func TestFormatString(t *testing.T) {
	toks, err := Tokenize(`print f"total: {n}"`)
	require.NoError(t, err)
	require.Equal(t, token.FSTRING, toks[1].Type)
	require.Equal(t, "total: {n}", toks[1].Literal)
}

func TestUnterminatedString(t *testing.T) {
	_, err := Tokenize(`set s to "oops`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated")
}

func TestNumbers(t *testing.T) {
	toks, err := Tokenize("set a to 3.25\nset b to -7\n")
	require.NoError(t, err)
	require.Equal(t, "3.25", toks[3].Literal)
	require.Equal(t, "-7", toks[8].Literal)
}

func TestWordOperators(t *testing.T) {
	toks, err := Tokenize("set c to a plus b times 2")
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.SET, token.IDENT, token.TO,
		token.IDENT, token.PLUS, token.IDENT, token.TIMES, token.NUMBER,
		token.NEWLINE, token.EOF,
	}, types(toks))
}

func TestDottedCall(t *testing.T) {
	toks, err := Tokenize("call utils.double with 4")
	require.NoError(t, err)
	require.Equal(t, []token.Type{
		token.CALL, token.IDENT, token.DOT, token.IDENT,
		token.WITH, token.NUMBER, token.NEWLINE, token.EOF,
	}, types(toks))
}

func TestPositions(t *testing.T) {
	toks, err := Tokenize("set x to 1\nprint x\n")
	require.NoError(t, err)
	require.Equal(t, 1, toks[0].Pos.Line)
	// "print" starts line 2, column 1
	var printTok token.Token
	for _, tok := range toks {
		if tok.Type == token.PRINT {
			printTok = tok
		}
	}
	require.Equal(t, 2, printTok.Pos.Line)
	require.Equal(t, 1, printTok.Pos.Column)
}
