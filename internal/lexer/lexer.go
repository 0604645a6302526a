// Package lexer turns Kronos source text into tokens. Blocks are
// indentation sensitive, so the lexer emits synthetic INDENT and DEDENT
// tokens by tracking a stack of indentation widths, the usual offside-rule
// construction.
package lexer

import (
	"strings"

	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/internal/token"
)

// tabWidth is how many columns a tab advances the indentation measure.
const tabWidth = 4

// Lexer scans one source text.
type Lexer struct {
	src     string
	pos     int
	line    int
	col     int
	indents []int
	tokens  []token.Token
}

// Tokenize scans the whole source and returns its tokens, ending with EOF.
// Any DEDENT tokens still owed at end of input are emitted before EOF.
func Tokenize(src string) ([]token.Token, error) {
	l := &Lexer{src: src, line: 1, col: 1, indents: []int{0}}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *Lexer) run() error {
	atLineStart := true
	for {
		if atLineStart {
			cont, err := l.lineStart()
			if err != nil {
				return err
			}
			if !cont {
				break
			}
			atLineStart = false
		}
		if l.pos >= len(l.src) {
			l.emit(token.NEWLINE, "")
			break
		}
		ch := l.src[l.pos]
		switch {
		case ch == '\n':
			l.emit(token.NEWLINE, "")
			l.advance()
			atLineStart = true
		case ch == ' ' || ch == '\t' || ch == '\r':
			l.advance()
		case ch == '#':
			l.skipComment()
		case ch == ':':
			l.emit(token.COLON, ":")
			l.advance()
		case ch == ',':
			l.emit(token.COMMA, ",")
			l.advance()
		case ch == '.':
			l.emit(token.DOT, ".")
			l.advance()
		case ch == '"':
			if err := l.scanString(false); err != nil {
				return err
			}
		case isDigit(ch):
			l.scanNumber()
		case ch == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]):
			l.scanNumber()
		case isLetter(ch):
			if err := l.scanWord(); err != nil {
				return err
			}
		default:
			return errz.Newf(errz.Tokenize, "unexpected character %q at %s", ch, l.position())
		}
	}
	// close any open blocks
	for len(l.indents) > 1 {
		l.indents = l.indents[:len(l.indents)-1]
		l.emit(token.DEDENT, "")
	}
	l.emit(token.EOF, "")
	return nil
}

// lineStart measures the new line's indentation and emits INDENT/DEDENT
// tokens. Blank and comment-only lines are skipped entirely so they never
// affect block structure. Returns false at end of input.
func (l *Lexer) lineStart() (bool, error) {
	for {
		if l.pos >= len(l.src) {
			return false, nil
		}
		width := 0
		i := l.pos
		for i < len(l.src) {
			switch l.src[i] {
			case ' ':
				width++
			case '\t':
				width += tabWidth
			case '\r':
			default:
				goto measured
			}
			i++
		}
	measured:
		if i >= len(l.src) {
			l.skipTo(i)
			return false, nil
		}
		if l.src[i] == '\n' {
			l.skipTo(i + 1)
			l.line++
			l.col = 1
			continue
		}
		if l.src[i] == '#' {
			for i < len(l.src) && l.src[i] != '\n' {
				i++
			}
			continueAt := i
			if i < len(l.src) {
				continueAt = i + 1
				l.skipTo(continueAt)
				l.line++
				l.col = 1
				continue
			}
			l.skipTo(continueAt)
			return false, nil
		}
		l.skipTo(i)
		top := l.indents[len(l.indents)-1]
		switch {
		case width > top:
			l.indents = append(l.indents, width)
			l.emit(token.INDENT, "")
		case width < top:
			for len(l.indents) > 1 && l.indents[len(l.indents)-1] > width {
				l.indents = l.indents[:len(l.indents)-1]
				l.emit(token.DEDENT, "")
			}
			if l.indents[len(l.indents)-1] != width {
				return false, errz.Newf(errz.Tokenize, "inconsistent indentation at %s", l.position())
			}
		}
		return true, nil
	}
}

func (l *Lexer) scanWord() error {
	start := l.pos
	for l.pos < len(l.src) && (isLetter(l.src[l.pos]) || isDigit(l.src[l.pos])) {
		l.advance()
	}
	word := l.src[start:l.pos]
	// an identifier "f" glued to a string literal is a format string
	if word == "f" && l.pos < len(l.src) && l.src[l.pos] == '"' {
		return l.scanString(true)
	}
	l.emitAt(token.LookupIdent(word), word, start)
	return nil
}

func (l *Lexer) scanNumber() {
	start := l.pos
	if l.src[l.pos] == '-' {
		l.advance()
	}
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.advance()
	}
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.advance()
		}
	}
	l.emitAt(token.NUMBER, l.src[start:l.pos], start)
}

func (l *Lexer) scanString(format bool) error {
	start := l.pos
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) || l.src[l.pos] == '\n' {
			return errz.Newf(errz.Tokenize, "unterminated string at %s", l.position())
		}
		ch := l.src[l.pos]
		if ch == '"' {
			l.advance()
			break
		}
		if ch == '\\' {
			if l.pos+1 >= len(l.src) {
				return errz.Newf(errz.Tokenize, "unterminated string at %s", l.position())
			}
			l.advance()
			switch l.src[l.pos] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '{':
				sb.WriteByte('{')
			case '}':
				sb.WriteByte('}')
			default:
				return errz.Newf(errz.Tokenize, "unknown escape %q at %s", l.src[l.pos], l.position())
			}
			l.advance()
			continue
		}
		sb.WriteByte(ch)
		l.advance()
	}
	typ := token.STRING
	if format {
		typ = token.FSTRING
	}
	l.emitAt(typ, sb.String(), start)
	return nil
}

func (l *Lexer) skipComment() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.advance()
	}
}

func (l *Lexer) emit(typ token.Type, literal string) {
	l.tokens = append(l.tokens, token.Token{
		Type:    typ,
		Literal: literal,
		Pos:     token.Position{Line: l.line, Column: l.col},
	})
}

func (l *Lexer) emitAt(typ token.Type, literal string, start int) {
	col := l.col - (l.pos - start)
	if col < 1 {
		col = 1
	}
	l.tokens = append(l.tokens, token.Token{
		Type:    typ,
		Literal: literal,
		Pos:     token.Position{Line: l.line, Column: col},
	})
}

func (l *Lexer) advance() {
	if l.pos < len(l.src) {
		if l.src[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) skipTo(pos int) {
	l.col += pos - l.pos
	l.pos = pos
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.col}
}

func isLetter(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
