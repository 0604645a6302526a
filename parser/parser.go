// Package parser builds a syntax tree from Kronos tokens. It is a plain
// recursive descent parser; precedence from loosest to tightest is
// or, and, not, comparison, additive, multiplicative, postfix (at / from).
package parser

import (
	"strconv"

	"github.com/kronos-lang/kronos/ast"
	"github.com/kronos-lang/kronos/errz"
	"github.com/kronos-lang/kronos/internal/lexer"
	"github.com/kronos-lang/kronos/internal/token"
)

// Parse tokenizes and parses a complete source text.
func Parse(src string) (*ast.Program, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseProgram()
}

type parser struct {
	tokens []token.Token
	pos    int
}

func (p *parser) cur() token.Token { return p.tokens[p.pos] }
func (p *parser) peek() token.Token {
	if p.pos+1 < len(p.tokens) {
		return p.tokens[p.pos+1]
	}
	return p.tokens[len(p.tokens)-1]
}

func (p *parser) next() token.Token {
	t := p.tokens[p.pos]
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *parser) accept(typ token.Type) bool {
	if p.cur().Type == typ {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(typ token.Type) (token.Token, error) {
	t := p.cur()
	if t.Type != typ {
		return t, errz.Newf(errz.Parse, "expected %s, got %s at %s", typ, t.Type, t.Pos)
	}
	p.next()
	return t, nil
}

func (p *parser) fail(format string, args ...any) error {
	return errz.Newf(errz.Parse, format+" at %s", append(args, p.cur().Pos)...)
}

func (p *parser) parseProgram() (*ast.Program, error) {
	prog := &ast.Program{}
	for p.cur().Type != token.EOF {
		if p.accept(token.NEWLINE) {
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		prog.Statements = append(prog.Statements, stmt)
	}
	return prog, nil
}

func (p *parser) parseStatement() (ast.Statement, error) {
	switch p.cur().Type {
	case token.SET, token.LET:
		return p.parseAssign()
	case token.PRINT:
		return p.parsePrint()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.BREAK:
		t := p.next()
		return &ast.Break{Pos: ast.Pos{At: t.Pos}}, p.endStatement()
	case token.CONTINUE:
		t := p.next()
		return &ast.Continue{Pos: ast.Pos{At: t.Pos}}, p.endStatement()
	case token.FUNCTION:
		return p.parseFunction()
	case token.RETURN:
		return p.parseReturn()
	case token.IMPORT:
		return p.parseImport()
	case token.TRY:
		return p.parseTry()
	case token.RAISE:
		return p.parseRaise()
	case token.DELETE:
		return p.parseDelete()
	default:
		at := p.cur().Pos
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Pos: ast.Pos{At: at}, Value: expr}, p.endStatement()
	}
}

// endStatement consumes the statement terminator. EOF and DEDENT also end
// a statement so single-line inputs and block tails parse cleanly.
func (p *parser) endStatement() error {
	switch p.cur().Type {
	case token.NEWLINE:
		p.next()
		return nil
	case token.EOF, token.DEDENT:
		return nil
	}
	return p.fail("unexpected %s", p.cur().Type)
}

// parseAssign handles `set NAME to EXPR [as TYPE]` and the element form
// `set XS at I to EXPR`.
func (p *parser) parseAssign() (ast.Statement, error) {
	kw := p.next() // set or let
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if p.accept(token.AT) {
		index, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.TO); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt := &ast.IndexAssign{
			Pos:    ast.Pos{At: kw.Pos},
			Target: &ast.Var{Pos: ast.Pos{At: name.Pos}, Name: name.Literal},
			Index:  index,
			Value:  value,
		}
		return stmt, p.endStatement()
	}
	if _, err := p.expect(token.TO); err != nil {
		return nil, err
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Assign{
		Pos:     ast.Pos{At: kw.Pos},
		Name:    name.Literal,
		Mutable: kw.Type == token.LET,
		Value:   value,
	}
	if p.accept(token.AS) {
		typeName, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		stmt.TypeName = typeName
	}
	return stmt, p.endStatement()
}

// parseTypeName accepts the type constraint after `as`. Most type names
// are ordinary identifiers but list, map and null double as keywords.
func (p *parser) parseTypeName() (string, error) {
	t := p.cur()
	switch t.Type {
	case token.IDENT:
		switch t.Literal {
		case "number", "string", "boolean":
			p.next()
			return t.Literal, nil
		}
	case token.LIST:
		p.next()
		return "list", nil
	case token.MAP:
		p.next()
		return "map", nil
	case token.NULL:
		p.next()
		return "null", nil
	}
	return "", p.fail("unknown type name %q", t.Literal)
}

func (p *parser) parsePrint() (ast.Statement, error) {
	kw := p.next()
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.Print{Pos: ast.Pos{At: kw.Pos}, Value: value}, p.endStatement()
}

func (p *parser) parseIf() (ast.Statement, error) {
	kw := p.next()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.If{Pos: ast.Pos{At: kw.Pos}, Cond: cond, Then: then}
	if p.cur().Type == token.ELSE {
		p.next()
		if p.cur().Type == token.IF {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			stmt.Else = elseIf
		} else {
			block, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			stmt.Else = block
		}
	}
	return stmt, nil
}

func (p *parser) parseWhile() (ast.Statement, error) {
	kw := p.next()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Pos: ast.Pos{At: kw.Pos}, Cond: cond, Body: body}, nil
}

func (p *parser) parseFor() (ast.Statement, error) {
	kw := p.next()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN); err != nil {
		return nil, err
	}
	iter, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Pos: ast.Pos{At: kw.Pos}, Name: name.Literal, Iter: iter, Body: body}, nil
}

func (p *parser) parseFunction() (ast.Statement, error) {
	kw := p.next()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	var params []string
	if p.accept(token.WITH) {
		for {
			param, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			params = append(params, param.Literal)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.FunctionDef{
		Pos:    ast.Pos{At: kw.Pos},
		Name:   name.Literal,
		Params: params,
		Body:   body,
	}, nil
}

func (p *parser) parseReturn() (ast.Statement, error) {
	kw := p.next()
	stmt := &ast.Return{Pos: ast.Pos{At: kw.Pos}}
	if p.cur().Type != token.NEWLINE && p.cur().Type != token.EOF && p.cur().Type != token.DEDENT {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}
	return stmt, p.endStatement()
}

func (p *parser) parseImport() (ast.Statement, error) {
	kw := p.next()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	stmt := &ast.Import{Pos: ast.Pos{At: kw.Pos}, Name: name.Literal}
	if p.accept(token.FROM) {
		path, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		stmt.Path = path.Literal
	}
	return stmt, p.endStatement()
}

func (p *parser) parseTry() (ast.Statement, error) {
	kw := p.next()
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Try{Pos: ast.Pos{At: kw.Pos}, Body: body}
	for p.cur().Type == token.CATCH {
		catchKw := p.next()
		clause := &ast.Catch{Pos: ast.Pos{At: catchKw.Pos}}
		if p.cur().Type == token.IDENT {
			clause.Filter = p.next().Literal
			if p.accept(token.AS) {
				name, err := p.expect(token.IDENT)
				if err != nil {
					return nil, err
				}
				clause.Name = name.Literal
			}
		}
		clauseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		clause.Body = clauseBody
		stmt.Catches = append(stmt.Catches, clause)
	}
	if p.cur().Type == token.FINALLY {
		p.next()
		finally, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		stmt.Finally = finally
	}
	if len(stmt.Catches) == 0 && stmt.Finally == nil {
		return nil, p.fail("try requires a catch or finally block")
	}
	return stmt, nil
}

func (p *parser) parseRaise() (ast.Statement, error) {
	kw := p.next()
	typeName, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	msg, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Raise{Pos: ast.Pos{At: kw.Pos}, TypeName: typeName.Literal, Message: msg}
	return stmt, p.endStatement()
}

func (p *parser) parseDelete() (ast.Statement, error) {
	kw := p.next()
	target, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.AT); err != nil {
		return nil, err
	}
	key, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	stmt := &ast.Delete{Pos: ast.Pos{At: kw.Pos}, Target: target, Key: key}
	return stmt, p.endStatement()
}

// parseBlock parses `: NEWLINE INDENT statements DEDENT`.
func (p *parser) parseBlock() (*ast.Block, error) {
	colon, err := p.expect(token.COLON)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.NEWLINE); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.INDENT); err != nil {
		return nil, err
	}
	block := &ast.Block{Pos: ast.Pos{At: colon.Pos}}
	for p.cur().Type != token.DEDENT && p.cur().Type != token.EOF {
		if p.accept(token.NEWLINE) {
			continue
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		block.Statements = append(block.Statements, stmt)
	}
	p.accept(token.DEDENT)
	if len(block.Statements) == 0 {
		return nil, p.fail("empty block")
	}
	return block, nil
}

func (p *parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == token.OR {
		at := p.next().Pos
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Pos: ast.Pos{At: at}, Kind: ast.OpOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.cur().Type == token.AND {
		at := p.next().Pos
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Pos: ast.Pos{At: at}, Kind: ast.OpAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (ast.Expression, error) {
	if p.cur().Type == token.NOT {
		at := p.next().Pos
		value, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryNot{Pos: ast.Pos{At: at}, Value: value}, nil
	}
	return p.parseComparison()
}

// parseComparison handles the word-form comparison operators:
// `is equal to`, `is not equal to`, `is greater than [or equal to]`,
// `is less than [or equal to]`.
func (p *parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if p.cur().Type != token.IS {
		return left, nil
	}
	at := p.next().Pos
	var kind ast.BinOpKind
	switch p.cur().Type {
	case token.NOT:
		p.next()
		if _, err := p.expect(token.EQUAL); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.TO); err != nil {
			return nil, err
		}
		kind = ast.OpNeq
	case token.EQUAL:
		p.next()
		if _, err := p.expect(token.TO); err != nil {
			return nil, err
		}
		kind = ast.OpEq
	case token.GREATER, token.LESS:
		greater := p.next().Type == token.GREATER
		if _, err := p.expect(token.THAN); err != nil {
			return nil, err
		}
		orEqual := false
		if p.cur().Type == token.OR && p.peek().Type == token.EQUAL {
			p.next()
			p.next()
			if _, err := p.expect(token.TO); err != nil {
				return nil, err
			}
			orEqual = true
		}
		switch {
		case greater && orEqual:
			kind = ast.OpGte
		case greater:
			kind = ast.OpGt
		case orEqual:
			kind = ast.OpLte
		default:
			kind = ast.OpLt
		}
	default:
		return nil, p.fail("unexpected %s after 'is'", p.cur().Type)
	}
	right, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.BinOp{Pos: ast.Pos{At: at}, Kind: kind, Left: left, Right: right}, nil
}

func (p *parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.BinOpKind
		switch p.cur().Type {
		case token.PLUS:
			kind = ast.OpAdd
		case token.MINUS:
			kind = ast.OpSub
		default:
			return left, nil
		}
		at := p.next().Pos
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Pos: ast.Pos{At: at}, Kind: kind, Left: left, Right: right}
	}
}

func (p *parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for {
		var kind ast.BinOpKind
		switch p.cur().Type {
		case token.TIMES:
			kind = ast.OpMul
		case token.DIVIDED:
			if p.peek().Type != token.BY {
				return nil, p.fail("expected 'by' after 'divided'")
			}
			p.next() // the `by` is consumed below with the operator
			kind = ast.OpDiv
		case token.MOD:
			kind = ast.OpMod
		default:
			return left, nil
		}
		at := p.next().Pos
		right, err := p.parsePostfix()
		if err != nil {
			return nil, err
		}
		left = &ast.BinOp{Pos: ast.Pos{At: at}, Kind: kind, Left: left, Right: right}
	}
}

// parsePostfix applies indexing (`at I`) and slicing (`from A to B`) to a
// primary expression, left associatively.
func (p *parser) parsePostfix() (ast.Expression, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Type {
		case token.AT:
			at := p.next().Pos
			index, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			expr = &ast.Index{Pos: ast.Pos{At: at}, Target: expr, Index: index}
		case token.FROM:
			at := p.next().Pos
			start, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.TO); err != nil {
				return nil, err
			}
			slice := &ast.Slice{Pos: ast.Pos{At: at}, Target: expr, Start: start}
			if p.accept(token.END) {
				slice.OpenEnd = true
			} else {
				end, err := p.parsePrimary()
				if err != nil {
					return nil, err
				}
				slice.End = end
			}
			expr = slice
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	t := p.cur()
	switch t.Type {
	case token.NUMBER:
		p.next()
		value, err := strconv.ParseFloat(t.Literal, 64)
		if err != nil {
			return nil, errz.Newf(errz.Parse, "invalid number %q at %s", t.Literal, t.Pos)
		}
		return &ast.NumberLit{Pos: ast.Pos{At: t.Pos}, Value: value}, nil
	case token.STRING:
		p.next()
		return &ast.StringLit{Pos: ast.Pos{At: t.Pos}, Value: t.Literal}, nil
	case token.FSTRING:
		p.next()
		return p.parseFormatString(t)
	case token.TRUE:
		p.next()
		return &ast.BoolLit{Pos: ast.Pos{At: t.Pos}, Value: true}, nil
	case token.FALSE:
		p.next()
		return &ast.BoolLit{Pos: ast.Pos{At: t.Pos}, Value: false}, nil
	case token.NULL:
		p.next()
		return &ast.NullLit{Pos: ast.Pos{At: t.Pos}}, nil
	case token.IDENT:
		p.next()
		return &ast.Var{Pos: ast.Pos{At: t.Pos}, Name: t.Literal}, nil
	case token.CALL:
		return p.parseCall()
	case token.LIST:
		return p.parseListLit()
	case token.TUPLE:
		return p.parseTupleLit()
	case token.MAP:
		return p.parseMapLit()
	case token.RANGE:
		return p.parseRangeLit()
	}
	return nil, p.fail("unexpected %s in expression", t.Type)
}

func (p *parser) parseCall() (ast.Expression, error) {
	kw := p.next()
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	call := &ast.Call{Pos: ast.Pos{At: kw.Pos}, Name: name.Literal}
	if p.accept(token.DOT) {
		fn, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		call.Module = name.Literal
		call.Name = fn.Literal
	}
	if p.accept(token.WITH) {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, arg)
			if !p.accept(token.COMMA) {
				break
			}
		}
	}
	return call, nil
}

func (p *parser) parseListLit() (ast.Expression, error) {
	kw := p.next()
	lit := &ast.ListLit{Pos: ast.Pos{At: kw.Pos}}
	items, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	lit.Items = items
	return lit, nil
}

func (p *parser) parseTupleLit() (ast.Expression, error) {
	kw := p.next()
	lit := &ast.TupleLit{Pos: ast.Pos{At: kw.Pos}}
	items, err := p.parseExpressionList()
	if err != nil {
		return nil, err
	}
	lit.Items = items
	return lit, nil
}

// parseExpressionList parses a comma-separated expression list, which may
// be empty when the statement ends immediately.
func (p *parser) parseExpressionList() ([]ast.Expression, error) {
	var items []ast.Expression
	if atExpressionEnd(p.cur().Type) {
		return items, nil
	}
	for {
		item, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if !p.accept(token.COMMA) {
			return items, nil
		}
	}
}

func atExpressionEnd(t token.Type) bool {
	switch t {
	case token.NEWLINE, token.EOF, token.DEDENT, token.COLON:
		return true
	}
	return false
}

func (p *parser) parseMapLit() (ast.Expression, error) {
	kw := p.next()
	lit := &ast.MapLit{Pos: ast.Pos{At: kw.Pos}}
	if atExpressionEnd(p.cur().Type) {
		return lit, nil
	}
	for {
		key, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.TO); err != nil {
			return nil, err
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, value)
		if !p.accept(token.COMMA) {
			return lit, nil
		}
	}
}

func (p *parser) parseRangeLit() (ast.Expression, error) {
	kw := p.next()
	start, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.TO); err != nil {
		return nil, err
	}
	end, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	lit := &ast.RangeLit{Pos: ast.Pos{At: kw.Pos}, Start: start, End: end}
	if p.accept(token.BY) {
		step, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		lit.Step = step
	}
	return lit, nil
}

// parseFormatString splits an f-string body into literal parts and
// embedded expressions, each parsed as a standalone expression.
func (p *parser) parseFormatString(t token.Token) (ast.Expression, error) {
	fs := &ast.FormatString{Pos: ast.Pos{At: t.Pos}}
	body := t.Literal
	var part []byte
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch != '{' {
			part = append(part, ch)
			continue
		}
		closeIdx := -1
		for j := i + 1; j < len(body); j++ {
			if body[j] == '}' {
				closeIdx = j
				break
			}
		}
		if closeIdx < 0 {
			return nil, errz.Newf(errz.Parse, "unclosed '{' in format string at %s", t.Pos)
		}
		inner := body[i+1 : closeIdx]
		expr, err := parseEmbedded(inner, t.Pos)
		if err != nil {
			return nil, err
		}
		fs.Parts = append(fs.Parts, string(part))
		fs.Exprs = append(fs.Exprs, expr)
		part = part[:0]
		i = closeIdx
	}
	fs.Parts = append(fs.Parts, string(part))
	return fs, nil
}

// parseEmbedded parses one `{...}` body from a format string.
func parseEmbedded(src string, at token.Position) (ast.Expression, error) {
	tokens, err := lexer.Tokenize(src)
	if err != nil {
		return nil, err
	}
	sub := &parser{tokens: tokens}
	expr, err := sub.parseExpression()
	if err != nil {
		return nil, err
	}
	if sub.cur().Type != token.NEWLINE && sub.cur().Type != token.EOF {
		return nil, errz.Newf(errz.Parse, "invalid expression in format string at %s", at)
	}
	return expr, nil
}
