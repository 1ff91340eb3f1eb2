// Package parser implements a recursive-descent parser: a fixed
// operator-precedence grammar that builds a typed ast.Node tree, assigns
// stack offsets to local variables in first-appearance order, and
// allocates unique ".L<n>" labels to control-flow constructs.
package parser

import (
	"fmt"
	"strconv"

	"github.com/mi-wada/kanic/ast"
	"github.com/mi-wada/kanic/diagnostic"
	"github.com/mi-wada/kanic/token"
)

// Parser holds parsing state explicitly: the identifier-to-offset map
// and the label counter live on the Parser value itself, not as
// package-level state, so nothing about parsing one program leaks into
// parsing another.
type Parser struct {
	tokens []token.Token
	pos    int

	// eofOffset is reported as the position of any token requested past
	// the end of the stream, so "unexpected EOF" diagnostics still point
	// somewhere sensible in the source.
	eofOffset int

	locals       map[string]int
	labelCounter int
}

// New creates a Parser over tokens. eofOffset should be len(source), the
// byte offset diagnostics use when a construct runs off the end of input.
func New(tokens []token.Token, eofOffset int) *Parser {
	return &Parser{
		tokens:    tokens,
		eofOffset: eofOffset,
		locals:    make(map[string]int),
	}
}

// Parse consumes the whole token stream, returning the program's
// top-level statements and the stack frame size (8 bytes per distinct
// local).
func (p *Parser) Parse() ([]ast.Node, int, error) {
	var stmts []ast.Node

	for p.pos < len(p.tokens) {
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, 0, err
		}
		stmts = append(stmts, stmt)
	}

	return stmts, len(p.locals) * 8, nil
}

func (p *Parser) parseStmt() (ast.Node, error) {
	switch p.peek().Kind {
	case token.RETURN:
		p.advance()
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return &ast.Ret{Value: value}, nil

	case token.IF:
		return p.parseIf()

	case token.WHILE:
		return p.parseWhile()

	case token.FOR:
		return p.parseFor()

	default:
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return node, nil
	}
}

func (p *Parser) parseIf() (ast.Node, error) {
	p.advance() // "if"

	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}

	node := &ast.If{Label: p.newLabel(), Cond: cond, Then: then}

	if p.peek().Kind == token.ELSE {
		p.advance()
		elseStmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		node.Else = elseStmt
	}

	return node, nil
}

func (p *Parser) parseWhile() (ast.Node, error) {
	p.advance() // "while"

	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	startLabel, endLabel := p.newLabel(), p.newLabel()

	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}

	return &ast.While{StartLabel: startLabel, EndLabel: endLabel, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Node, error) {
	p.advance() // "for"

	if err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}

	var init, cond, update ast.Node
	var err error

	if p.peek().Kind != token.SEMICOLON {
		if init, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	if p.peek().Kind != token.SEMICOLON {
		if cond, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	if p.peek().Kind != token.RPAREN {
		if update, err = p.parseExpr(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	startLabel, endLabel := p.newLabel(), p.newLabel()

	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}

	return &ast.For{
		StartLabel: startLabel, EndLabel: endLabel,
		Init: init, Cond: cond, Update: update,
		Body: body,
	}, nil
}

func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseAssign()
}

// parseAssign is right-associative: "a = b = c" parses as "a = (b = c)".
func (p *Parser) parseAssign() (ast.Node, error) {
	node, err := p.parseEquality()
	if err != nil {
		return nil, err
	}

	if p.peek().Kind == token.ASSIGN {
		p.advance()
		rhs, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ast.ArithOp{Op: ast.Assign, Lhs: node, Rhs: rhs}, nil
	}

	return node, nil
}

func (p *Parser) parseEquality() (ast.Node, error) {
	node, err := p.parseRelational()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.CmpOpKind
		switch p.peek().Kind {
		case token.EQ:
			op = ast.Eq
		case token.NEQ:
			op = ast.Neq
		default:
			return node, nil
		}

		p.advance()
		rhs, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		node = &ast.CmpOp{Op: op, Lhs: node, Rhs: rhs}
	}
}

// parseRelational rewrites ">" and ">=" to "<" and "<=" with swapped
// operands, so the AST never stores Gt/Gte.
func (p *Parser) parseRelational() (ast.Node, error) {
	node, err := p.parseAdd()
	if err != nil {
		return nil, err
	}

	for {
		switch p.peek().Kind {
		case token.LT:
			p.advance()
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			node = &ast.CmpOp{Op: ast.Lt, Lhs: node, Rhs: rhs}
		case token.LTE:
			p.advance()
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			node = &ast.CmpOp{Op: ast.Lte, Lhs: node, Rhs: rhs}
		case token.GT:
			p.advance()
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			node = &ast.CmpOp{Op: ast.Lt, Lhs: rhs, Rhs: node}
		case token.GTE:
			p.advance()
			rhs, err := p.parseAdd()
			if err != nil {
				return nil, err
			}
			node = &ast.CmpOp{Op: ast.Lte, Lhs: rhs, Rhs: node}
		default:
			return node, nil
		}
	}
}

func (p *Parser) parseAdd() (ast.Node, error) {
	node, err := p.parseMul()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.ArithOpKind
		switch p.peek().Kind {
		case token.PLUS:
			op = ast.Add
		case token.MINUS:
			op = ast.Sub
		default:
			return node, nil
		}

		p.advance()
		rhs, err := p.parseMul()
		if err != nil {
			return nil, err
		}
		node = &ast.ArithOp{Op: op, Lhs: node, Rhs: rhs}
	}
}

func (p *Parser) parseMul() (ast.Node, error) {
	node, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		var op ast.ArithOpKind
		switch p.peek().Kind {
		case token.ASTERISK:
			op = ast.Mul
		case token.SLASH:
			op = ast.Div
		default:
			return node, nil
		}

		p.advance()
		rhs, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		node = &ast.ArithOp{Op: op, Lhs: node, Rhs: rhs}
	}
}

// parseUnary desugars unary "-x" into "0 - x"; unary "+x" is a no-op.
func (p *Parser) parseUnary() (ast.Node, error) {
	switch p.peek().Kind {
	case token.PLUS:
		p.advance()
		return p.parsePrimary()
	case token.MINUS:
		p.advance()
		operand, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		return &ast.ArithOp{Op: ast.Sub, Lhs: &ast.Num{Value: 0}, Rhs: operand}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	tok := p.peek()

	switch tok.Kind {
	case token.NUM:
		p.advance()
		value, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, diagnostic.NewError(tok.Offset, "invalid integer literal %q", tok.Literal)
		}
		return &ast.Num{Value: value}, nil

	case token.IDENT:
		p.advance()
		return &ast.LocalVar{Offset: p.resolveLocal(tok.Literal)}, nil

	case token.LPAREN:
		p.advance()
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return node, nil

	case token.EOF:
		return nil, diagnostic.NewError(tok.Offset, "unexpected end of input")

	default:
		// Any token that can't start a primary expression is reported
		// with this generic message, not a per-kind description.
		return nil, diagnostic.NewError(tok.Offset, "Invalid token")
	}
}

// resolveLocal returns name's offset, allocating the next multiple of 8
// (8, 16, 24, ...) the first time name is seen. Identifiers are declared
// implicitly on first use; there is no separate declaration syntax.
func (p *Parser) resolveLocal(name string) int {
	if offset, ok := p.locals[name]; ok {
		return offset
	}
	offset := (len(p.locals) + 1) * 8
	p.locals[name] = offset
	return offset
}

func (p *Parser) newLabel() string {
	label := fmt.Sprintf(".L%d", p.labelCounter)
	p.labelCounter++
	return label
}

func (p *Parser) peek() token.Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	return token.Token{Kind: token.EOF, Offset: p.eofOffset}
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind token.Kind) error {
	tok := p.peek()
	if tok.Kind != kind {
		if tok.Kind == token.EOF {
			return diagnostic.NewError(tok.Offset, "expected %q but reached end of input", kind)
		}
		return diagnostic.NewError(tok.Offset, "expected %q but got %q", kind, tok.Kind)
	}
	p.advance()
	return nil
}
