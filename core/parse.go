package core

import (
	"fmt"
)

// ParseError is the first structural mismatch met by the parser. Found is
// nil when the input ended before the expected token.
type ParseError struct {
	Expected string
	Found    *Token
}

func (e *ParseError) Error() string {
	if e.Found == nil {
		return e.message()
	}
	return fmt.Sprintf("parse error at %s: expected %s, found %s", e.Found.Span, e.Expected, e.Found)
}

func (e *ParseError) message() string {
	if e.Found == nil {
		return fmt.Sprintf("parse error: expected %s, found end of input", e.Expected)
	}
	return fmt.Sprintf("parse error: expected %s, found %s", e.Expected, e.Found)
}

// Span locates the offending token, or is empty at end of input.
func (e *ParseError) Span() (Span, bool) {
	if e.Found == nil {
		return Span{}, false
	}
	return e.Found.Span, true
}

const (
	_ int = iota
	lowest
	equals      // == !=
	lessGreater // < >
	sum         // + -
	product     // * /
	prefix      // -x +x !x
	call        // f(x)
)

func infixPrecedence(kind TokenKind) int {
	switch kind {
	case EQ, NEQ:
		return equals
	case LESS, GREATER:
		return lessGreater
	case PLUS, MINUS:
		return sum
	case ASTERISK, SLASH:
		return product
	case LEFT_PAREN:
		return call
	default:
		return lowest
	}
}

type Parser struct {
	source  TokenSource
	current Token
	peek    Token
}

func NewParser(source TokenSource) *Parser {
	p := &Parser{source: source}
	// fill both slots of the lookahead buffer
	p.next()
	p.next()
	return p
}

// ParseProgram parses every statement the source yields.
func ParseProgram(source TokenSource) (*Program, error) {
	return NewParser(source).ParseProgram()
}

func (p *Parser) next() {
	p.current = p.peek
	p.peek = p.source.Next()
}

func (p *Parser) isEOF() bool {
	return p.current.Kind == EOF
}

func (p *Parser) errorf(expected string, args ...interface{}) *ParseError {
	err := &ParseError{Expected: fmt.Sprintf(expected, args...)}
	if !p.isEOF() {
		found := p.current
		err.Found = &found
	}
	return err
}

func (p *Parser) expect(kind TokenKind) (Token, error) {
	if p.current.Kind != kind {
		return Token{}, p.errorf("%q", kind.String())
	}
	tok := p.current
	p.next()
	return tok, nil
}

// eat consumes the current token if it has the given kind.
func (p *Parser) eat(kind TokenKind) bool {
	if p.current.Kind != kind {
		return false
	}
	p.next()
	return true
}

func (p *Parser) ParseProgram() (*Program, error) {
	program := &Program{Statements: []Statement{}}

	for !p.isEOF() {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		program.Statements = append(program.Statements, stmt)
	}

	return program, nil
}

func (p *Parser) parseStatement() (Statement, error) {
	var stmt Statement
	var err error

	switch p.current.Kind {
	case LET:
		stmt, err = p.parseLetStatement()
	case RETURN:
		stmt, err = p.parseReturnStatement()
	default:
		var expr Expression
		expr, err = p.parseExpression(lowest)
		stmt = ExpressionStatement{Expression: expr}
	}
	if err != nil {
		return nil, err
	}

	// semicolons separate statements but are never required
	p.eat(SEMICOLON)

	return stmt, nil
}

func (p *Parser) parseLetStatement() (Statement, error) {
	tok, err := p.expect(LET)
	if err != nil {
		return nil, err
	}

	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(ASSIGN); err != nil {
		return nil, err
	}

	value, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}

	return LetStatement{Token: tok, Name: name, Value: value}, nil
}

func (p *Parser) parseReturnStatement() (Statement, error) {
	tok, err := p.expect(RETURN)
	if err != nil {
		return nil, err
	}

	value, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}

	return ReturnStatement{Token: tok, Value: value}, nil
}

func (p *Parser) parseIdentifier() (Identifier, error) {
	tok, err := p.expect(IDENTIFIER)
	if err != nil {
		return Identifier{}, err
	}
	return Identifier{Token: tok}, nil
}

// parseExpression climbs precedence: it parses one prefix term, then keeps
// folding infix operators that bind tighter than minPrec. The right operand
// is parsed with the operator's own precedence, which makes every binary
// operator left-associative.
func (p *Parser) parseExpression(minPrec int) (Expression, error) {
	left, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}

	for !p.isEOF() {
		prec := infixPrecedence(p.current.Kind)
		if prec <= minPrec {
			break
		}

		if p.current.Kind == LEFT_PAREN {
			left, err = p.parseCall(left)
			if err != nil {
				return nil, err
			}
			continue
		}

		op := p.current
		p.next() // eat the operator

		right, err := p.parseExpression(prec)
		if err != nil {
			return nil, err
		}

		left = BinaryOp{Operator: op, Left: left, Right: right}
	}

	return left, nil
}

// parsePrefix parses a single primary term: literals, identifiers, prefix
// operators, groups, blocks, conditionals and function literals.
func (p *Parser) parsePrefix() (Expression, error) {
	tok := p.current

	switch tok.Kind {
	case IDENTIFIER:
		p.next()
		return Identifier{Token: tok}, nil
	case INT:
		p.next()
		return IntegerLiteral{Token: tok}, nil
	case TRUE, FALSE:
		p.next()
		return BooleanLiteral{Token: tok}, nil
	case PLUS, MINUS, BANG:
		p.next()
		operand, err := p.parseExpression(prefix)
		if err != nil {
			return nil, err
		}
		return UnaryOp{Operator: tok, Operand: operand}, nil
	case LEFT_PAREN:
		p.next()
		expr, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RIGHT_PAREN); err != nil {
			return nil, err
		}
		return expr, nil
	case LEFT_BRACE:
		return p.parseBlock()
	case IF:
		return p.parseIf()
	case FUNCTION:
		return p.parseFunctionLiteral()
	}

	return nil, p.errorf("expression")
}

func (p *Parser) parseBlock() (Block, error) {
	open, err := p.expect(LEFT_BRACE)
	if err != nil {
		return Block{}, err
	}

	stmts := []Statement{}
	for p.current.Kind != RIGHT_BRACE {
		if p.isEOF() {
			return Block{}, p.errorf("%q", RIGHT_BRACE.String())
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return Block{}, err
		}
		stmts = append(stmts, stmt)
	}

	closing, err := p.expect(RIGHT_BRACE)
	if err != nil {
		return Block{}, err
	}

	return Block{Token: open, Statements: stmts, Close: closing}, nil
}

func (p *Parser) parseIf() (Expression, error) {
	tok, err := p.expect(IF)
	if err != nil {
		return nil, err
	}

	cond, err := p.parseExpression(lowest)
	if err != nil {
		return nil, err
	}

	consequence, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	node := If{Token: tok, Condition: cond, Consequence: consequence}

	if p.eat(ELSE) {
		alternative, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		node.Alternative = &alternative
	}

	return node, nil
}

// fn(a, b) { ... }
// ^
// | parser is here
func (p *Parser) parseFunctionLiteral() (Expression, error) {
	tok, err := p.expect(FUNCTION)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(LEFT_PAREN); err != nil {
		return nil, err
	}

	params := []Identifier{}
	for p.current.Kind != RIGHT_PAREN {
		param, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, param)

		if !p.eat(COMMA) {
			break
		}
	}

	if _, err := p.expect(RIGHT_PAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return FunctionLiteral{Token: tok, Parameters: params, Body: body}, nil
}

// parseCall wraps an already parsed callee. The argument list tolerates a
// trailing comma.
func (p *Parser) parseCall(callee Expression) (Expression, error) {
	open, err := p.expect(LEFT_PAREN)
	if err != nil {
		return nil, err
	}

	args := []Expression{}
	for p.current.Kind != RIGHT_PAREN {
		arg, err := p.parseExpression(lowest)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if !p.eat(COMMA) {
			break
		}
	}

	closing, err := p.expect(RIGHT_PAREN)
	if err != nil {
		return nil, err
	}

	return Call{Token: open, Callee: callee, Arguments: args, Close: closing}, nil
}
