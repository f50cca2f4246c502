package core

import (
	"strings"
)

// Node is implemented by every AST node. String renders the node back into
// source that parses to the same tree.
type Node interface {
	String() string
	Span() Span
}

// Expression is a closed set: only the node types in this file implement it.
type Expression interface {
	Node
	expressionNode()
}

// Statement is a closed set: only the node types in this file implement it.
type Statement interface {
	Node
	statementNode()
}

type Program struct {
	Statements []Statement
}

func (p *Program) String() string {
	return joinStatements(p.Statements, "\n")
}

func (p *Program) Span() Span {
	if len(p.Statements) == 0 {
		return Span{}
	}
	return Span{
		Start: p.Statements[0].Span().Start,
		End:   p.Statements[len(p.Statements)-1].Span().End,
	}
}

func joinStatements(stmts []Statement, sep string) string {
	parts := make([]string, len(stmts))
	for i, stmt := range stmts {
		parts[i] = stmt.String()
	}
	return strings.Join(parts, sep)
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = expr.String()
	}
	return strings.Join(parts, ", ")
}

func spanning(from, to Span) Span {
	return Span{Start: from.Start, End: to.End}
}

// Expressions

type Identifier struct {
	Token Token
}

func (n Identifier) expressionNode() {}
func (n Identifier) Name() string    { return n.Token.Payload }
func (n Identifier) String() string  { return n.Token.Payload }
func (n Identifier) Span() Span      { return n.Token.Span }

// IntegerLiteral keeps the digits unparsed; consumers convert them.
type IntegerLiteral struct {
	Token Token
}

func (n IntegerLiteral) expressionNode() {}
func (n IntegerLiteral) String() string  { return n.Token.Payload }
func (n IntegerLiteral) Span() Span      { return n.Token.Span }

type BooleanLiteral struct {
	Token Token
}

func (n BooleanLiteral) expressionNode() {}
func (n BooleanLiteral) Value() bool     { return n.Token.Kind == TRUE }
func (n BooleanLiteral) String() string  { return n.Token.Kind.String() }
func (n BooleanLiteral) Span() Span      { return n.Token.Span }

type UnaryOp struct {
	Operator Token
	Operand  Expression
}

func (n UnaryOp) expressionNode() {}

func (n UnaryOp) String() string {
	return "(" + n.Operator.Kind.String() + n.Operand.String() + ")"
}

func (n UnaryOp) Span() Span {
	return spanning(n.Operator.Span, n.Operand.Span())
}

type BinaryOp struct {
	Operator Token
	Left     Expression
	Right    Expression
}

func (n BinaryOp) expressionNode() {}

func (n BinaryOp) String() string {
	return "(" + n.Left.String() + " " + n.Operator.Kind.String() + " " + n.Right.String() + ")"
}

func (n BinaryOp) Span() Span {
	return spanning(n.Left.Span(), n.Right.Span())
}

type Block struct {
	Token      Token // {
	Statements []Statement
	Close      Token // }
}

func (n Block) expressionNode() {}

func (n Block) String() string {
	if len(n.Statements) == 0 {
		return "{ }"
	}
	return "{ " + joinStatements(n.Statements, " ") + " }"
}

func (n Block) Span() Span {
	return spanning(n.Token.Span, n.Close.Span)
}

type If struct {
	Token       Token
	Condition   Expression
	Consequence Block
	Alternative *Block
}

func (n If) expressionNode() {}

func (n If) String() string {
	out := "if " + n.Condition.String() + " " + n.Consequence.String()
	if n.Alternative != nil {
		out += " else " + n.Alternative.String()
	}
	return out
}

func (n If) Span() Span {
	if n.Alternative != nil {
		return spanning(n.Token.Span, n.Alternative.Span())
	}
	return spanning(n.Token.Span, n.Consequence.Span())
}

type FunctionLiteral struct {
	Token      Token
	Parameters []Identifier
	Body       Block
}

func (n FunctionLiteral) expressionNode() {}

func (n FunctionLiteral) String() string {
	params := make([]string, len(n.Parameters))
	for i, p := range n.Parameters {
		params[i] = p.String()
	}
	return "fn(" + strings.Join(params, ", ") + ") " + n.Body.String()
}

func (n FunctionLiteral) Span() Span {
	return spanning(n.Token.Span, n.Body.Span())
}

type Call struct {
	Token     Token // (
	Callee    Expression
	Arguments []Expression
	Close     Token // )
}

func (n Call) expressionNode() {}

func (n Call) String() string {
	return n.Callee.String() + "(" + joinExpressions(n.Arguments) + ")"
}

func (n Call) Span() Span {
	return spanning(n.Callee.Span(), n.Close.Span)
}

// Statements

type LetStatement struct {
	Token Token
	Name  Identifier
	Value Expression
}

func (n LetStatement) statementNode() {}

func (n LetStatement) String() string {
	return "let " + n.Name.String() + " = " + n.Value.String() + ";"
}

func (n LetStatement) Span() Span {
	return spanning(n.Token.Span, n.Value.Span())
}

type ReturnStatement struct {
	Token Token
	Value Expression
}

func (n ReturnStatement) statementNode() {}

func (n ReturnStatement) String() string {
	return "return " + n.Value.String() + ";"
}

func (n ReturnStatement) Span() Span {
	return spanning(n.Token.Span, n.Value.Span())
}

type ExpressionStatement struct {
	Expression Expression
}

func (n ExpressionStatement) statementNode() {}

func (n ExpressionStatement) String() string {
	return n.Expression.String() + ";"
}

func (n ExpressionStatement) Span() Span {
	return n.Expression.Span()
}
