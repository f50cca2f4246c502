package core

import (
	"fmt"
	"strconv"
)

// MaxCallDepth bounds nested function calls in the evaluator.
const MaxCallDepth = 1024

// EvalError is an evaluation failure and the token that caused it. It is
// internal to the evaluator and surfaces as an Error object.
type EvalError struct {
	Issue string
	Token Token
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("%s at %s", e.Issue, e.Token.Span)
}

func evalErrorf(tok Token, format string, args ...interface{}) *EvalError {
	return &EvalError{Issue: fmt.Sprintf(format, args...), Token: tok}
}

// Evaluator walks the AST directly. Its global environment persists across
// calls to Eval.
type Evaluator struct {
	envs   *Environments
	global EnvID
	depth  int
}

func NewEvaluator() *Evaluator {
	envs := NewEnvironments()
	return &Evaluator{
		envs:   envs,
		global: envs.New(NoEnv),
	}
}

// Evaluate runs program in a fresh evaluator.
func Evaluate(program *Program) Object {
	return NewEvaluator().Eval(program)
}

// Eval runs program in the evaluator's global environment. Failures are
// returned as Error objects, never as panics.
func (ev *Evaluator) Eval(program *Program) Object {
	ev.depth = 0

	result, err := ev.evalStatements(program.Statements, ev.global)
	if ret, ok := err.(ReturnValue); ok {
		return ret.Value
	}
	if err != nil {
		if evalErr, ok := err.(*EvalError); ok {
			return Error{Message: evalErr.Issue, Span: evalErr.Token.Span}
		}
		return Error{Message: err.Error()}
	}

	return result
}

// Globals lists the names bound in the global environment.
func (ev *Evaluator) Globals() []string {
	return ev.envs.Names(ev.global)
}

// Lookup resolves name in the global environment.
func (ev *Evaluator) Lookup(name string) (Object, bool) {
	return ev.envs.Get(ev.global, name)
}

// evalStatements runs stmts in order. A return comes back as a ReturnValue
// error and unwinds every enclosing expression until evalCall or Eval.
func (ev *Evaluator) evalStatements(stmts []Statement, env EnvID) (Object, error) {
	var result Object = null

	for _, stmt := range stmts {
		value, err := ev.evalStatement(stmt, env)
		if err != nil {
			return nil, err
		}
		result = value
	}

	return result, nil
}

func (ev *Evaluator) evalStatement(stmt Statement, env EnvID) (Object, error) {
	switch stmt := stmt.(type) {
	case LetStatement:
		value, err := ev.evalExpression(stmt.Value, env)
		if err != nil {
			return nil, err
		}
		ev.envs.Set(env, stmt.Name.Name(), value)
		return null, nil
	case ReturnStatement:
		value, err := ev.evalExpression(stmt.Value, env)
		if err != nil {
			return nil, err
		}
		return nil, ReturnValue{Value: value}
	case ExpressionStatement:
		return ev.evalExpression(stmt.Expression, env)
	}

	return nil, fmt.Errorf("unknown statement %T", stmt)
}

func (ev *Evaluator) evalExpression(expr Expression, env EnvID) (Object, error) {
	switch node := expr.(type) {
	case Identifier:
		value, ok := ev.envs.Get(env, node.Name())
		if !ok {
			return nil, evalErrorf(node.Token, "identifier not found: %s", node.Name())
		}
		return value, nil

	case IntegerLiteral:
		n, err := strconv.ParseInt(node.Token.Payload, 10, 64)
		if err != nil {
			return nil, evalErrorf(node.Token, "integer literal %s out of range", node.Token.Payload)
		}
		return Integer(n), nil

	case BooleanLiteral:
		return Boolean(node.Value()), nil

	case UnaryOp:
		operand, err := ev.evalExpression(node.Operand, env)
		if err != nil {
			return nil, err
		}
		result, err := unaryOperation(node.Operator.Kind, operand)
		if err != nil {
			return nil, evalErrorf(node.Operator, "%s", err)
		}
		return result, nil

	case BinaryOp:
		left, err := ev.evalExpression(node.Left, env)
		if err != nil {
			return nil, err
		}
		right, err := ev.evalExpression(node.Right, env)
		if err != nil {
			return nil, err
		}
		result, err := binaryOperation(node.Operator.Kind, left, right)
		if err != nil {
			return nil, evalErrorf(node.Operator, "%s", err)
		}
		return result, nil

	case Block:
		return ev.evalStatements(node.Statements, env)

	case If:
		cond, err := ev.evalExpression(node.Condition, env)
		if err != nil {
			return nil, err
		}
		if truthy(cond) {
			return ev.evalStatements(node.Consequence.Statements, env)
		}
		if node.Alternative != nil {
			return ev.evalStatements(node.Alternative.Statements, env)
		}
		return null, nil

	case FunctionLiteral:
		return &Function{Parameters: node.Parameters, Body: node.Body, Env: env}, nil

	case Call:
		return ev.evalCall(node, env)
	}

	return nil, fmt.Errorf("unknown expression %T", expr)
}

func (ev *Evaluator) evalCall(node Call, env EnvID) (Object, error) {
	callee, err := ev.evalExpression(node.Callee, env)
	if err != nil {
		return nil, err
	}

	fn, ok := callee.(*Function)
	if !ok {
		return nil, evalErrorf(node.Token, "not a function: %s", callee.Type())
	}

	args := make([]Object, len(node.Arguments))
	for i, arg := range node.Arguments {
		value, err := ev.evalExpression(arg, env)
		if err != nil {
			return nil, err
		}
		args[i] = value
	}

	if len(args) != len(fn.Parameters) {
		return nil, evalErrorf(node.Token, "wrong number of arguments: expected %d, got %d", len(fn.Parameters), len(args))
	}

	if ev.depth >= MaxCallDepth {
		return nil, evalErrorf(node.Token, "stack overflow")
	}
	ev.depth++
	defer func() { ev.depth-- }()

	// the call scope encloses the definition scope, not the caller's
	callEnv := ev.envs.New(fn.Env)
	for i, param := range fn.Parameters {
		ev.envs.Set(callEnv, param.Name(), args[i])
	}

	result, err := ev.evalStatements(fn.Body.Statements, callEnv)
	if ret, ok := err.(ReturnValue); ok {
		return ret.Value, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
