package core

import (
	"fmt"
	"strconv"
	"strings"
)

type ObjectType int

const (
	NullType ObjectType = iota
	IntegerType
	BooleanType
	ErrorType
	ReturnType
	FunctionType
	CompiledFunctionType
	ClosureType
)

var objectTypeNames = map[ObjectType]string{
	NullType:             "null",
	IntegerType:          "int",
	BooleanType:          "bool",
	ErrorType:            "error",
	ReturnType:           "return",
	FunctionType:         "function",
	CompiledFunctionType: "compiled function",
	ClosureType:          "closure",
}

func (t ObjectType) String() string {
	return objectTypeNames[t]
}

// Object is a runtime value shared by the evaluator, the constant pool and
// the VM.
type Object interface {
	Type() ObjectType
	String() string
}

type Null struct{}

func (Null) Type() ObjectType { return NullType }
func (Null) String() string   { return "null" }

var null = Null{}

type Integer int64

func (v Integer) Type() ObjectType { return IntegerType }
func (v Integer) String() string   { return strconv.FormatInt(int64(v), 10) }

type Boolean bool

func (v Boolean) Type() ObjectType { return BooleanType }
func (v Boolean) String() string   { return strconv.FormatBool(bool(v)) }

// Error is the visible form of an evaluation failure.
type Error struct {
	Message string
	Span    Span
}

func (v Error) Type() ObjectType { return ErrorType }

func (v Error) String() string {
	return fmt.Sprintf("ERROR %s: %s", v.Span, v.Message)
}

// ReturnValue carries a returned value up to the enclosing function or
// program. The evaluator moves it along the error path, so every enclosing
// expression stops as soon as a return runs. It never escapes the evaluator.
type ReturnValue struct {
	Value Object
}

func (v ReturnValue) Type() ObjectType { return ReturnType }
func (v ReturnValue) String() string   { return v.Value.String() }
func (v ReturnValue) Error() string    { return "return " + v.Value.String() }

// Function is a tree-walking closure. Env is the environment live at the
// definition site, shared with every other closure created there.
type Function struct {
	Parameters []Identifier
	Body       Block
	Env        EnvID
}

func (v *Function) Type() ObjectType { return FunctionType }

func (v *Function) String() string {
	params := make([]string, len(v.Parameters))
	for i, p := range v.Parameters {
		params[i] = p.Name()
	}
	return "fn(" + strings.Join(params, ", ") + ") " + v.Body.String()
}

// CompiledFunction is a function body lowered to bytecode; it lives in the
// constant pool.
type CompiledFunction struct {
	Instructions  Instructions
	NumLocals     int
	NumParameters int

	// Name is the let binding the function was compiled under, if any.
	Name      string
	Positions Positions
}

func (v *CompiledFunction) Type() ObjectType { return CompiledFunctionType }

func (v *CompiledFunction) String() string {
	return fmt.Sprintf("<compiled fn/%d>", v.NumParameters)
}

// Closure pairs a compiled function with the free variables it captured.
type Closure struct {
	Fn   *CompiledFunction
	Free []Object
}

func (v *Closure) Type() ObjectType { return ClosureType }

func (v *Closure) String() string {
	return fmt.Sprintf("<closure fn/%d>", v.Fn.NumParameters)
}

// truthy reports the truthiness of v: only null and false are falsy.
func truthy(v Object) bool {
	switch v := v.(type) {
	case Null:
		return false
	case Boolean:
		return bool(v)
	default:
		return true
	}
}

// The operations below are shared by both engines so that they agree on
// every result and every error message.

func unaryOperation(op TokenKind, operand Object) (Object, error) {
	switch op {
	case BANG:
		return Boolean(!truthy(operand)), nil
	case PLUS, MINUS:
		value, ok := operand.(Integer)
		if !ok {
			return nil, fmt.Errorf("operand of unary %s must be int, got %s", op, operand.Type())
		}
		if op == MINUS {
			return -value, nil
		}
		return value, nil
	}
	return nil, fmt.Errorf("unknown unary operator %s", op)
}

func binaryOperation(op TokenKind, left, right Object) (Object, error) {
	switch op {
	case EQ, NEQ:
		equal, err := objectsEqual(left, right)
		if err != nil {
			return nil, err
		}
		if op == NEQ {
			return Boolean(!equal), nil
		}
		return Boolean(equal), nil
	case PLUS, MINUS, ASTERISK, SLASH, LESS, GREATER:
		a, aok := left.(Integer)
		b, bok := right.(Integer)
		if !aok || !bok {
			return nil, fmt.Errorf("operator %s requires int operands, got %s and %s", op, left.Type(), right.Type())
		}
		return integerOperation(op, a, b)
	}
	return nil, fmt.Errorf("unknown binary operator %s", op)
}

func integerOperation(op TokenKind, a, b Integer) (Object, error) {
	switch op {
	case PLUS:
		return a + b, nil
	case MINUS:
		return a - b, nil
	case ASTERISK:
		return a * b, nil
	case SLASH:
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		return a / b, nil
	case LESS:
		return Boolean(a < b), nil
	case GREATER:
		return Boolean(a > b), nil
	}
	return nil, fmt.Errorf("unknown integer operator %s", op)
}

// objectsEqual is defined for null/null, int/int and bool/bool only.
func objectsEqual(left, right Object) (bool, error) {
	switch a := left.(type) {
	case Null:
		if _, ok := right.(Null); ok {
			return true, nil
		}
	case Integer:
		if b, ok := right.(Integer); ok {
			return a == b, nil
		}
	case Boolean:
		if b, ok := right.(Boolean); ok {
			return a == b, nil
		}
	}
	return false, fmt.Errorf("operator ==/!= is not defined for %s and %s", left.Type(), right.Type())
}
