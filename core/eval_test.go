package core

import (
	"strings"
	"testing"
)

func mustEval(t *testing.T, source string) Object {
	t.Helper()
	return Evaluate(mustParse(t, source))
}

func expectInteger(t *testing.T, obj Object, want int64) {
	t.Helper()
	got, ok := obj.(Integer)
	if !ok {
		t.Fatalf("expected integer %d, got %s (%s)", want, obj.Type(), obj)
	}
	if int64(got) != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func expectBoolean(t *testing.T, obj Object, want bool) {
	t.Helper()
	got, ok := obj.(Boolean)
	if !ok {
		t.Fatalf("expected boolean %t, got %s (%s)", want, obj.Type(), obj)
	}
	if bool(got) != want {
		t.Fatalf("expected %t, got %t", want, got)
	}
}

func expectNull(t *testing.T, obj Object) {
	t.Helper()
	if _, ok := obj.(Null); !ok {
		t.Fatalf("expected null, got %s (%s)", obj.Type(), obj)
	}
}

func expectError(t *testing.T, obj Object, contains string) Error {
	t.Helper()
	errObj, ok := obj.(Error)
	if !ok {
		t.Fatalf("expected error containing %q, got %s (%s)", contains, obj.Type(), obj)
	}
	if !strings.Contains(errObj.Message, contains) {
		t.Fatalf("expected error containing %q, got %q", contains, errObj.Message)
	}
	return errObj
}

func TestEvalIntegerExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"5", 5},
		{"-5", -5},
		{"+5", 5},
		{"--5", 5},
		{"5 + 5 + 5 + 5 - 10", 10},
		{"2 * 2 * 2 * 2 * 2", 32},
		{"-50 + 100 + -50", 0},
		{"5 * 2 + 10", 20},
		{"5 + 2 * 10", 25},
		{"50 / 2 * 2 + 10", 60},
		{"2 * (5 + 10)", 30},
		{"3 * (3 * 3) + 10", 37},
		{"(5 + 10 * 2 + 15 / 3) * 2 + -10", 50},
		{"7 / 2", 3},
		{"-7 / 2", -3},
		{"10 - 2 - 3", 5},
		{"let fifteen = 15; let five = 5; fifteen * (2 + five)", 105},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectInteger(t, mustEval(t, tt.input), tt.want)
		})
	}
}

func TestEvalBooleanExpressions(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"true", true},
		{"false", false},
		{"1 < 2", true},
		{"1 > 2", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"true == true", true},
		{"true != false", true},
		{"(1 < 2) == true", true},
		{"1 < 2 == true", true},
		{"3 + 4 * 5 == 3 * 1 + 4 * 5", true},
		{"!true", false},
		{"!5", false},
		{"!!5", true},
		{"!0", false},
		{"!if (false) { 1 }", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectBoolean(t, mustEval(t, tt.input), tt.want)
		})
	}
}

func TestEvalNullEquality(t *testing.T) {
	expectBoolean(t, mustEval(t, "let a = if (false) { 1 }; a == if (false) { 2 }"), true)
}

func TestEvalIfElse(t *testing.T) {
	tests := []struct {
		input string
		want  interface{}
	}{
		{"if (true) { 10 }", int64(10)},
		{"if (false) { 10 }", nil},
		{"if (1) { 10 }", int64(10)},
		{"if (1 < 2) { 10 } else { 20 }", int64(10)},
		{"if (1 > 2) { 10 } else { 20 }", int64(20)},
		{"if (true) { }", nil},
		{"if (true) { let x = 1 }", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			obj := mustEval(t, tt.input)
			if want, ok := tt.want.(int64); ok {
				expectInteger(t, obj, want)
				return
			}
			expectNull(t, obj)
		})
	}
}

func TestEvalReturn(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"return 10; 9", 10},
		{"9; return 2 * 5; 9", 10},
		{"if (10 > 1) { if (10 > 1) { return 10; } return 1; }", 10},
		{"let f = fn(x) { if (x > 0) { return x; } 0 - x }; f(-4)", 4},
		{"let f = fn() { { return 1; } 2 }; f() + 10", 11},
		{"let x = { return 5 }; 1", 5},
		{"1 + { return 2 }", 2},
		{"let f = fn(a) { a }; f({ return 7 }); 3", 7},
		{"if ({ return 8 }) { 1 }", 8},
		{"let f = fn() { let y = { return 3 }; 4 }; f() + 10", 13},
		{"let f = fn() { 1 + { return 6 } }; let g = fn() { f() * 2 }; g()", 12},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectInteger(t, mustEval(t, tt.input), tt.want)
		})
	}
}

func TestEvalLet(t *testing.T) {
	expectInteger(t, mustEval(t, "let a = 5; a"), 5)
	expectInteger(t, mustEval(t, "let a = 5; let b = a; let c = a + b + 5; c"), 15)
	expectInteger(t, mustEval(t, "let a = 1; let a = a + 1; a"), 2)
	expectNull(t, mustEval(t, "let a = 5"))
	expectNull(t, mustEval(t, ""))
}

func TestEvalBlockScope(t *testing.T) {
	expectInteger(t, mustEval(t, "{ let e = 42; e + 32 }"), 74)
}

func TestEvalFunctions(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"let identity = fn(x) { x; }; identity(5);", 5},
		{"let identity = fn(x) { return x; }; identity(5);", 5},
		{"let double = fn(x) { x * 2; }; double(5);", 10},
		{"let add = fn(x, y) { x + y; }; add(5, 5);", 10},
		{"let add = fn(x, y) { x + y; }; add(5 + 5, add(5, 5));", 20},
		{"fn(x) { x; }(5)", 5},
		{"let newAdder = fn(x) { fn(y) { x + y } }; newAdder(2)(3)", 5},
		{"let newAdder = fn(x) { fn(y) { x + y } }; let addThree = newAdder(3); addThree(10)", 13},
		{"let fact = fn(n) { if (n < 2) { 1 } else { n * fact(n - 1) } }; fact(10)", 3628800},
		{"let x = 10; let f = fn() { let x = 1; x }; f() + x", 11},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectInteger(t, mustEval(t, tt.input), tt.want)
		})
	}
}

func TestEvalEmptyFunctionIsNull(t *testing.T) {
	expectNull(t, mustEval(t, "fn() { }()"))
	expectNull(t, mustEval(t, "fn() { let a = 1 }()"))
}

func TestEvalClosureSharesEnvironment(t *testing.T) {
	// the closure sees bindings added to its defining scope after creation
	expectInteger(t, mustEval(t, "let f = fn() { later }; let later = 7; f()"), 7)
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"true + 1", "operator + requires int operands, got bool and int"},
		{"5 + true; 5;", "operator + requires int operands, got int and bool"},
		{"-true", "operand of unary - must be int, got bool"},
		{"1 == true", "operator ==/!= is not defined for int and bool"},
		{"true < false", "operator < requires int operands, got bool and bool"},
		{"if (10 > 1) { true + false; }", "operator + requires int operands"},
		{"foobar", "identifier not found: foobar"},
		{"5 / 0", "division by zero"},
		{"let f = fn(x) { x }; f(1, 2)", "wrong number of arguments: expected 1, got 2"},
		{"let f = fn(x, y) { x }; f()", "wrong number of arguments: expected 2, got 0"},
		{"let add = fn(a, b) { a + b }; add(1, 2, 3)", "wrong number of arguments: expected 2, got 3"},
		{"5(1)", "not a function: int"},
		{"99999999999999999999", "integer literal 99999999999999999999 out of range"},
		{"let f = fn() { f() }; f()", "stack overflow"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			expectError(t, mustEval(t, tt.input), tt.want)
		})
	}
}

func TestEvalErrorSpan(t *testing.T) {
	errObj := expectError(t, mustEval(t, "let a = 1;\na + true"), "requires int operands")
	if errObj.Span != (Span{13, 14}) {
		t.Fatalf("expected the span of +, got %s", errObj.Span)
	}
}

func TestEvaluatorKeepsGlobals(t *testing.T) {
	ev := NewEvaluator()
	expectNull(t, ev.Eval(mustParse(t, "let x = 40")))
	expectInteger(t, ev.Eval(mustParse(t, "x + 2")), 42)

	if names := ev.Globals(); len(names) != 1 || names[0] != "x" {
		t.Fatalf("expected globals [x], got %v", names)
	}
	if v, ok := ev.Lookup("x"); !ok || v != Integer(40) {
		t.Fatalf("expected x = 40, got %v", v)
	}
}
