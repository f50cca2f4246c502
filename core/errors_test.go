package core

import (
	"strings"
	"testing"
)

func TestFormatDiagnostic(t *testing.T) {
	source := "let a = 1;\nlet b = a + true;\nb"
	got := FormatDiagnostic(source, Span{Start: 19, End: 27}, "boom")

	want := "line 2: boom\n  let b = a + true;\n          ^^^^^^^^"
	if got != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestFormatDiagnosticClampsToLine(t *testing.T) {
	source := "{ 1\n2 }"
	got := FormatDiagnostic(source, Span{Start: 0, End: len(source)}, "wide")
	if !strings.HasSuffix(got, "  { 1\n  ^^^") {
		t.Fatalf("expected underline to stop at the end of line 1, got\n%s", got)
	}
}

func TestFormatDiagnosticAtEnd(t *testing.T) {
	source := "1 +"
	got := FormatDiagnostic(source, Span{Start: 3, End: 3}, "eof")
	if !strings.HasSuffix(got, "  1 +\n     ^") {
		t.Fatalf("expected a caret past the last character, got\n%q", got)
	}
}

func TestParseErrorWithContext(t *testing.T) {
	source := "let x = 1;\nlet = 2"
	_, err := Parse(source)
	parseErr, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %v", err)
	}

	got := parseErr.ErrorWithContext(source)
	if !strings.HasPrefix(got, `line 2: parse error: expected "identifier", found =`) {
		t.Fatalf("unexpected diagnostic\n%s", got)
	}
}

func TestCompileErrorWithContext(t *testing.T) {
	source := "1 + nope"
	_, err := Compile(mustParse(t, source))
	compileErr, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("expected *CompileError, got %v", err)
	}

	want := "line 1: compile error: undefined identifier nope\n  1 + nope\n      ^^^^"
	if got := compileErr.ErrorWithContext(source); got != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestRuntimeErrorWithContext(t *testing.T) {
	source := "let f = fn(n) { 10 / n };\nf(0)"
	err := NewVM(mustCompile(t, source)).Run()
	runtimeErr, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected *RuntimeError, got %T: %v", err, err)
	}

	want := "line 1: runtime error: division by zero\n  let f = fn(n) { 10 / n };\n                     ^\n  in fn f at [19:20]"
	if got := runtimeErr.ErrorWithContext(source); got != want {
		t.Fatalf("expected\n%s\ngot\n%s", want, got)
	}
}

func TestRuntimeErrorWithoutPosition(t *testing.T) {
	err := &RuntimeError{Message: "boom"}
	if got := err.ErrorWithContext("1"); got != "runtime error: boom" {
		t.Fatalf("expected the plain message, got %q", got)
	}
}
