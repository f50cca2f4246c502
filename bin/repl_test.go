package main

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func runSession(t *testing.T, e engine, input string) string {
	t.Helper()
	color.NoColor = true

	var out strings.Builder
	s := newSession(&options{engine: e}, &out)
	runBufferedREPL(s, strings.NewReader(input))
	return out.String()
}

func TestSessionKeepsState(t *testing.T) {
	input := "let x = 40\nlet add = fn(a) { a + x }\nadd(2)\n"
	for _, e := range []engine{engineEval, engineVM} {
		t.Run(string(e), func(t *testing.T) {
			got := runSession(t, e, input)
			want := "null\nnull\n42\n"
			if got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		})
	}
}

func TestSessionJoinsIncompleteLines(t *testing.T) {
	input := "let f = fn(n) {\n  n * 2\n}\nf(21)\n"
	for _, e := range []engine{engineEval, engineVM} {
		t.Run(string(e), func(t *testing.T) {
			got := runSession(t, e, input)
			if !strings.HasSuffix(got, "42\n") {
				t.Fatalf("expected multi-line function to be accepted, got %q", got)
			}
		})
	}
}

func TestSessionReportsErrorsAndContinues(t *testing.T) {
	got := runSession(t, engineVM, "true + 1\nnope\n1 + 1\n")
	if !strings.Contains(got, "operator + requires int operands") {
		t.Fatalf("expected runtime error, got %q", got)
	}
	if !strings.Contains(got, "undefined identifier nope") {
		t.Fatalf("expected compile error, got %q", got)
	}
	if !strings.HasSuffix(got, "2\n") {
		t.Fatalf("expected the session to keep going, got %q", got)
	}
}

func TestSessionMetaCommands(t *testing.T) {
	got := runSession(t, engineVM, "let b = 2\nlet a = 1\n:env\n:symbols\n:quit\n3\n")
	for _, want := range []string{"a = 1\nb = 2\n", "a GLOBAL 1\nb GLOBAL 0\n"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in %q", want, got)
		}
	}
	if strings.HasSuffix(got, "3\n") {
		t.Fatalf("expected :quit to stop the session, got %q", got)
	}

	got = runSession(t, engineEval, "let z = true\n:env\n")
	if !strings.Contains(got, "z = true\n") {
		t.Fatalf("expected evaluator bindings, got %q", got)
	}
}

func TestReadFlags(t *testing.T) {
	t.Setenv("EMBER_ENGINE", "")

	var opts options
	args, err := readFlags([]string{"ember", "-a", "-e", "eval", "script.em"}, &opts)
	if err != nil {
		t.Fatalf("readFlags: %v", err)
	}
	if !opts.dumpAST || opts.dumpBytecode || opts.engine != engineEval {
		t.Fatalf("unexpected options %+v", opts)
	}
	if len(args) != 1 || args[0] != "script.em" {
		t.Fatalf("expected the script to remain, got %v", args)
	}

	if _, err := readFlags([]string{"ember", "-e", "jit"}, &options{}); err == nil {
		t.Fatalf("expected an unknown engine to be rejected")
	}
}

func TestReadFlagsEngineFromEnvironment(t *testing.T) {
	t.Setenv("EMBER_ENGINE", "eval")

	var opts options
	if _, err := readFlags([]string{"ember"}, &opts); err != nil {
		t.Fatalf("readFlags: %v", err)
	}
	if opts.engine != engineEval {
		t.Fatalf("expected eval from the environment, got %s", opts.engine)
	}
}

func TestSessionDropsLetsOfFailedLine(t *testing.T) {
	got := runSession(t, engineVM, "let x = 1; nope\nx\nlet x = 5\nx\n")
	if strings.Contains(got, "read before assignment") {
		t.Fatalf("expected x to stay undefined after the failed line, got %q", got)
	}
	if !strings.Contains(got, "undefined identifier x") {
		t.Fatalf("expected x to be reported as undefined, got %q", got)
	}
	if !strings.HasSuffix(got, "null\n5\n") {
		t.Fatalf("expected x to be usable once defined, got %q", got)
	}
}
