package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
)

func writeScript(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.em")
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestRunFilePrintsResult(t *testing.T) {
	color.NoColor = true
	path := writeScript(t, "let double = fn(x) { x * 2 };\ndouble(21)\n")

	for _, e := range []engine{engineEval, engineVM} {
		t.Run(string(e), func(t *testing.T) {
			var out, errOut strings.Builder
			if err := runFile(&options{engine: e}, path, &out, &errOut); err != nil {
				t.Fatalf("runFile: %v (%s)", err, errOut.String())
			}
			if out.String() != "42\n" {
				t.Fatalf("expected 42, got %q", out.String())
			}
			if errOut.Len() != 0 {
				t.Fatalf("expected no diagnostics, got %q", errOut.String())
			}
		})
	}
}

func TestRunFileReportsErrorsWithSource(t *testing.T) {
	color.NoColor = true
	path := writeScript(t, "let a = 1;\na + true\n")

	tests := []struct {
		engine engine
		header string
	}{
		{engineEval, "line 2: error: operator + requires int operands, got int and bool"},
		{engineVM, "line 2: runtime error: operator + requires int operands, got int and bool"},
	}

	for _, tt := range tests {
		t.Run(string(tt.engine), func(t *testing.T) {
			var out, errOut strings.Builder
			if err := runFile(&options{engine: tt.engine}, path, &out, &errOut); err == nil {
				t.Fatalf("expected the run to fail")
			}
			want := tt.header + "\n  a + true\n    ^\n"
			if errOut.String() != want {
				t.Fatalf("expected\n%s\ngot\n%s", want, errOut.String())
			}
			if out.Len() != 0 {
				t.Fatalf("expected no result on failure, got %q", out.String())
			}
		})
	}
}
