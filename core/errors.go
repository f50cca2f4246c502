package core

import (
	"fmt"
	"strings"
)

// CompileError rejects a program the compiler cannot lower.
type CompileError struct {
	Reason string
	Span   Span
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error at %s: %s", e.Span, e.Reason)
}

func (e *CompileError) ErrorWithContext(source string) string {
	return FormatDiagnostic(source, e.Span, "compile error: "+e.Reason)
}

func compileErrorf(span Span, format string, args ...interface{}) *CompileError {
	return &CompileError{Reason: fmt.Sprintf(format, args...), Span: span}
}

// ErrorWithContext shows the failing source line when the compiler recorded
// one, followed by the active function frames.
func (e *RuntimeError) ErrorWithContext(source string) string {
	if !e.located {
		return e.Error()
	}

	out := FormatDiagnostic(source, e.Span, "runtime error: "+e.Message)
	if trace := e.trace(); trace != "" {
		out += "\n" + trace
	}
	return out
}

func (e *ParseError) ErrorWithContext(source string) string {
	span, ok := e.Span()
	if !ok {
		span = Span{Start: len(source), End: len(source)}
	}
	return FormatDiagnostic(source, span, e.message())
}

// FormatDiagnostic renders message followed by the source line holding
// span.Start and a caret underline of the span. The underline stops at the
// end of that line.
//
//	line 2: identifier not found: y
//	  let x = y + 1
//	          ^
func FormatDiagnostic(source string, span Span, message string) string {
	start := clamp(span.Start, 0, len(source))
	end := clamp(span.End, start, len(source))

	lineStart := strings.LastIndexByte(source[:start], '\n') + 1
	lineEnd := strings.IndexByte(source[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(source)
	} else {
		lineEnd += start
	}
	if end > lineEnd {
		end = lineEnd
	}

	lineNumber := strings.Count(source[:lineStart], "\n") + 1
	line := source[lineStart:lineEnd]

	// tabs keep their width in the padding so the caret lines up
	var pad strings.Builder
	for _, r := range source[lineStart:start] {
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}

	width := end - start
	if width < 1 {
		width = 1
	}

	return fmt.Sprintf("line %d: %s\n  %s\n  %s%s", lineNumber, message, line, pad.String(), strings.Repeat("^", width))
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
