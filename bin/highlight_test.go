package main

import (
	"strings"
	"testing"

	"github.com/alecthomas/chroma"
)

func TestLexerClassifiesTokens(t *testing.T) {
	iterator, err := emberLexer.Tokenise(nil, "let f = fn(x) { x + 42 } // done")
	if err != nil {
		t.Fatalf("tokenise: %v", err)
	}

	kinds := map[string]chroma.TokenType{}
	for _, tok := range iterator.Tokens() {
		if tok.Type != chroma.Text {
			kinds[tok.Value] = tok.Type
		}
	}

	want := map[string]chroma.TokenType{
		"let":     chroma.Keyword,
		"fn":      chroma.Keyword,
		"f":       chroma.Name,
		"42":      chroma.NumberInteger,
		"+":       chroma.Operator,
		"{":       chroma.Punctuation,
		"// done": chroma.CommentSingle,
	}
	for value, kind := range want {
		if kinds[value] != kind {
			t.Errorf("expected %q to be %s, got %s", value, kind, kinds[value])
		}
	}
}

func TestHighlightKeepsText(t *testing.T) {
	got := highlight([]rune("let x = 1"))
	for _, part := range []string{"let", "x", "1"} {
		if !strings.Contains(got, part) {
			t.Fatalf("expected %q in highlighted output %q", part, got)
		}
	}
}
