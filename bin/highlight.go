package main

import (
	"strings"

	"github.com/alecthomas/chroma"
	"github.com/alecthomas/chroma/formatters"
	"github.com/alecthomas/chroma/styles"
)

var emberLexer = chroma.MustNewLazyLexer(
	&chroma.Config{
		Name:      "Ember",
		Aliases:   []string{"ember"},
		Filenames: []string{"*.em"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `\s+`, Type: chroma.Text},
				{Pattern: `//[^\n]*`, Type: chroma.CommentSingle},
				{Pattern: `\b(fn|let|if|else|return)\b`, Type: chroma.Keyword},
				{Pattern: `\b(true|false)\b`, Type: chroma.KeywordConstant},
				{Pattern: `[0-9]+`, Type: chroma.NumberInteger},
				{Pattern: `[A-Za-z_][A-Za-z0-9_]*`, Type: chroma.Name},
				{Pattern: `==|!=|[-+*/<>!=]`, Type: chroma.Operator},
				{Pattern: `[(){},;]`, Type: chroma.Punctuation},
				{Pattern: `.`, Type: chroma.Error},
			},
		}
	},
)

var (
	highlightStyle     = styles.Get("monokai")
	highlightFormatter = formatters.Get("terminal256")
)

// highlight colors one REPL line. The line is returned unchanged if chroma
// fails, so editing never breaks.
func highlight(line []rune) string {
	text := string(line)

	iterator, err := emberLexer.Tokenise(nil, text)
	if err != nil {
		return text
	}

	var out strings.Builder
	if err := highlightFormatter.Format(&out, highlightStyle, iterator); err != nil {
		return text
	}

	return out.String()
}
