package core

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota
	ILLEGAL

	IDENTIFIER
	INT

	// operators
	PLUS
	MINUS
	ASTERISK
	SLASH
	LESS
	GREATER
	BANG
	ASSIGN // =
	EQ     // ==
	NEQ    // !=

	// delimiters
	COMMA
	SEMICOLON
	LEFT_PAREN
	RIGHT_PAREN
	LEFT_BRACE
	RIGHT_BRACE

	// keywords
	FUNCTION
	LET
	TRUE
	FALSE
	IF
	ELSE
	RETURN
)

var kindNames = map[TokenKind]string{
	EOF:         "end of input",
	ILLEGAL:     "illegal",
	IDENTIFIER:  "identifier",
	INT:         "integer",
	PLUS:        "+",
	MINUS:       "-",
	ASTERISK:    "*",
	SLASH:       "/",
	LESS:        "<",
	GREATER:     ">",
	BANG:        "!",
	ASSIGN:      "=",
	EQ:          "==",
	NEQ:         "!=",
	COMMA:       ",",
	SEMICOLON:   ";",
	LEFT_PAREN:  "(",
	RIGHT_PAREN: ")",
	LEFT_BRACE:  "{",
	RIGHT_BRACE: "}",
	FUNCTION:    "fn",
	LET:         "let",
	TRUE:        "true",
	FALSE:       "false",
	IF:          "if",
	ELSE:        "else",
	RETURN:      "return",
}

func (k TokenKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "<unknown>"
}

var keywords = map[string]TokenKind{
	"fn":     FUNCTION,
	"let":    LET,
	"true":   TRUE,
	"false":  FALSE,
	"if":     IF,
	"else":   ELSE,
	"return": RETURN,
}

// Span is a half-open byte range [Start, End) into the source buffer.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("[%d:%d]", s.Start, s.End)
}

type Token struct {
	Kind    TokenKind
	Span    Span
	Payload string
}

func (t Token) String() string {
	switch t.Kind {
	case IDENTIFIER:
		return fmt.Sprintf("ident(%s)", t.Payload)
	case INT:
		return fmt.Sprintf("int(%s)", t.Payload)
	case ILLEGAL:
		return fmt.Sprintf("illegal(%q)", t.Payload)
	default:
		return t.Kind.String()
	}
}
