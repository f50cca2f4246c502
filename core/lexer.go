package core

import (
	"unicode/utf8"
)

// TokenSource is a forward-only token sequence. Once it yields EOF it keeps
// yielding EOF.
type TokenSource interface {
	Next() Token
}

type Tokenizer struct {
	source string
	index  int
}

func NewTokenizer(source string) *Tokenizer {
	return &Tokenizer{source: source}
}

func (t *Tokenizer) isEOF() bool {
	return t.index >= len(t.source)
}

func (t *Tokenizer) peek() byte {
	if t.isEOF() {
		return 0
	}
	return t.source[t.index]
}

func (t *Tokenizer) peekAhead(n int) byte {
	if t.index+n >= len(t.source) {
		return 0
	}
	return t.source[t.index+n]
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// skipTrivia skips whitespace and // line comments.
func (t *Tokenizer) skipTrivia() {
	for !t.isEOF() {
		ch := t.peek()
		if isSpace(ch) {
			t.index++
		} else if ch == '/' && t.peekAhead(1) == '/' {
			for !t.isEOF() && t.peek() != '\n' {
				t.index++
			}
		} else {
			return
		}
	}
}

func (t *Tokenizer) readWhile(pred func(byte) bool) string {
	start := t.index
	for !t.isEOF() && pred(t.peek()) {
		t.index++
	}
	return t.source[start:t.index]
}

func (t *Tokenizer) token(kind TokenKind, start int) Token {
	return Token{Kind: kind, Span: Span{Start: start, End: t.index}}
}

// Next scans the next token using maximal munch.
func (t *Tokenizer) Next() Token {
	t.skipTrivia()

	start := t.index
	if t.isEOF() {
		return t.token(EOF, start)
	}

	ch := t.peek()
	switch {
	case isLetter(ch):
		word := t.readWhile(func(c byte) bool { return isLetter(c) || isDigit(c) })
		if kind, ok := keywords[word]; ok {
			return t.token(kind, start)
		}
		tok := t.token(IDENTIFIER, start)
		tok.Payload = word
		return tok
	case isDigit(ch):
		digits := t.readWhile(isDigit)
		tok := t.token(INT, start)
		tok.Payload = digits
		return tok
	}

	t.index++
	switch ch {
	case '=':
		if t.peek() == '=' {
			t.index++
			return t.token(EQ, start)
		}
		return t.token(ASSIGN, start)
	case '!':
		if t.peek() == '=' {
			t.index++
			return t.token(NEQ, start)
		}
		return t.token(BANG, start)
	case '+':
		return t.token(PLUS, start)
	case '-':
		return t.token(MINUS, start)
	case '*':
		return t.token(ASTERISK, start)
	case '/':
		return t.token(SLASH, start)
	case '<':
		return t.token(LESS, start)
	case '>':
		return t.token(GREATER, start)
	case ',':
		return t.token(COMMA, start)
	case ';':
		return t.token(SEMICOLON, start)
	case '(':
		return t.token(LEFT_PAREN, start)
	case ')':
		return t.token(RIGHT_PAREN, start)
	case '{':
		return t.token(LEFT_BRACE, start)
	case '}':
		return t.token(RIGHT_BRACE, start)
	}

	// swallow the whole rune so spans never split a UTF-8 sequence
	t.index = start
	_, size := utf8.DecodeRuneInString(t.source[start:])
	t.index += size
	tok := t.token(ILLEGAL, start)
	tok.Payload = t.source[start:t.index]
	return tok
}

// Tokenize drains the tokenizer, excluding the final EOF token.
func (t *Tokenizer) Tokenize() []Token {
	tokens := []Token{}
	for {
		tok := t.Next()
		if tok.Kind == EOF {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}
