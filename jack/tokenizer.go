package jack

import (
	"fmt"
	"strings"
)

var keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true, "int": true, "char": true,
	"boolean": true, "void": true, "true": true, "false": true, "null": true,
	"this": true, "let": true, "do": true, "if": true, "else": true,
	"while": true, "return": true,
}

const symbolChars = "{}()[].,;+-*/&|<>=~"

func isSymbolChar(c rune) bool {
	return strings.ContainsRune(symbolChars, c)
}

func isIdentifierChar(c rune) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || isDigit(c)
}

func isDigit(c rune) bool {
	return '0' <= c && c <= '9'
}

// Tokenizer scans a Jack source text into a token stream with a one-token
// lookahead buffer. The current position never moves backward.
type Tokenizer struct {
	path      string
	content   []rune
	idx       int
	line      int
	lineStart int
	peeked    *Token
}

func NewTokenizer(path string, src []byte) *Tokenizer {
	return &Tokenizer{
		path:    path,
		content: []rune(string(src)),
		line:    1,
	}
}

// column is the 1-based column of the rune at index i on the current line.
func (t *Tokenizer) column(i int) int {
	return i - t.lineStart + 1
}

func (t *Tokenizer) fail(line, column int, format string, args ...interface{}) {
	panic(&SourceError{
		Message: fmt.Sprintf(format, args...),
		Path:    t.path,
		Line:    line,
		Column:  column,
	})
}

func (t *Tokenizer) newline() {
	t.idx++
	t.line++
	t.lineStart = t.idx
}

// skipBlanks discards whitespace and comments up to the next token or EOF.
func (t *Tokenizer) skipBlanks() {
	for t.idx < len(t.content) {
		switch c := t.content[t.idx]; {
		case c == '\n':
			t.newline()
		case c == ' ' || c == '\t' || c == '\r':
			t.idx++
		case c == '/' && t.idx+1 < len(t.content) && t.content[t.idx+1] == '/':
			t.skipLineComment()
		case c == '/' && t.idx+1 < len(t.content) && t.content[t.idx+1] == '*':
			t.skipBlockComment()
		default:
			return
		}
	}
}

func (t *Tokenizer) skipLineComment() {
	for t.idx < len(t.content) && t.content[t.idx] != '\n' {
		t.idx++
	}
}

func (t *Tokenizer) skipBlockComment() {
	line, column := t.line, t.column(t.idx)
	t.idx += 2
	for t.idx < len(t.content) {
		switch {
		case t.content[t.idx] == '\n':
			t.newline()
		case t.content[t.idx] == '*' && t.idx+1 < len(t.content) && t.content[t.idx+1] == '/':
			t.idx += 2
			return
		default:
			t.idx++
		}
	}
	t.fail(line, column, "unclosed multi line comment /*")
}

// HasMore reports whether any token remains beyond whitespace and comments.
func (t *Tokenizer) HasMore() bool {
	if t.peeked != nil {
		return true
	}
	t.skipBlanks()
	return t.idx < len(t.content)
}

// Peek returns the next token without consuming it.
func (t *Tokenizer) Peek() Token {
	if t.peeked != nil {
		return *t.peeked
	}
	if !t.HasMore() {
		t.fail(t.line, t.column(t.idx), "expecting more tokens")
	}
	token := t.scanToken()
	t.peeked = &token
	return token
}

// Consume returns the next token and advances past it.
func (t *Tokenizer) Consume() Token {
	token := t.Peek()
	t.peeked = nil
	return token
}

// Matches reports whether the next token has the given type and, if content
// values are given, one of those contents.
func (t *Tokenizer) Matches(tokenType TokenType, content ...string) bool {
	return t.Peek().Is(tokenType, content...)
}

// Expect consumes the next token, failing unless type and content match.
func (t *Tokenizer) Expect(tokenType TokenType, content ...string) Token {
	token := t.Peek()
	if !token.Is(tokenType, content...) {
		expected := "ANY"
		if len(content) > 0 {
			expected = strings.Join(content, "|")
		}
		t.fail(token.Line, token.Column,
			"expected %s(%s), found %s(%s)", tokenType, expected, token.Type, token.Content)
	}
	t.peeked = nil
	return token
}

// scanToken reads the token starting at the current position. skipBlanks must
// have run, so the current rune starts a token.
func (t *Tokenizer) scanToken() Token {
	line, column := t.line, t.column(t.idx)
	c := t.content[t.idx]

	switch {
	case c == '"':
		return t.scanStringConstant(line, column)
	case isSymbolChar(c):
		t.idx++
		return Token{Type: Symbol, Content: string(c), Line: line, Column: column}
	case isIdentifierChar(c):
		start := t.idx
		for t.idx < len(t.content) && isIdentifierChar(t.content[t.idx]) {
			t.idx++
		}
		word := string(t.content[start:t.idx])
		return t.classifyWord(word, line, column)
	default:
		t.fail(line, column, "illegal token %q", string(c))
	}
	panic("unreachable")
}

func (t *Tokenizer) scanStringConstant(line, column int) Token {
	start := t.idx + 1
	for i := start; i < len(t.content); i++ {
		switch t.content[i] {
		case '"':
			t.idx = i + 1
			return Token{
				Type:    StringConstant,
				Content: string(t.content[start:i]),
				Line:    line,
				Column:  column,
			}
		case '\n':
			t.fail(line, column, "unclosed double quote \"")
		}
	}
	t.fail(line, column, "unclosed double quote \"")
	panic("unreachable")
}

func (t *Tokenizer) classifyWord(word string, line, column int) Token {
	token := Token{Content: word, Line: line, Column: column}
	switch {
	case keywords[word]:
		token.Type = Keyword
	case allDigits(word):
		token.Type = IntegerConstant
	case isDigit(rune(word[0])):
		t.fail(line, column, "illegal token %q", word)
	default:
		token.Type = Identifier
	}
	return token
}

func allDigits(s string) bool {
	for _, c := range s {
		if !isDigit(c) {
			return false
		}
	}
	return true
}

func escapeXML(content string) string {
	for _, toReplace := range [][]string{{"&", "&amp;"}, {"<", "&lt;"}, {">", "&gt;"}, {"\"", "&quot;"}} {
		content = strings.ReplaceAll(content, toReplace[0], toReplace[1])
	}
	return content
}

// XML drains the tokenizer into the <tokens> debug listing.
func (t *Tokenizer) XML() string {
	var b strings.Builder
	b.WriteString("<tokens>\n")
	for t.HasMore() {
		token := t.Consume()
		fmt.Fprintf(&b, "<%s> %s </%s>\n", token.Type, escapeXML(token.Content), token.Type)
	}
	b.WriteString("</tokens>\n")
	return b.String()
}

// TokensXML scans src to the XML token listing, recovering lexical errors.
func TokensXML(path string, src []byte) (xml string, err error) {
	defer recoverSourceError(&err)
	return NewTokenizer(path, src).XML(), nil
}
