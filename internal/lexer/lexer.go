package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/funvibe/jackc/internal/token"
)

// MaxInt is the largest integer constant the target machine word can hold.
const MaxInt = 32767

// Error is a lexical error: a malformed literal, an unterminated comment
// or a character outside the language.
type Error struct {
	Line    int
	Column  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int  // current line number
	column       int  // current column number
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

// Tokenize scans the whole input and returns its tokens.
func Tokenize(input string) ([]token.Token, error) {
	l := New(input)
	var tokens []token.Token
	for {
		tok, ok, err := l.NextToken()
		if err != nil {
			return nil, err
		}
		if !ok {
			return tokens, nil
		}
		tokens = append(tokens, tok)
	}
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = l.readPosition
		l.readPosition++
		l.column++
		return
	}

	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) errorf(line, col int, format string, args ...interface{}) *Error {
	return &Error{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// NextToken returns the next token. ok is false once the input is exhausted.
func (l *Lexer) NextToken() (tok token.Token, ok bool, err error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		return token.Token{}, false, err
	}
	if l.atEOF() {
		return token.Token{}, false, nil
	}

	line, col := l.line, l.column

	switch {
	case l.ch == '"':
		lit, err := l.readString()
		if err != nil {
			return token.Token{}, false, err
		}
		return token.Token{Kind: token.StringConst, Literal: lit, Line: line, Column: col}, true, nil
	case isDigit(l.ch):
		lit := l.readNumber()
		n, convErr := strconv.Atoi(lit)
		if convErr != nil || n > MaxInt {
			return token.Token{}, false, l.errorf(line, col, "integer constant %s out of range 0..%d", lit, MaxInt)
		}
		return token.Token{Kind: token.IntConst, Literal: lit, Line: line, Column: col}, true, nil
	case isLetter(l.ch):
		lit := l.readIdentifier()
		return token.Token{Kind: token.LookupIdent(lit), Literal: lit, Line: line, Column: col}, true, nil
	case token.IsSymbol(l.ch):
		tok = token.Token{Kind: token.Symbol, Literal: string(l.ch), Line: line, Column: col}
		l.readChar()
		return tok, true, nil
	default:
		return token.Token{}, false, l.errorf(line, col, "unexpected character %q", l.ch)
	}
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for !l.atEOF() {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r':
			l.readChar()
		case l.ch == '/' && l.peekChar() == '/':
			for !l.atEOF() && l.ch != '\n' {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			line, col := l.line, l.column
			l.readChar() // /
			l.readChar() // *
			for {
				if l.atEOF() {
					return l.errorf(line, col, "unterminated comment")
				}
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					break
				}
				l.readChar()
			}
		default:
			return nil
		}
	}
	return nil
}

func (l *Lexer) readString() (string, error) {
	line, col := l.line, l.column
	l.readChar() // opening quote
	start := l.position
	for l.ch != '"' {
		if l.atEOF() || l.ch == '\n' {
			return "", l.errorf(line, col, "unterminated string constant")
		}
		if l.ch == utf8.RuneError && l.readPosition-l.position == 1 {
			return "", l.errorf(l.line, l.column, "invalid UTF-8 in string constant")
		}
		if l.ch > MaxInt {
			return "", l.errorf(l.line, l.column, "character %U in string constant out of range 0..%d", l.ch, MaxInt)
		}
		l.readChar()
	}
	lit := l.input[start:l.position]
	l.readChar() // closing quote
	return lit, nil
}

func (l *Lexer) readNumber() string {
	start := l.position
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func (l *Lexer) readIdentifier() string {
	start := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.position]
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

// Position returns the line and column the error refers to.
func (e *Error) Position() (int, int) {
	return e.Line, e.Column
}
