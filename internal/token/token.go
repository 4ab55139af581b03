package token

import "fmt"

// Kind classifies a token.
type Kind int

const (
	Illegal Kind = iota
	Keyword
	Symbol
	Identifier
	IntConst
	StringConst
)

func (k Kind) String() string {
	switch k {
	case Keyword:
		return "keyword"
	case Symbol:
		return "symbol"
	case Identifier:
		return "identifier"
	case IntConst:
		return "integerConstant"
	case StringConst:
		return "stringConstant"
	default:
		return "illegal"
	}
}

// Token is one classified lexeme. For string constants Literal holds the
// text between the quotes.
type Token struct {
	Kind    Kind
	Literal string
	Line    int
	Column  int
}

// Is reports whether t has the given kind and literal.
func (t Token) Is(kind Kind, literal string) bool {
	return t.Kind == kind && t.Literal == literal
}

func (t Token) String() string {
	return fmt.Sprintf("%s %q", t.Kind, t.Literal)
}

// Pos formats the token position as line:column.
func (t Token) Pos() string {
	return fmt.Sprintf("%d:%d", t.Line, t.Column)
}

var keywords = map[string]struct{}{
	"class":       {},
	"constructor": {},
	"function":    {},
	"method":      {},
	"field":       {},
	"static":      {},
	"var":         {},
	"int":         {},
	"char":        {},
	"boolean":     {},
	"void":        {},
	"true":        {},
	"false":       {},
	"null":        {},
	"this":        {},
	"let":         {},
	"do":          {},
	"if":          {},
	"else":        {},
	"while":       {},
	"return":      {},
}

// Symbols lists every single-character symbol of the language.
const Symbols = "{}()[].,;+-*/&|<>=~"

// LookupIdent returns Keyword for reserved words and Identifier otherwise.
func LookupIdent(ident string) Kind {
	if _, ok := keywords[ident]; ok {
		return Keyword
	}
	return Identifier
}

// IsSymbol reports whether ch is one of Symbols.
func IsSymbol(ch rune) bool {
	for _, s := range Symbols {
		if s == ch {
			return true
		}
	}
	return false
}
