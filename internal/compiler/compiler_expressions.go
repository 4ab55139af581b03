package compiler

import (
	"strconv"

	"github.com/funvibe/jackc/internal/lexer"
	"github.com/funvibe/jackc/internal/token"
	"github.com/funvibe/jackc/internal/vmwriter"
)

var binaryCommands = map[string]vmwriter.Command{
	"+": vmwriter.Add,
	"-": vmwriter.Sub,
	"&": vmwriter.And,
	"|": vmwriter.Or,
	"<": vmwriter.Lt,
	">": vmwriter.Gt,
	"=": vmwriter.Eq,
}

func isBinaryOp(tok token.Token) bool {
	if tok.Kind != token.Symbol {
		return false
	}
	if tok.Literal == "*" || tok.Literal == "/" {
		return true
	}
	_, ok := binaryCommands[tok.Literal]
	return ok
}

// compileExpression: term (op term)*
//
// Operators have no precedence: terms are folded strictly left to right.
func (e *engine) compileExpression() error {
	if err := e.compileTerm(); err != nil {
		return err
	}
	for {
		op, ok := e.cursor.Current()
		if !ok || !isBinaryOp(op) {
			return nil
		}
		e.cursor.Advance()
		if err := e.compileTerm(); err != nil {
			return err
		}
		e.writeBinaryOp(op.Literal)
	}
}

func (e *engine) writeBinaryOp(op string) {
	switch op {
	case "*":
		e.w.WriteCall(e.rt.Multiply, 2)
	case "/":
		e.w.WriteCall(e.rt.Divide, 2)
	default:
		e.w.WriteArithmetic(binaryCommands[op])
	}
}

// compileTerm: integerConstant | stringConstant | keywordConstant | varName |
// varName '[' expression ']' | subroutineCall | '(' expression ')' | unaryOp term
func (e *engine) compileTerm() error {
	tok, ok := e.cursor.Current()
	if !ok {
		return e.unexpected("term")
	}

	switch tok.Kind {
	case token.IntConst:
		n, err := strconv.Atoi(tok.Literal)
		if err != nil {
			return e.unexpected("integer constant")
		}
		e.cursor.Advance()
		e.w.WritePush(vmwriter.Constant, n)
		return nil

	case token.StringConst:
		if !validStringConstant(tok.Literal) {
			return e.unexpected("string constant")
		}
		e.cursor.Advance()
		e.compileStringConstant(tok.Literal)
		return nil

	case token.Keyword:
		switch tok.Literal {
		case "true":
			e.w.WritePush(vmwriter.Constant, 0)
			e.w.WriteArithmetic(vmwriter.Not)
		case "false", "null":
			e.w.WritePush(vmwriter.Constant, 0)
		case "this":
			e.w.WritePush(vmwriter.Pointer, 0)
		default:
			return e.unexpected("term")
		}
		e.cursor.Advance()
		return nil

	case token.Symbol:
		switch tok.Literal {
		case "(":
			e.cursor.Advance()
			if err := e.compileExpression(); err != nil {
				return err
			}
			return e.expectSymbol(")")
		case "-", "~":
			e.cursor.Advance()
			if err := e.compileTerm(); err != nil {
				return err
			}
			if tok.Literal == "-" {
				e.w.WriteArithmetic(vmwriter.Neg)
			} else {
				e.w.WriteArithmetic(vmwriter.Not)
			}
			return nil
		}
		return e.unexpected("term")

	case token.Identifier:
		next, _ := e.cursor.Peek(1)
		e.cursor.Advance()
		switch {
		case next.Is(token.Symbol, "["):
			return e.compileArrayRead(tok)
		case next.Is(token.Symbol, "("), next.Is(token.Symbol, "."):
			return e.compileSubroutineCall(tok)
		}
		sym, err := e.resolve(tok)
		if err != nil {
			return err
		}
		e.pushVar(sym)
		return nil
	}
	return e.unexpected("term")
}

// compileStringConstant allocates a string of the literal's length and
// appends its characters one call at a time.
func (e *engine) compileStringConstant(s string) {
	chars := []rune(s)
	e.w.WritePush(vmwriter.Constant, len(chars))
	e.w.WriteCall(e.rt.StringNew, 1)
	for _, ch := range chars {
		e.w.WritePush(vmwriter.Constant, int(ch))
		e.w.WriteCall(e.rt.AppendChar, 2)
	}
}

// validStringConstant reports whether every character of s fits in a
// constant push. Invalid UTF-8 decodes to utf8.RuneError, which does not.
func validStringConstant(s string) bool {
	for _, ch := range s {
		if ch > lexer.MaxInt {
			return false
		}
	}
	return true
}

// compileArrayRead: varName '[' expression ']' with varName already consumed.
func (e *engine) compileArrayRead(name token.Token) error {
	sym, err := e.resolve(name)
	if err != nil {
		return err
	}
	if err := e.expectSymbol("["); err != nil {
		return err
	}
	if err := e.compileExpression(); err != nil {
		return err
	}
	if err := e.expectSymbol("]"); err != nil {
		return err
	}
	e.pushVar(sym)
	e.w.WriteArithmetic(vmwriter.Add)
	e.w.WritePop(vmwriter.Pointer, 1)
	e.w.WritePush(vmwriter.That, 0)
	return nil
}

// compileSubroutineCall: subroutineName '(' expressionList ')' |
// (className | varName) '.' subroutineName '(' expressionList ')'
// with the leading name already consumed.
func (e *engine) compileSubroutineCall(name token.Token) error {
	var callee string
	nArgs := 0

	if e.atSymbol(".") {
		e.cursor.Advance()
		member, err := e.expectIdentifier("subroutine name")
		if err != nil {
			return err
		}
		if sym, ok := e.table.Lookup(name.Literal); ok {
			// Method call on an object variable: the object is the
			// implicit first argument.
			e.pushVar(sym)
			callee = sym.Type + "." + member.Literal
			nArgs = 1
		} else {
			callee = name.Literal + "." + member.Literal
		}
	} else {
		// Unqualified call: a method of the current object.
		e.w.WritePush(vmwriter.Pointer, 0)
		callee = e.className + "." + name.Literal
		nArgs = 1
	}

	if err := e.expectSymbol("("); err != nil {
		return err
	}
	n, err := e.compileExpressionList()
	if err != nil {
		return err
	}
	if err := e.expectSymbol(")"); err != nil {
		return err
	}
	e.w.WriteCall(callee, nArgs+n)
	return nil
}

// compileExpressionList: (expression (',' expression)*)? returning the count.
func (e *engine) compileExpressionList() (int, error) {
	if e.atSymbol(")") {
		return 0, nil
	}
	n := 0
	for {
		if err := e.compileExpression(); err != nil {
			return 0, err
		}
		n++
		if !e.atSymbol(",") {
			return n, nil
		}
		e.cursor.Advance()
	}
}
