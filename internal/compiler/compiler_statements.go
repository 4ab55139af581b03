package compiler

import (
	"github.com/funvibe/jackc/internal/token"
	"github.com/funvibe/jackc/internal/vmwriter"
)

type statementKind int

const (
	letStatement statementKind = iota
	ifStatement
	whileStatement
	doStatement
	returnStatement
)

// statementKindOf classifies the keyword that starts a statement.
func statementKindOf(tok token.Token) (statementKind, bool) {
	if tok.Kind != token.Keyword {
		return 0, false
	}
	switch tok.Literal {
	case "let":
		return letStatement, true
	case "if":
		return ifStatement, true
	case "while":
		return whileStatement, true
	case "do":
		return doStatement, true
	case "return":
		return returnStatement, true
	}
	return 0, false
}

// compileStatements: statement*
func (e *engine) compileStatements() error {
	for {
		tok, ok := e.cursor.Current()
		if !ok {
			return nil
		}
		kind, ok := statementKindOf(tok)
		if !ok {
			return nil
		}

		var err error
		switch kind {
		case letStatement:
			err = e.compileLet()
		case ifStatement:
			err = e.compileIf()
		case whileStatement:
			err = e.compileWhile()
		case doStatement:
			err = e.compileDo()
		case returnStatement:
			err = e.compileReturn()
		}
		if err != nil {
			return err
		}
	}
}

// compileLet: 'let' varName ('[' expression ']')? '=' expression ';'
//
// For an array target the element address is computed before the value.
func (e *engine) compileLet() error {
	if _, err := e.expectKeyword("let"); err != nil {
		return err
	}
	name, err := e.expectIdentifier("variable name")
	if err != nil {
		return err
	}
	sym, err := e.resolve(name)
	if err != nil {
		return err
	}

	isArray := e.atSymbol("[")
	if isArray {
		e.cursor.Advance()
		if err := e.compileExpression(); err != nil {
			return err
		}
		if err := e.expectSymbol("]"); err != nil {
			return err
		}
		e.pushVar(sym)
		e.w.WriteArithmetic(vmwriter.Add)
	}

	if err := e.expectSymbol("="); err != nil {
		return err
	}
	if err := e.compileExpression(); err != nil {
		return err
	}
	if err := e.expectSymbol(";"); err != nil {
		return err
	}

	if isArray {
		e.w.WritePop(vmwriter.Temp, 0)
		e.w.WritePop(vmwriter.Pointer, 1)
		e.w.WritePush(vmwriter.Temp, 0)
		e.w.WritePop(vmwriter.That, 0)
		return nil
	}
	e.w.WritePop(segmentOf(sym.Kind), sym.Index)
	return nil
}

// compileBlock: '{' statements '}'
func (e *engine) compileBlock() error {
	if err := e.expectSymbol("{"); err != nil {
		return err
	}
	if err := e.compileStatements(); err != nil {
		return err
	}
	return e.expectSymbol("}")
}

// compileCondition: '(' expression ')'
func (e *engine) compileCondition() error {
	if err := e.expectSymbol("("); err != nil {
		return err
	}
	if err := e.compileExpression(); err != nil {
		return err
	}
	return e.expectSymbol(")")
}

// compileIf: 'if' '(' expression ')' '{' statements '}' ('else' '{' statements '}')?
func (e *engine) compileIf() error {
	if _, err := e.expectKeyword("if"); err != nil {
		return err
	}
	if err := e.compileCondition(); err != nil {
		return err
	}

	falseLabel := e.newLabel("IF_FALSE")
	endLabel := e.newLabel("IF_END")

	e.w.WriteArithmetic(vmwriter.Not)
	e.w.WriteIf(falseLabel)
	if err := e.compileBlock(); err != nil {
		return err
	}
	e.w.WriteGoto(endLabel)
	e.w.WriteLabel(falseLabel)
	if e.atKeyword("else") {
		e.cursor.Advance()
		if err := e.compileBlock(); err != nil {
			return err
		}
	}
	e.w.WriteLabel(endLabel)
	return nil
}

// compileWhile: 'while' '(' expression ')' '{' statements '}'
func (e *engine) compileWhile() error {
	if _, err := e.expectKeyword("while"); err != nil {
		return err
	}
	startLabel := e.newLabel("WHILE_EXP")
	endLabel := e.newLabel("WHILE_END")

	e.w.WriteLabel(startLabel)
	if err := e.compileCondition(); err != nil {
		return err
	}
	e.w.WriteArithmetic(vmwriter.Not)
	e.w.WriteIf(endLabel)
	if err := e.compileBlock(); err != nil {
		return err
	}
	e.w.WriteGoto(startLabel)
	e.w.WriteLabel(endLabel)
	return nil
}

// compileDo: 'do' subroutineCall ';'
func (e *engine) compileDo() error {
	if _, err := e.expectKeyword("do"); err != nil {
		return err
	}
	name, err := e.expectIdentifier("subroutine name")
	if err != nil {
		return err
	}
	if err := e.compileSubroutineCall(name); err != nil {
		return err
	}
	// Every subroutine returns a value; a do statement drops it.
	e.w.WritePop(vmwriter.Temp, 0)
	return e.expectSymbol(";")
}

// compileReturn: 'return' expression? ';'
func (e *engine) compileReturn() error {
	if _, err := e.expectKeyword("return"); err != nil {
		return err
	}
	if e.atSymbol(";") {
		e.w.WritePush(vmwriter.Constant, 0)
	} else if err := e.compileExpression(); err != nil {
		return err
	}
	e.w.WriteReturn()
	return e.expectSymbol(";")
}
