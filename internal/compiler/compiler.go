// Package compiler translates Jack classes to VM code in a single pass.
//
// There is no syntax tree: every grammar production consumes its tokens
// from a token.Cursor, binds names in a symbols.Table and emits its
// instructions through a vmwriter.Writer before it returns.
package compiler

import (
	"bytes"
	"fmt"
	"io"

	"github.com/funvibe/jackc/internal/symbols"
	"github.com/funvibe/jackc/internal/token"
	"github.com/funvibe/jackc/internal/vmwriter"
)

// Runtime names the operating system routines the generated code calls.
type Runtime struct {
	Multiply   string
	Divide     string
	Alloc      string
	StringNew  string
	AppendChar string
}

type Options struct {
	Bootstrap bool
	StackBase int
	Entry     string
	Runtime   Runtime
}

func DefaultOptions() Options {
	return Options{
		Bootstrap: true,
		StackBase: 256,
		Entry:     "Sys.init",
		Runtime: Runtime{
			Multiply:   "Math.multiply",
			Divide:     "Math.divide",
			Alloc:      "Memory.alloc",
			StringNew:  "String.new",
			AppendChar: "String.appendChar",
		},
	}
}

// Fingerprint identifies every option that changes generated code.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("bootstrap=%t;base=%d;entry=%s;rt=%s,%s,%s,%s,%s",
		o.Bootstrap, o.StackBase, o.Entry,
		o.Runtime.Multiply, o.Runtime.Divide, o.Runtime.Alloc, o.Runtime.StringNew, o.Runtime.AppendChar)
}

// Program is the state shared by all classes of one compilation: the output
// sink, the label counter and whether the bootstrap was written.
type Program struct {
	sink    io.Writer
	out     *vmwriter.Writer
	opts    Options
	labels  int
	started bool
	classes []string
}

func NewProgram(w io.Writer, opts Options) *Program {
	return &Program{sink: w, out: vmwriter.New(w), opts: opts}
}

func (p *Program) Options() Options {
	return p.opts
}

// NextLabel is the counter value the next compiled class will start from.
func (p *Program) NextLabel() int {
	return p.labels
}

// Classes lists the appended classes in output order.
func (p *Program) Classes() []string {
	return p.classes
}

// Compile compiles one class from its complete token stream. The program
// output is not touched; the result is committed with Append.
func (p *Program) Compile(tokens []token.Token) (*vmwriter.Unit, error) {
	var buf bytes.Buffer
	e := &engine{
		cursor:     token.NewCursor(tokens),
		table:      symbols.NewTable(),
		w:          vmwriter.New(&buf),
		rt:         p.opts.Runtime,
		firstLabel: p.labels,
		labels:     p.labels,
	}
	if err := e.compileClass(); err != nil {
		return nil, err
	}
	if err := e.w.Err(); err != nil {
		return nil, err
	}
	return &vmwriter.Unit{
		Class:      e.className,
		Code:       buf.Bytes(),
		FirstLabel: e.firstLabel,
		NextLabel:  e.labels,
	}, nil
}

// Append writes a compiled unit to the program output, preceded by the
// bootstrap sequence if this is the first output.
func (p *Program) Append(u *vmwriter.Unit) error {
	if u.FirstLabel != p.labels {
		return fmt.Errorf("class %s was compiled from label %d, program is at label %d", u.Class, u.FirstLabel, p.labels)
	}
	p.start()
	if err := p.out.Err(); err != nil {
		return err
	}
	if _, err := p.sink.Write(u.Code); err != nil {
		return err
	}
	p.labels = u.NextLabel
	p.classes = append(p.classes, u.Class)
	return nil
}

// Finish makes sure the bootstrap was written even for a program without
// classes and reports the first output error.
func (p *Program) Finish() error {
	p.start()
	return p.out.Err()
}

func (p *Program) start() {
	if p.started {
		return
	}
	p.started = true
	if p.opts.Bootstrap {
		p.out.WriteBootstrap(p.opts.StackBase, p.opts.Entry)
	}
}

// engine compiles one class. Each grammar production is a method.
type engine struct {
	cursor     *token.Cursor
	table      *symbols.Table
	w          *vmwriter.Writer
	rt         Runtime
	className  string
	firstLabel int
	labels     int
}

// newLabel returns base suffixed with the program-wide label counter.
func (e *engine) newLabel(base string) string {
	l := fmt.Sprintf("%s%d", base, e.labels)
	e.labels++
	return l
}

// =============================================================================
// Terminal checks
// =============================================================================

func (e *engine) unexpected(want string) error {
	tok, ok := e.cursor.Current()
	if !ok {
		last, _ := e.cursor.Last()
		return &UnexpectedTokenError{Want: want, Got: last, AtEOF: true}
	}
	return &UnexpectedTokenError{Want: want, Got: tok}
}

func (e *engine) atSymbol(sym string) bool {
	tok, ok := e.cursor.Current()
	return ok && tok.Is(token.Symbol, sym)
}

func (e *engine) atKeyword(words ...string) bool {
	tok, ok := e.cursor.Current()
	if !ok || tok.Kind != token.Keyword {
		return false
	}
	for _, w := range words {
		if tok.Literal == w {
			return true
		}
	}
	return false
}

func (e *engine) expectSymbol(sym string) error {
	if !e.atSymbol(sym) {
		return e.unexpected(fmt.Sprintf("%q", sym))
	}
	e.cursor.Advance()
	return nil
}

// expectKeyword consumes one of words and returns it.
func (e *engine) expectKeyword(words ...string) (string, error) {
	if !e.atKeyword(words...) {
		want := fmt.Sprintf("%q", words[0])
		for _, w := range words[1:] {
			want += fmt.Sprintf(" or %q", w)
		}
		return "", e.unexpected(want)
	}
	tok, _ := e.cursor.Current()
	e.cursor.Advance()
	return tok.Literal, nil
}

func (e *engine) expectIdentifier(what string) (token.Token, error) {
	tok, ok := e.cursor.Current()
	if !ok || tok.Kind != token.Identifier {
		return token.Token{}, e.unexpected(what)
	}
	e.cursor.Advance()
	return tok, nil
}

// =============================================================================
// Declarations
// =============================================================================

// compileClass: 'class' className '{' classVarDec* subroutineDec* '}'
func (e *engine) compileClass() error {
	if _, err := e.expectKeyword("class"); err != nil {
		return err
	}
	name, err := e.expectIdentifier("class name")
	if err != nil {
		return err
	}
	e.className = name.Literal
	if err := e.expectSymbol("{"); err != nil {
		return err
	}
	for e.atKeyword("static", "field") {
		if err := e.compileClassVarDec(); err != nil {
			return err
		}
	}
	for e.atKeyword("constructor", "function", "method") {
		if err := e.compileSubroutine(); err != nil {
			return err
		}
	}
	if err := e.expectSymbol("}"); err != nil {
		return err
	}
	if !e.cursor.AtEnd() {
		return e.unexpected("end of class")
	}
	return nil
}

// compileType: 'int' | 'char' | 'boolean' | className, or 'void' when allowed.
func (e *engine) compileType(allowVoid bool) (string, error) {
	tok, ok := e.cursor.Current()
	if ok {
		switch {
		case tok.Kind == token.Identifier,
			tok.Is(token.Keyword, "int"),
			tok.Is(token.Keyword, "char"),
			tok.Is(token.Keyword, "boolean"),
			allowVoid && tok.Is(token.Keyword, "void"):
			e.cursor.Advance()
			return tok.Literal, nil
		}
	}
	if allowVoid {
		return "", e.unexpected("return type")
	}
	return "", e.unexpected("type")
}

func (e *engine) define(name token.Token, typ string, kind symbols.Kind) error {
	if _, err := e.table.Define(name.Literal, typ, kind); err != nil {
		return &DeclarationError{At: name, Err: err}
	}
	return nil
}

// compileVarNames: varName (',' varName)* ';' binding every name to kind.
func (e *engine) compileVarNames(typ string, kind symbols.Kind) error {
	for {
		name, err := e.expectIdentifier("variable name")
		if err != nil {
			return err
		}
		if err := e.define(name, typ, kind); err != nil {
			return err
		}
		if !e.atSymbol(",") {
			break
		}
		e.cursor.Advance()
	}
	return e.expectSymbol(";")
}

// compileClassVarDec: ('static' | 'field') type varName (',' varName)* ';'
func (e *engine) compileClassVarDec() error {
	kw, err := e.expectKeyword("static", "field")
	if err != nil {
		return err
	}
	kind := symbols.Field
	if kw == "static" {
		kind = symbols.Static
	}
	typ, err := e.compileType(false)
	if err != nil {
		return err
	}
	return e.compileVarNames(typ, kind)
}

// compileSubroutine: ('constructor' | 'function' | 'method') ('void' | type)
// subroutineName '(' parameterList ')' subroutineBody
func (e *engine) compileSubroutine() error {
	kind, err := e.expectKeyword("constructor", "function", "method")
	if err != nil {
		return err
	}
	if _, err := e.compileType(true); err != nil {
		return err
	}
	name, err := e.expectIdentifier("subroutine name")
	if err != nil {
		return err
	}

	// The receiver of a method is not bound in the table: it is moved to
	// the pointer segment on entry, and visible parameters start at
	// argument 0.
	e.table.StartSubroutine()

	if err := e.expectSymbol("("); err != nil {
		return err
	}
	if err := e.compileParameterList(); err != nil {
		return err
	}
	if err := e.expectSymbol(")"); err != nil {
		return err
	}

	if err := e.expectSymbol("{"); err != nil {
		return err
	}
	for e.atKeyword("var") {
		if err := e.compileVarDec(); err != nil {
			return err
		}
	}

	e.w.WriteFunction(e.className+"."+name.Literal, e.table.VarCount(symbols.Local))
	switch kind {
	case "constructor":
		e.w.WritePush(vmwriter.Constant, e.table.VarCount(symbols.Field))
		e.w.WriteCall(e.rt.Alloc, 1)
		e.w.WritePop(vmwriter.Pointer, 0)
	case "method":
		e.w.WritePush(vmwriter.Argument, 0)
		e.w.WritePop(vmwriter.Pointer, 0)
	}

	if err := e.compileStatements(); err != nil {
		return err
	}
	return e.expectSymbol("}")
}

// compileParameterList: ((type varName) (',' type varName)*)?
func (e *engine) compileParameterList() error {
	if e.atSymbol(")") {
		return nil
	}
	for {
		typ, err := e.compileType(false)
		if err != nil {
			return err
		}
		name, err := e.expectIdentifier("parameter name")
		if err != nil {
			return err
		}
		if err := e.define(name, typ, symbols.Argument); err != nil {
			return err
		}
		if !e.atSymbol(",") {
			return nil
		}
		e.cursor.Advance()
	}
}

// compileVarDec: 'var' type varName (',' varName)* ';'
func (e *engine) compileVarDec() error {
	if _, err := e.expectKeyword("var"); err != nil {
		return err
	}
	typ, err := e.compileType(false)
	if err != nil {
		return err
	}
	return e.compileVarNames(typ, symbols.Local)
}

// segmentOf maps a storage kind to the segment holding its variables.
func segmentOf(kind symbols.Kind) vmwriter.Segment {
	switch kind {
	case symbols.Static:
		return vmwriter.Static
	case symbols.Field:
		return vmwriter.This
	case symbols.Argument:
		return vmwriter.Argument
	default:
		return vmwriter.Local
	}
}

// resolve looks up a variable used at tok.
func (e *engine) resolve(tok token.Token) (symbols.Symbol, error) {
	sym, ok := e.table.Lookup(tok.Literal)
	if !ok {
		return symbols.Symbol{}, &UndefinedSymbolError{Name: tok.Literal, At: tok}
	}
	return sym, nil
}

func (e *engine) pushVar(sym symbols.Symbol) {
	e.w.WritePush(segmentOf(sym.Kind), sym.Index)
}
