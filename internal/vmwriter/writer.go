// Package vmwriter emits the line-oriented stack machine instruction stream.
package vmwriter

import (
	"io"
	"strconv"
)

type Segment string

const (
	Constant Segment = "constant"
	Argument Segment = "argument"
	Local    Segment = "local"
	Static   Segment = "static"
	This     Segment = "this"
	That     Segment = "that"
	Pointer  Segment = "pointer"
	Temp     Segment = "temp"
)

// Command is an arithmetic or logical instruction without operands.
type Command string

const (
	Add Command = "add"
	Sub Command = "sub"
	Neg Command = "neg"
	Eq  Command = "eq"
	Gt  Command = "gt"
	Lt  Command = "lt"
	And Command = "and"
	Or  Command = "or"
	Not Command = "not"
)

// Writer appends one instruction per call to the underlying writer.
// After the first write error every later call is a no-op; Err reports it.
type Writer struct {
	out io.Writer
	err error
}

func New(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Err returns the first error encountered while writing.
func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) writeLine(parts ...string) {
	if w.err != nil {
		return
	}
	n := 1
	for _, p := range parts {
		n += len(p) + 1
	}
	line := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			line = append(line, ' ')
		}
		line = append(line, p...)
	}
	line = append(line, '\n')
	_, w.err = w.out.Write(line)
}

func (w *Writer) WritePush(segment Segment, index int) {
	w.writeLine("push", string(segment), strconv.Itoa(index))
}

func (w *Writer) WritePop(segment Segment, index int) {
	w.writeLine("pop", string(segment), strconv.Itoa(index))
}

func (w *Writer) WriteArithmetic(cmd Command) {
	w.writeLine(string(cmd))
}

func (w *Writer) WriteLabel(label string) {
	w.writeLine("label", label)
}

func (w *Writer) WriteGoto(label string) {
	w.writeLine("goto", label)
}

func (w *Writer) WriteIf(label string) {
	w.writeLine("if-goto", label)
}

func (w *Writer) WriteCall(name string, nArgs int) {
	w.writeLine("call", name, strconv.Itoa(nArgs))
}

func (w *Writer) WriteFunction(name string, nLocals int) {
	w.writeLine("function", name, strconv.Itoa(nLocals))
}

func (w *Writer) WriteReturn() {
	w.writeLine("return")
}

// WriteBootstrap emits the program prologue: set up the stack base and
// call the entry routine with no arguments.
func (w *Writer) WriteBootstrap(stackBase int, entry string) {
	w.WritePush(Constant, stackBase)
	w.WriteCall(entry, 0)
}
