// Package diagnostics turns compilation errors into coded, positioned
// messages and prints them.
package diagnostics

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/jackc/internal/compiler"
	"github.com/funvibe/jackc/internal/config"
	"github.com/funvibe/jackc/internal/lexer"
	"github.com/funvibe/jackc/internal/symbols"
)

type Code string

const (
	CodeLexical    Code = "L001"
	CodeUnexpected Code = "P001"
	CodeUndefined  Code = "S001"
	CodeDuplicate  Code = "S002"
	CodeBuild      Code = "B001"
)

// Error is a single diagnostic. Line and Column are zero when the error has
// no source position.
type Error struct {
	Code    Code
	Path    string
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Line, e.Column, e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

type positioned interface {
	Position() (int, int)
}

// sourced is implemented by errors that know which file they came from.
type sourced interface {
	SourcePath() string
}

// FromError classifies err. If err names its source file, that path takes
// precedence and the wrapped error is classified. An error that already is a
// *Error is returned as is, or as a copy with Path filled in if it was empty.
func FromError(path string, err error) *Error {
	if src, ok := err.(sourced); ok {
		if p := src.SourcePath(); p != "" {
			path = p
		}
		if inner := errors.Unwrap(err); inner != nil {
			err = inner
		}
	}

	var d *Error
	if errors.As(err, &d) {
		if d.Path != "" {
			return d
		}
		c := *d
		c.Path = path
		return &c
	}

	diag := &Error{Code: CodeBuild, Path: path, Message: err.Error(), Err: err}

	var (
		lexErr *lexer.Error
		tokErr *compiler.UnexpectedTokenError
		undef  *compiler.UndefinedSymbolError
		dup    *symbols.DuplicateSymbolError
	)
	switch {
	case errors.As(err, &lexErr):
		diag.Code = CodeLexical
		diag.Message = lexErr.Message
	case errors.As(err, &tokErr):
		diag.Code = CodeUnexpected
		if tokErr.AtEOF {
			diag.Message = fmt.Sprintf("expected %s, got end of input", tokErr.Want)
		} else {
			diag.Message = fmt.Sprintf("expected %s, got %s", tokErr.Want, tokErr.Got)
		}
	case errors.As(err, &undef):
		diag.Code = CodeUndefined
		diag.Message = fmt.Sprintf("undefined variable %q", undef.Name)
	case errors.As(err, &dup):
		diag.Code = CodeDuplicate
		diag.Message = dup.Error()
	}

	var pe positioned
	if errors.As(err, &pe) {
		diag.Line, diag.Column = pe.Position()
	}
	return diag
}

// Flatten expands a joined error into its parts.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, Flatten(e)...)
		}
		return out
	}
	return []error{err}
}

// =============================================================================
// Printer
// =============================================================================

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
)

type Printer struct {
	w     io.Writer
	color bool
}

// NewPrinter creates a printer for w. With config.ColorAuto, colour is used
// only when w is a terminal and NO_COLOR is unset.
func NewPrinter(w io.Writer, mode string) *Printer {
	return &Printer{w: w, color: useColor(w, mode)}
}

func useColor(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Print writes one line per diagnostic.
func (p *Printer) Print(diags ...*Error) error {
	for _, d := range diags {
		line := d.Error() + "\n"
		if p.color {
			line = fmt.Sprintf("%s%s%s %s%s%s: %s\n", ansiBold, location(d), ansiReset, ansiRed, d.Code, ansiReset, d.Message)
		}
		if _, err := io.WriteString(p.w, line); err != nil {
			return err
		}
	}
	return nil
}

// PrintError classifies every part of err against path and prints it.
func (p *Printer) PrintError(path string, err error) error {
	var diags []*Error
	for _, e := range Flatten(err) {
		diags = append(diags, FromError(path, e))
	}
	return p.Print(diags...)
}

func location(d *Error) string {
	switch {
	case d.Line > 0:
		return fmt.Sprintf("%s:%d:%d:", d.Path, d.Line, d.Column)
	case d.Path != "":
		return d.Path + ":"
	default:
		return ""
	}
}
