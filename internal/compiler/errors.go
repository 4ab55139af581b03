package compiler

import (
	"fmt"

	"github.com/funvibe/jackc/internal/token"
)

// UnexpectedTokenError reports a token that does not match what the current
// production expects. AtEOF is set when the input ended instead.
type UnexpectedTokenError struct {
	Want  string
	Got   token.Token
	AtEOF bool
}

func (e *UnexpectedTokenError) Error() string {
	if e.AtEOF {
		if e.Got.Line == 0 {
			return fmt.Sprintf("expected %s, got end of input", e.Want)
		}
		return fmt.Sprintf("%s: expected %s, got end of input", e.Got.Pos(), e.Want)
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Got.Pos(), e.Want, e.Got)
}

// UndefinedSymbolError reports a variable that is bound in neither the
// subroutine nor the class scope.
type UndefinedSymbolError struct {
	Name string
	At   token.Token
}

func (e *UndefinedSymbolError) Error() string {
	return fmt.Sprintf("%s: undefined variable %q", e.At.Pos(), e.Name)
}

// DeclarationError wraps a failed definition, such as a
// *symbols.DuplicateSymbolError, with the position of the offending name.
type DeclarationError struct {
	At  token.Token
	Err error
}

func (e *DeclarationError) Error() string {
	return fmt.Sprintf("%s: %v", e.At.Pos(), e.Err)
}

func (e *DeclarationError) Unwrap() error {
	return e.Err
}

// Position returns the line and column the error refers to.
func (e *UnexpectedTokenError) Position() (int, int) { return e.Got.Line, e.Got.Column }
func (e *UndefinedSymbolError) Position() (int, int) { return e.At.Line, e.At.Column }
func (e *DeclarationError) Position() (int, int)     { return e.At.Line, e.At.Column }
