// Package symbols implements the two-level scope used while compiling a class:
// a class scope holding static and field variables, and a subroutine scope
// holding arguments and locals that is cleared for every subroutine.
package symbols

import "fmt"

// Kind is the storage kind of a variable. It decides which scope owns the
// name and which segment holds its value.
type Kind int

const (
	None Kind = iota // not found
	Static
	Field
	Argument
	Local
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Static:
		return "static"
	case Field:
		return "field"
	case Argument:
		return "argument"
	case Local:
		return "local"
	default:
		return "none"
	}
}

// IsClassScoped reports whether variables of this kind live in the class scope.
func (k Kind) IsClassScoped() bool {
	return k == Static || k == Field
}

type Symbol struct {
	Name  string
	Type  string // declared type: int, char, boolean or a class name
	Kind  Kind
	Index int // position among the symbols of the same kind
}

// DuplicateSymbolError reports a second definition of a name in one scope.
type DuplicateSymbolError struct {
	Name     string
	Kind     Kind
	Previous Symbol
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("%s %q already declared as %s %s", e.Kind, e.Name, e.Previous.Kind, e.Previous.Type)
}

type Table struct {
	class      map[string]Symbol
	subroutine map[string]Symbol
	counts     [numKinds]int
}

func NewTable() *Table {
	return &Table{
		class:      make(map[string]Symbol),
		subroutine: make(map[string]Symbol),
	}
}

// StartSubroutine clears the subroutine scope and its argument and local
// counters. The class scope is untouched.
func (t *Table) StartSubroutine() {
	t.subroutine = make(map[string]Symbol)
	t.counts[Argument] = 0
	t.counts[Local] = 0
}

// Define binds name in the scope owning kind and assigns it the next index
// of that kind.
func (t *Table) Define(name, typ string, kind Kind) (Symbol, error) {
	if kind <= None || kind >= numKinds {
		return Symbol{}, fmt.Errorf("cannot define %q with storage kind %s", name, kind)
	}

	scope := t.subroutine
	if kind.IsClassScoped() {
		scope = t.class
	}
	if prev, ok := scope[name]; ok {
		return Symbol{}, &DuplicateSymbolError{Name: name, Kind: kind, Previous: prev}
	}

	sym := Symbol{Name: name, Type: typ, Kind: kind, Index: t.counts[kind]}
	scope[name] = sym
	t.counts[kind]++
	return sym, nil
}

// Lookup resolves name in the subroutine scope first, then the class scope.
func (t *Table) Lookup(name string) (Symbol, bool) {
	if sym, ok := t.subroutine[name]; ok {
		return sym, true
	}
	sym, ok := t.class[name]
	return sym, ok
}

// KindOf returns None when name is not bound in either scope.
func (t *Table) KindOf(name string) Kind {
	sym, ok := t.Lookup(name)
	if !ok {
		return None
	}
	return sym.Kind
}

func (t *Table) TypeOf(name string) (string, bool) {
	sym, ok := t.Lookup(name)
	return sym.Type, ok
}

func (t *Table) IndexOf(name string) (int, bool) {
	sym, ok := t.Lookup(name)
	return sym.Index, ok
}

// VarCount returns how many variables of kind are defined. Static and
// field counts cover the whole class; argument and local counts cover the
// current subroutine.
func (t *Table) VarCount(kind Kind) int {
	if kind <= None || kind >= numKinds {
		return 0
	}
	return t.counts[kind]
}
