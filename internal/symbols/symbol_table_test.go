package symbols

import (
	"errors"
	"testing"
)

func mustDefine(t *testing.T, st *Table, name, typ string, kind Kind) Symbol {
	t.Helper()
	sym, err := st.Define(name, typ, kind)
	if err != nil {
		t.Fatalf("Define(%q, %s): %v", name, kind, err)
	}
	return sym
}

func TestTable_FieldIndicesInDeclarationOrder(t *testing.T) {
	st := NewTable()
	names := []string{"x", "y", "size", "next"}
	for i, name := range names {
		sym := mustDefine(t, st, name, "int", Field)
		if sym.Index != i {
			t.Errorf("field %q index = %d, want %d", name, sym.Index, i)
		}
	}
	if got := st.VarCount(Field); got != len(names) {
		t.Errorf("VarCount(Field) = %d, want %d", got, len(names))
	}
	if got := st.VarCount(Static); got != 0 {
		t.Errorf("VarCount(Static) = %d, want 0", got)
	}
}

func TestTable_IndicesAreCountedPerKind(t *testing.T) {
	st := NewTable()
	mustDefine(t, st, "count", "int", Static)
	mustDefine(t, st, "x", "int", Field)
	mustDefine(t, st, "limit", "int", Static)
	mustDefine(t, st, "a", "int", Argument)
	mustDefine(t, st, "i", "int", Local)
	mustDefine(t, st, "b", "Array", Argument)

	tests := []struct {
		name  string
		kind  Kind
		index int
		typ   string
	}{
		{"count", Static, 0, "int"},
		{"limit", Static, 1, "int"},
		{"x", Field, 0, "int"},
		{"a", Argument, 0, "int"},
		{"b", Argument, 1, "Array"},
		{"i", Local, 0, "int"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := st.KindOf(tt.name); got != tt.kind {
				t.Errorf("KindOf = %s, want %s", got, tt.kind)
			}
			if got, _ := st.IndexOf(tt.name); got != tt.index {
				t.Errorf("IndexOf = %d, want %d", got, tt.index)
			}
			if got, _ := st.TypeOf(tt.name); got != tt.typ {
				t.Errorf("TypeOf = %q, want %q", got, tt.typ)
			}
		})
	}
}

func TestTable_StartSubroutineKeepsClassScope(t *testing.T) {
	st := NewTable()
	mustDefine(t, st, "x", "int", Field)
	mustDefine(t, st, "a", "int", Argument)
	mustDefine(t, st, "i", "int", Local)

	st.StartSubroutine()

	if st.KindOf("a") != None || st.KindOf("i") != None {
		t.Error("subroutine scope should be cleared")
	}
	if st.KindOf("x") != Field {
		t.Error("class scope should survive StartSubroutine")
	}
	if st.VarCount(Argument) != 0 || st.VarCount(Local) != 0 {
		t.Error("argument and local counters should be reset")
	}
	if st.VarCount(Field) != 1 {
		t.Error("field counter should be kept")
	}

	sym := mustDefine(t, st, "b", "int", Argument)
	if sym.Index != 0 {
		t.Errorf("first argument after reset has index %d, want 0", sym.Index)
	}
}

func TestTable_SubroutineScopeShadowsClassScope(t *testing.T) {
	st := NewTable()
	mustDefine(t, st, "size", "int", Field)

	st.StartSubroutine()
	mustDefine(t, st, "size", "char", Argument)
	if st.KindOf("size") != Argument {
		t.Fatalf("KindOf(size) = %s, want argument", st.KindOf("size"))
	}
	if typ, _ := st.TypeOf("size"); typ != "char" {
		t.Errorf("TypeOf(size) = %q, want char", typ)
	}

	st.StartSubroutine()
	if st.KindOf("size") != Field {
		t.Errorf("KindOf(size) in next subroutine = %s, want field", st.KindOf("size"))
	}
}

func TestTable_DuplicateInSameScope(t *testing.T) {
	tests := []struct {
		name  string
		first Kind
		again Kind
	}{
		{"field twice", Field, Field},
		{"static then field", Static, Field},
		{"argument then local", Argument, Local},
		{"local twice", Local, Local},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewTable()
			mustDefine(t, st, "v", "int", tt.first)
			_, err := st.Define("v", "int", tt.again)
			var dup *DuplicateSymbolError
			if !errors.As(err, &dup) {
				t.Fatalf("expected DuplicateSymbolError, got %v", err)
			}
			if dup.Previous.Kind != tt.first {
				t.Errorf("previous kind = %s, want %s", dup.Previous.Kind, tt.first)
			}
		})
	}
}

func TestTable_UnknownName(t *testing.T) {
	st := NewTable()
	if st.KindOf("missing") != None {
		t.Error("KindOf should be None")
	}
	if _, ok := st.TypeOf("missing"); ok {
		t.Error("TypeOf should report not found")
	}
	if _, ok := st.IndexOf("missing"); ok {
		t.Error("IndexOf should report not found")
	}
	if _, err := st.Define("v", "int", None); err == nil {
		t.Error("defining with kind None should fail")
	}
}
