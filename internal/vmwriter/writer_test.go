package vmwriter

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriter_Instructions(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.WriteFunction("Main.main", 2)
	w.WritePush(Constant, 7)
	w.WritePop(Local, 1)
	w.WriteArithmetic(Add)
	w.WriteArithmetic(Not)
	w.WriteLabel("WHILE_EXP0")
	w.WriteIf("WHILE_END1")
	w.WriteGoto("WHILE_EXP0")
	w.WriteCall("Math.multiply", 2)
	w.WriteReturn()

	want := `function Main.main 2
push constant 7
pop local 1
add
not
label WHILE_EXP0
if-goto WHILE_END1
goto WHILE_EXP0
call Math.multiply 2
return
`
	if got := buf.String(); got != want {
		t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
	if w.Err() != nil {
		t.Errorf("unexpected error: %v", w.Err())
	}
}

func TestWriter_Bootstrap(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).WriteBootstrap(256, "Sys.init")
	want := "push constant 256\ncall Sys.init 0\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

type failingWriter struct {
	calls int
}

func (f *failingWriter) Write(p []byte) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestWriter_StickyError(t *testing.T) {
	fw := &failingWriter{}
	w := New(fw)
	w.WriteReturn()
	w.WriteReturn()
	w.WritePush(Constant, 1)

	if w.Err() == nil || w.Err().Error() != "disk full" {
		t.Fatalf("Err() = %v, want disk full", w.Err())
	}
	if fw.calls != 1 {
		t.Errorf("underlying writer called %d times, want 1", fw.calls)
	}
}
