package compiler

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/funvibe/jackc/internal/lexer"
)

// TestGolden compiles every .jack file of each testdata archive, in archive
// order, into one program and compares the output with want.vm.
func TestGolden(t *testing.T) {
	archives, err := filepath.Glob(filepath.Join("testdata", "*.txtar"))
	if err != nil {
		t.Fatal(err)
	}
	if len(archives) == 0 {
		t.Fatal("no golden archives found")
	}

	for _, path := range archives {
		t.Run(strings.TrimSuffix(filepath.Base(path), ".txtar"), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatal(err)
			}

			var want string
			var buf bytes.Buffer
			p := NewProgram(&buf, DefaultOptions())
			for _, f := range ar.Files {
				if f.Name == "want.vm" {
					want = string(f.Data)
					continue
				}
				if filepath.Ext(f.Name) != ".jack" {
					continue
				}
				tokens, err := lexer.Tokenize(string(f.Data))
				if err != nil {
					t.Fatalf("%s: %v", f.Name, err)
				}
				unit, err := p.Compile(tokens)
				if err != nil {
					t.Fatalf("%s: %v", f.Name, err)
				}
				if err := p.Append(unit); err != nil {
					t.Fatalf("%s: %v", f.Name, err)
				}
			}
			if err := p.Finish(); err != nil {
				t.Fatal(err)
			}

			if got := buf.String(); got != want {
				t.Errorf("output mismatch\ngot:\n%s\nwant:\n%s", got, want)
			}
		})
	}
}
