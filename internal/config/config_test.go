package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(""), "jackc.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Entry != "Sys.init" {
		t.Errorf("entry = %q, want Sys.init", cfg.Entry)
	}
	if cfg.StackBase != 256 {
		t.Errorf("stack_base = %d, want 256", cfg.StackBase)
	}
	if cfg.Bootstrap == nil || !*cfg.Bootstrap {
		t.Error("bootstrap should default to true")
	}
	if cfg.OnError != OnErrorAbort {
		t.Errorf("on_error = %q, want abort", cfg.OnError)
	}
	if cfg.Color != ColorAuto {
		t.Errorf("color = %q, want auto", cfg.Color)
	}
	if cfg.Runtime.Multiply != "Math.multiply" || cfg.Runtime.AppendChar != "String.appendChar" {
		t.Errorf("runtime defaults not applied: %+v", cfg.Runtime)
	}
}

func TestParse_Full(t *testing.T) {
	yaml := `
entry: Main.main
stack_base: 512
bootstrap: false
on_error: continue
output: out/prog.vm
cache: .jackc/cache.db
report: out/report.yaml
color: never
runtime:
  multiply: Arith.mul
  divide: Arith.div
`
	cfg, err := Parse([]byte(yaml), "jackc.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts := cfg.CompilerOptions()
	if opts.Bootstrap {
		t.Error("bootstrap should be false")
	}
	if opts.StackBase != 512 || opts.Entry != "Main.main" {
		t.Errorf("options = %+v", opts)
	}
	if opts.Runtime.Multiply != "Arith.mul" || opts.Runtime.Divide != "Arith.div" {
		t.Errorf("runtime = %+v", opts.Runtime)
	}
	if opts.Runtime.Alloc != "Memory.alloc" {
		t.Errorf("alloc = %q, want default", opts.Runtime.Alloc)
	}
	if cfg.OnError != OnErrorContinue || cfg.Color != ColorNever {
		t.Errorf("on_error = %q, color = %q", cfg.OnError, cfg.Color)
	}
	if cfg.Cache != ".jackc/cache.db" || cfg.Report != "out/report.yaml" || cfg.Output != "out/prog.vm" {
		t.Errorf("paths = %q %q %q", cfg.Cache, cfg.Report, cfg.Output)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"bad policy", "on_error: retry", "on_error"},
		{"bad color", "color: rainbow", "color"},
		{"bad entry", "entry: main", "entry"},
		{"negative stack base", "stack_base: -1", "stack_base"},
		{"huge stack base", "stack_base: 40000", "stack_base"},
		{"bad runtime", "runtime:\n  alloc: alloc", "runtime.alloc"},
		{"malformed yaml", "entry: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "jackc.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
			if !strings.Contains(err.Error(), "jackc.yaml") {
				t.Errorf("error %q should name the file", err)
			}
		})
	}
}

func TestLoadAndFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "game")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	path, err := Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		// A jackc.yaml above the temp dir would make this test meaningless.
		t.Skipf("found unrelated config %s", path)
	}

	cfgPath := filepath.Join(root, "jackc.yml")
	if err := os.WriteFile(cfgPath, []byte("cache: cache.db\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err = Find(nested)
	if err != nil {
		t.Fatal(err)
	}
	if path != cfgPath {
		t.Fatalf("Find = %q, want %q", path, cfgPath)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := cfg.ResolvePath(cfg.Cache); got != filepath.Join(root, "cache.db") {
		t.Errorf("ResolvePath = %q", got)
	}
	abs := filepath.Join(root, "abs.db")
	if got := cfg.ResolvePath(abs); got != abs {
		t.Errorf("absolute path changed to %q", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config") {
		t.Errorf("err = %v", err)
	}
}

func TestDefault(t *testing.T) {
	opts := Default().CompilerOptions()
	if !opts.Bootstrap || opts.Entry != "Sys.init" || opts.StackBase != 256 {
		t.Errorf("Default() options = %+v", opts)
	}
}
