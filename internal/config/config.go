package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/jackc/internal/compiler"
)

// Config represents a jackc.yaml file.
type Config struct {
	// Entry is the routine the bootstrap sequence calls (e.g. "Sys.init").
	Entry string `yaml:"entry,omitempty"`

	// StackBase is the constant the bootstrap pushes before calling Entry.
	StackBase int `yaml:"stack_base,omitempty"`

	// Bootstrap controls whether the bootstrap sequence is emitted.
	// Defaults to true when omitted.
	Bootstrap *bool `yaml:"bootstrap,omitempty"`

	// OnError is the multi-class failure policy: "abort" stops at the first
	// failing class, "continue" compiles the rest to report every failure.
	// No output is written in either case.
	OnError string `yaml:"on_error,omitempty"`

	// Output overrides the output file path.
	Output string `yaml:"output,omitempty"`

	// Cache is the path of the SQLite compile cache. Empty disables caching.
	Cache string `yaml:"cache,omitempty"`

	// Report is the path of the YAML build report. Empty disables it.
	Report string `yaml:"report,omitempty"`

	// Color is one of "auto", "always" or "never".
	Color string `yaml:"color,omitempty"`

	// Runtime renames the operating system routines the generated code calls.
	Runtime Runtime `yaml:"runtime,omitempty"`

	// Dir is the directory of the loaded file; relative paths resolve against it.
	Dir string `yaml:"-"`
}

type Runtime struct {
	Multiply   string `yaml:"multiply,omitempty"`
	Divide     string `yaml:"divide,omitempty"`
	Alloc      string `yaml:"alloc,omitempty"`
	StringNew  string `yaml:"string_new,omitempty"`
	AppendChar string `yaml:"append_char,omitempty"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads and parses a jackc.yaml file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	cfg.Dir = filepath.Dir(path)
	return cfg, nil
}

// Parse parses jackc.yaml content from bytes.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	cfg.setDefaults()
	return &cfg, nil
}

// Find searches for jackc.yaml starting from dir and walking up to parent
// directories. It returns an empty path and nil error when none exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range ConfigFileNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", nil
		}
		dir = parent
	}
}

// validate checks the configuration for semantic errors.
func (c *Config) validate(path string) error {
	if c.StackBase < 0 || c.StackBase > 32767 {
		return fmt.Errorf("%s: stack_base %d out of range 0..32767", path, c.StackBase)
	}
	if c.Entry != "" && !isQualifiedName(c.Entry) {
		return fmt.Errorf("%s: entry %q must have the form Class.routine", path, c.Entry)
	}

	switch c.OnError {
	case "", OnErrorAbort, OnErrorContinue:
	default:
		return fmt.Errorf("%s: on_error must be %q or %q, got %q", path, OnErrorAbort, OnErrorContinue, c.OnError)
	}

	switch c.Color {
	case "", ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%s: color must be %q, %q or %q, got %q", path, ColorAuto, ColorAlways, ColorNever, c.Color)
	}

	routines := []struct {
		key, value string
	}{
		{"multiply", c.Runtime.Multiply},
		{"divide", c.Runtime.Divide},
		{"alloc", c.Runtime.Alloc},
		{"string_new", c.Runtime.StringNew},
		{"append_char", c.Runtime.AppendChar},
	}
	for _, r := range routines {
		if r.value != "" && !isQualifiedName(r.value) {
			return fmt.Errorf("%s: runtime.%s %q must have the form Class.routine", path, r.key, r.value)
		}
	}
	return nil
}

// setDefaults fills in default values for omitted fields.
func (c *Config) setDefaults() {
	defaults := compiler.DefaultOptions()
	if c.Entry == "" {
		c.Entry = defaults.Entry
	}
	if c.StackBase == 0 {
		c.StackBase = defaults.StackBase
	}
	if c.Bootstrap == nil {
		on := defaults.Bootstrap
		c.Bootstrap = &on
	}
	if c.OnError == "" {
		c.OnError = OnErrorAbort
	}
	if c.Color == "" {
		c.Color = ColorAuto
	}
	if c.Runtime.Multiply == "" {
		c.Runtime.Multiply = defaults.Runtime.Multiply
	}
	if c.Runtime.Divide == "" {
		c.Runtime.Divide = defaults.Runtime.Divide
	}
	if c.Runtime.Alloc == "" {
		c.Runtime.Alloc = defaults.Runtime.Alloc
	}
	if c.Runtime.StringNew == "" {
		c.Runtime.StringNew = defaults.Runtime.StringNew
	}
	if c.Runtime.AppendChar == "" {
		c.Runtime.AppendChar = defaults.Runtime.AppendChar
	}
}

// CompilerOptions converts the configuration to code generation options.
func (c *Config) CompilerOptions() compiler.Options {
	return compiler.Options{
		Bootstrap: c.Bootstrap == nil || *c.Bootstrap,
		StackBase: c.StackBase,
		Entry:     c.Entry,
		Runtime: compiler.Runtime{
			Multiply:   c.Runtime.Multiply,
			Divide:     c.Runtime.Divide,
			Alloc:      c.Runtime.Alloc,
			StringNew:  c.Runtime.StringNew,
			AppendChar: c.Runtime.AppendChar,
		},
	}
}

// ResolvePath resolves a path from the file against the config directory.
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

func isQualifiedName(name string) bool {
	class, routine, ok := strings.Cut(name, ".")
	return ok && isIdentifier(class) && isIdentifier(routine)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, ch := range s {
		switch {
		case ch == '_', 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z':
		case i > 0 && '0' <= ch && ch <= '9':
		default:
			return false
		}
	}
	return true
}
