// Package build drives the compilation of a file or directory of classes
// into a single VM program.
package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/funvibe/jackc/internal/cache"
	"github.com/funvibe/jackc/internal/compiler"
	"github.com/funvibe/jackc/internal/config"
	"github.com/funvibe/jackc/internal/lexer"
	"github.com/funvibe/jackc/internal/pipeline"
	"github.com/funvibe/jackc/internal/vmwriter"
)

// Policy decides what happens after a class fails to compile. No output is
// written under either policy.
type Policy int

const (
	// PolicyAbort stops at the first failing class.
	PolicyAbort Policy = iota
	// PolicyContinue compiles the remaining classes to report every failure.
	PolicyContinue
)

func (p Policy) String() string {
	if p == PolicyContinue {
		return config.OnErrorContinue
	}
	return config.OnErrorAbort
}

func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", config.OnErrorAbort:
		return PolicyAbort, nil
	case config.OnErrorContinue:
		return PolicyContinue, nil
	}
	return PolicyAbort, fmt.Errorf("unknown failure policy %q", s)
}

// Source is one class file.
type Source struct {
	Path string
	Text string
}

// UnitError is the failure of one class file.
type UnitError struct {
	Path string
	Err  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}

func (e *UnitError) SourcePath() string {
	return e.Path
}

// Discover lists the class files to compile for path and the default output
// file. A file compiles to the sibling .vm file; a directory compiles every
// class file in it, sorted by name, to <dir>/<dirname>.vm.
func Discover(path string) (units []string, output string, err error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}

	if !info.IsDir() {
		if filepath.Ext(path) != config.SourceFileExt {
			return nil, "", fmt.Errorf("%s: not a %s file", path, config.SourceFileExt)
		}
		return []string{path}, strings.TrimSuffix(path, config.SourceFileExt) + config.OutputFileExt, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, "", err
	}
	// ReadDir returns entries sorted by filename.
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != config.SourceFileExt {
			continue
		}
		units = append(units, filepath.Join(path, entry.Name()))
	}
	if len(units) == 0 {
		return nil, "", fmt.Errorf("%s: no %s files found", path, config.SourceFileExt)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	return units, filepath.Join(path, filepath.Base(abs)+config.OutputFileExt), nil
}

// Builder compiles sources with one set of options. Cache and Log are optional.
type Builder struct {
	Options compiler.Options
	Policy  Policy
	Cache   *cache.Cache
	Log     *log.Logger
}

func (b *Builder) logf(format string, args ...interface{}) {
	if b.Log != nil {
		b.Log.Printf(format, args...)
	}
}

// Compile compiles sources in order into one program written to w. If any
// class fails the returned error joins a *UnitError per failure and the
// content of w must be discarded.
func (b *Builder) Compile(ctx context.Context, sources []Source, w io.Writer) (*Report, error) {
	report := newReport()
	defer report.finish()

	prog := compiler.NewProgram(w, b.Options)
	fingerprint := b.Options.Fingerprint()
	var errs []error

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return report, errors.Join(append(errs, err)...)
		}

		rec := UnitReport{Path: src.Path, FirstLabel: prog.NextLabel()}
		key := cache.Key(fingerprint, prog.NextLabel(), src.Text)

		unit, cached, err := b.lookup(ctx, key)
		if err != nil {
			b.logf("cache: %v", err)
		}
		if !cached {
			unit, err = b.compileUnit(prog, src)
		}
		if err == nil && !cached {
			b.store(ctx, key, unit)
		}
		if err == nil {
			err = prog.Append(unit)
		}

		if err != nil {
			rec.Error = err.Error()
			report.Units = append(report.Units, rec)
			errs = append(errs, &UnitError{Path: src.Path, Err: err})
			b.logf("%s: failed", src.Path)
			if b.Policy == PolicyAbort {
				break
			}
			continue
		}

		rec.Class = unit.Class
		rec.Cached = cached
		rec.NextLabel = unit.NextLabel
		report.Units = append(report.Units, rec)
		if cached {
			b.logf("%s: %s (cached)", src.Path, unit.Class)
		} else {
			b.logf("%s: %s", src.Path, unit.Class)
		}
	}

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	if err := prog.Finish(); err != nil {
		return report, err
	}
	return report, nil
}

func (b *Builder) compileUnit(prog *compiler.Program, src Source) (*vmwriter.Unit, error) {
	pctx := pipeline.NewPipelineContext(src.Text)
	pctx.FilePath = src.Path
	pipe := pipeline.New(&lexer.LexerProcessor{}, &compiler.Processor{Program: prog})
	pctx = pipe.Run(pctx)
	switch len(pctx.Errors) {
	case 0:
		return pctx.Unit, nil
	case 1:
		return nil, pctx.Errors[0]
	}
	return nil, errors.Join(pctx.Errors...)
}

func (b *Builder) lookup(ctx context.Context, key string) (*vmwriter.Unit, bool, error) {
	if b.Cache == nil {
		return nil, false, nil
	}
	return b.Cache.Get(ctx, key)
}

// store records a compiled unit. A cache failure never fails the build.
func (b *Builder) store(ctx context.Context, key string, unit *vmwriter.Unit) {
	if b.Cache == nil {
		return
	}
	if err := b.Cache.Put(ctx, key, unit); err != nil {
		b.logf("cache: %v", err)
	}
}

// Build compiles the file or directory at path. The output goes to output,
// or to the default output file when output is empty, and is written only
// if every class compiled.
func (b *Builder) Build(ctx context.Context, path, output string) (*Report, error) {
	paths, defaultOutput, err := Discover(path)
	if err != nil {
		return nil, err
	}
	if output == "" {
		output = defaultOutput
	}

	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, &UnitError{Path: p, Err: err}
		}
		sources = append(sources, Source{Path: p, Text: string(data)})
	}

	var buf bytes.Buffer
	report, err := b.Compile(ctx, sources, &buf)
	if err != nil {
		return report, err
	}

	if dir := filepath.Dir(output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return report, fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return report, fmt.Errorf("writing output: %w", err)
	}
	report.Output = output
	b.logf("wrote %s (%d classes)", output, len(report.Units))
	return report, nil
}
