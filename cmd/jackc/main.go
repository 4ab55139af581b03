package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"google.golang.org/grpc"

	"github.com/funvibe/jackc/internal/build"
	"github.com/funvibe/jackc/internal/cache"
	"github.com/funvibe/jackc/internal/config"
	"github.com/funvibe/jackc/internal/diagnostics"
	"github.com/funvibe/jackc/internal/service"
)

const usage = `Usage:
  jackc [-config file] [-o output] [-keep-going] [-no-bootstrap] [-v] <file.jack|dir>
  jackc serve [-addr :7070] [-config file] [-v]
  jackc version
`

func main() {
	log.SetFlags(0)          // Disable timestamp in logs
	log.SetOutput(os.Stderr) // Output goes to files, diagnostics and logs to stderr

	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit status.
func run(args []string, stdout, stderr io.Writer) int {
	if code, ok := handleVersion(args, stdout); ok {
		return code
	}
	if code, ok := handleServe(args, stderr); ok {
		return code
	}
	return handleCompile(args, stdout, stderr)
}

func handleVersion(args []string, stdout io.Writer) (int, bool) {
	if len(args) == 0 || (args[0] != "version" && args[0] != "-version" && args[0] != "--version") {
		return 0, false
	}
	fmt.Fprintf(stdout, "jackc %s\n", config.Version)
	return 0, true
}

// loadConfig reads the explicit config file, or the nearest jackc.yaml
// above dir, or falls back to the defaults.
func loadConfig(explicit, dir string) (*config.Config, error) {
	if explicit != "" {
		return config.Load(explicit)
	}
	path, err := config.Find(dir)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(verbose bool, stderr io.Writer) *log.Logger {
	if !verbose {
		return log.New(io.Discard, "", 0)
	}
	return log.New(stderr, "", 0)
}

func openCache(ctx context.Context, cfg *config.Config) (*cache.Cache, error) {
	if cfg.Cache == "" {
		return nil, nil
	}
	path := cfg.ResolvePath(cfg.Cache)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return cache.Open(ctx, path)
}

func newBuilder(ctx context.Context, cfg *config.Config, logger *log.Logger) (*build.Builder, func(), error) {
	policy, err := build.ParsePolicy(cfg.OnError)
	if err != nil {
		return nil, nil, err
	}
	c, err := openCache(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if c != nil {
			c.Close()
		}
	}
	return &build.Builder{
		Options: cfg.CompilerOptions(),
		Policy:  policy,
		Cache:   c,
		Log:     logger,
	}, closeFn, nil
}

// handleCompile compiles a class file or a directory of class files.
func handleCompile(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("jackc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := fs.String("config", "", "configuration file (default: nearest jackc.yaml)")
	output := fs.String("o", "", "output file")
	keepGoing := fs.Bool("keep-going", false, "compile every class and report all failures")
	noBootstrap := fs.Bool("no-bootstrap", false, "do not emit the bootstrap sequence")
	verbose := fs.Bool("v", false, "log progress to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	input := fs.Arg(0)

	dir := input
	if info, err := os.Stat(input); err == nil && !info.IsDir() {
		dir = filepath.Dir(input)
	}
	cfg, err := loadConfig(*configPath, dir)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	if *keepGoing {
		cfg.OnError = config.OnErrorContinue
	}
	if *noBootstrap {
		off := false
		cfg.Bootstrap = &off
	}
	if *output == "" && cfg.Output != "" {
		*output = cfg.ResolvePath(cfg.Output)
	}

	printer := diagnostics.NewPrinter(stderr, cfg.Color)
	logger := newLogger(*verbose, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, closeBuilder, err := newBuilder(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 1
	}
	defer closeBuilder()

	report, buildErr := builder.Build(ctx, input, *output)

	if report != nil && cfg.Report != "" {
		if err := report.WriteFile(cfg.ResolvePath(cfg.Report)); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 1
		}
	}

	if buildErr != nil {
		if err := printer.PrintError(input, buildErr); err != nil {
			log.Printf("Error: writing diagnostics: %s", err)
		}
		return 1
	}
	logger.Printf("build %s finished in %s", report.ID, report.Duration)
	fmt.Fprintf(stdout, "Compiled %s -> %s\n", input, report.Output)
	return 0
}

// handleServe runs the compile service until interrupted.
func handleServe(args []string, stderr io.Writer) (int, bool) {
	if len(args) == 0 || args[0] != "serve" {
		return 0, false
	}

	fs := flag.NewFlagSet("jackc serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", ":7070", "listen address")
	configPath := fs.String("config", "", "configuration file (default: nearest jackc.yaml)")
	verbose := fs.Bool("v", false, "log every request to stderr")
	if err := fs.Parse(args[1:]); err != nil {
		return 2, true
	}

	cfg, err := loadConfig(*configPath, ".")
	if err != nil {
		log.Printf("Error: %s", err)
		return 1, true
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	builder, closeBuilder, err := newBuilder(ctx, cfg, newLogger(*verbose, stderr))
	if err != nil {
		log.Printf("Error: %s", err)
		return 1, true
	}
	defer closeBuilder()

	srv, err := service.NewServer(*builder)
	if err != nil {
		log.Printf("Error: %s", err)
		return 1, true
	}

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Printf("Error: %s", err)
		return 1, true
	}

	s := grpc.NewServer()
	srv.Register(s)

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	log.Printf("Serving %s on %s", service.ServiceName, lis.Addr())
	if err := s.Serve(lis); err != nil {
		log.Printf("Error: %s", err)
		return 1, true
	}
	return 0, true
}
