package config

// SourceFileExt is the extension of compiled source files.
const SourceFileExt = ".jack"

// OutputFileExt is the extension of the generated VM program.
const OutputFileExt = ".vm"

// ConfigFileNames are the recognized configuration file names, in lookup order.
var ConfigFileNames = []string{"jackc.yaml", "jackc.yml"}

// Failure policies for multi-class builds.
const (
	OnErrorAbort    = "abort"
	OnErrorContinue = "continue"
)

// Colour modes for diagnostics.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Version is printed by `jackc version`.
// Can be set at build time using: -ldflags "-X github.com/funvibe/jackc/internal/config.Version=..."
var Version = "dev"
