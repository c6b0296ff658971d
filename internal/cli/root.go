// Package cli implements the adscope command set.
package cli

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/dkovacevic/adscope/internal/config"
	"github.com/dkovacevic/adscope/internal/output"
)

// CLI is the root command structure for adscope
type CLI struct {
	// Global flags
	Format  string `short:"f" default:"text" enum:"text,ndjson" help:"Output format"`
	Quiet   bool   `short:"q" help:"Suppress non-essential output"`
	Verbose bool   `short:"v" help:"Show debug output (capture lifecycle, internal state)"`

	// Commands
	Tail     TailCmd     `cmd:"" default:"withargs" help:"Capture ad SDK log lines from stdio and/or a journal"`
	States   StatesCmd   `cmd:"" help:"Replay an exported event file and summarize per-unit state"`
	Export   ExportCmd   `cmd:"" help:"Re-export an event file through the retention window"`
	Settings SettingsCmd `cmd:"" help:"Show or change persisted debug settings"`
	Config   ConfigCmd   `cmd:"" help:"Show resolved configuration"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Config  *config.Config
}

// NewGlobals creates a new Globals instance from CLI flags
func NewGlobals(cli *CLI) *Globals {
	return NewGlobalsWithConfig(cli, config.Default())
}

// NewGlobalsWithConfig creates a new Globals instance with config fallbacks
func NewGlobalsWithConfig(cli *CLI, cfg *config.Config) *Globals {
	g := &Globals{
		Format:  cli.Format,
		Quiet:   cli.Quiet,
		Verbose: cli.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Config:  cfg,
	}

	// Apply config values if CLI flags weren't explicitly set
	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = cfg.Quiet
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = cfg.Verbose
		}
	}

	return g
}

// logger builds the zap logger commands hand to the capture components.
// Silent unless verbose; verbose logs go to stderr so they never mix with
// command output.
func (g *Globals) logger() *zap.Logger {
	if !g.Verbose {
		return zap.NewNop()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// Debug prints a debug message if verbose mode is enabled
func (g *Globals) Debug(format string, args ...interface{}) {
	if g.Verbose {
		fmt.Fprintf(g.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// VersionCmd shows version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		return output.NewEmitter(globals.Stdout).Metadata(Version, Commit, BuildDate)
	}
	_, err := io.WriteString(globals.Stdout, "adscope version "+Version+" ("+Commit+")\n")
	return err
}

// Version information (set at build time)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = ""
)
