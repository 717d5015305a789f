// Package cli implements the ragsim command-line interface.
//
// This package provides commands for checking graph files for deadlocks,
// rendering them as Graphviz diagrams, editing them interactively, serving
// the HTTP API, and managing the scenario library. The CLI is built using
// cobra and supports verbose logging via the charmbracelet/log library.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/deadlocklab/ragsim/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "ragsim"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	ConfigPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "ragsim simulates resource allocation graphs and detects deadlocks",
		Long:         `ragsim is a teaching tool for deadlock concepts: it models processes, resources, and allocation/request edges as a resource allocation graph, detects deadlocked processes by iterative resource reduction, and suggests resolutions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default ~/.config/ragsim/config.toml)")

	root.AddCommand(c.checkCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.scenarioCommand())

	return root
}
