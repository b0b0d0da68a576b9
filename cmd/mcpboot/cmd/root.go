// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for mcpboot.
package cmd

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "mcpboot",
		Short: "Bootstrap and launch MCP servers from package specs",
		Long: TitleStyle.Render("mcpboot") + SubtitleStyle.Render(" - MCP server bootstrap engine") + `

mcpboot turns a Python package specification into a running MCP server:
it resolves a working uvx/uv runner (installing an isolated copy when the
host has none), builds a clean launch environment and hands the process
over to the server, keeping stdin/stdout free for the JSON-RPC framing.

Accepted package specs:
  mcp-server-web                              PyPI package
  example-pkg==1.2.0                          PyPI package with version
  git+https://github.com/u/repo.git#branch    git repository
  https://github.com/u/r/blob/main/srv.py     single server file
  ./servers/my_server.py                      local file or path
  -e /path/to/package                         editable local package

` + SubtitleStyle.Render("Examples:") + `
  mcpboot run mcp-server-web
  mcpboot run example-pkg==1.2.0 --port 8080
  mcpboot resolve mcp-server-web
  mcpboot config show`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/mcpboot/config.cue)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(docsCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return Version + " (commit: " + Commit + ", built: " + BuildDate + ")"
}

// Execute runs the CLI and exits the process with the mapped status code.
// This is called by main.main().
func Execute() {
	// fang overrides rootCmd.Version, so the version goes through WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
