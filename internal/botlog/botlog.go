// SPDX-License-Identifier: MPL-2.0

// Package botlog builds the engine's diagnostic logger. Everything goes to
// stderr (stdout is reserved for the launched server's RPC framing) and a
// timestamped copy of each decision is appended to mcpboot.log under the
// cache root so a failed launch can be reconstructed after the fact.
package botlog

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

// Options configures New.
type Options struct {
	// FilePath is the persistent log location; empty disables the file copy.
	FilePath string
	// Debug lowers the level from Info to Debug.
	Debug bool
}

// New returns the engine logger and a closer for the log file. The closer
// is safe to call even when no file could be opened.
func New(opts Options) (*log.Logger, func() error) {
	out := io.Writer(os.Stderr)
	closeFn := func() error { return nil }

	if opts.FilePath != "" {
		if f := openLogFile(opts.FilePath); f != nil {
			out = io.MultiWriter(os.Stderr, f)
			closeFn = f.Close
		}
	}

	logger := log.NewWithOptions(out, log.Options{
		Prefix:          "mcpboot",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	if opts.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger, closeFn
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// openLogFile opens the log for appending, creating parent directories.
// A cache root that cannot be written must not break the launch, so any
// failure here silently drops the file copy.
func openLogFile(path string) *os.File {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return f
}
