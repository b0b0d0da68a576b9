// SPDX-License-Identifier: MPL-2.0

// Package launch builds the final process invocation for a resolved runner
// and transfers control to it. The transfer is single-shot: once a handle
// reaches this package there is no further fallback, only the configured
// handoff or the diagnostic spawn path.
package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mcpboot/mcpboot/internal/resolver"
	"github.com/mcpboot/mcpboot/internal/spec"
)

const (
	// ExitUnavailable is reported when the resolved runner binary cannot
	// be executed at handoff time.
	ExitUnavailable = 127

	// DefaultWarnAfter is how long SpawnAndMonitor waits for the child's
	// first output before logging a stall warning.
	DefaultWarnAfter = 30 * time.Second
)

var (
	// ErrNotExecutable reports a runner handle whose binary is missing or
	// lacks execute permission at launch time.
	ErrNotExecutable = errors.New("runner binary is not executable")

	// ErrDownstream reports a server process that started but exited with
	// a failure status under diagnostic supervision.
	ErrDownstream = errors.New("server process failed")
)

// Invocation is a fully assembled command line for the server process.
type Invocation struct {
	// Path is the runner binary.
	Path string
	// Args is the argument vector after the binary name.
	Args []string
	// Env is the complete child environment.
	Env []string
	// Dir is the working directory.
	Dir string
}

// Argv returns the complete argument vector including the binary.
func (inv Invocation) Argv() []string {
	return append([]string{inv.Path}, inv.Args...)
}

// String renders the invocation for logging.
func (inv Invocation) String() string {
	argv := inv.Argv()
	out := argv[0]
	for _, a := range argv[1:] {
		out += " " + a
	}
	return out
}

// Validate checks that the invocation's binary exists and is executable.
// A failure here maps to the unavailable exit status.
func (inv Invocation) Validate() error {
	info, err := os.Stat(inv.Path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotExecutable, inv.Path)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNotExecutable, inv.Path)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("%w: %s", ErrNotExecutable, inv.Path)
	}
	return nil
}

// BuildInvocation assembles the command line for a resolved runner and a
// parsed package specification.
//
// Package specs use the tool-run form: uvx takes them directly, uv gets
// "tool run" injected. Script files (local .py files and downloaded raw
// payloads) use "uv run"; when the handle points at uvx the sibling uv
// binary from the same directory is used, since the two always install
// together.
func BuildInvocation(handle *resolver.RunnerHandle, pkg *spec.PackageSpec, fromExe string, serverArgs, env []string, dir string) Invocation {
	inv := Invocation{Path: handle.Path, Env: env, Dir: dir}

	if pkg.IsScriptFile() {
		if handle.Tool == resolver.ToolUVX {
			inv.Path = siblingUV(handle.Path)
		}
		inv.Args = append([]string{"run", pkg.Path}, serverArgs...)
		return inv
	}

	if handle.Tool == resolver.ToolUV {
		inv.Args = append(inv.Args, "tool", "run")
	}

	exe := pkg.Executable
	if fromExe != "" {
		exe = fromExe
	}
	switch {
	case fromExe != "" || pkg.TwoPartForm():
		inv.Args = append(inv.Args, "--from", packageArg(pkg), exe)
	default:
		inv.Args = append(inv.Args, packageArg(pkg))
	}
	inv.Args = append(inv.Args, serverArgs...)
	return inv
}

// packageArg is the spec string handed to the runner.
func packageArg(pkg *spec.PackageSpec) string {
	switch pkg.Kind {
	case spec.KindLocalPath, spec.KindEditable:
		return pkg.Path
	default:
		return pkg.Raw
	}
}

// siblingUV maps a uvx path to the uv binary installed next to it.
func siblingUV(uvxPath string) string {
	name := "uv"
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return filepath.Join(filepath.Dir(uvxPath), name)
}

// SpawnAndMonitor runs the invocation as a supervised child with inherited
// stdio instead of replacing the process image. It is the diagnostic path:
// the engine stays alive, relays the exit code, and warns when the child
// produces no output within warnAfter. The warning is advisory only and
// never alters control flow.
func SpawnAndMonitor(ctx context.Context, logger *log.Logger, inv Invocation, warnAfter time.Duration) (int, error) {
	if err := inv.Validate(); err != nil {
		return ExitUnavailable, err
	}
	if warnAfter <= 0 {
		warnAfter = DefaultWarnAfter
	}

	cmd := exec.CommandContext(ctx, inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	cmd.Stdin = os.Stdin

	stdout := &firstWriteNotifier{w: os.Stdout}
	stderr := &firstWriteNotifier{w: os.Stderr}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	timer := time.AfterFunc(warnAfter, func() {
		logger.Warn("server produced no output yet; it may still be installing dependencies",
			"after", warnAfter, "command", inv.String())
	})
	defer timer.Stop()
	stdout.onFirst = func() { timer.Stop() }
	stderr.onFirst = func() { timer.Stop() }

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), fmt.Errorf("%w: exit status %d", ErrDownstream, exitErr.ExitCode())
		}
		return 1, fmt.Errorf("starting server process: %w", err)
	}
	return 0, nil
}

// firstWriteNotifier forwards writes and fires onFirst exactly once, on the
// first byte written.
type firstWriteNotifier struct {
	w       io.Writer
	onFirst func()
	once    sync.Once
}

func (n *firstWriteNotifier) Write(p []byte) (int, error) {
	if len(p) > 0 && n.onFirst != nil {
		n.once.Do(n.onFirst)
	}
	return n.w.Write(p)
}
