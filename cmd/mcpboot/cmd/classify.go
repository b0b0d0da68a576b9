// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/mcpboot/mcpboot/internal/install"
	"github.com/mcpboot/mcpboot/internal/issue"
	"github.com/mcpboot/mcpboot/internal/launch"
	"github.com/mcpboot/mcpboot/internal/resolver"
	"github.com/mcpboot/mcpboot/internal/spec"
)

// classifyEngineError maps an engine failure to its exit code and attaches
// remediation suggestions for the CLI rendering. Diagnostics always go to
// stderr; stdout stays reserved for the server's protocol stream.
func classifyEngineError(err error, verbose bool) *ExitError {
	code := ExitFailure
	ctx := issue.NewContext()

	switch {
	case errors.Is(err, spec.ErrEmptySpec):
		ctx = ctx.Operation("parse package spec").
			Suggest("pass a package name, git URL, file URL or local path").
			Suggest("run 'mcpboot docs' for the accepted spec formats")
	case errors.Is(err, launch.ErrNotExecutable):
		code = ExitUnavailable
		ctx = ctx.Operation("launch server").
			Suggest("check permissions on the resolved runner binary").
			Suggest("rerun with MCPBOOT_FORCE_REFRESH=1 to reinstall the runner")
	case errors.Is(err, launch.ErrDownstream):
		ctx = ctx.Operation("run server").
			Suggest("rerun with --no-handoff --debug to capture server diagnostics")
	case errors.Is(err, install.ErrNetwork):
		ctx = ctx.Operation("download runner installer").
			Suggest("check network connectivity and proxy settings").
			Suggest("set MCPBOOT_BASE_URL to a reachable mirror")
	case errors.Is(err, install.ErrInstallFailed):
		ctx = ctx.Operation("install runner").
			Suggest("install uv manually from https://docs.astral.sh/uv/").
			Suggest("rerun with --debug for the installer output")
	case errors.Is(err, resolver.ErrRunnerNotWorking):
		ctx = ctx.Operation("verify runner").
			Suggest("remove the cache directory and rerun to force a clean install")
	case errors.Is(err, resolver.ErrRunnerNotFound):
		ctx = ctx.Operation("resolve runner").
			Suggest("install uv manually from https://docs.astral.sh/uv/").
			Suggest("ensure uvx or uv is on PATH")
	default:
		ctx = ctx.Operation("bootstrap server")
	}

	wrapped := ctx.Wrap(err)
	fmt.Fprintf(os.Stderr, "\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(wrapped, verbose))
	return &ExitError{Code: code, Err: wrapped}
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// render their suggestion block; verbose mode adds the cause chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}
