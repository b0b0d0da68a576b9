// SPDX-License-Identifier: MPL-2.0

//go:build windows

package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Handoff runs the invocation as a child with inherited stdio and exits with
// its status. Windows has no exec-style image replacement, so the engine
// stays resident as a thin relay; the stdio handles are still shared
// directly with the server process.
func Handoff(inv Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	cmd := exec.Command(inv.Path, inv.Args...)
	cmd.Dir = inv.Dir
	cmd.Env = inv.Env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("starting server process: %w", err)
	}
	os.Exit(0)
	return nil
}
