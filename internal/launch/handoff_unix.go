// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package launch

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Handoff replaces the current process image with the invocation. On success
// it does not return: the server inherits the engine's stdin, stdout and
// stderr verbatim, so the JSON-RPC framing continues on the same file
// descriptors without a relay in between.
func Handoff(inv Invocation) error {
	if err := inv.Validate(); err != nil {
		return err
	}
	if inv.Dir != "" {
		if err := os.Chdir(inv.Dir); err != nil {
			return fmt.Errorf("entering workdir %s: %w", inv.Dir, err)
		}
	}
	if err := unix.Exec(inv.Path, inv.Argv(), inv.Env); err != nil {
		return fmt.Errorf("%w: exec %s: %v", ErrNotExecutable, inv.Path, err)
	}
	return nil
}
