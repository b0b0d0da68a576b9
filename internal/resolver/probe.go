// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// ExecProber verifies candidates by running them with probe arguments.
// Output is discarded and stdin is left unconnected: a probe must never
// leak bytes onto the engine's RPC streams.
type ExecProber struct {
	// Timeout bounds a single probe invocation.
	Timeout time.Duration
}

// Probe runs path with args and reports whether it exited successfully.
func (p *ExecProber) Probe(ctx context.Context, path string, args ...string) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, path, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("probing %s %v: %w", path, args, err)
	}
	return nil
}
