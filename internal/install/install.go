// SPDX-License-Identifier: MPL-2.0

// Package install performs the tier-3 isolated install of the uv toolchain.
// The installer script is downloaded into the cache, then executed with the
// built-in shell interpreter so a POSIX shell is not a host prerequisite,
// under environment overrides that confine the install to a private
// directory and forbid any PATH or shell-configuration mutation.
package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	"github.com/mcpboot/mcpboot/internal/cache"
	"github.com/mcpboot/mcpboot/internal/platform"
)

const (
	// installerName is the cached installer script filename.
	installerName = "uv-install.sh"

	// maxInstallerBytes caps the installer download (5 MB). The real
	// script is a few hundred KB; anything larger is not the installer.
	maxInstallerBytes = 5 << 20
)

// Capability markers recorded on (and required of) the cached installer
// artifact. A cached script predating one of these is re-fetched.
const (
	CapIsolatedInstall = "isolated-install"
	CapNoModifyPath    = "no-modify-path"
)

var (
	// ErrNetwork reports a download or registry-lookup failure. Fatal in
	// this package: tier 3 cannot proceed without the installer.
	ErrNetwork = errors.New("network failure")
	// ErrInstallFailed reports exhaustion of all install attempts.
	ErrInstallFailed = errors.New("runner installation failed")
)

// RequiredCapabilities is the marker set a cached installer must carry.
var RequiredCapabilities = []string{CapIsolatedInstall, CapNoModifyPath}

type (
	// Options configures an Installer.
	Options struct {
		// BaseURL is the remote source; the script is fetched from
		// <BaseURL>/install.sh.
		BaseURL string
		// CacheRoot holds the downloaded script and the install tree.
		CacheRoot string
		// EngineVersion is recorded on the artifact descriptor.
		EngineVersion string
		// Retries bounds download-and-install attempts (default 3).
		Retries int
		// RetryDelay is the fixed pause between attempts (default 2s).
		// No exponential backoff: the budget is small and bounded.
		RetryDelay time.Duration
		// Freshness drives reuse of an already-cached installer script.
		Freshness cache.Policy
		// HTTPClient overrides the default client, for tests.
		HTTPClient *http.Client
	}

	// Installer downloads and runs the toolchain installer. It satisfies
	// the resolver's Installer contract.
	Installer struct {
		opts Options
		log  *log.Logger
		plat platform.Platform

		// runScript is a test seam over the interpreter invocation.
		runScript func(ctx context.Context, script []byte, env []string, dir string) error
		// sleep is a test seam over time.Sleep.
		sleep func(time.Duration)
	}
)

// New creates an Installer.
func New(logger *log.Logger, plat platform.Platform, opts Options) *Installer {
	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 2 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 60 * time.Second}
	}
	inst := &Installer{
		opts:  opts,
		log:   logger,
		plat:  plat,
		sleep: time.Sleep,
	}
	inst.runScript = inst.runWithInterp
	return inst
}

// Install acquires the installer script (from cache when fresh) and runs it
// confined to the private install directory. The download-and-install step
// is retried up to Retries times with a fixed delay; exhaustion yields
// ErrInstallFailed. Returns the install directory on success.
func (i *Installer) Install(ctx context.Context) (string, error) {
	if i.plat.IsWindows() {
		return "", fmt.Errorf("%w: the shell installer does not support windows hosts", ErrInstallFailed)
	}

	installDir := cache.InstallDir(i.opts.CacheRoot)
	artifact := cache.Artifact{Root: i.opts.CacheRoot, Name: installerName}

	var lastErr error
	for attempt := 1; attempt <= i.opts.Retries; attempt++ {
		if attempt > 1 {
			i.sleep(i.opts.RetryDelay)
		}

		script, err := i.acquireScript(ctx, artifact)
		if err != nil {
			lastErr = err
			i.log.Warn("installer download failed", "attempt", attempt, "err", err)
			continue
		}

		if err := i.runScript(ctx, script, i.installEnv(installDir), i.opts.CacheRoot); err != nil {
			lastErr = err
			i.log.Warn("installer run failed", "attempt", attempt, "err", err)
			continue
		}

		i.log.Info("isolated install complete", "dir", installDir)
		return installDir, nil
	}

	return "", fmt.Errorf("%w after %d attempts: %w", ErrInstallFailed, i.opts.Retries, lastErr)
}

// acquireScript returns the installer script bytes, reusing the cached
// artifact while it is fresh and re-downloading otherwise.
func (i *Installer) acquireScript(ctx context.Context, artifact cache.Artifact) ([]byte, error) {
	decision := cache.Evaluate(artifact, i.opts.Freshness)
	if decision.Fresh {
		data, err := os.ReadFile(artifact.PayloadPath())
		if err == nil {
			i.log.Debug("reusing cached installer script", "path", artifact.PayloadPath())
			i.touchMarker()
			return data, nil
		}
		// Cached payload vanished between the check and the read; fall
		// through to a fresh download.
	} else {
		i.log.Debug("installer script is stale", "reason", decision.Reason)
	}

	url := i.opts.BaseURL + "/install.sh"
	data, err := i.download(ctx, url)
	if err != nil {
		return nil, err
	}

	desc := cache.Descriptor{
		SourceURL:     url,
		FetchedAt:     time.Now().UTC(),
		EngineVersion: i.opts.EngineVersion,
		Capabilities:  RequiredCapabilities,
	}
	if err := artifact.Store(data, desc, 0o755); err != nil {
		// A read-only cache must not block the install; run from memory.
		i.log.Warn("could not cache installer script", "err", err)
	} else {
		i.touchMarker()
	}
	return data, nil
}

// touchMarker records that the cached installer just passed (or completed)
// a freshness check. The marker is advisory; failing to write it is not an
// install failure.
func (i *Installer) touchMarker() {
	if err := cache.TouchMarker(i.opts.CacheRoot, time.Now()); err != nil {
		i.log.Debug("could not update freshness marker", "err", err)
	}
}

func (i *Installer) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %v", ErrNetwork, url, err)
	}
	resp, err := i.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", ErrNetwork, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: fetching %s: unexpected status %s", ErrNetwork, url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxInstallerBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrNetwork, url, err)
	}
	if len(data) > maxInstallerBytes {
		return nil, fmt.Errorf("%w: %s exceeds the %d byte installer limit", ErrNetwork, url, maxInstallerBytes)
	}
	return data, nil
}

// installEnv is the stripped-down environment the installer runs with:
// the inherited base plus the confinement overrides. UV_INSTALL_DIR keeps
// the binaries inside the private directory; both no-modify-path spellings
// are set because the installer has renamed the knob across versions.
func (i *Installer) installEnv(installDir string) []string {
	return append(os.Environ(),
		"UV_INSTALL_DIR="+installDir,
		"UV_NO_MODIFY_PATH=1",
		"INSTALLER_NO_MODIFY_PATH=1",
	)
}

// runWithInterp executes the installer script with the embedded shell
// interpreter. Stdout is discarded and stderr is routed to the diagnostic
// stream: nothing may leak onto the engine's RPC channel.
func (i *Installer) runWithInterp(ctx context.Context, script []byte, env []string, dir string) error {
	prog, err := syntax.NewParser().Parse(bytes.NewReader(script), installerName)
	if err != nil {
		return fmt.Errorf("parsing installer script: %w", err)
	}

	runner, err := interp.New(
		interp.Dir(dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, io.Discard, os.Stderr),
	)
	if err != nil {
		return fmt.Errorf("creating script interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exit interp.ExitStatus
		if errors.As(err, &exit) {
			return fmt.Errorf("installer exited with status %d", uint8(exit))
		}
		return fmt.Errorf("running installer script: %w", err)
	}
	return nil
}
