// SPDX-License-Identifier: MPL-2.0

// Package resolver produces a verified, working path to the package-runner
// executable through a strictly ordered fallback chain: an already-installed
// user copy of uvx, the broader uv toolchain providing the same capability,
// and, last, a freshly installed copy isolated under the engine's cache
// root. An existing installation is always preferred over anything the
// engine would install itself: it best matches the environment the caller
// would get running the same command by hand.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/mcpboot/mcpboot/internal/platform"
)

// Origin constants for RunnerHandle.Origin.
const (
	// OriginUserInstalled is a uvx already on the caller's system.
	OriginUserInstalled Origin = "user-installed"
	// OriginAlternateToolchain is uv standing in for uvx via `uv tool run`.
	OriginAlternateToolchain Origin = "alternate-toolchain"
	// OriginIsolatedInstall is a copy the engine installed under its cache.
	OriginIsolatedInstall Origin = "isolated-install"
)

// Tool constants for RunnerHandle.Tool.
const (
	// ToolUVX is the dedicated package-runner entry point.
	ToolUVX Tool = "uvx"
	// ToolUV is the full toolchain; package runs go through `uv tool run`.
	ToolUV Tool = "uv"
)

var (
	// ErrRunnerNotFound reports exhaustion of the whole fallback chain.
	ErrRunnerNotFound = errors.New("no working package runner found")
	// ErrRunnerNotWorking reports an executable that was found (or freshly
	// installed) but failed its verification probe.
	ErrRunnerNotWorking = errors.New("package runner failed verification")
)

type (
	// Origin records which tier produced a handle.
	Origin string

	// Tool identifies the runner flavor behind a handle.
	Tool string

	// RunnerHandle is the resolver's product: an absolute executable path
	// that has passed its verification probes. Exactly one handle is
	// selected per invocation; Verified is set only after a successful
	// probe, and an unverified handle is never returned to callers.
	RunnerHandle struct {
		Path     string
		Tool     Tool
		Origin   Origin
		Verified bool
	}

	// Prober runs a cheap no-op invocation of a candidate executable.
	// Probes must never touch the engine's stdin or stdout.
	Prober interface {
		Probe(ctx context.Context, path string, args ...string) error
	}

	// Installer performs the tier-3 isolated install and returns the
	// directory the toolchain was installed into.
	Installer interface {
		Install(ctx context.Context) (string, error)
	}

	// Resolver holds the chain's collaborators. Construct with New.
	Resolver struct {
		log       *log.Logger
		prober    Prober
		installer Installer
		plat      platform.Platform

		// lookPath is a test seam over exec.LookPath.
		lookPath func(string) (string, error)
		// extraDirs are well-known install locations probed after PATH.
		extraDirs []string
	}

	// Option configures a Resolver.
	Option func(*Resolver)
)

// installSubdirs are the plausible layouts an installer run may produce
// inside the isolated install directory. The installer's exact output
// layout is not guaranteed, so the resolver probes rather than assumes.
var installSubdirs = []string{".", "bin", filepath.Join(".local", "bin")}

// WithLookPath overrides PATH lookup, for tests.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(r *Resolver) { r.lookPath = fn }
}

// WithExtraDirs overrides the well-known candidate directories.
func WithExtraDirs(dirs []string) Option {
	return func(r *Resolver) { r.extraDirs = dirs }
}

// New creates a Resolver. installDir is the isolated-install location under
// the cache root; it is probed in tier 1 too so an install from a previous
// invocation is reused without re-running the installer.
func New(logger *log.Logger, prober Prober, installer Installer, plat platform.Platform, installDir string, opts ...Option) *Resolver {
	r := &Resolver{
		log:       logger,
		prober:    prober,
		installer: installer,
		plat:      plat,
		lookPath:  defaultLookPath,
		extraDirs: wellKnownDirs(plat, installDir),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve walks the tiers in order and returns the first verified handle.
// Each tier is attempted to completion before the next is considered; a
// working tier-1 candidate short-circuits everything, making resolution
// idempotent on a host that already has uvx.
func (r *Resolver) Resolve(ctx context.Context) (*RunnerHandle, error) {
	if h := r.resolveUserInstalled(ctx); h != nil {
		return h, nil
	}
	if h := r.resolveAlternateToolchain(ctx); h != nil {
		return h, nil
	}
	h, err := r.resolveIsolatedInstall(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRunnerNotFound, err)
	}
	return h, nil
}

// resolveUserInstalled probes PATH and the well-known directories for uvx.
// A candidate must pass both the version probe and the stronger capability
// probe before it is selected.
func (r *Resolver) resolveUserInstalled(ctx context.Context) *RunnerHandle {
	for _, candidate := range r.candidates(ToolUVX) {
		if err := r.prober.Probe(ctx, candidate, "--version"); err != nil {
			r.log.Debug("candidate failed version probe", "path", candidate, "err", err)
			continue
		}
		if err := r.prober.Probe(ctx, candidate, "--help"); err != nil {
			r.log.Debug("candidate failed capability probe", "path", candidate, "err", err)
			continue
		}
		r.log.Info("using installed runner", "path", candidate, "origin", OriginUserInstalled)
		return &RunnerHandle{Path: candidate, Tool: ToolUVX, Origin: OriginUserInstalled, Verified: true}
	}
	return nil
}

// resolveAlternateToolchain probes for uv, which provides the same runner
// capability under `uv tool run`.
func (r *Resolver) resolveAlternateToolchain(ctx context.Context) *RunnerHandle {
	for _, candidate := range r.candidates(ToolUV) {
		if err := r.prober.Probe(ctx, candidate, "--version"); err != nil {
			r.log.Debug("uv candidate failed version probe", "path", candidate, "err", err)
			continue
		}
		r.log.Info("using alternate toolchain", "path", candidate, "origin", OriginAlternateToolchain)
		return &RunnerHandle{Path: candidate, Tool: ToolUV, Origin: OriginAlternateToolchain, Verified: true}
	}
	return nil
}

// resolveIsolatedInstall runs the installer and locates the resulting
// executable. This tier runs at most once per invocation.
func (r *Resolver) resolveIsolatedInstall(ctx context.Context) (*RunnerHandle, error) {
	r.log.Info("no installed runner found, performing isolated install")

	installRoot, err := r.installer.Install(ctx)
	if err != nil {
		return nil, fmt.Errorf("tier 3 (isolated install): %w", err)
	}

	candidate := r.findInstalled(installRoot)
	if candidate == "" {
		return nil, fmt.Errorf("tier 3 (isolated install): %w: no %s executable under %s",
			ErrRunnerNotWorking, ToolUVX, installRoot)
	}

	if err := r.prober.Probe(ctx, candidate, "--version"); err != nil {
		return nil, fmt.Errorf("tier 3 (isolated install): %w: %s: %v", ErrRunnerNotWorking, candidate, err)
	}

	r.log.Info("using freshly installed runner", "path", candidate, "origin", OriginIsolatedInstall)
	return &RunnerHandle{Path: candidate, Tool: ToolUVX, Origin: OriginIsolatedInstall, Verified: true}, nil
}

// findInstalled searches the plausible sub-paths of the install root for
// the runner executable.
func (r *Resolver) findInstalled(root string) string {
	name := executableName(ToolUVX, r.plat)
	for _, sub := range installSubdirs {
		candidate := filepath.Join(root, sub, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// candidates returns the ordered probe list for a tool: the PATH hit first,
// then the well-known directories, deduplicated.
func (r *Resolver) candidates(tool Tool) []string {
	name := executableName(tool, r.plat)

	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	if p, err := r.lookPath(string(tool)); err == nil {
		add(p)
	}
	for _, dir := range r.extraDirs {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			add(candidate)
		}
	}
	return out
}

// wellKnownDirs lists per-user and per-system install locations, ending
// with the engine's own isolated-install tree from any previous run.
func wellKnownDirs(plat platform.Platform, installDir string) []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, ".cargo", "bin"),
		)
	}
	if !plat.IsWindows() {
		dirs = append(dirs, "/usr/local/bin")
		if plat.OS == platform.OSDarwin {
			dirs = append(dirs, "/opt/homebrew/bin")
		}
	}
	if installDir != "" {
		for _, sub := range installSubdirs {
			dirs = append(dirs, filepath.Join(installDir, sub))
		}
	}
	return dirs
}

// executableName appends .exe on Windows.
func executableName(tool Tool, plat platform.Platform) string {
	if plat.IsWindows() {
		return string(tool) + ".exe"
	}
	return string(tool)
}

// defaultLookPath wraps exec.LookPath and normalizes relative results to
// absolute paths so the handle survives a later working-directory change.
func defaultLookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(p) {
		return p, nil
	}
	abs, absErr := filepath.Abs(p)
	if absErr != nil {
		return p, nil
	}
	return abs, nil
}
