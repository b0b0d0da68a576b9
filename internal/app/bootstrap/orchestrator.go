// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/mcpboot/mcpboot/internal/cache"
	"github.com/mcpboot/mcpboot/internal/config"
	"github.com/mcpboot/mcpboot/internal/install"
	"github.com/mcpboot/mcpboot/internal/launch"
	"github.com/mcpboot/mcpboot/internal/platform"
	"github.com/mcpboot/mcpboot/internal/resolver"
	"github.com/mcpboot/mcpboot/internal/spec"
)

type (
	// Options configures a single engine run.
	Options struct {
		// Spec is the raw package specification from the command line.
		Spec string
		// ServerArgs are passed through to the server process untouched.
		ServerArgs []string
		// FromExe overrides the inferred executable name, forcing the
		// two-part invocation form.
		FromExe string
		// Workdir overrides the default server working directory.
		Workdir string
		// NoHandoff keeps the engine resident and supervises the server
		// instead of replacing the process image.
		NoHandoff bool
		// EngineVersion is stamped on cache descriptors.
		EngineVersion string

		Config   *config.Config
		Logger   *log.Logger
		Platform platform.Platform

		// environ is a test seam over os.Environ.
		environ func() []string
		// newResolver is a test seam over the resolver construction.
		newResolver func(o *Options, installDir string) runnerResolver
	}

	// Plan is a fully prepared launch: everything decided, nothing executed.
	Plan struct {
		Package    *spec.PackageSpec
		Handle     *resolver.RunnerHandle
		Invocation launch.Invocation

		logger    *log.Logger
		noHandoff bool
	}

	runnerResolver interface {
		Resolve(ctx context.Context) (*resolver.RunnerHandle, error)
	}
)

// Prepare runs the decision pipeline and returns the launch plan. No server
// process is started and the engine's own stdio is left untouched.
func Prepare(ctx context.Context, opts Options) (*Plan, error) {
	cfg := opts.Config
	logger := opts.Logger

	pkg, err := spec.Parse(opts.Spec)
	if err != nil {
		return nil, err
	}
	logger.Debug("parsed package spec",
		"kind", pkg.Kind, "name", pkg.Name, "executable", pkg.Executable)

	if pkg.Kind == spec.KindRawFile {
		path, err := fetchRawFile(ctx, logger, pkg, cfg)
		if err != nil {
			return nil, err
		}
		pkg = pkg.WithPath(path)
	}

	installDir := cache.InstallDir(cfg.CacheDir)
	newResolver := opts.newResolver
	if newResolver == nil {
		newResolver = productionResolver
	}
	handle, err := newResolver(&opts, installDir).Resolve(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug("resolved runner",
		"path", handle.Path, "tool", handle.Tool, "origin", handle.Origin)

	environ := opts.environ
	if environ == nil {
		environ = os.Environ
	}
	env := launch.BuildEnv(environ(), launch.EnvOptions{
		CacheRoot: cfg.CacheDir,
		Debug:     cfg.Debug,
	})

	dir := opts.Workdir
	if dir == "" {
		dir = launch.Workdir()
	}

	inv := launch.BuildInvocation(handle, pkg, opts.FromExe, opts.ServerArgs, env, dir)
	logger.Debug("assembled invocation", "command", inv.String(), "workdir", dir)

	return &Plan{
		Package:    pkg,
		Handle:     handle,
		Invocation: inv,
		logger:     logger,
		noHandoff:  opts.NoHandoff,
	}, nil
}

// productionResolver wires the real prober and installer behind the plan.
func productionResolver(o *Options, installDir string) runnerResolver {
	installer := install.New(o.Logger, o.Platform, install.Options{
		BaseURL:       o.Config.BaseURL,
		CacheRoot:     o.Config.CacheDir,
		EngineVersion: o.EngineVersion,
		Retries:       o.Config.InstallRetries,
		RetryDelay:    o.Config.RetryDelay,
		Freshness: cache.Policy{
			Force:                o.Config.ForceRefresh,
			MaxAge:               o.Config.MaxArtifactAge,
			RequiredCapabilities: install.RequiredCapabilities,
		},
	})
	prober := &resolver.ExecProber{Timeout: o.Config.ProbeTimeout}
	return resolver.New(o.Logger, prober, installer, o.Platform, installDir)
}

// Execute performs the terminal action of the plan. In handoff mode it does
// not return on success; in supervised mode it returns the child's exit
// code. The error is classified by the CLI boundary.
func (p *Plan) Execute(ctx context.Context) (int, error) {
	if p.noHandoff {
		p.logger.Info("supervising server process", "command", p.Invocation.String())
		return launch.SpawnAndMonitor(ctx, p.logger, p.Invocation, launch.DefaultWarnAfter)
	}

	p.logger.Debug("handing off to server process", "command", p.Invocation.String())
	err := p.Handoff()
	switch {
	case err == nil:
		return 0, nil
	case errors.Is(err, launch.ErrNotExecutable):
		return launch.ExitUnavailable, err
	default:
		return 1, fmt.Errorf("handoff failed: %w", err)
	}
}

// Handoff is a seam for the process-image replacement, split out so tests
// can exercise Execute without losing the test process.
var handoffFn = launch.Handoff

func (p *Plan) Handoff() error {
	return handoffFn(p.Invocation)
}
