// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mcpboot/mcpboot/internal/app/bootstrap"
	"github.com/mcpboot/mcpboot/internal/botlog"
	"github.com/mcpboot/mcpboot/internal/cache"
	"github.com/mcpboot/mcpboot/internal/config"
	"github.com/mcpboot/mcpboot/internal/platform"
)

// runFlags are the engine flags shared by `mcpboot run` and the root
// command's default dispatch.
type runFlags struct {
	fromSpec  string
	noHandoff bool
	debug     bool
	refresh   bool
	noCache   bool
	workdir   string
}

var runOpts runFlags

var runCmd = &cobra.Command{
	Use:   "run <package-spec> [server-args...]",
	Short: "Resolve a package spec and launch its MCP server",
	Long: `Resolve a package spec to a working uvx/uv runner and launch the server.

On success the engine replaces itself with the server process: stdin and
stdout carry the MCP JSON-RPC stream end to end, and every engine
diagnostic goes to stderr only. Everything after the package spec is
passed to the server untouched.

With --from the explicit two-part form is used, mirroring the runner's
own surface: 'mcpboot run --from <package-spec> <executable> [args...]'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEngine(cmd, args, runOpts)
	},
}

func init() {
	addRunFlags(runCmd.Flags(), &runOpts)
	// Flags after the package spec belong to the server, not the engine.
	runCmd.Flags().SetInterspersed(false)

	// Running with a bare spec is the common MCP host configuration, so the
	// root command dispatches unknown positionals to the engine.
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runEngine(cmd, args, runOpts)
	}
	addRunFlags(rootCmd.Flags(), &runOpts)
	rootCmd.Flags().SetInterspersed(false)
}

func addRunFlags(fs *pflag.FlagSet, opts *runFlags) {
	fs.StringVar(&opts.fromSpec, "from", "", "package spec to install from; the first positional becomes the executable name")
	fs.BoolVar(&opts.noHandoff, "no-handoff", false, "supervise the server instead of replacing the process image")
	fs.BoolVar(&opts.debug, "debug", false, "verbose engine and runner diagnostics on stderr")
	fs.BoolVar(&opts.refresh, "refresh", false, "treat every cached artifact as stale")
	fs.BoolVar(&opts.noCache, "no-cache", false, "disable artifact caching for this run")
	fs.StringVar(&opts.workdir, "workdir", "", "server working directory (default: home directory)")
}

func runEngine(cmd *cobra.Command, args []string, opts runFlags) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return classifyEngineError(err, opts.debug)
	}
	applyRunFlags(&cfg, opts)

	logger, closeLog := botlog.New(botlog.Options{
		FilePath: cache.LogFile(cfg.CacheDir),
		Debug:    cfg.Debug,
	})
	defer func() { _ = closeLog() }()

	// Default form: spec first, everything after goes to the server.
	// Two-part form: --from holds the spec, the first positional is the
	// executable to invoke inside it.
	specArg, exe := args[0], ""
	if opts.fromSpec != "" {
		specArg, exe = opts.fromSpec, args[0]
	}

	plan, err := bootstrap.Prepare(cmd.Context(), bootstrap.Options{
		Spec:          specArg,
		ServerArgs:    args[1:],
		FromExe:       exe,
		Workdir:       opts.workdir,
		NoHandoff:     opts.noHandoff,
		EngineVersion: Version,
		Config:        &cfg,
		Logger:        logger,
		Platform:      platform.Classify(os.Getenv),
	})
	if err != nil {
		return classifyEngineError(err, cfg.Debug)
	}

	if !opts.noHandoff {
		// Flush the decision log before the process image is replaced.
		_ = closeLog()
	}

	code, err := plan.Execute(cmd.Context())
	if err != nil {
		exitErr := classifyEngineError(err, cfg.Debug)
		exitErr.Code = code
		return exitErr
	}
	if code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// applyRunFlags folds CLI flags over the loaded configuration. Flags win
// over both the config file and the environment.
func applyRunFlags(cfg *config.Config, opts runFlags) {
	if opts.debug {
		cfg.Debug = true
	}
	if opts.refresh {
		cfg.ForceRefresh = true
	}
	if opts.noCache {
		cfg.NoCache = true
	}
}
