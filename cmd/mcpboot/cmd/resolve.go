// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcpboot/mcpboot/internal/app/bootstrap"
	"github.com/mcpboot/mcpboot/internal/botlog"
	"github.com/mcpboot/mcpboot/internal/cache"
	"github.com/mcpboot/mcpboot/internal/config"
	"github.com/mcpboot/mcpboot/internal/platform"
	"github.com/mcpboot/mcpboot/internal/spec"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <package-spec>",
	Short: "Show how a package spec would be launched, without launching it",
	Long: `Run the full decision pipeline for a package spec and print the result:
the parsed specification, the resolved runner and the exact command line
that a 'mcpboot run' would hand off to. Nothing is launched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return classifyEngineError(err, runOpts.debug)
		}
		applyRunFlags(&cfg, runOpts)

		logger, closeLog := botlog.New(botlog.Options{
			FilePath: cache.LogFile(cfg.CacheDir),
			Debug:    cfg.Debug,
		})
		defer func() { _ = closeLog() }()

		specArg, exe := args[0], ""
		if runOpts.fromSpec != "" {
			specArg, exe = runOpts.fromSpec, args[0]
		}

		plan, err := bootstrap.Prepare(cmd.Context(), bootstrap.Options{
			Spec:          specArg,
			FromExe:       exe,
			Workdir:       runOpts.workdir,
			EngineVersion: Version,
			Config:        &cfg,
			Logger:        logger,
			Platform:      platform.Classify(os.Getenv),
		})
		if err != nil {
			return classifyEngineError(err, cfg.Debug)
		}

		printResolution(plan)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&runOpts.fromSpec, "from", "", "package spec to install from; the positional becomes the executable name")
	resolveCmd.Flags().BoolVar(&runOpts.debug, "debug", false, "verbose engine diagnostics on stderr")
}

func printResolution(plan *bootstrap.Plan) {
	pkg := plan.Package

	fmt.Println(TitleStyle.Render("Package"))
	fmt.Printf("  kind:       %s\n", pkg.Kind)
	fmt.Printf("  name:       %s\n", pkg.Name)
	if pkg.VersionConstraint != "" {
		fmt.Printf("  version:    %s\n", pkg.VersionConstraint)
	}
	if pkg.Ref != "" {
		fmt.Printf("  ref:        %s\n", pkg.Ref)
	}
	if pkg.Executable != "" {
		fmt.Printf("  executable: %s\n", pkg.Executable)
	}
	if pkg.Path != "" {
		fmt.Printf("  path:       %s\n", pkg.Path)
	}
	if pkg.Kind == spec.KindVersionControl && pkg.TwoPartForm() {
		fmt.Printf("  form:       two-part (--from)\n")
	}

	fmt.Println(TitleStyle.Render("Runner"))
	fmt.Printf("  tool:   %s\n", plan.Handle.Tool)
	fmt.Printf("  path:   %s\n", ValueStyle.Render(plan.Handle.Path))
	fmt.Printf("  origin: %s\n", plan.Handle.Origin)

	fmt.Println(TitleStyle.Render("Invocation"))
	fmt.Printf("  %s\n", ValueStyle.Render(plan.Invocation.String()))
	fmt.Printf("  workdir: %s\n", plan.Invocation.Dir)
}
