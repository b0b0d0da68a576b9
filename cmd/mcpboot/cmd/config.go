// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mcpboot/mcpboot/internal/config"
)

var showSchema bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage mcpboot configuration",
	Long: `Manage mcpboot configuration.

Configuration is stored in:
  - Linux: ~/.config/mcpboot/config.cue
  - macOS: ~/Library/Application Support/mcpboot/config.cue
  - Windows: %APPDATA%\mcpboot\config.cue

Environment overrides (highest precedence): MCPBOOT_CACHE_DIR,
MCPBOOT_BASE_URL, MCPBOOT_NO_CACHE, MCPBOOT_FORCE_REFRESH, MCPBOOT_DEBUG.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if showSchema {
				fmt.Print(string(config.Schema()))
				return nil
			}
			return showConfig()
		},
	}
	showCmd.Flags().BoolVar(&showSchema, "schema", false, "print the CUE schema instead of the effective values")
	configCmd.AddCommand(showCmd)

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.FilePath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})
}

func showConfig() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return classifyEngineError(err, false)
	}

	fmt.Println(TitleStyle.Render("Effective configuration"))
	fmt.Printf("  cache_dir:       %s\n", ValueStyle.Render(cfg.CacheDir))
	fmt.Printf("  base_url:        %s\n", ValueStyle.Render(cfg.BaseURL))
	fmt.Printf("  max_artifact_age: %s\n", cfg.MaxArtifactAge)
	fmt.Printf("  install_retries: %d\n", cfg.InstallRetries)
	fmt.Printf("  retry_delay:     %s\n", cfg.RetryDelay)
	fmt.Printf("  probe_timeout:   %s\n", cfg.ProbeTimeout)
	fmt.Printf("  no_cache:        %t\n", cfg.NoCache)
	fmt.Printf("  force_refresh:   %t\n", cfg.ForceRefresh)
	fmt.Printf("  debug:           %t\n", cfg.Debug)
	return nil
}
