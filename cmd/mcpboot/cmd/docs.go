// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	_ "embed"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

//go:embed usage.md
var usageDoc string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Show the usage guide",
	Long:  "Render the embedded usage guide: spec formats, resolution tiers, cache layout and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)
		if err != nil {
			// Styled rendering is best effort; plain text is always available.
			fmt.Print(usageDoc)
			return nil
		}
		out, err := renderer.Render(usageDoc)
		if err != nil {
			fmt.Print(usageDoc)
			return nil
		}
		fmt.Print(out)
		return nil
	},
}
