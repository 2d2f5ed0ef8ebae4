package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("  %s %s\n", styleBrand.Render("superclaude"), styleVersion.Render(buildinfo.Version))
		for _, d := range buildinfo.Details() {
			fmt.Printf("    %s %s\n", styleLabel.Render(fmt.Sprintf("%-8s", d.Label)), styleValue.Render(d.Value))
		}
	},
}
