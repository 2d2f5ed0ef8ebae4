package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/buildinfo"
)

var (
	brandStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "30", Dark: "45"})
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "242", Dark: "240"})
)

var daemonVersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("  %s %s\n", brandStyle.Render("superclauded"), buildinfo.Version)
		for _, d := range buildinfo.Details() {
			fmt.Printf("    %s %s\n", labelStyle.Render(fmt.Sprintf("%-8s", d.Label)), d.Value)
		}
	},
}
