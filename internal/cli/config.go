package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/superclaude/superclaude/internal/config"
	"github.com/superclaude/superclaude/internal/rpc"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change daemon execution defaults",
	Long: `Show or change the defaults the daemon applies to new executions.
Changes last until the daemon restarts unless --save also writes them to
settings.yaml.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the daemon configuration",
	RunE:  runConfigShow,
}

var configSetFlags struct {
	model         string
	threshold     float64
	maxIterations int
	vault         string
	save          bool
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change execution defaults or the Obsidian vault",
	RunE:  runConfigSet,
}

func init() {
	configSetCmd.Flags().StringVar(&configSetFlags.model, "model", "", "default model alias")
	configSetCmd.Flags().Float64Var(&configSetFlags.threshold, "threshold", 0, "default quality threshold (0-100)")
	configSetCmd.Flags().IntVar(&configSetFlags.maxIterations, "max-iterations", 0, "default maximum iterations")
	configSetCmd.Flags().StringVar(&configSetFlags.vault, "vault", "", "Obsidian vault path (empty string disables)")
	configSetCmd.Flags().BoolVar(&configSetFlags.save, "save", false, "also write the change to settings.yaml")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	return withClient(func(ctx context.Context, c *rpc.Client) error {
		cfg, err := c.GetConfiguration(ctx)
		if err != nil {
			return err
		}
		printConfiguration(cfg)
		return nil
	})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	if flags.NFlag() == 0 || (flags.NFlag() == 1 && flags.Changed("save")) {
		return fmt.Errorf("nothing to change; see 'superclaude config set --help'")
	}

	return withClient(func(ctx context.Context, c *rpc.Client) error {
		cur, err := c.GetConfiguration(ctx)
		if err != nil {
			return err
		}

		var req rpc.UpdateConfigurationRequest
		if flags.Changed("model") || flags.Changed("threshold") || flags.Changed("max-iterations") {
			defaults := cur.Defaults
			if flags.Changed("model") {
				defaults.Model = configSetFlags.model
			}
			if flags.Changed("threshold") {
				defaults.QualityThreshold = configSetFlags.threshold
			}
			if flags.Changed("max-iterations") {
				defaults.MaxIterations = configSetFlags.maxIterations
			}
			req.Defaults = &defaults
		}
		if flags.Changed("vault") {
			obs := cur.Obsidian
			obs.VaultPath = configSetFlags.vault
			obs.Enabled = configSetFlags.vault != ""
			req.Obsidian = &obs
		}

		updated, err := c.UpdateConfiguration(ctx, &req)
		if err != nil {
			return err
		}
		fmt.Println(styleSuccess.Render("Configuration updated."))
		printConfiguration(updated)
		if !configSetFlags.save {
			return nil
		}
		path, err := persistConfiguration(updated)
		if err != nil {
			return err
		}
		fmt.Println(styleHint.Render("Saved to " + path))
		return nil
	})
}

// persistConfiguration writes the daemon's current defaults and Obsidian
// config into settings.yaml, keeping every other section as it is.
func persistConfiguration(cfg *rpc.Configuration) (string, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	settings.Defaults = cfg.Defaults
	settings.Obsidian = cfg.Obsidian
	if err := config.SaveSettings(settings); err != nil {
		return "", fmt.Errorf("failed to save settings: %w", err)
	}
	return config.GlobalSettingsFile()
}

func printConfiguration(cfg *rpc.Configuration) {
	row := func(label, value string) {
		fmt.Fprintf(os.Stdout, "  %s %s\n", styleLabel.Render(fmt.Sprintf("%-16s", label+":")), value)
	}
	d := cfg.Defaults
	fmt.Println(styleBrand.Render("Execution defaults"))
	row("Model", d.Model+styleHint.Render(" ("+strings.Join(cfg.AvailableModels, ", ")+")"))
	row("Max iterations", fmt.Sprintf("%d", d.MaxIterations))
	row("Threshold", fmt.Sprintf("%.0f", d.QualityThreshold))
	row("Min improvement", fmt.Sprintf("%.1f", d.MinImprovement))
	row("Timeout", fmt.Sprintf("%.0fs", d.TimeoutSeconds))
	row("Scoring", cfg.ScoringMode)

	fmt.Println(styleBrand.Render("Obsidian"))
	if !cfg.Obsidian.Enabled {
		row("Vault", styleHint.Render("disabled"))
		return
	}
	row("Vault", cfg.Obsidian.VaultPath)
}
