package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/colors"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set vault configuration options.

Examples:
  vault config limits.max_versions 50
  vault config storage.compress false
  vault config --list
  vault config cache.size`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

var configList bool

func init() {
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	// Flags are not applied here, so the file's own values are shown and saved.
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	out := cmd.OutOrStdout()

	switch {
	case configList || len(args) == 0:
		fmt.Fprintln(out, colors.SectionHeader("Configuration:"))
		for _, key := range config.Keys() {
			value, _ := cfg.Get(key)
			if value == "" {
				value = colors.Gray("(not set)")
			} else {
				value = colors.InfoText(value)
			}
			fmt.Fprintf(out, "  %s = %s\n", key, value)
		}
		return nil
	case len(args) == 1:
		value, err := cfg.Get(args[0])
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintf(out, "%s is %s\n", args[0], colors.Gray("(not set)"))
		} else {
			fmt.Fprintln(out, value)
		}
		return nil
	}

	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s = %s\n", colors.SuccessText("Set"), colors.Bold(args[0]), colors.InfoText(args[1]))
	return nil
}
