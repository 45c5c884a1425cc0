package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/colors"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/vault"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export <object>",
	Short: "Write the serialised history of an object",
	Long:  "Writes the serialised history to stdout, or to the file given with --output.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			data, err := v.Export(ctx, args[0])
			if err != nil {
				return err
			}
			if exportOutput == "" || exportOutput == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(exportOutput, data, 0644)
		})
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply <object> <file>",
	Short: "Merge a serialised history into an object",
	Long: `Merges a history written by export (or stdin for "-") into the object,
creating it if absent. The limits of the incoming history replace the local
ones. If the histories conflict nothing changes.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[1])
		if err != nil {
			return err
		}
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			if err := v.Apply(ctx, args[0], data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colors.SuccessText("Applied"), args[0])
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file")
}
