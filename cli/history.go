package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/colors"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/sdv"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/vault"
)

var (
	createMaxVersions uint32
	createMaxBranches uint32
)

var createCmd = &cobra.Command{
	Use:   "create <object>",
	Short: "Create an empty history",
	Long:  "Creates an empty history. Limits default to limits.max_versions and limits.max_branches.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			if err := v.Create(ctx, args[0], createMaxVersions, createMaxBranches); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", colors.SuccessText("Created"), args[0])
			return nil
		})
	},
}

var putCmd = &cobra.Command{
	Use:   "put <object> <parent> <version>",
	Short: "Record a version under a parent",
	Long: `Records version as a child of parent. Versions are written <index>-<hex id>;
use "root" as the parent of the first version.

Examples:
  vault put notes root 0-9f86d0...
  vault put notes 0-9f86d0... 1-60303a...`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, err := sdv.ParseVersionName(args[1])
		if err != nil {
			return err
		}
		version, err := sdv.ParseVersionName(args[2])
		if err != nil {
			return err
		}
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			return v.Put(ctx, args[0], parent, version)
		})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit <object> <parent> <file>",
	Short: "Store content as a new version",
	Long:  `Stores the file's content (or stdin for "-") and records it as a new version under parent.`,
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, err := sdv.ParseVersionName(args[1])
		if err != nil {
			return err
		}
		content, err := readInput(cmd, args[2])
		if err != nil {
			return err
		}
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			version, err := v.Commit(ctx, args[0], parent, content)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		})
	},
}

var tipsCmd = &cobra.Command{
	Use:   "tips <object>",
	Short: "List the tips of every branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			tips, err := v.Tips(ctx, args[0])
			if err != nil {
				return err
			}
			for _, tip := range tips {
				fmt.Fprintln(cmd.OutOrStdout(), tip.Full())
			}
			return nil
		})
	},
}

var branchCmd = &cobra.Command{
	Use:   "branch <object> <tip>",
	Short: "List a branch from its tip back to its start",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tip, err := sdv.ParseVersionName(args[1])
		if err != nil {
			return err
		}
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			branch, err := v.Branch(ctx, args[0], tip)
			if err != nil {
				return err
			}
			for _, version := range branch {
				fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			}
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <object>",
	Short: "Summarise a history",
	Long:  "Shows the limits, root, orphans and every branch of a history.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			history, err := v.History(ctx, args[0])
			if err != nil {
				return err
			}
			printHistory(cmd.OutOrStdout(), args[0], history)
			return nil
		})
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune <object> <tip>",
	Short: "Delete a branch back to where it forks",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tip, err := sdv.ParseVersionName(args[1])
		if err != nil {
			return err
		}
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			return v.DeleteBranchUntilFork(ctx, args[0], tip)
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <object>",
	Short: "Remove every version, keeping the limits",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			return v.Clear(ctx, args[0])
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <object>",
	Short: "Delete a history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			return v.Delete(ctx, args[0])
		})
	},
}

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "List objects with a history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			names, err := v.Objects(ctx)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		})
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <version>",
	Short: "Print the content a version names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := sdv.ParseVersionName(args[0])
		if err != nil {
			return err
		}
		if !version.IsInitialised() {
			return fmt.Errorf("%q names no content", args[0])
		}
		return withVault(cmd, func(ctx context.Context, v *vault.Vault) error {
			content, err := v.Content(ctx, version.ID)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(content)
			return err
		})
	},
}

func init() {
	createCmd.Flags().Uint32Var(&createMaxVersions, "max-versions", 0, "version limit (default limits.max_versions)")
	createCmd.Flags().Uint32Var(&createMaxBranches, "max-branches", 0, "branch limit (default limits.max_branches)")
}

func printHistory(w io.Writer, name string, history *sdv.Versions) {
	fmt.Fprintf(w, "%s %s\n", colors.SectionHeader("History:"), name)
	fmt.Fprintf(w, "  versions: %d of %d, branches: max %d\n",
		history.Len(), history.MaxVersions(), history.MaxBranches())

	root, ok := history.Root()
	if ok {
		fmt.Fprintf(w, "  root:     %s\n", colors.Root(root.String()))
	} else {
		fmt.Fprintf(w, "  root:     %s\n", colors.Gray("(none)"))
	}
	for _, orphan := range history.Orphans() {
		parent, _ := history.Parent(orphan)
		fmt.Fprintf(w, "  orphan:   %s waiting for %s\n", colors.Orphan(orphan.String()), parent)
	}

	for _, tip := range history.Get() {
		branch, err := history.GetBranch(tip)
		if err != nil {
			continue
		}
		names := make([]string, len(branch))
		for i, version := range branch {
			names[i] = version.String()
		}
		names[0] = colors.Tip(names[0])
		last := branch[len(branch)-1]
		if ok && last == root {
			names[len(names)-1] = colors.Root(names[len(names)-1])
		} else if slices.Contains(history.Orphans(), last) {
			names[len(names)-1] = colors.Orphan(names[len(names)-1])
		}
		fmt.Fprintf(w, "  branch:   %v\n", names)
	}
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}
