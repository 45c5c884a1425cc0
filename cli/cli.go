package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/colors"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/config"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/logging"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/store"
	"github.com/benjaminbollen/MaidSafe-Vault-Manager/internal/vault"
)

// accountKey pins the account a data directory was initialised for.
const accountKey = "account"

var rootCmd = &cobra.Command{
	Use:   "vault",
	Short: "Inspect and edit the version histories a vault stores",
	Long: `vault manages the structured data version histories held for one account.
Each object has a bounded history of versions; commands add versions, list
tips and branches, prune branches and move histories between vaults.`,
	SilenceUsage: true,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a data directory",
	Long:  "Writes a config with a fresh account id if none exists and creates the database.",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var (
	configPath string
	dataDir    string
	accountID  string
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", filepath.Join(".vault", "config.json"), "config file")
	rootCmd.PersistentFlags().StringVar(&dataDir, "dir", "", "data directory (overrides storage.dir)")
	rootCmd.PersistentFlags().StringVar(&accountID, "account", "", "account id (overrides account.id)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)

	// History commands
	rootCmd.AddCommand(createCmd, putCmd, commitCmd, tipsCmd, branchCmd, showCmd, pruneCmd, clearCmd, deleteCmd, objectsCmd, catCmd)

	// Transfer commands
	rootCmd.AddCommand(exportCmd, applyCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if accountID == "" && cfg.EnsureAccount() {
		fmt.Fprintf(cmd.OutOrStdout(), "Generated account %s\n", colors.InfoText(cfg.Account.ID))
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.SaveConfig(configPath, cfg); err != nil {
		return err
	}

	db, err := store.GetSharedDB(cfg.Storage.Dir, store.Options{Compress: cfg.Storage.Compress})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PinConfig(accountKey, cfg.Account.ID); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s vault in %s\n", colors.SuccessText("Initialized"), cfg.Storage.Dir)
	return nil
}

// loadConfig reads the config file and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.Storage.Dir = dataDir
	}
	if accountID != "" {
		cfg.Account.ID = accountID
	}
	return cfg, nil
}

// withVault opens the configured vault for the duration of fn.
func withVault(cmd *cobra.Command, fn func(ctx context.Context, v *vault.Vault) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Account.ID == "" {
		return errors.New("no account configured. Run: vault init")
	}

	db, err := store.GetSharedDB(cfg.Storage.Dir, store.Options{Compress: cfg.Storage.Compress})
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PinConfig(accountKey, cfg.Account.ID); err != nil {
		return err
	}

	v, err := vault.New(db, store.NewChunkStore(db.DB), vault.Options{
		Account:     cfg.Account.ID,
		MaxVersions: cfg.Limits.MaxVersions,
		MaxBranches: cfg.Limits.MaxBranches,
		CacheSize:   cfg.Cache.Size,
		Logger:      logging.NewWriter(cmd.ErrOrStderr(), logging.ParseLevel(cfg.Log.Level)),
	})
	if err != nil {
		return err
	}
	return fn(cmd.Context(), v)
}
