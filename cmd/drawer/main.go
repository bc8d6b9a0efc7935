package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"drawer-go/internal/app"
	"drawer-go/internal/config"
	"drawer-go/internal/encryption"
	"drawer-go/internal/model"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file named by the defaults.
func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cfg, nil
}

// newApp reads the config and creates a DrawerApp scoped to the selected
// owner. The caller must defer app.Close().
// operation names the command in the journal; args become its parameters.
func newApp(cmd *cobra.Command, operation string, args ...string) (*app.DrawerApp, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	// Commands that act on a forest report a missing owner themselves.
	flag, _ := cmd.Flags().GetString("owner")
	owner, _ := app.ResolveOwner(flag, cfg.DefaultOwner)

	prompt := encryption.TerminalPrompt(os.Stdin, os.Stderr)
	a, err := app.NewDrawerApp(cmd.Context(), cfg, owner, app.NewOperation(operation, args...), prompt)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "drawer",
	Short:        "Directory and file metadata for a multi-user store",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["owner"], defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Owner:    %s\n", cfg.DefaultOwner)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Owner:      %s\n", cfg.DefaultOwner)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("Database:   %s\n", cfg.Database.Type)
		vaultType := cfg.Vault.Type
		if vaultType == "" {
			vaultType = "(none)"
		}
		fmt.Printf("Vault:      %s\n", vaultType)
		fmt.Printf("Encryption: %s\n", cfg.Snapshot.Encryption)
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Check the snapshot vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "ValidateVault")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateVault(cmd.Context()); err != nil {
			return fmt.Errorf("vault check failed: %w", err)
		}
		fmt.Println("Vault is reachable and writable.")
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := app.Migrate(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Println("Database schema is up to date.")
		return nil
	},
}

// dir command
var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Manage directories",
}

var dirCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")

		a, err := newApp(cmd, "CreateDirectory", args[0], parent)
		if err != nil {
			return err
		}
		defer a.Close()

		dir, err := a.CreateDirectory(cmd.Context(), args[0], parent)
		if err != nil {
			return err
		}
		fmt.Println(dir.ID)
		return nil
	},
}

var dirRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a directory",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RenameDirectory", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.RenameDirectory(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		return nil
	},
}

var dirMoveCmd = &cobra.Command{
	Use:   "move ID",
	Short: "Move a directory under another, or to the top level without --parent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")

		a, err := newApp(cmd, "MoveDirectory", args[0], parent)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.MoveDirectory(cmd.Context(), args[0], parent); err != nil {
			return err
		}
		return nil
	},
}

var dirRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a directory with all its subdirectories and files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteDirectory", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.DeleteDirectory(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d director(ies) and %d file(s)\n", res.Directories, res.Files)
		return nil
	},
}

var dirLsCmd = &cobra.Command{
	Use:   "ls [ID]",
	Short: "List a directory, or the top level",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "List")
		if err != nil {
			return err
		}
		defer a.Close()

		id := ""
		if len(args) > 0 {
			id = args[0]
		}

		listing, err := a.List(cmd.Context(), id)
		if err != nil {
			return err
		}
		for dir, err := range listing.Directories {
			if err != nil {
				return err
			}
			fmt.Printf("d  %s  %s/\n", dir.ID, dir.Name)
		}
		printFiles(a, listing.Files)
		return nil
	},
}

var dirPathCmd = &cobra.Command{
	Use:   "path ID",
	Short: "Show the path from the top level to a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DirectoryPath")
		if err != nil {
			return err
		}
		defer a.Close()

		path, err := a.DirectoryPath(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, dir := range path {
			fmt.Printf("/%s", dir.Name)
		}
		fmt.Println()
		return nil
	},
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage file records",
}

var fileAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mimeType, _ := cmd.Flags().GetString("type")
		size, _ := cmd.Flags().GetInt64("size")
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(cmd, "AddFile", args[0], mimeType, strconv.FormatInt(size, 10), dir)
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := a.AddFile(cmd.Context(), args[0], mimeType, size, dir)
		if err != nil {
			return err
		}
		fmt.Println(f.ID)
		return nil
	},
}

var fileMvCmd = &cobra.Command{
	Use:   "mv ID",
	Short: "Move a file into a directory, or unfile it without --dir",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(cmd, "MoveFile", args[0], dir)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.MoveFile(cmd.Context(), args[0], dir); err != nil {
			return err
		}
		return nil
	},
}

var fileRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RenameFile", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.RenameFile(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		return nil
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a file record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "DeleteFile", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.DeleteFile(cmd.Context(), args[0])
	},
}

var fileLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List files in a directory, or unfiled files without --dir",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		a, err := newApp(cmd, "List")
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := a.List(cmd.Context(), dir)
		if err != nil {
			return err
		}
		if len(listing.Files) == 0 {
			fmt.Println("No files.")
			return nil
		}
		printFiles(a, listing.Files)
		return nil
	},
}

func printFiles(a *app.DrawerApp, files []*model.File) {
	for _, f := range files {
		fmt.Printf("f  %s  %-10s  %-24s  %s\n", f.ID, a.HumanSize(f), f.Type, f.Name)
	}
}

// import command
var importCmd = &cobra.Command{
	Use:   "import PATH",
	Short: "Record a local directory tree",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, _ := cmd.Flags().GetString("parent")

		a, err := newApp(cmd, "Import", args[0], parent)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Import(cmd.Context(), args[0], parent)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d director(ies) and %d file(s), skipped %d\n", res.Directories, res.Files, res.Skipped)
		fmt.Println(res.Root.ID)
		return nil
	},
}

// owner command
var ownerCmd = &cobra.Command{
	Use:   "owner",
	Short: "Manage owners",
}

var ownerRmCmd = &cobra.Command{
	Use:   "rm OWNER",
	Short: "Delete an owner with all their directories and files",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "RemoveOwner", args...)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.RemoveOwner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d director(ies) and %d file(s)\n", res.Directories, res.Files)
		return nil
	},
}

// snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Push and pull metadata snapshots",
}

var snapshotPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a sealed copy of the database to the vault",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "SnapshotPush")
		if err != nil {
			return err
		}
		defer a.Close()

		version, err := a.SnapshotPush(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Pushed snapshot version %d\n", version)
		return nil
	},
}

var snapshotPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download the latest snapshot and write the database to --out",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			return fmt.Errorf("--out is required")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		prompt := encryption.TerminalPrompt(os.Stdin, os.Stderr)
		version, err := app.PullSnapshot(cmd.Context(), cfg, prompt, out)
		if err != nil {
			return err
		}
		fmt.Printf("Wrote snapshot version %d to %s\n", version, out)
		return nil
	},
}

var snapshotKeygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate the X25519 key pair used to seal snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		prompt := encryption.TerminalPrompt(os.Stdin, os.Stderr)
		if err := app.GenerateSnapshotKeys(cfg.Snapshot, prompt); err != nil {
			return err
		}
		fmt.Printf("Recipient written to %s\n", cfg.Snapshot.RecipientsFile)
		fmt.Printf("Identity written to %s\n", cfg.Snapshot.IdentityFile)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View the operation journal",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "History")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.History(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt != nil {
				duration = op.FinishedAt.Sub(op.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-16s  %s  %-8s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("owner", "", "Owner to act as (default: DRAWER_OWNER or default_owner from config)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configVaultCmd)

	// dir subcommands
	dirCmd.AddCommand(dirCreateCmd, dirRenameCmd, dirMoveCmd, dirRmCmd, dirLsCmd, dirPathCmd)
	dirCreateCmd.Flags().String("parent", "", "Parent directory ID")
	dirMoveCmd.Flags().String("parent", "", "New parent directory ID")

	// file subcommands
	fileCmd.AddCommand(fileAddCmd, fileMvCmd, fileRenameCmd, fileRmCmd, fileLsCmd)
	fileAddCmd.Flags().String("type", "application/octet-stream", "MIME type")
	fileAddCmd.Flags().Int64("size", 0, "Size in bytes")
	fileAddCmd.Flags().String("dir", "", "Directory ID")
	fileMvCmd.Flags().String("dir", "", "Target directory ID")
	fileLsCmd.Flags().String("dir", "", "Directory ID")

	importCmd.Flags().String("parent", "", "Parent directory ID")

	ownerCmd.AddCommand(ownerRmCmd)

	snapshotCmd.AddCommand(snapshotPushCmd, snapshotPullCmd, snapshotKeygenCmd)
	snapshotPullCmd.Flags().String("out", "", "Path to write the restored database to")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dirCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(ownerCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}
